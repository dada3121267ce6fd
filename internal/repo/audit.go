package repo

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// AuditEvent registra mutações relevantes (sessão/pagamento criado, alterado,
// removido) sem PII: só ids, ação e campos alterados no metadata.
type AuditEvent struct {
	Action       string
	ActorID      *uuid.UUID
	ResourceType string
	ResourceID   *uuid.UUID
	RequestID    string
	Metadata     map[string]interface{}
}

func (st *Store) CreateAuditEvent(ctx context.Context, e AuditEvent) error {
	var meta []byte
	if e.Metadata != nil {
		meta, _ = json.Marshal(e.Metadata)
	}
	return st.DB.WithContext(ctx).Exec(`
		INSERT INTO audit_events (action, actor_id, resource_type, resource_id, request_id, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.Action, e.ActorID, e.ResourceType, e.ResourceID, e.RequestID, meta).Error
}
