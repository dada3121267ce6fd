package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/flaviolimadev/prontopsi-backend/internal/agenda"
	"github.com/flaviolimadev/prontopsi-backend/internal/auth"
	"github.com/flaviolimadev/prontopsi-backend/internal/cache"
	"github.com/flaviolimadev/prontopsi-backend/internal/config"
	"github.com/flaviolimadev/prontopsi-backend/internal/crypto"
	"github.com/flaviolimadev/prontopsi-backend/internal/middleware"
	"github.com/flaviolimadev/prontopsi-backend/internal/repo"
)

// Handler agrupa as dependências dos endpoints HTTP. Os envios de e-mail são
// injetáveis via Set* para os testes não dependerem de SMTP.
type Handler struct {
	DB    *gorm.DB
	Cfg   *config.Config
	Cache *cache.TTL
	Store *repo.Store
	Coord *agenda.Coordinator
	Keys  crypto.Keyring

	sendRegistrationEmail func(to, fullName, registerURL string) error
}

func (h *Handler) SetSendRegistrationEmail(fn func(to, fullName, registerURL string) error) {
	h.sendRegistrationEmail = fn
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// currentUserID lê o id do profissional autenticado dos claims. Retorna
// uuid.Nil (e responde 401) quando não há claims válidos.
func currentUserID(w http.ResponseWriter, r *http.Request) uuid.UUID {
	id, err := uuid.Parse(auth.UserIDFrom(r.Context()))
	if err != nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return uuid.Nil
	}
	return id
}

// writeAgendaError traduz os erros do domínio para HTTP: conflito de horário
// vira 409 com a sugestão, validação vira 400, não-encontrado vira 404.
func writeAgendaError(w http.ResponseWriter, err error) {
	var conflict *agenda.ConflictError
	if errors.As(err, &conflict) {
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":          "horário já ocupado",
			"date":           conflict.Date,
			"time":           conflict.Time,
			"suggested_time": conflict.SuggestedTime,
		})
		return
	}
	if errors.Is(err, agenda.ErrInvalidArgument) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": err.Error()})
		return
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	log.Printf("[api] erro interno: %v", err)
	http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
}

// audit grava o evento em background; falha de auditoria não afeta a resposta.
func (h *Handler) audit(r *http.Request, action, resourceType string, resourceID uuid.UUID, meta map[string]interface{}) {
	if h.Store == nil || h.Store.DB == nil {
		return
	}
	var actor *uuid.UUID
	if id, err := uuid.Parse(auth.UserIDFrom(r.Context())); err == nil {
		actor = &id
	}
	var res *uuid.UUID
	if resourceID != uuid.Nil {
		res = &resourceID
	}
	e := repo.AuditEvent{
		Action:       action,
		ActorID:      actor,
		ResourceType: resourceType,
		ResourceID:   res,
		RequestID:    middleware.RequestIDFromContext(r.Context()),
		Metadata:     meta,
	}
	go func() {
		if err := h.Store.CreateAuditEvent(context.Background(), e); err != nil {
			log.Printf("[audit] falha ao gravar %s %s: %v", action, resourceType, err)
		}
	}()
}

func parseUUIDVar(w http.ResponseWriter, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		http.Error(w, `{"error":"invalid id"}`, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}
