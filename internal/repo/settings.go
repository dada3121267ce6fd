package repo

import (
	"context"

	"github.com/google/uuid"
)

// Flag "nota fiscal emitida" por pagamento, persistido em payment_settings.
// É o antigo estado global de exibição, agora um store explícito (FiscalFlagStore).

func (st *Store) SetFiscalIssued(ctx context.Context, paymentID uuid.UUID, issued bool) error {
	return st.DB.WithContext(ctx).Exec(`
		INSERT INTO payment_settings (payment_id, fiscal_issued)
		VALUES (?, ?)
		ON CONFLICT (payment_id) DO UPDATE SET fiscal_issued = EXCLUDED.fiscal_issued, updated_at = now()
	`, paymentID, issued).Error
}

func (st *Store) FiscalIssued(ctx context.Context, paymentID uuid.UUID) (bool, error) {
	var issued bool
	err := st.DB.WithContext(ctx).Raw(`
		SELECT COALESCE((SELECT fiscal_issued FROM payment_settings WHERE payment_id = ?), false)
	`, paymentID).Scan(&issued).Error
	return issued, err
}
