package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/flaviolimadev/prontopsi-backend/internal/agenda"
)

type paymentRow struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	PatientID    uuid.UUID
	PackageID    *uuid.UUID
	SessionID    *uuid.UUID
	Date         string
	DueDate      string
	Amount       float64
	Status       int
	Method       *int
	Description  *string
	ExternalTxID *string
}

func (r *paymentRow) toDomain() agenda.Payment {
	var method *agenda.PaymentMethod
	if r.Method != nil {
		m := agenda.PaymentMethod(*r.Method)
		method = &m
	}
	return agenda.Payment{
		ID:           r.ID,
		UserID:       r.UserID,
		PatientID:    r.PatientID,
		PackageID:    r.PackageID,
		SessionID:    r.SessionID,
		Date:         r.Date,
		DueDate:      r.DueDate,
		Amount:       r.Amount,
		Status:       agenda.PaymentStatus(r.Status),
		Method:       method,
		Description:  r.Description,
		ExternalTxID: r.ExternalTxID,
	}
}

const paymentSelect = `
	SELECT id, user_id, patient_id, package_id, session_id,
	       to_char(payment_date, 'YYYY-MM-DD') AS date,
	       to_char(due_date, 'YYYY-MM-DD') AS due_date,
	       amount, status, method, description, external_tx_id
	FROM payments
`

func (st *Store) CreatePayment(ctx context.Context, p *agenda.Payment) (*agenda.Payment, error) {
	var method *int
	if p.Method != nil {
		m := int(*p.Method)
		method = &m
	}
	var res struct{ ID uuid.UUID }
	err := st.DB.WithContext(ctx).Raw(`
		INSERT INTO payments (user_id, patient_id, package_id, session_id, payment_date, due_date,
		                      amount, status, method, description, external_tx_id)
		VALUES (?, ?, ?, ?, ?::date, ?::date, ?, ?, ?, ?, ?) RETURNING id
	`, p.UserID, p.PatientID, p.PackageID, p.SessionID, p.Date, p.DueDate,
		p.Amount, int(p.Status), method, p.Description, p.ExternalTxID).Scan(&res).Error
	if err != nil {
		return nil, err
	}
	out := *p
	out.ID = res.ID
	return &out, nil
}

func (st *Store) PaymentByID(ctx context.Context, id uuid.UUID) (*agenda.Payment, error) {
	var row paymentRow
	err := st.DB.WithContext(ctx).Raw(paymentSelect+` WHERE id = ?`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	p := row.toDomain()
	return &p, nil
}

func (st *Store) UpdatePayment(ctx context.Context, id uuid.UUID, patch agenda.PaymentPatch) (*agenda.Payment, error) {
	updates := map[string]interface{}{"updated_at": gorm.Expr("now()")}
	if patch.PackageID != nil {
		updates["package_id"] = *patch.PackageID
	}
	if patch.Date != nil {
		updates["payment_date"] = gorm.Expr("?::date", *patch.Date)
	}
	if patch.DueDate != nil {
		updates["due_date"] = gorm.Expr("?::date", *patch.DueDate)
	}
	if patch.Amount != nil {
		updates["amount"] = *patch.Amount
	}
	if patch.Method != nil {
		updates["method"] = int(*patch.Method)
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	result := st.DB.WithContext(ctx).Table("payments").Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return st.PaymentByID(ctx, id)
}

func (st *Store) DeletePayment(ctx context.Context, id uuid.UUID) error {
	result := st.DB.WithContext(ctx).Exec(`DELETE FROM payments WHERE id = ?`, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (st *Store) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status agenda.PaymentStatus) (*agenda.Payment, error) {
	result := st.DB.WithContext(ctx).Exec(`
		UPDATE payments SET status = ?, updated_at = now() WHERE id = ?
	`, int(status), id)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return st.PaymentByID(ctx, id)
}

func (st *Store) ListPaymentsBySession(ctx context.Context, sessionID uuid.UUID) ([]agenda.Payment, error) {
	var rows []paymentRow
	err := st.DB.WithContext(ctx).Raw(paymentSelect+` WHERE session_id = ? ORDER BY created_at`, sessionID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]agenda.Payment, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

// ListPaymentsByRange lista pagamentos do profissional no intervalo [from, to]
// por data de vencimento, para o resumo financeiro.
func (st *Store) ListPaymentsByRange(ctx context.Context, userID uuid.UUID, from, to string) ([]agenda.Payment, error) {
	var rows []paymentRow
	err := st.DB.WithContext(ctx).Raw(paymentSelect+`
		WHERE user_id = ? AND due_date >= ?::date AND due_date <= ?::date
		ORDER BY due_date, created_at
	`, userID, from, to).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]agenda.Payment, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}
