package agenda

import (
	"context"

	"github.com/google/uuid"
)

// SessionPatch são os campos alteráveis de uma sessão; nil = não alterar.
type SessionPatch struct {
	Date             *string
	Time             *string
	DurationMinutes  *int
	ConsultationType *string
	Modality         *string
	AttendanceType   *string
	Status           *SessionStatus
	Notes            *string
}

// PaymentPatch são os campos alteráveis de um pagamento; nil = não alterar.
type PaymentPatch struct {
	PackageID   *uuid.UUID
	Date        *string
	DueDate     *string
	Amount      *float64
	Method      *PaymentMethod
	Description *string
}

// SessionStore é o contrato de persistência de sessões. A checagem autoritativa
// de unicidade de (date, time) é do store: CreateSession e UpdateSession devolvem
// um erro que satisfaz errors.Is(err, ErrConflict) quando o banco recusa o horário.
type SessionStore interface {
	CreateSession(ctx context.Context, s *Session) (*Session, error)
	SessionByID(ctx context.Context, id uuid.UUID) (*Session, error)
	UpdateSession(ctx context.Context, id uuid.UUID, patch SessionPatch) (*Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
	ListSessionsByDate(ctx context.Context, userID uuid.UUID, date string) ([]Session, error)
}

// PaymentStore é o contrato de persistência de pagamentos.
type PaymentStore interface {
	CreatePayment(ctx context.Context, p *Payment) (*Payment, error)
	PaymentByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	UpdatePayment(ctx context.Context, id uuid.UUID, patch PaymentPatch) (*Payment, error)
	DeletePayment(ctx context.Context, id uuid.UUID) error
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus) (*Payment, error)
	ListPaymentsBySession(ctx context.Context, sessionID uuid.UUID) ([]Payment, error)
}

// PackageStore fornece consulta de pacotes; o coordenador só lê, nunca altera.
type PackageStore interface {
	PackageByID(ctx context.Context, id uuid.UUID) (*Package, error)
}

// FiscalFlagStore persiste o flag "nota fiscal emitida" por pagamento.
// É um store explícito injetado no coordenador, não estado global.
type FiscalFlagStore interface {
	SetFiscalIssued(ctx context.Context, paymentID uuid.UUID, issued bool) error
	FiscalIssued(ctx context.Context, paymentID uuid.UUID) (bool, error)
}
