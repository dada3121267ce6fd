package agenda

import "github.com/google/uuid"

// SessionStatus é o status de uma sessão na agenda.
type SessionStatus int

const (
	SessionPending   SessionStatus = 0
	SessionConfirmed SessionStatus = 1
	SessionCompleted SessionStatus = 2
	SessionCancelled SessionStatus = 3
)

// CanTransitionSession reports whether a session may move from one status to another.
// Normal path Pending→Confirmed→Completed; Pending or Confirmed may be cancelled.
// Completed and Cancelled are terminal. Keeping the same status is always allowed.
func CanTransitionSession(from, to SessionStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case SessionPending:
		return to == SessionConfirmed || to == SessionCompleted || to == SessionCancelled
	case SessionConfirmed:
		return to == SessionCompleted || to == SessionCancelled
	}
	return false
}

// PaymentStatus é o status de um pagamento.
type PaymentStatus int

const (
	PaymentPending   PaymentStatus = 0
	PaymentPaid      PaymentStatus = 1
	PaymentConfirmed PaymentStatus = 2
	PaymentCancelled PaymentStatus = 3
)

// CanTransitionPayment: Pending pode ir para Paid, Confirmed ou Cancelled; os demais são terminais.
func CanTransitionPayment(from, to PaymentStatus) bool {
	if from == to {
		return true
	}
	return from == PaymentPending
}

// IsSettled reports whether a payment counts as received for financial totals.
// Paid and Confirmed are both settled; reports that group only Paid undercount.
func IsSettled(s PaymentStatus) bool {
	return s == PaymentPaid || s == PaymentConfirmed
}

// PaymentMethod é a forma de pagamento.
type PaymentMethod int

const (
	MethodPix    PaymentMethod = 1
	MethodCard   PaymentMethod = 2
	MethodBoleto PaymentMethod = 3
	MethodCash   PaymentMethod = 4
)

const (
	ModalityPresencial = "Presencial"
	ModalityOnline     = "Online"
)

const (
	AttendanceIndividual = "Individual"
	AttendanceCasal      = "Casal"
	AttendanceGrupo      = "Grupo"
	AttendanceFamilia    = "Família"
)

// Session é uma sessão agendada. Date é "YYYY-MM-DD" e Time é "HH:MM";
// data e horário são campos separados, como no banco (DATE e TIME).
type Session struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	PatientID        uuid.UUID
	Date             string
	Time             string
	DurationMinutes  int
	ConsultationType string
	Modality         string
	AttendanceType   string
	Status           SessionStatus
	Notes            *string
}

// Payment é um registro de cobrança, opcionalmente vinculado a uma sessão.
// Amount é em reais (unidades de moeda), não em centavos.
type Payment struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	PatientID    uuid.UUID
	PackageID    *uuid.UUID
	SessionID    *uuid.UUID
	Date         string
	DueDate      string
	Amount       float64
	Status       PaymentStatus
	Method       *PaymentMethod
	Description  *string
	ExternalTxID *string
}

// Package é um pacote de sessões com preço fixo, usado como fonte de valor do pagamento.
type Package struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Title  string
	Price  float64
	Active bool
}
