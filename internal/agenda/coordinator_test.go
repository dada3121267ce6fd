package agenda

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
)

type mockSessionStore struct {
	mu          sync.Mutex
	sessions    map[uuid.UUID]Session
	createCalls int
	failSlots   map[string]error // "date time" → erro na criação
	deleteErr   error
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: make(map[uuid.UUID]Session), failSlots: make(map[string]error)}
}

func (m *mockSessionStore) CreateSession(ctx context.Context, s *Session) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if err, ok := m.failSlots[s.Date+" "+s.Time]; ok {
		return nil, err
	}
	out := *s
	out.ID = uuid.New()
	m.sessions[out.ID] = out
	return &out, nil
}

func (m *mockSessionStore) SessionByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &s, nil
}

func (m *mockSessionStore) UpdateSession(ctx context.Context, id uuid.UUID, patch SessionPatch) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, errors.New("not found")
	}
	if patch.Date != nil {
		s.Date = *patch.Date
	}
	if patch.Time != nil {
		s.Time = *patch.Time
	}
	if patch.Status != nil {
		s.Status = *patch.Status
	}
	if patch.Notes != nil {
		s.Notes = patch.Notes
	}
	m.sessions[id] = s
	return &s, nil
}

func (m *mockSessionStore) DeleteSession(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.sessions, id)
	return nil
}

func (m *mockSessionStore) ListSessionsByDate(ctx context.Context, userID uuid.UUID, date string) ([]Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Session
	for _, s := range m.sessions {
		if s.Date == date {
			out = append(out, s)
		}
	}
	return out, nil
}

type mockPaymentStore struct {
	mu          sync.Mutex
	payments    map[uuid.UUID]Payment
	createCalls int
	deleteCalls int
	deleteErrs  map[uuid.UUID]error
	listCalls   int
}

func newMockPaymentStore() *mockPaymentStore {
	return &mockPaymentStore{payments: make(map[uuid.UUID]Payment), deleteErrs: make(map[uuid.UUID]error)}
}

func (m *mockPaymentStore) CreatePayment(ctx context.Context, p *Payment) (*Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	out := *p
	out.ID = uuid.New()
	m.payments[out.ID] = out
	return &out, nil
}

func (m *mockPaymentStore) PaymentByID(ctx context.Context, id uuid.UUID) (*Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &p, nil
}

func (m *mockPaymentStore) UpdatePayment(ctx context.Context, id uuid.UUID, patch PaymentPatch) (*Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, errors.New("not found")
	}
	if patch.Amount != nil {
		p.Amount = *patch.Amount
	}
	if patch.PackageID != nil {
		p.PackageID = patch.PackageID
	}
	if patch.Method != nil {
		p.Method = patch.Method
	}
	m.payments[id] = p
	return &p, nil
}

func (m *mockPaymentStore) DeletePayment(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++
	if err, ok := m.deleteErrs[id]; ok {
		return err
	}
	delete(m.payments, id)
	return nil
}

func (m *mockPaymentStore) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus) (*Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, errors.New("not found")
	}
	p.Status = status
	m.payments[id] = p
	return &p, nil
}

func (m *mockPaymentStore) ListPaymentsBySession(ctx context.Context, sessionID uuid.UUID) ([]Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	var out []Payment
	for _, p := range m.payments {
		if p.SessionID != nil && *p.SessionID == sessionID {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockPackageStore struct {
	packages map[uuid.UUID]Package
}

func (m *mockPackageStore) PackageByID(ctx context.Context, id uuid.UUID) (*Package, error) {
	p, ok := m.packages[id]
	if !ok {
		return nil, errors.New("package not found")
	}
	return &p, nil
}

type mockFiscalStore struct {
	mu    sync.Mutex
	flags map[uuid.UUID]bool
}

func (m *mockFiscalStore) SetFiscalIssued(ctx context.Context, paymentID uuid.UUID, issued bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.flags == nil {
		m.flags = make(map[uuid.UUID]bool)
	}
	m.flags[paymentID] = issued
	return nil
}

func (m *mockFiscalStore) FiscalIssued(ctx context.Context, paymentID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flags[paymentID], nil
}

func newTestCoordinator() (*Coordinator, *mockSessionStore, *mockPaymentStore, *mockPackageStore) {
	ss := newMockSessionStore()
	ps := newMockPaymentStore()
	pk := &mockPackageStore{packages: make(map[uuid.UUID]Package)}
	return NewCoordinator(ss, ps, pk, &mockFiscalStore{}), ss, ps, pk
}

func validInput() SessionInput {
	return SessionInput{
		UserID:           uuid.New(),
		PatientID:        uuid.New(),
		Date:             "2024-02-05",
		Time:             "14:00",
		DurationMinutes:  50,
		ConsultationType: "Psicoterapia",
		Modality:         ModalityPresencial,
		AttendanceType:   AttendanceIndividual,
		PaymentMode:      PaymentModeFlat,
		FlatAmount:       150,
	}
}

func TestCreateSingleCreatesSessionAndPayment(t *testing.T) {
	c, _, ps, _ := newTestCoordinator()
	res, err := c.CreateSingle(context.Background(), validInput())
	if err != nil {
		t.Fatalf("CreateSingle: %v", err)
	}
	if res.Session == nil || res.Payment == nil {
		t.Fatal("expected session and payment")
	}
	if res.Payment.Amount != 150 {
		t.Errorf("amount = %v, want 150", res.Payment.Amount)
	}
	if res.Payment.SessionID == nil || *res.Payment.SessionID != res.Session.ID {
		t.Error("payment must reference the created session")
	}
	if res.Payment.DueDate != res.Session.Date {
		t.Errorf("dueDate %q must equal session date %q", res.Payment.DueDate, res.Session.Date)
	}
	if res.Payment.Description == nil || *res.Payment.Description != "Psicoterapia - 05/02/2024" {
		t.Errorf("unexpected description: %v", res.Payment.Description)
	}
	if ps.createCalls != 1 {
		t.Errorf("payment create calls = %d, want 1", ps.createCalls)
	}
}

// Cenário B: slot ocupado → aborta com sugestão de 15:00 e NENHUMA chamada de criação.
func TestCreateSingleConflictAbortsWithSuggestion(t *testing.T) {
	c, ss, ps, _ := newTestCoordinator()
	in := validInput()
	occupied := Session{ID: uuid.New(), UserID: in.UserID, Date: "2024-02-05", Time: "14:00"}
	ss.sessions[occupied.ID] = occupied
	createsBefore := ss.createCalls

	_, err := c.CreateSingle(context.Background(), in)
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if ce.SuggestedTime != "15:00" {
		t.Errorf("suggested time = %q, want 15:00", ce.SuggestedTime)
	}
	if !errors.Is(err, ErrConflict) {
		t.Error("ConflictError must satisfy errors.Is(err, ErrConflict)")
	}
	if ss.createCalls != createsBefore || ps.createCalls != 0 {
		t.Error("no create call may happen on a client-side conflict")
	}
}

// Cenário C: modo pacote usa o preço atual do pacote e ignora FlatAmount residual.
func TestCreateSinglePackagePricing(t *testing.T) {
	c, _, _, pk := newTestCoordinator()
	pkgID := uuid.New()
	pk.packages[pkgID] = Package{ID: pkgID, Title: "Mensal", Price: 200, Active: true}

	in := validInput()
	in.PaymentMode = PaymentModePackage
	in.PackageID = &pkgID
	in.FlatAmount = 999 // sobra do formulário; não pode vazar

	res, err := c.CreateSingle(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateSingle: %v", err)
	}
	if res.Payment.Amount != 200 {
		t.Errorf("amount = %v, want package price 200", res.Payment.Amount)
	}
	if res.Payment.PackageID == nil || *res.Payment.PackageID != pkgID {
		t.Error("payment must carry the package id")
	}
}

func TestCreateSingleValidation(t *testing.T) {
	c, ss, ps, _ := newTestCoordinator()
	cases := []func(*SessionInput){
		func(in *SessionInput) { in.PatientID = uuid.Nil },
		func(in *SessionInput) { in.Date = "" },
		func(in *SessionInput) { in.Time = "" },
		func(in *SessionInput) { in.FlatAmount = 0 },
		func(in *SessionInput) { in.PaymentMode = PaymentModePackage; in.PackageID = nil },
		func(in *SessionInput) { in.PaymentMode = "subscription" },
	}
	for i, mutate := range cases {
		in := validInput()
		mutate(&in)
		if _, err := c.CreateSingle(context.Background(), in); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("case %d: err = %v, want ErrInvalidArgument", i, err)
		}
	}
	if ss.createCalls != 0 || ps.createCalls != 0 {
		t.Error("validation failures must not reach the stores")
	}
}

func TestCreateRecurringBatch(t *testing.T) {
	c, ss, ps, _ := newTestCoordinator()
	in := validInput()
	in.Date = "2024-01-01"
	in.Time = "09:00"
	res, err := c.CreateRecurring(context.Background(), in, RecurrenceInput{
		Frequency:          FreqWeekly,
		Weekdays:           []int{1, 3},
		QuantityPerWeekday: 2,
	})
	if err != nil {
		t.Fatalf("CreateRecurring: %v", err)
	}
	if res.Requested != 4 || res.Created != 4 {
		t.Fatalf("requested=%d created=%d, want 4/4", res.Requested, res.Created)
	}
	if ss.createCalls != 4 || ps.createCalls != 4 {
		t.Errorf("store calls sessions=%d payments=%d, want 4/4", ss.createCalls, ps.createCalls)
	}
}

// Cenário E: uma ocorrência do lote é recusada pelo banco → as outras 9 ficam,
// o agregado reporta 9 criadas e o erro sobe como falha parcial, sem rollback.
func TestCreateRecurringPartialFailure(t *testing.T) {
	c, ss, _, _ := newTestCoordinator()
	in := validInput()
	in.Date = "2024-01-01"
	in.Time = "09:00"
	// 10 ocorrências: seg e qua, 5 por dia; a quarta (29/01) falha no "banco"
	ss.failSlots["2024-01-29 09:00"] = fmt.Errorf("%w: horário recusado", ErrConflict)

	res, err := c.CreateRecurring(context.Background(), in, RecurrenceInput{
		Frequency:          FreqWeekly,
		Weekdays:           []int{1, 3},
		QuantityPerWeekday: 5,
	})
	var be *BatchError
	if !errors.As(err, &be) {
		t.Fatalf("expected BatchError, got %v", err)
	}
	if res.Created != 9 || res.Requested != 10 {
		t.Fatalf("created=%d requested=%d, want 9/10", res.Created, res.Requested)
	}
	if len(ss.sessions) != 9 {
		t.Errorf("9 sessions must remain, got %d (no rollback)", len(ss.sessions))
	}
	if len(be.Errs) != 1 {
		t.Errorf("expected 1 collected error, got %d", len(be.Errs))
	}
}

func TestCreateRecurringPreChecksFirstOccurrenceOnly(t *testing.T) {
	c, ss, ps, _ := newTestCoordinator()
	in := validInput()
	in.Date = "2024-01-01"
	in.Time = "09:00"
	// conflito no PRIMEIRO slot do lote → nada é criado
	occupied := Session{ID: uuid.New(), UserID: in.UserID, Date: "2024-01-01", Time: "09:00"}
	ss.sessions[occupied.ID] = occupied

	_, err := c.CreateRecurring(context.Background(), in, RecurrenceInput{
		Frequency: FreqWeekly, Weekdays: []int{1}, QuantityPerWeekday: 3,
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict on first occurrence, got %v", err)
	}
	if ps.createCalls != 0 {
		t.Error("no payment may be created when the anchor slot conflicts")
	}

	// conflito só em ocorrência POSTERIOR não é pré-checado no cliente
	delete(ss.sessions, occupied.ID)
	later := Session{ID: uuid.New(), UserID: in.UserID, Date: "2024-01-08", Time: "09:00"}
	ss.sessions[later.ID] = later
	res, err := c.CreateRecurring(context.Background(), in, RecurrenceInput{
		Frequency: FreqWeekly, Weekdays: []int{1}, QuantityPerWeekday: 3,
	})
	if err != nil {
		t.Fatalf("later-occurrence conflicts are the backend's problem, got %v", err)
	}
	if res.Created != 3 {
		t.Errorf("created = %d, want 3", res.Created)
	}
}

func TestUpdateSessionConflictFlow(t *testing.T) {
	c, ss, _, _ := newTestCoordinator()
	in := validInput()
	res, err := c.CreateSingle(context.Background(), in)
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}
	other := Session{ID: uuid.New(), UserID: in.UserID, Date: "2024-02-05", Time: "16:00"}
	ss.sessions[other.ID] = other

	// manter o próprio horário nunca conflita consigo mesma
	sameTime := "14:00"
	if _, err := c.UpdateSession(context.Background(), res.Session.ID, SessionPatch{Time: &sameTime}, false); err != nil {
		t.Fatalf("keeping own slot must not conflict: %v", err)
	}

	// mover para cima de outra sessão sem confirmar → ConflictError com sugestão
	taken := "16:00"
	_, err = c.UpdateSession(context.Background(), res.Session.ID, SessionPatch{Time: &taken}, false)
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if ce.SuggestedTime != "17:00" {
		t.Errorf("suggested = %q, want 17:00", ce.SuggestedTime)
	}

	// com confirmação explícita o horário original é mantido
	updated, err := c.UpdateSession(context.Background(), res.Session.ID, SessionPatch{Time: &taken}, true)
	if err != nil {
		t.Fatalf("confirmed override: %v", err)
	}
	if updated.Time != "16:00" {
		t.Errorf("time = %q, want 16:00", updated.Time)
	}
}

func TestUpdateSessionStatusMachine(t *testing.T) {
	c, _, _, _ := newTestCoordinator()
	res, err := c.CreateSingle(context.Background(), validInput())
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}
	confirmed := SessionConfirmed
	if _, err := c.UpdateSession(context.Background(), res.Session.ID, SessionPatch{Status: &confirmed}, false); err != nil {
		t.Fatalf("Pending→Confirmed: %v", err)
	}
	completed := SessionCompleted
	if _, err := c.UpdateSession(context.Background(), res.Session.ID, SessionPatch{Status: &completed}, false); err != nil {
		t.Fatalf("Confirmed→Completed: %v", err)
	}
	cancelled := SessionCancelled
	if _, err := c.UpdateSession(context.Background(), res.Session.ID, SessionPatch{Status: &cancelled}, false); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Completed is terminal, got %v", err)
	}
}

// Propriedade 7 + Cenário D: cascata best-effort e purge do cache.
func TestDeleteSessionCascade(t *testing.T) {
	c, _, ps, _ := newTestCoordinator()
	res, err := c.CreateSingle(context.Background(), validInput())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	sid := res.Session.ID
	// segundo pagamento na mesma sessão (double-submit transitório)
	extra, err := ps.CreatePayment(context.Background(), &Payment{SessionID: &sid, Amount: 10})
	if err != nil {
		t.Fatalf("extra payment: %v", err)
	}
	// popula o cache via leitura lazy
	if _, err := c.PaymentsForSession(context.Background(), sid); err != nil {
		t.Fatalf("warm cache: %v", err)
	}
	// um dos deletes falha (erro de rede simulado)
	ps.deleteErrs[extra.ID] = errors.New("network down")

	report, err := c.DeleteSession(context.Background(), sid)
	if err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if report.PaymentsDeleted != 1 || report.PaymentsFailed != 1 {
		t.Errorf("report = %+v, want 1 deleted / 1 failed", report)
	}
	if ps.deleteCalls != 2 {
		t.Errorf("delete calls = %d, want 2 (cascade continues past failures)", ps.deleteCalls)
	}
	if _, ok := c.cache.Get(sid); ok {
		t.Error("cache entry must be purged after session delete")
	}
}

func TestDeleteSessionWithoutPayments(t *testing.T) {
	c, ss, ps, _ := newTestCoordinator()
	s := Session{ID: uuid.New(), Date: "2024-03-01", Time: "10:00"}
	ss.sessions[s.ID] = s
	report, err := c.DeleteSession(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if report.PaymentsDeleted != 0 || ps.deleteCalls != 0 {
		t.Errorf("no payment-delete calls expected, got report=%+v calls=%d", report, ps.deleteCalls)
	}
	if len(ss.sessions) != 0 {
		t.Error("session itself must still be deleted")
	}
}

func TestPaymentsForSessionLazyCache(t *testing.T) {
	c, _, ps, _ := newTestCoordinator()
	sid := uuid.New()
	if _, err := ps.CreatePayment(context.Background(), &Payment{SessionID: &sid, Amount: 80}); err != nil {
		t.Fatalf("seed payment: %v", err)
	}
	if _, err := c.PaymentsForSession(context.Background(), sid); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if _, err := c.PaymentsForSession(context.Background(), sid); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if ps.listCalls != 1 {
		t.Errorf("list calls = %d, want 1 (second read served from cache)", ps.listCalls)
	}
}

func TestUpdatePaymentStatusTransitions(t *testing.T) {
	c, _, ps, _ := newTestCoordinator()
	sid := uuid.New()
	p, err := ps.CreatePayment(context.Background(), &Payment{SessionID: &sid, Status: PaymentPending, Amount: 90})
	if err != nil {
		t.Fatalf("seed payment: %v", err)
	}
	if _, err := c.UpdatePaymentStatus(context.Background(), p.ID, PaymentPaid); err != nil {
		t.Fatalf("Pending→Paid: %v", err)
	}
	if _, err := c.UpdatePaymentStatus(context.Background(), p.ID, PaymentCancelled); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Paid is terminal, got %v", err)
	}
}

func TestSettledTotalGroupsPaidAndConfirmed(t *testing.T) {
	payments := []Payment{
		{Amount: 100, Status: PaymentPaid},
		{Amount: 50, Status: PaymentConfirmed},
		{Amount: 70, Status: PaymentPending},
		{Amount: 30, Status: PaymentCancelled},
	}
	if got := SettledTotal(payments); got != 150 {
		t.Fatalf("SettledTotal = %v, want 150 (Paid+Confirmed)", got)
	}
}

func TestFiscalFlagRoundTrip(t *testing.T) {
	c, _, _, _ := newTestCoordinator()
	id := uuid.New()
	issued, err := c.FiscalIssued(context.Background(), id)
	if err != nil || issued {
		t.Fatalf("default flag should be false, got %v err=%v", issued, err)
	}
	if err := c.SetFiscalIssued(context.Background(), id, true); err != nil {
		t.Fatalf("SetFiscalIssued: %v", err)
	}
	issued, err = c.FiscalIssued(context.Background(), id)
	if err != nil || !issued {
		t.Fatalf("flag should persist, got %v err=%v", issued, err)
	}
}
