package agenda

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
)

// Coordinator orquestra o par sessão+pagamento: criação avulsa e recorrente,
// edição com checagem de conflito, deleção em cascata e sincronização do cache
// de pagamentos. Sessão e pagamento NÃO são uma transação: se a sessão é criada
// e o pagamento falha, a sessão permanece (saga de dois passos, sem compensação).
type Coordinator struct {
	sessions SessionStore
	payments PaymentStore
	packages PackageStore
	fiscal   FiscalFlagStore
	cache    *PaymentCache
}

func NewCoordinator(sessions SessionStore, payments PaymentStore, packages PackageStore, fiscal FiscalFlagStore) *Coordinator {
	return &Coordinator{
		sessions: sessions,
		payments: payments,
		packages: packages,
		fiscal:   fiscal,
		cache:    NewPaymentCache(),
	}
}

const (
	PaymentModePackage = "package"
	PaymentModeFlat    = "flat"
)

// SessionInput é o payload validado do formulário de sessão.
type SessionInput struct {
	UserID           uuid.UUID
	PatientID        uuid.UUID
	Date             string
	Time             string
	DurationMinutes  int
	ConsultationType string
	Modality         string
	AttendanceType   string
	Notes            *string
	PaymentMode      string
	PackageID        *uuid.UUID
	FlatAmount       float64
}

// RecurrenceInput é a configuração de recorrência do formulário.
type RecurrenceInput struct {
	Frequency          Frequency
	Weekdays           []int
	QuantityPerWeekday int
	PerWeekdayTime     map[int]string
}

// CreateResult é o resultado de uma criação avulsa. Payment pode ser nil se a
// sessão foi criada mas o pagamento falhou (o erro acompanha).
type CreateResult struct {
	Session *Session
	Payment *Payment
}

// BatchResult agrega o resultado de um lote recorrente. O relatório é por
// contagem; as ocorrências que falharam não são desfeitas nem itemizadas.
type BatchResult struct {
	Requested int
	Created   int
}

// DeleteReport diz quantos pagamentos foram removidos junto com a sessão,
// para a UI distinguir "sessão e N pagamentos excluídos" de "sessão excluída".
type DeleteReport struct {
	PaymentsDeleted int
	PaymentsFailed  int
}

func (in *SessionInput) validate(requireTime bool) error {
	if in.PatientID == uuid.Nil {
		return invalidf("paciente é obrigatório")
	}
	if in.Date == "" {
		return invalidf("data é obrigatória")
	}
	if _, err := ParseLocalDate(in.Date); err != nil {
		return invalidf("data inválida: %q", in.Date)
	}
	if requireTime {
		if in.Time == "" {
			return invalidf("horário é obrigatório")
		}
		if _, _, ok := ParseClock(in.Time); !ok {
			return invalidf("horário inválido: %q", in.Time)
		}
	} else if in.Time != "" {
		if _, _, ok := ParseClock(in.Time); !ok {
			return invalidf("horário inválido: %q", in.Time)
		}
	}
	switch in.PaymentMode {
	case PaymentModePackage:
		if in.PackageID == nil || *in.PackageID == uuid.Nil {
			return invalidf("pacote é obrigatório quando a cobrança é por pacote")
		}
	case PaymentModeFlat:
		if in.FlatAmount <= 0 {
			return invalidf("valor da sessão deve ser maior que zero")
		}
	default:
		return invalidf("forma de cobrança inválida: %q", in.PaymentMode)
	}
	return nil
}

// resolveAmount calcula o valor do pagamento: preço atual do pacote ou valor
// avulso. O preço do pacote é lido no momento da criação; mudanças futuras no
// pacote não alteram pagamentos já criados.
func (c *Coordinator) resolveAmount(ctx context.Context, in *SessionInput) (float64, *uuid.UUID, error) {
	if in.PaymentMode == PaymentModePackage {
		pkg, err := c.packages.PackageByID(ctx, *in.PackageID)
		if err != nil {
			return 0, nil, &StoreError{Op: "buscar pacote", Err: err}
		}
		return pkg.Price, &pkg.ID, nil
	}
	return in.FlatAmount, nil, nil
}

func paymentDescription(date, consultationType string) string {
	if consultationType == "" {
		consultationType = "Sessão"
	}
	return fmt.Sprintf("%s - %s", consultationType, FormatDateBR(date))
}

func (c *Coordinator) buildSession(in *SessionInput, date, timeStr string) *Session {
	return &Session{
		UserID:           in.UserID,
		PatientID:        in.PatientID,
		Date:             date,
		Time:             timeStr,
		DurationMinutes:  in.DurationMinutes,
		ConsultationType: in.ConsultationType,
		Modality:         in.Modality,
		AttendanceType:   in.AttendanceType,
		Status:           SessionPending,
		Notes:            in.Notes,
	}
}

func (c *Coordinator) buildPayment(in *SessionInput, sessionID uuid.UUID, date string, amount float64, packageID *uuid.UUID) *Payment {
	desc := paymentDescription(date, in.ConsultationType)
	return &Payment{
		UserID:      in.UserID,
		PatientID:   in.PatientID,
		PackageID:   packageID,
		SessionID:   &sessionID,
		Date:        date,
		DueDate:     date, // vencimento = data da sessão, sem carência
		Amount:      amount,
		Status:      PaymentPending,
		Description: &desc,
	}
}

// CreateSingle cria uma sessão avulsa e o pagamento pareado.
// Em conflito de horário nada é criado: volta ConflictError com a sugestão de
// horário e o chamador decide. Se a sessão é criada e o pagamento falha, a
// sessão permanece e o erro é reportado junto do resultado parcial.
func (c *Coordinator) CreateSingle(ctx context.Context, in SessionInput) (*CreateResult, error) {
	if err := in.validate(true); err != nil {
		return nil, err
	}
	existing, err := c.sessions.ListSessionsByDate(ctx, in.UserID, in.Date)
	if err != nil {
		return nil, &StoreError{Op: "listar sessões do dia", Err: err}
	}
	if HasConflict(in.Date, in.Time, existing, nil) {
		return nil, conflictError(in.Date, in.Time)
	}
	amount, packageID, err := c.resolveAmount(ctx, &in)
	if err != nil {
		return nil, err
	}
	sess, err := c.sessions.CreateSession(ctx, c.buildSession(&in, in.Date, in.Time))
	if err != nil {
		return nil, err
	}
	pay, err := c.payments.CreatePayment(ctx, c.buildPayment(&in, sess.ID, in.Date, amount, packageID))
	if err != nil {
		log.Printf("[agenda] sessão %s criada, pagamento falhou: %v", sess.ID, err)
		return &CreateResult{Session: sess}, &StoreError{Op: "criar pagamento", Err: err}
	}
	c.cache.Add(sess.ID, *pay)
	return &CreateResult{Session: sess, Payment: pay}, nil
}

// CreateRecurring expande a recorrência e cria todos os pares sessão+pagamento
// concorrentemente (fan-out/fan-in). Só a primeira ocorrência passa pela
// pré-checagem de conflito; as demais dependem da recusa do banco, ocorrência
// a ocorrência. Ocorrências criadas antes de uma falha permanecem criadas.
func (c *Coordinator) CreateRecurring(ctx context.Context, in SessionInput, rec RecurrenceInput) (*BatchResult, error) {
	if err := in.validate(false); err != nil {
		return nil, err
	}
	occs, err := GenerateOccurrences(in.Date, rec.Frequency, rec.Weekdays, rec.QuantityPerWeekday, rec.PerWeekdayTime, in.Time)
	if err != nil {
		return nil, err
	}
	first := occs[0]
	existing, err := c.sessions.ListSessionsByDate(ctx, in.UserID, first.Date)
	if err != nil {
		return nil, &StoreError{Op: "listar sessões do dia", Err: err}
	}
	if HasConflict(first.Date, first.Time, existing, nil) {
		return nil, conflictError(first.Date, first.Time)
	}
	amount, packageID, err := c.resolveAmount(ctx, &in)
	if err != nil {
		return nil, err
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		errs    []error
	)
	for _, occ := range occs {
		wg.Add(1)
		go func(occ Occurrence) {
			defer wg.Done()
			sess, err := c.sessions.CreateSession(ctx, c.buildSession(&in, occ.Date, occ.Time))
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("sessão em %s %s: %w", occ.Date, occ.Time, err))
				mu.Unlock()
				return
			}
			pay, err := c.payments.CreatePayment(ctx, c.buildPayment(&in, sess.ID, occ.Date, amount, packageID))
			mu.Lock()
			defer mu.Unlock()
			created++
			if err != nil {
				errs = append(errs, fmt.Errorf("pagamento da sessão em %s: %w", occ.Date, err))
				return
			}
			c.cache.Add(sess.ID, *pay)
		}(occ)
	}
	wg.Wait()

	res := &BatchResult{Requested: len(occs), Created: created}
	if len(errs) > 0 {
		for _, e := range errs {
			log.Printf("[agenda] lote recorrente: %v", e)
		}
		return res, &BatchError{Requested: len(occs), Created: created, Errs: errs}
	}
	return res, nil
}

// UpdateSession aplica um patch na sessão. Se (date, time) muda e conflita com
// OUTRA sessão, volta ConflictError com sugestão, a menos que confirmOverride
// seja true — aí o horário original é mantido mesmo com conflito local (o banco
// ainda pode recusar). Transições de status fora da máquina são rejeitadas.
func (c *Coordinator) UpdateSession(ctx context.Context, id uuid.UUID, patch SessionPatch, confirmOverride bool) (*Session, error) {
	cur, err := c.sessions.SessionByID(ctx, id)
	if err != nil {
		return nil, &StoreError{Op: "buscar sessão", Err: err}
	}
	newDate, newTime := cur.Date, cur.Time
	if patch.Date != nil {
		if _, err := ParseLocalDate(*patch.Date); err != nil {
			return nil, invalidf("data inválida: %q", *patch.Date)
		}
		newDate = *patch.Date
	}
	if patch.Time != nil {
		if _, _, ok := ParseClock(*patch.Time); !ok {
			return nil, invalidf("horário inválido: %q", *patch.Time)
		}
		newTime = *patch.Time
	}
	if patch.Status != nil && !CanTransitionSession(cur.Status, *patch.Status) {
		return nil, invalidf("transição de status não permitida (%d → %d)", cur.Status, *patch.Status)
	}
	if (newDate != cur.Date || newTime != cur.Time) && !confirmOverride {
		existing, err := c.sessions.ListSessionsByDate(ctx, cur.UserID, newDate)
		if err != nil {
			return nil, &StoreError{Op: "listar sessões do dia", Err: err}
		}
		if HasConflict(newDate, newTime, existing, &id) {
			return nil, conflictError(newDate, newTime)
		}
	}
	return c.sessions.UpdateSession(ctx, id, patch)
}

// DeleteSession remove a sessão e, antes, todos os pagamentos dela. A cascata
// é best-effort: um pagamento que falha ao deletar é logado e a cascata segue;
// a deleção da sessão nunca é bloqueada por falha na limpeza de pagamentos.
func (c *Coordinator) DeleteSession(ctx context.Context, id uuid.UUID) (*DeleteReport, error) {
	payments, ok := c.cache.Get(id)
	if !ok {
		list, err := c.payments.ListPaymentsBySession(ctx, id)
		if err != nil {
			log.Printf("[agenda] listar pagamentos da sessão %s falhou, seguindo com a deleção: %v", id, err)
		} else {
			payments = list
		}
	}
	report := &DeleteReport{}
	for _, p := range payments {
		if err := c.payments.DeletePayment(ctx, p.ID); err != nil {
			report.PaymentsFailed++
			log.Printf("[agenda] deletar pagamento %s da sessão %s: %v", p.ID, id, err)
			continue
		}
		report.PaymentsDeleted++
	}
	if err := c.sessions.DeleteSession(ctx, id); err != nil {
		return report, &StoreError{Op: "deletar sessão", Err: err}
	}
	c.cache.Purge(id)
	return report, nil
}

// PaymentsForSession devolve os pagamentos da sessão, do cache quando já
// buscados. Duas chamadas concorrentes para a mesma sessão podem buscar duas
// vezes; a segunda apenas substitui a entrada inteira, nunca parte dela.
func (c *Coordinator) PaymentsForSession(ctx context.Context, sessionID uuid.UUID) ([]Payment, error) {
	if list, ok := c.cache.Get(sessionID); ok {
		return list, nil
	}
	list, err := c.payments.ListPaymentsBySession(ctx, sessionID)
	if err != nil {
		return nil, &StoreError{Op: "listar pagamentos", Err: err}
	}
	c.cache.Replace(sessionID, list)
	return list, nil
}

// UpdatePaymentStatus troca o status de um pagamento, sem efeitos em outras
// entidades além da entrada do cache da sessão correspondente.
func (c *Coordinator) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus) (*Payment, error) {
	cur, err := c.payments.PaymentByID(ctx, id)
	if err != nil {
		return nil, &StoreError{Op: "buscar pagamento", Err: err}
	}
	if !CanTransitionPayment(cur.Status, status) {
		return nil, invalidf("transição de status de pagamento não permitida (%d → %d)", cur.Status, status)
	}
	updated, err := c.payments.UpdatePaymentStatus(ctx, id, status)
	if err != nil {
		return nil, &StoreError{Op: "atualizar status do pagamento", Err: err}
	}
	if updated.SessionID != nil {
		c.cache.Update(*updated.SessionID, *updated)
	}
	return updated, nil
}

// UpdatePayment aplica um patch em um pagamento. Se o patch aponta um pacote,
// o valor é realinhado ao preço atual do pacote neste momento (e só neste).
func (c *Coordinator) UpdatePayment(ctx context.Context, id uuid.UUID, patch PaymentPatch) (*Payment, error) {
	if patch.PackageID != nil && *patch.PackageID != uuid.Nil {
		pkg, err := c.packages.PackageByID(ctx, *patch.PackageID)
		if err != nil {
			return nil, &StoreError{Op: "buscar pacote", Err: err}
		}
		patch.Amount = &pkg.Price
	} else if patch.Amount != nil && *patch.Amount <= 0 {
		return nil, invalidf("valor deve ser maior que zero")
	}
	updated, err := c.payments.UpdatePayment(ctx, id, patch)
	if err != nil {
		return nil, &StoreError{Op: "atualizar pagamento", Err: err}
	}
	if updated.SessionID != nil {
		c.cache.Update(*updated.SessionID, *updated)
	}
	return updated, nil
}

// DeletePayment remove um pagamento avulso e o tira do cache da sessão, se houver.
func (c *Coordinator) DeletePayment(ctx context.Context, id uuid.UUID) error {
	cur, err := c.payments.PaymentByID(ctx, id)
	if err != nil {
		return &StoreError{Op: "buscar pagamento", Err: err}
	}
	if err := c.payments.DeletePayment(ctx, id); err != nil {
		return &StoreError{Op: "deletar pagamento", Err: err}
	}
	if cur.SessionID != nil {
		c.cache.Remove(*cur.SessionID, id)
	}
	return nil
}

// SetFiscalIssued grava o flag "nota fiscal emitida" do pagamento.
func (c *Coordinator) SetFiscalIssued(ctx context.Context, paymentID uuid.UUID, issued bool) error {
	return c.fiscal.SetFiscalIssued(ctx, paymentID, issued)
}

// FiscalIssued lê o flag "nota fiscal emitida" do pagamento.
func (c *Coordinator) FiscalIssued(ctx context.Context, paymentID uuid.UUID) (bool, error) {
	return c.fiscal.FiscalIssued(ctx, paymentID)
}

// SettledTotal soma os pagamentos quitados. Paid e Confirmed contam juntos.
func SettledTotal(payments []Payment) float64 {
	var total float64
	for _, p := range payments {
		if IsSettled(p.Status) {
			total += p.Amount
		}
	}
	return total
}
