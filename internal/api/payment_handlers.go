package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/flaviolimadev/prontopsi-backend/internal/agenda"
	"github.com/flaviolimadev/prontopsi-backend/internal/money"
)

type paymentPayload struct {
	ID          string  `json:"id"`
	PatientID   string  `json:"patient_id"`
	PackageID   *string `json:"package_id,omitempty"`
	SessionID   *string `json:"session_id,omitempty"`
	Date        string  `json:"date"`
	DueDate     string  `json:"due_date"`
	Amount      float64 `json:"amount"`
	AmountBRL   string  `json:"amount_brl"`
	Status      int     `json:"status"`
	Method      *int    `json:"method,omitempty"`
	Description *string `json:"description,omitempty"`
}

func paymentToPayload(p *agenda.Payment) paymentPayload {
	out := paymentPayload{
		ID:          p.ID.String(),
		PatientID:   p.PatientID.String(),
		Date:        p.Date,
		DueDate:     p.DueDate,
		Amount:      p.Amount,
		AmountBRL:   money.FormatBRL(p.Amount),
		Status:      int(p.Status),
		Description: p.Description,
	}
	if p.PackageID != nil {
		s := p.PackageID.String()
		out.PackageID = &s
	}
	if p.SessionID != nil {
		s := p.SessionID.String()
		out.SessionID = &s
	}
	if p.Method != nil {
		m := int(*p.Method)
		out.Method = &m
	}
	return out
}

// ListSessionPayments lista os pagamentos de uma sessão (via cache do coordenador).
func (h *Handler) ListSessionPayments(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(w, r)
	if userID == uuid.Nil {
		return
	}
	sessionID, ok := parseUUIDVar(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	if !h.ownsSession(w, r, sessionID, userID) {
		return
	}
	list, err := h.Coord.PaymentsForSession(r.Context(), sessionID)
	if err != nil {
		writeAgendaError(w, err)
		return
	}
	out := make([]paymentPayload, len(list))
	for i := range list {
		out[i] = paymentToPayload(&list[i])
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"payments":      out,
		"settled_total": agenda.SettledTotal(list),
	})
}

type createPaymentRequest struct {
	PatientID   string  `json:"patient_id"`
	SessionID   *string `json:"session_id"`
	PackageID   *string `json:"package_id"`
	Date        string  `json:"date"`
	DueDate     string  `json:"due_date"`
	Amount      string  `json:"amount"`
	Method      *int    `json:"method"`
	Description *string `json:"description"`
}

// CreatePayment registra um pagamento manual (avulso ou vinculado a uma sessão).
// O valor segue a convenção do formulário: dígitos são centavos.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(w, r)
	if userID == uuid.Nil {
		return
	}
	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		http.Error(w, `{"error":"invalid patient_id"}`, http.StatusBadRequest)
		return
	}
	if _, err := agenda.ParseLocalDate(req.Date); err != nil {
		http.Error(w, `{"error":"invalid date"}`, http.StatusBadRequest)
		return
	}
	dueDate := req.DueDate
	if dueDate == "" {
		dueDate = req.Date
	} else if _, err := agenda.ParseLocalDate(dueDate); err != nil {
		http.Error(w, `{"error":"invalid due_date"}`, http.StatusBadRequest)
		return
	}
	amount := money.ParseCents(req.Amount)
	p := &agenda.Payment{
		UserID:      userID,
		PatientID:   patientID,
		Date:        req.Date,
		DueDate:     dueDate,
		Amount:      amount,
		Status:      agenda.PaymentPending,
		Description: req.Description,
	}
	if req.SessionID != nil && *req.SessionID != "" {
		sid, err := uuid.Parse(*req.SessionID)
		if err != nil {
			http.Error(w, `{"error":"invalid session_id"}`, http.StatusBadRequest)
			return
		}
		p.SessionID = &sid
	}
	if req.PackageID != nil && *req.PackageID != "" {
		pkgID, err := uuid.Parse(*req.PackageID)
		if err != nil {
			http.Error(w, `{"error":"invalid package_id"}`, http.StatusBadRequest)
			return
		}
		pkg, err := h.Store.PackageByID(r.Context(), pkgID)
		if err != nil {
			writeAgendaError(w, err)
			return
		}
		p.PackageID = &pkg.ID
		p.Amount = pkg.Price
	} else if amount <= 0 {
		http.Error(w, `{"error":"valor deve ser maior que zero"}`, http.StatusBadRequest)
		return
	}
	if req.Method != nil {
		m := agenda.PaymentMethod(*req.Method)
		p.Method = &m
	}
	created, err := h.Store.CreatePayment(r.Context(), p)
	if err != nil {
		writeAgendaError(w, err)
		return
	}
	h.audit(r, "payment.create", "payment", created.ID, map[string]interface{}{"amount": created.Amount})
	writeJSON(w, http.StatusCreated, map[string]interface{}{"payment": paymentToPayload(created)})
}

type patchPaymentRequest struct {
	PackageID   *string `json:"package_id"`
	Date        *string `json:"date"`
	DueDate     *string `json:"due_date"`
	Amount      *string `json:"amount"`
	Method      *int    `json:"method"`
	Description *string `json:"description"`
}

// PatchPayment altera campos do pagamento. Apontar um pacote realinha o valor
// ao preço atual do pacote.
func (h *Handler) PatchPayment(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(w, r)
	if userID == uuid.Nil {
		return
	}
	id, ok := parseUUIDVar(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	if !h.ownsPayment(w, r, id, userID) {
		return
	}
	var req patchPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	patch := agenda.PaymentPatch{
		Date:        req.Date,
		DueDate:     req.DueDate,
		Description: req.Description,
	}
	if req.PackageID != nil && *req.PackageID != "" {
		pkgID, err := uuid.Parse(*req.PackageID)
		if err != nil {
			http.Error(w, `{"error":"invalid package_id"}`, http.StatusBadRequest)
			return
		}
		patch.PackageID = &pkgID
	}
	if req.Amount != nil {
		v := money.ParseCents(*req.Amount)
		patch.Amount = &v
	}
	if req.Method != nil {
		m := agenda.PaymentMethod(*req.Method)
		patch.Method = &m
	}
	updated, err := h.Coord.UpdatePayment(r.Context(), id, patch)
	if err != nil {
		writeAgendaError(w, err)
		return
	}
	h.audit(r, "payment.update", "payment", id, map[string]interface{}{"amount": updated.Amount})
	writeJSON(w, http.StatusOK, map[string]interface{}{"payment": paymentToPayload(updated)})
}

type paymentStatusRequest struct {
	Status int `json:"status"`
}

// UpdatePaymentStatus troca o status do pagamento, respeitando a máquina de
// estados (Pending é o único estado de onde se sai).
func (h *Handler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(w, r)
	if userID == uuid.Nil {
		return
	}
	id, ok := parseUUIDVar(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	if !h.ownsPayment(w, r, id, userID) {
		return
	}
	var req paymentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	updated, err := h.Coord.UpdatePaymentStatus(r.Context(), id, agenda.PaymentStatus(req.Status))
	if err != nil {
		writeAgendaError(w, err)
		return
	}
	h.audit(r, "payment.status", "payment", id, map[string]interface{}{"status": req.Status})
	writeJSON(w, http.StatusOK, map[string]interface{}{"payment": paymentToPayload(updated)})
}

// DeletePayment remove um pagamento avulso.
func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(w, r)
	if userID == uuid.Nil {
		return
	}
	id, ok := parseUUIDVar(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	if !h.ownsPayment(w, r, id, userID) {
		return
	}
	if err := h.Coord.DeletePayment(r.Context(), id); err != nil {
		writeAgendaError(w, err)
		return
	}
	h.audit(r, "payment.delete", "payment", id, nil)
	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": true})
}

func (h *Handler) ownsPayment(w http.ResponseWriter, r *http.Request, id, userID uuid.UUID) bool {
	p, err := h.Store.PaymentByID(r.Context(), id)
	if err != nil || p.UserID != userID {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return false
	}
	return true
}

type fiscalRequest struct {
	Issued bool `json:"issued"`
}

// SetFiscalFlag grava o flag "nota fiscal emitida" de um pagamento.
func (h *Handler) SetFiscalFlag(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(w, r)
	if userID == uuid.Nil {
		return
	}
	id, ok := parseUUIDVar(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	if !h.ownsPayment(w, r, id, userID) {
		return
	}
	var req fiscalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	if err := h.Coord.SetFiscalIssued(r.Context(), id, req.Issued); err != nil {
		writeAgendaError(w, err)
		return
	}
	h.audit(r, "payment.fiscal", "payment", id, map[string]interface{}{"issued": req.Issued})
	writeJSON(w, http.StatusOK, map[string]interface{}{"issued": req.Issued})
}

// GetFiscalFlag lê o flag "nota fiscal emitida" de um pagamento.
func (h *Handler) GetFiscalFlag(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(w, r)
	if userID == uuid.Nil {
		return
	}
	id, ok := parseUUIDVar(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	if !h.ownsPayment(w, r, id, userID) {
		return
	}
	issued, err := h.Coord.FiscalIssued(r.Context(), id)
	if err != nil {
		writeAgendaError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"issued": issued})
}

// FinancialSummary totaliza o intervalo [from, to] por vencimento: recebido
// (Paid + Confirmed), pendente e total, já formatados em BRL.
func (h *Handler) FinancialSummary(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(w, r)
	if userID == uuid.Nil {
		return
	}
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		http.Error(w, `{"error":"from and to required"}`, http.StatusBadRequest)
		return
	}
	list, err := h.Store.ListPaymentsByRange(r.Context(), userID, from, to)
	if err != nil {
		writeAgendaError(w, err)
		return
	}
	var pending, total float64
	settled := agenda.SettledTotal(list)
	for _, p := range list {
		if p.Status == agenda.PaymentPending {
			pending += p.Amount
		}
		if p.Status != agenda.PaymentCancelled {
			total += p.Amount
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"settled":     settled,
		"settled_brl": money.FormatBRL(settled),
		"pending":     pending,
		"pending_brl": money.FormatBRL(pending),
		"total":       total,
		"total_brl":   money.FormatBRL(total),
		"count":       len(list),
	})
}
