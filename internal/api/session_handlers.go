package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/flaviolimadev/prontopsi-backend/internal/agenda"
	"github.com/flaviolimadev/prontopsi-backend/internal/money"
)

type sessionPayload struct {
	ID               string  `json:"id"`
	PatientID        string  `json:"patient_id"`
	PatientName      string  `json:"patient_name,omitempty"`
	Date             string  `json:"date"`
	Time             string  `json:"time"`
	DurationMinutes  int     `json:"duration_minutes"`
	ConsultationType string  `json:"consultation_type"`
	Modality         string  `json:"modality"`
	AttendanceType   string  `json:"attendance_type"`
	Status           int     `json:"status"`
	Notes            *string `json:"notes,omitempty"`
}

func sessionToPayload(s *agenda.Session) sessionPayload {
	return sessionPayload{
		ID:               s.ID.String(),
		PatientID:        s.PatientID.String(),
		Date:             s.Date,
		Time:             s.Time,
		DurationMinutes:  s.DurationMinutes,
		ConsultationType: s.ConsultationType,
		Modality:         s.Modality,
		AttendanceType:   s.AttendanceType,
		Status:           int(s.Status),
		Notes:            s.Notes,
	}
}

// ListSessions lista as sessões do profissional no intervalo [from, to]
// (query params, "YYYY-MM-DD"), com nome do paciente, ordenadas por data e horário.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
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
	if _, err := agenda.ParseLocalDate(from); err != nil {
		http.Error(w, `{"error":"invalid from date"}`, http.StatusBadRequest)
		return
	}
	if _, err := agenda.ParseLocalDate(to); err != nil {
		http.Error(w, `{"error":"invalid to date"}`, http.StatusBadRequest)
		return
	}
	list, err := h.Store.ListSessionsByRange(r.Context(), userID, from, to)
	if err != nil {
		writeAgendaError(w, err)
		return
	}
	out := make([]sessionPayload, len(list))
	for i := range list {
		out[i] = sessionToPayload(&list[i].Session)
		out[i].PatientName = list[i].PatientName
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": out})
}

type createSessionRequest struct {
	PatientID        string  `json:"patient_id"`
	Date             string  `json:"date"`
	Time             string  `json:"time"`
	DurationMinutes  int     `json:"duration_minutes"`
	ConsultationType string  `json:"consultation_type"`
	Modality         string  `json:"modality"`
	AttendanceType   string  `json:"attendance_type"`
	Notes            *string `json:"notes"`
	PaymentMode      string  `json:"payment_mode"`
	PackageID        *string `json:"package_id"`
	// Valor digitado como no formulário: dígitos são centavos ("15050" = R$ 150,50)
	Amount string `json:"amount"`

	Recurrence *recurrenceRequest `json:"recurrence"`
}

type recurrenceRequest struct {
	Frequency          string            `json:"frequency"`
	Weekdays           []int             `json:"weekdays"`
	QuantityPerWeekday int               `json:"quantity_per_weekday"`
	PerWeekdayTime     map[string]string `json:"per_weekday_time"`
}

func (req *createSessionRequest) toInput(userID uuid.UUID) (agenda.SessionInput, error) {
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return agenda.SessionInput{}, errors.New("invalid patient_id")
	}
	in := agenda.SessionInput{
		UserID:           userID,
		PatientID:        patientID,
		Date:             req.Date,
		Time:             req.Time,
		DurationMinutes:  req.DurationMinutes,
		ConsultationType: req.ConsultationType,
		Modality:         req.Modality,
		AttendanceType:   req.AttendanceType,
		Notes:            req.Notes,
		PaymentMode:      req.PaymentMode,
		FlatAmount:       money.ParseCents(req.Amount),
	}
	if in.DurationMinutes <= 0 {
		in.DurationMinutes = 50
	}
	if req.PackageID != nil && *req.PackageID != "" {
		pkgID, err := uuid.Parse(*req.PackageID)
		if err != nil {
			return agenda.SessionInput{}, errors.New("invalid package_id")
		}
		in.PackageID = &pkgID
	}
	return in, nil
}

func (req *recurrenceRequest) toInput() agenda.RecurrenceInput {
	perDay := make(map[int]string, len(req.PerWeekdayTime))
	for k, v := range req.PerWeekdayTime {
		if wd, err := strconv.Atoi(k); err == nil {
			perDay[wd] = v
		}
	}
	return agenda.RecurrenceInput{
		Frequency:          agenda.Frequency(req.Frequency),
		Weekdays:           req.Weekdays,
		QuantityPerWeekday: req.QuantityPerWeekday,
		PerWeekdayTime:     perDay,
	}
}

// CreateSession cria uma sessão avulsa ou, se o corpo tiver recurrence, o lote
// recorrente inteiro. Conflito na (primeira) ocorrência retorna 409 com
// suggested_time e nada é criado. Lote parcial retorna 207 com as contagens.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(w, r)
	if userID == uuid.Nil {
		return
	}
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	in, err := req.toInput(userID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": err.Error()})
		return
	}

	if req.Recurrence != nil {
		res, err := h.Coord.CreateRecurring(r.Context(), in, req.Recurrence.toInput())
		if err != nil {
			var batch *agenda.BatchError
			if errors.As(err, &batch) {
				h.audit(r, "session.create_recurring_partial", "session", uuid.Nil, map[string]interface{}{
					"requested": batch.Requested, "created": batch.Created,
				})
				writeJSON(w, http.StatusMultiStatus, map[string]interface{}{
					"requested": batch.Requested,
					"created":   batch.Created,
					"failed":    batch.Requested - batch.Created,
				})
				return
			}
			writeAgendaError(w, err)
			return
		}
		h.audit(r, "session.create_recurring", "session", uuid.Nil, map[string]interface{}{
			"requested": res.Requested, "created": res.Created,
		})
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"requested": res.Requested,
			"created":   res.Created,
			"failed":    0,
		})
		return
	}

	res, err := h.Coord.CreateSingle(r.Context(), in)
	if err != nil {
		// sessão criada com pagamento pendente de retry ainda é 201
		if res == nil || res.Session == nil {
			writeAgendaError(w, err)
			return
		}
	}
	h.audit(r, "session.create", "session", res.Session.ID, map[string]interface{}{
		"date": res.Session.Date, "time": res.Session.Time,
	})
	body := map[string]interface{}{"session": sessionToPayload(res.Session)}
	if res.Payment != nil {
		body["payment"] = paymentToPayload(res.Payment)
	} else {
		body["payment_error"] = "pagamento não pôde ser criado; crie manualmente"
	}
	writeJSON(w, http.StatusCreated, body)
}

// ownsSession responde 404 quando a sessão não existe ou é de outro profissional.
func (h *Handler) ownsSession(w http.ResponseWriter, r *http.Request, id, userID uuid.UUID) bool {
	s, err := h.Store.SessionByID(r.Context(), id)
	if err != nil || s.UserID != userID {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return false
	}
	return true
}

type patchSessionRequest struct {
	Date             *string `json:"date"`
	Time             *string `json:"time"`
	DurationMinutes  *int    `json:"duration_minutes"`
	ConsultationType *string `json:"consultation_type"`
	Modality         *string `json:"modality"`
	AttendanceType   *string `json:"attendance_type"`
	Status           *int    `json:"status"`
	Notes            *string `json:"notes"`
	// Confirm mantém o horário pedido mesmo com conflito local (o banco ainda pode recusar)
	Confirm bool `json:"confirm"`
}

// PatchSession altera campos da sessão. Mudança de (date, time) que conflita
// com outra sessão retorna 409 com sugestão, exceto quando confirm=true.
func (h *Handler) PatchSession(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(w, r)
	if userID == uuid.Nil {
		return
	}
	id, ok := parseUUIDVar(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	if !h.ownsSession(w, r, id, userID) {
		return
	}
	var req patchSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	patch := agenda.SessionPatch{
		Date:             req.Date,
		Time:             req.Time,
		DurationMinutes:  req.DurationMinutes,
		ConsultationType: req.ConsultationType,
		Modality:         req.Modality,
		AttendanceType:   req.AttendanceType,
		Notes:            req.Notes,
	}
	if req.Status != nil {
		st := agenda.SessionStatus(*req.Status)
		patch.Status = &st
	}
	updated, err := h.Coord.UpdateSession(r.Context(), id, patch, req.Confirm)
	if err != nil {
		writeAgendaError(w, err)
		return
	}
	h.audit(r, "session.update", "session", id, map[string]interface{}{
		"date": updated.Date, "time": updated.Time, "status": int(updated.Status),
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{"session": sessionToPayload(updated)})
}

// DeleteSession remove a sessão e os pagamentos vinculados (cascata best-effort).
// A resposta informa quantos pagamentos saíram junto e quantos falharam.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(w, r)
	if userID == uuid.Nil {
		return
	}
	id, ok := parseUUIDVar(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	if !h.ownsSession(w, r, id, userID) {
		return
	}
	report, err := h.Coord.DeleteSession(r.Context(), id)
	if err != nil {
		writeAgendaError(w, err)
		return
	}
	h.audit(r, "session.delete", "session", id, map[string]interface{}{
		"payments_deleted": report.PaymentsDeleted, "payments_failed": report.PaymentsFailed,
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deleted":          true,
		"payments_deleted": report.PaymentsDeleted,
		"payments_failed":  report.PaymentsFailed,
	})
}
