package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const registrationLinkTTL = 7 * 24 * time.Hour

type registrationLinkPayload struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

type createRegistrationLinkRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// CreateRegistrationLink gera um link público de cadastro e envia por e-mail.
// Falha no envio do e-mail não desfaz o link: ele aparece na listagem e pode
// ser copiado manualmente.
func (h *Handler) CreateRegistrationLink(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(w, r)
	if userID == uuid.Nil {
		return
	}
	var req createRegistrationLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.FullName == "" || ValidateEmailRegex(req.Email) != nil {
		http.Error(w, `{"error":"full_name and valid email required"}`, http.StatusBadRequest)
		return
	}
	link, err := h.Store.CreateRegistrationLink(r.Context(), userID, req.FullName, req.Email, time.Now().Add(registrationLinkTTL))
	if err != nil {
		writeAgendaError(w, err)
		return
	}
	registerURL := h.Cfg.AppPublicURL + "/cadastro/" + link.Token
	emailSent := false
	if h.sendRegistrationEmail != nil {
		if err := h.sendRegistrationEmail(req.Email, req.FullName, registerURL); err != nil {
			log.Printf("[registration] envio de e-mail para %s falhou: %v", req.Email, err)
		} else {
			emailSent = true
		}
	}
	h.audit(r, "registration_link.create", "registration_link", link.ID, nil)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"link": registrationLinkPayload{
			ID:        link.ID.String(),
			Token:     link.Token,
			FullName:  link.PatientFullName,
			Email:     link.PatientEmail,
			Status:    link.Status,
			ExpiresAt: link.ExpiresAt,
			CreatedAt: link.CreatedAt,
		},
		"register_url": registerURL,
		"email_sent":   emailSent,
	})
}

// ListRegistrationLinks lista os links de cadastro do profissional.
func (h *Handler) ListRegistrationLinks(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(w, r)
	if userID == uuid.Nil {
		return
	}
	list, err := h.Store.ListRegistrationLinks(r.Context(), userID)
	if err != nil {
		writeAgendaError(w, err)
		return
	}
	out := make([]registrationLinkPayload, len(list))
	for i, l := range list {
		out[i] = registrationLinkPayload{
			ID:        l.ID.String(),
			Token:     l.Token,
			FullName:  l.PatientFullName,
			Email:     l.PatientEmail,
			Status:    l.Status,
			ExpiresAt: l.ExpiresAt,
			CreatedAt: l.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"links": out})
}

// GetRegistrationLink é o endpoint PÚBLICO que o formulário de cadastro usa
// para validar o token e pré-preencher nome e e-mail.
func (h *Handler) GetRegistrationLink(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	link, err := h.Store.RegistrationLinkByToken(r.Context(), token)
	if err != nil {
		http.Error(w, `{"error":"link não encontrado"}`, http.StatusNotFound)
		return
	}
	if link.Status != "PENDING" || time.Now().After(link.ExpiresAt) {
		http.Error(w, `{"error":"link expirado ou já utilizado"}`, http.StatusGone)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"full_name":  link.PatientFullName,
		"email":      link.PatientEmail,
		"expires_at": link.ExpiresAt,
	})
}

// AcceptRegistrationLink é o endpoint PÚBLICO que conclui o cadastro: cria o
// paciente vinculado ao profissional do link e marca o link como usado.
func (h *Handler) AcceptRegistrationLink(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	link, err := h.Store.RegistrationLinkByToken(r.Context(), token)
	if err != nil {
		http.Error(w, `{"error":"link não encontrado"}`, http.StatusNotFound)
		return
	}
	if link.Status != "PENDING" || time.Now().After(link.ExpiresAt) {
		http.Error(w, `{"error":"link expirado ou já utilizado"}`, http.StatusGone)
		return
	}
	var req patientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.FullName) == "" {
		req.FullName = link.PatientFullName
	}
	if req.Email == nil || *req.Email == "" {
		email := link.PatientEmail
		req.Email = &email
	}
	p, msg := h.buildPatient(link.UserID, &req)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": msg})
		return
	}
	id, err := h.Store.CreatePatient(r.Context(), p)
	if err != nil {
		writeAgendaError(w, err)
		return
	}
	if err := h.Store.MarkRegistrationLinkUsed(r.Context(), link.ID); err != nil {
		// paciente já criado; link fica pendente e pode ser marcado depois
		log.Printf("[registration] marcar link %s como usado: %v", link.ID, err)
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"patient_id": id.String()})
}
