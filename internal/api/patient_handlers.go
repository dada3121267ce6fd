package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/flaviolimadev/prontopsi-backend/internal/crypto"
	"github.com/flaviolimadev/prontopsi-backend/internal/repo"
)

type patientPayload struct {
	ID        string  `json:"id"`
	FullName  string  `json:"full_name"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	BirthDate *string `json:"birth_date,omitempty"`
	CPF       *string `json:"cpf,omitempty"`
}

// patientToPayload decifra o CPF quando a versão de chave ainda existe no
// keyring; CPF indecifrável sai omitido, nunca derruba a listagem.
func (h *Handler) patientToPayload(p *repo.Patient) patientPayload {
	out := patientPayload{
		ID:        p.ID.String(),
		FullName:  p.FullName,
		Email:     p.Email,
		Phone:     p.Phone,
		BirthDate: p.BirthDate,
	}
	if len(p.CPFEncrypted) > 0 && p.CPFKeyVersion != nil {
		if plain, err := h.Keys.Decrypt(p.CPFEncrypted, p.CPFNonce, *p.CPFKeyVersion); err == nil {
			s := string(plain)
			out.CPF = &s
		}
	}
	return out
}

// ListPatients lista os pacientes do profissional, paginado.
func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(w, r)
	if userID == uuid.Nil {
		return
	}
	limit, offset := ParseLimitOffset(r)
	list, err := h.Store.PatientsByUser(r.Context(), userID, limit, offset)
	if err != nil {
		writeAgendaError(w, err)
		return
	}
	total, err := h.Store.PatientsCountByUser(r.Context(), userID)
	if err != nil {
		writeAgendaError(w, err)
		return
	}
	out := make([]patientPayload, len(list))
	for i := range list {
		out[i] = h.patientToPayload(&list[i])
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"patients": out,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

// GetPatient retorna um paciente do profissional autenticado.
func (h *Handler) GetPatient(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(w, r)
	if userID == uuid.Nil {
		return
	}
	id, ok := parseUUIDVar(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	p, err := h.Store.PatientByIDAndUser(r.Context(), id, userID)
	if err != nil {
		writeAgendaError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"patient": h.patientToPayload(p)})
}

type patientRequest struct {
	FullName  string  `json:"full_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	BirthDate *string `json:"birth_date"`
	CPF       *string `json:"cpf"`
}

// buildPatient valida o payload e cifra o CPF com a chave corrente.
func (h *Handler) buildPatient(userID uuid.UUID, req *patientRequest) (*repo.Patient, string) {
	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" {
		return nil, "full_name required"
	}
	if req.Email != nil && *req.Email != "" {
		if err := ValidateEmailRegex(*req.Email); err != nil {
			return nil, "invalid email"
		}
	}
	p := &repo.Patient{
		UserID:    userID,
		FullName:  req.FullName,
		Email:     req.Email,
		Phone:     req.Phone,
		BirthDate: req.BirthDate,
	}
	if req.CPF != nil && *req.CPF != "" {
		normalized := crypto.NormalizeCPF(*req.CPF)
		if len(normalized) != 11 {
			return nil, "invalid cpf"
		}
		cipher, nonce, err := h.Keys.Encrypt([]byte(normalized), h.Cfg.CurrentDataKeyVer)
		if err != nil {
			return nil, "internal"
		}
		hash := crypto.CPFHash(normalized)
		ver := h.Cfg.CurrentDataKeyVer
		p.CPFEncrypted = cipher
		p.CPFNonce = nonce
		p.CPFKeyVersion = &ver
		p.CPFHash = &hash
	}
	return p, ""
}

// CreatePatient cadastra um paciente; o CPF é cifrado em repouso.
func (h *Handler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(w, r)
	if userID == uuid.Nil {
		return
	}
	var req patientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	p, msg := h.buildPatient(userID, &req)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": msg})
		return
	}
	id, err := h.Store.CreatePatient(r.Context(), p)
	if err != nil {
		writeAgendaError(w, err)
		return
	}
	p.ID = id
	h.audit(r, "patient.create", "patient", id, nil)
	writeJSON(w, http.StatusCreated, map[string]interface{}{"patient": h.patientToPayload(p)})
}

// UpdatePatient altera o cadastro do paciente, recifrando o CPF se enviado.
func (h *Handler) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(w, r)
	if userID == uuid.Nil {
		return
	}
	id, ok := parseUUIDVar(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	cur, err := h.Store.PatientByIDAndUser(r.Context(), id, userID)
	if err != nil {
		writeAgendaError(w, err)
		return
	}
	var req patientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	if req.FullName == "" {
		req.FullName = cur.FullName
	}
	p, msg := h.buildPatient(userID, &req)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": msg})
		return
	}
	p.ID = id
	if p.CPFEncrypted == nil {
		// CPF não enviado: preserva o cifrado atual
		p.CPFEncrypted = cur.CPFEncrypted
		p.CPFNonce = cur.CPFNonce
		p.CPFKeyVersion = cur.CPFKeyVersion
		p.CPFHash = cur.CPFHash
	}
	if err := h.Store.UpdatePatient(r.Context(), p); err != nil {
		writeAgendaError(w, err)
		return
	}
	h.audit(r, "patient.update", "patient", id, nil)
	writeJSON(w, http.StatusOK, map[string]interface{}{"patient": h.patientToPayload(p)})
}

// DeletePatient faz soft delete do paciente (histórico de sessões permanece).
func (h *Handler) DeletePatient(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(w, r)
	if userID == uuid.Nil {
		return
	}
	id, ok := parseUUIDVar(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	if err := h.Store.SoftDeletePatient(r.Context(), id, userID); err != nil {
		writeAgendaError(w, err)
		return
	}
	h.audit(r, "patient.delete", "patient", id, nil)
	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": true})
}
