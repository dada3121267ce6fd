package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flaviolimadev/prontopsi-backend/internal/auth"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserInfo  `json:"user"`
}

type UserInfo struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

const tokenTTL = 24 * time.Hour

// Login autentica o profissional. Credencial inválida e e-mail inexistente
// retornam o mesmo erro genérico.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		http.Error(w, `{"error":"email and password required"}`, http.StatusBadRequest)
		return
	}
	prof, err := h.Store.ProfessionalByEmail(r.Context(), req.Email)
	if err != nil || !auth.CheckPassword(prof.PasswordHash, req.Password) {
		http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
		return
	}
	tok, err := auth.BuildJWT(h.Cfg.JWTSecret, prof.ID.String(), auth.RoleProfessional, tokenTTL)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     tok,
		ExpiresAt: time.Now().Add(tokenTTL),
		User: UserInfo{
			ID:       prof.ID.String(),
			Email:    prof.Email,
			FullName: prof.FullName,
			Role:     auth.RoleProfessional,
		},
	})
}

// Me retorna o perfil do profissional autenticado.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(w, r)
	if userID == uuid.Nil {
		return
	}
	prof, err := h.Store.ProfessionalByID(r.Context(), userID)
	if err != nil {
		writeAgendaError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UserInfo{
		ID:       prof.ID.String(),
		Email:    prof.Email,
		FullName: prof.FullName,
		Role:     auth.RoleProfessional,
	})
}
