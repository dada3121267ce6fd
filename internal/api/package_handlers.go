package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/flaviolimadev/prontopsi-backend/internal/agenda"
	"github.com/flaviolimadev/prontopsi-backend/internal/money"
)

type packagePayload struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	PriceBRL string  `json:"price_brl"`
	Active   bool    `json:"active"`
}

func packageToPayload(p *agenda.Package) packagePayload {
	return packagePayload{
		ID:       p.ID.String(),
		Title:    p.Title,
		Price:    p.Price,
		PriceBRL: money.FormatBRL(p.Price),
		Active:   p.Active,
	}
}

func packagesCacheKey(userID uuid.UUID) string { return "packages:" + userID.String() }

// ListPackages lista os pacotes do profissional. A resposta fica em cache TTL;
// qualquer mutação de pacote invalida a entrada do usuário.
func (h *Handler) ListPackages(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(w, r)
	if userID == uuid.Nil {
		return
	}
	onlyActive := r.URL.Query().Get("active") == "true"
	key := packagesCacheKey(userID)
	if h.Cache != nil && !onlyActive {
		if cached := h.Cache.Get(key); cached != nil {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(cached)
			return
		}
	}
	list, err := h.Store.ListPackages(r.Context(), userID, onlyActive)
	if err != nil {
		writeAgendaError(w, err)
		return
	}
	out := make([]packagePayload, len(list))
	for i := range list {
		out[i] = packageToPayload(&list[i])
	}
	buf, _ := json.Marshal(map[string]interface{}{"packages": out})
	if h.Cache != nil && !onlyActive {
		h.Cache.Set(key, buf)
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf)
}

type packageRequest struct {
	Title  string `json:"title"`
	Price  string `json:"price"`
	Active *bool  `json:"active"`
}

// CreatePackage cria um pacote. Preço na convenção do formulário (dígitos = centavos).
func (h *Handler) CreatePackage(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(w, r)
	if userID == uuid.Nil {
		return
	}
	var req packageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	price := money.ParseCents(req.Price)
	if req.Title == "" || price <= 0 {
		http.Error(w, `{"error":"title and price required"}`, http.StatusBadRequest)
		return
	}
	created, err := h.Store.CreatePackage(r.Context(), userID, req.Title, price)
	if err != nil {
		writeAgendaError(w, err)
		return
	}
	if h.Cache != nil {
		h.Cache.Delete(packagesCacheKey(userID))
	}
	h.audit(r, "package.create", "package", created.ID, map[string]interface{}{"title": created.Title})
	writeJSON(w, http.StatusCreated, map[string]interface{}{"package": packageToPayload(created)})
}

// UpdatePackage altera título, preço ou ativação do pacote. Pagamentos já
// criados com o preço antigo não mudam.
func (h *Handler) UpdatePackage(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(w, r)
	if userID == uuid.Nil {
		return
	}
	id, ok := parseUUIDVar(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	var req packageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	var title *string
	if t := strings.TrimSpace(req.Title); t != "" {
		title = &t
	}
	var price *float64
	if req.Price != "" {
		v := money.ParseCents(req.Price)
		if v <= 0 {
			http.Error(w, `{"error":"preço deve ser maior que zero"}`, http.StatusBadRequest)
			return
		}
		price = &v
	}
	if err := h.Store.UpdatePackage(r.Context(), id, userID, title, price, req.Active); err != nil {
		writeAgendaError(w, err)
		return
	}
	if h.Cache != nil {
		h.Cache.Delete(packagesCacheKey(userID))
	}
	h.audit(r, "package.update", "package", id, nil)
	writeJSON(w, http.StatusOK, map[string]interface{}{"updated": true})
}

// DeletePackage desativa/remove o pacote do profissional.
func (h *Handler) DeletePackage(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(w, r)
	if userID == uuid.Nil {
		return
	}
	id, ok := parseUUIDVar(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	if err := h.Store.DeletePackage(r.Context(), id, userID); err != nil {
		writeAgendaError(w, err)
		return
	}
	if h.Cache != nil {
		h.Cache.Delete(packagesCacheKey(userID))
	}
	h.audit(r, "package.delete", "package", id, nil)
	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": true})
}
