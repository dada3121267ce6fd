//go:build integration

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/flaviolimadev/prontopsi-backend/internal/agenda"
	"github.com/flaviolimadev/prontopsi-backend/internal/auth"
	"github.com/flaviolimadev/prontopsi-backend/internal/cache"
	"github.com/flaviolimadev/prontopsi-backend/internal/config"
	"github.com/flaviolimadev/prontopsi-backend/internal/middleware"
	"github.com/flaviolimadev/prontopsi-backend/internal/repo"
	"github.com/flaviolimadev/prontopsi-backend/internal/testutil"
)

func newSessionsRouter(h *Handler, secret []byte) http.Handler {
	r := mux.NewRouter()
	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(middleware.RequireAuthMiddleware(secret))
	protected.HandleFunc("/sessions", h.ListSessions).Methods(http.MethodGet)
	protected.HandleFunc("/sessions", h.CreateSession).Methods(http.MethodPost)
	protected.HandleFunc("/sessions/{id}", h.DeleteSession).Methods(http.MethodDelete)
	protected.HandleFunc("/sessions/{id}/payments", h.ListSessionPayments).Methods(http.MethodGet)
	return middleware.RequestID(r)
}

func doJSON(t *testing.T, srv http.Handler, method, path, bearer string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	out := map[string]interface{}{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestIntegration_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	db, _ := testutil.OpenDB(ctx)
	if db == nil {
		t.Skip("DATABASE_URL not set for integration tests")
		return
	}
	sqlDB, _ := db.DB()
	if sqlDB != nil {
		defer sqlDB.Close()
	}
	if err := testutil.MustMigrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	store := repo.NewStore(db)
	coord := agenda.NewCoordinator(store, store, store, store)
	secret := []byte("test-jwt-secret-min-32-chars-xxxxxxxxxxxx")
	cfg := config.Load()
	cfg.JWTSecret = secret
	h := &Handler{DB: db, Cfg: cfg, Cache: cache.New(30 * time.Second), Store: store, Coord: coord}

	email := fmt.Sprintf("psi-%s@teste.local", uuid.New().String()[:8])
	hash, err := auth.HashPassword("Senha123!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	profID, err := store.CreateProfessional(ctx, "Psi Teste", email, hash)
	if err != nil {
		t.Fatalf("profissional: %v", err)
	}
	patientID, err := store.CreatePatient(ctx, &repo.Patient{UserID: profID, FullName: "Paciente Teste"})
	if err != nil {
		t.Fatalf("paciente: %v", err)
	}

	tok, err := auth.BuildJWT(secret, profID.String(), auth.RoleProfessional, 2*time.Hour)
	if err != nil {
		t.Fatalf("jwt: %v", err)
	}
	bearer := "Bearer " + tok
	srv := newSessionsRouter(h, secret)

	date := time.Now().AddDate(0, 1, 0).Format("2006-01-02")
	createBody := map[string]interface{}{
		"patient_id":   patientID.String(),
		"date":         date,
		"time":         "14:00",
		"payment_mode": "flat",
		"amount":       "15050",
	}

	rec, body := doJSON(t, srv, http.MethodPost, "/api/sessions", bearer, createBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", rec.Code, rec.Body.String())
	}
	session, _ := body["session"].(map[string]interface{})
	if session == nil {
		t.Fatal("resposta sem session")
	}
	sessionID := session["id"].(string)
	payment, _ := body["payment"].(map[string]interface{})
	if payment == nil {
		t.Fatal("resposta sem payment")
	}
	if payment["amount"].(float64) != 150.50 {
		t.Errorf("amount = %v, esperava 150.50", payment["amount"])
	}

	// mesmo slot: 409 com sugestão de horário
	rec, body = doJSON(t, srv, http.MethodPost, "/api/sessions", bearer, createBody)
	if rec.Code != http.StatusConflict {
		t.Fatalf("conflito: status %d body %s", rec.Code, rec.Body.String())
	}
	if body["suggested_time"] != "15:00" {
		t.Errorf("suggested_time = %v, esperava 15:00", body["suggested_time"])
	}

	// pagamentos da sessão
	rec, body = doJSON(t, srv, http.MethodGet, "/api/sessions/"+sessionID+"/payments", bearer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("payments: status %d", rec.Code)
	}
	payments, _ := body["payments"].([]interface{})
	if len(payments) != 1 {
		t.Fatalf("payments = %d, esperava 1", len(payments))
	}

	// delete em cascata reporta o pagamento removido
	rec, body = doJSON(t, srv, http.MethodDelete, "/api/sessions/"+sessionID, bearer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status %d body %s", rec.Code, rec.Body.String())
	}
	if body["payments_deleted"].(float64) != 1 {
		t.Errorf("payments_deleted = %v, esperava 1", body["payments_deleted"])
	}
}

func TestIntegration_RecurringBatch(t *testing.T) {
	ctx := context.Background()
	db, _ := testutil.OpenDB(ctx)
	if db == nil {
		t.Skip("DATABASE_URL not set for integration tests")
		return
	}
	sqlDB, _ := db.DB()
	if sqlDB != nil {
		defer sqlDB.Close()
	}
	if err := testutil.MustMigrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	store := repo.NewStore(db)
	coord := agenda.NewCoordinator(store, store, store, store)
	secret := []byte("test-jwt-secret-min-32-chars-xxxxxxxxxxxx")
	cfg := config.Load()
	cfg.JWTSecret = secret
	h := &Handler{DB: db, Cfg: cfg, Cache: cache.New(30 * time.Second), Store: store, Coord: coord}

	email := fmt.Sprintf("psi-%s@teste.local", uuid.New().String()[:8])
	hash, _ := auth.HashPassword("Senha123!")
	profID, err := store.CreateProfessional(ctx, "Psi Recorrente", email, hash)
	if err != nil {
		t.Fatalf("profissional: %v", err)
	}
	patientID, err := store.CreatePatient(ctx, &repo.Patient{UserID: profID, FullName: "Paciente Recorrente"})
	if err != nil {
		t.Fatalf("paciente: %v", err)
	}

	tok, _ := auth.BuildJWT(secret, profID.String(), auth.RoleProfessional, 2*time.Hour)
	bearer := "Bearer " + tok
	srv := newSessionsRouter(h, secret)

	start := time.Now().AddDate(0, 2, 0).Format("2006-01-02")
	rec, body := doJSON(t, srv, http.MethodPost, "/api/sessions", bearer, map[string]interface{}{
		"patient_id":   patientID.String(),
		"date":         start,
		"time":         "10:00",
		"payment_mode": "flat",
		"amount":       "20000",
		"recurrence": map[string]interface{}{
			"frequency":            "weekly",
			"weekdays":             []int{1, 3},
			"quantity_per_weekday": 3,
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("recorrente: status %d body %s", rec.Code, rec.Body.String())
	}
	if body["requested"].(float64) != 6 || body["created"].(float64) != 6 {
		t.Errorf("requested/created = %v/%v, esperava 6/6", body["requested"], body["created"])
	}
}
