package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/flaviolimadev/prontopsi-backend/internal/agenda"
	"github.com/flaviolimadev/prontopsi-backend/internal/api"
	"github.com/flaviolimadev/prontopsi-backend/internal/cache"
	"github.com/flaviolimadev/prontopsi-backend/internal/config"
	"github.com/flaviolimadev/prontopsi-backend/internal/crypto"
	"github.com/flaviolimadev/prontopsi-backend/internal/email"
	"github.com/flaviolimadev/prontopsi-backend/internal/middleware"
	"github.com/flaviolimadev/prontopsi-backend/internal/migrate"
	"github.com/flaviolimadev/prontopsi-backend/internal/repo"
	"github.com/flaviolimadev/prontopsi-backend/internal/seed"
)

func main() {
	cfg := config.Load()

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
		if err != nil {
			log.Fatalf("conexão postgres: %v", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			log.Fatalf("pool postgres: %v", err)
		}
		sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		if err := sqlDB.Ping(); err != nil {
			log.Fatalf("ping postgres: %v", err)
		}
		if err := migrate.Run(context.Background(), db, "migrations"); err != nil {
			log.Fatalf("migrations: %v", err)
		}
		if cfg.SeedDev {
			if err := seed.Run(context.Background(), db); err != nil {
				log.Printf("seed (ignorado se já aplicado): %v", err)
			}
		}
	}

	keys, err := crypto.ParseKeyring(cfg.DataEncryptionKeys)
	if err != nil {
		log.Fatalf("chaves de criptografia: %v", err)
	}

	store := repo.NewStore(db)
	coord := agenda.NewCoordinator(store, store, store, store)

	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	r.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"no database"}`))
			return
		}
		sqlDB, err := db.DB()
		if err != nil || sqlDB.Ping() != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"db unhealthy"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)

	h := &api.Handler{
		DB:    db,
		Cfg:   cfg,
		Cache: cache.New(30 * time.Second),
		Store: store,
		Coord: coord,
		Keys:  keys,
	}
	mailCfg := &email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Pass:     cfg.SMTPPass,
		FromName: cfg.SMTPFromName,
		FromAddr: cfg.SMTPFromEmail,
	}
	h.SetSendRegistrationEmail(mailCfg.SendRegistrationLink)

	// rotas públicas
	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	apiRouter.HandleFunc("/registration-links/{token}", h.GetRegistrationLink).Methods(http.MethodGet)
	apiRouter.HandleFunc("/registration-links/{token}/accept", h.AcceptRegistrationLink).Methods(http.MethodPost)

	// rotas autenticadas
	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(middleware.RequireAuthMiddleware(cfg.JWTSecret))
	protected.HandleFunc("/me", h.Me).Methods(http.MethodGet)

	protected.HandleFunc("/sessions", h.ListSessions).Methods(http.MethodGet)
	protected.HandleFunc("/sessions", h.CreateSession).Methods(http.MethodPost)
	protected.HandleFunc("/sessions/{id}", h.PatchSession).Methods(http.MethodPatch)
	protected.HandleFunc("/sessions/{id}", h.DeleteSession).Methods(http.MethodDelete)
	protected.HandleFunc("/sessions/{id}/payments", h.ListSessionPayments).Methods(http.MethodGet)

	protected.HandleFunc("/payments", h.CreatePayment).Methods(http.MethodPost)
	protected.HandleFunc("/payments/summary", h.FinancialSummary).Methods(http.MethodGet)
	protected.HandleFunc("/payments/{id}", h.PatchPayment).Methods(http.MethodPatch)
	protected.HandleFunc("/payments/{id}", h.DeletePayment).Methods(http.MethodDelete)
	protected.HandleFunc("/payments/{id}/status", h.UpdatePaymentStatus).Methods(http.MethodPut)
	protected.HandleFunc("/payments/{id}/fiscal", h.GetFiscalFlag).Methods(http.MethodGet)
	protected.HandleFunc("/payments/{id}/fiscal", h.SetFiscalFlag).Methods(http.MethodPut)

	protected.HandleFunc("/packages", h.ListPackages).Methods(http.MethodGet)
	protected.HandleFunc("/packages", h.CreatePackage).Methods(http.MethodPost)
	protected.HandleFunc("/packages/{id}", h.UpdatePackage).Methods(http.MethodPatch)
	protected.HandleFunc("/packages/{id}", h.DeletePackage).Methods(http.MethodDelete)

	protected.HandleFunc("/patients", h.ListPatients).Methods(http.MethodGet)
	protected.HandleFunc("/patients", h.CreatePatient).Methods(http.MethodPost)
	protected.HandleFunc("/patients/{id}", h.GetPatient).Methods(http.MethodGet)
	protected.HandleFunc("/patients/{id}", h.UpdatePatient).Methods(http.MethodPatch)
	protected.HandleFunc("/patients/{id}", h.DeletePatient).Methods(http.MethodDelete)

	protected.HandleFunc("/registration-links", h.ListRegistrationLinks).Methods(http.MethodGet)
	protected.HandleFunc("/registration-links", h.CreateRegistrationLink).Methods(http.MethodPost)

	chain := middleware.Recover(middleware.RequestID(middleware.Timeout(cfg.RequestTimeoutSec)(middleware.CORS(cfg.CORSOrigins)(middleware.Gzip(r)))))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      chain,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("backend ouvindo em :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("servidor: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("encerrando...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
