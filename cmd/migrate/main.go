package main

import (
	"context"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/flaviolimadev/prontopsi-backend/internal/config"
	"github.com/flaviolimadev/prontopsi-backend/internal/migrate"
)

// Aplica as migrations e sai. Útil em deploys onde o banco é migrado antes do
// rollout do backend.
func main() {
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL não configurada")
	}
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatalf("conexão postgres: %v", err)
	}
	if err := migrate.Run(context.Background(), db, "migrations"); err != nil {
		log.Fatalf("migrations: %v", err)
	}
	log.Println("migrations aplicadas")
}
