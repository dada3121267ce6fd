package seed

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/flaviolimadev/prontopsi-backend/internal/auth"
	"gorm.io/gorm"
)

// Run cria um profissional de desenvolvimento e pacotes de exemplo quando o
// banco está vazio. Idempotente: não faz nada se já houver profissionais.
func Run(ctx context.Context, db *gorm.DB) error {
	var n int
	if err := db.WithContext(ctx).Raw("SELECT COUNT(*) FROM professionals").Scan(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	hash, err := auth.HashPassword("ChangeMe123!")
	if err != nil {
		return err
	}
	profID := uuid.New()
	if err := db.WithContext(ctx).Exec(`
		INSERT INTO professionals (id, email, password_hash, full_name, crp)
		VALUES (?, 'psi@prontopsi.local', ?, 'Psicóloga Dev', '06/12345')
	`, profID, hash).Error; err != nil {
		return err
	}

	if err := db.WithContext(ctx).Exec(`
		INSERT INTO packages (id, user_id, title, price, sessions_per_month, active)
		VALUES (?, ?, 'Mensal 4 sessões', 48000, 4, TRUE),
		       (?, ?, 'Quinzenal 2 sessões', 26000, 2, TRUE)
	`, uuid.New(), profID, uuid.New(), profID).Error; err != nil {
		return err
	}

	log.Printf("seed: profissional dev criado (psi@prontopsi.local / ChangeMe123!)")
	return nil
}
