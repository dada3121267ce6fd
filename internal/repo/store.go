// Package repo implementa a persistência em Postgres (GORM sobre o driver pgx).
// O Store satisfaz os contratos de internal/agenda; consultas não triviais usam
// SQL direto via Raw/Exec. DATE e TIME trafegam como string ("YYYY-MM-DD" e
// "HH:MM") para casar com o formato que o domínio compara.
package repo

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/flaviolimadev/prontopsi-backend/internal/agenda"
)

type Store struct {
	DB *gorm.DB
}

func NewStore(db *gorm.DB) *Store { return &Store{DB: db} }

const uniqueViolation = "23505"

// conflictFromUnique traduz violação de unicidade de (user_id, date, time) no
// banco para o erro de conflito do domínio; a checagem do banco é a autoritativa.
func conflictFromUnique(err error, date, timeStr string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &agenda.ConflictError{Date: date, Time: timeStr, SuggestedTime: agenda.SuggestNextSlot(timeStr)}
	}
	return err
}
