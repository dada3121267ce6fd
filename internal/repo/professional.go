package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Professional é o psicólogo dono da conta (consultório individual).
type Professional struct {
	ID           uuid.UUID
	FullName     string
	Email        string
	PasswordHash string
}

func (st *Store) ProfessionalByEmail(ctx context.Context, email string) (*Professional, error) {
	var p Professional
	err := st.DB.WithContext(ctx).Raw(`
		SELECT id, full_name, email, password_hash FROM professionals WHERE lower(email) = lower(?)
	`, strings.TrimSpace(email)).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (st *Store) ProfessionalByID(ctx context.Context, id uuid.UUID) (*Professional, error) {
	var p Professional
	err := st.DB.WithContext(ctx).Raw(`
		SELECT id, full_name, email, password_hash FROM professionals WHERE id = ?
	`, id).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (st *Store) CreateProfessional(ctx context.Context, fullName, email, passwordHash string) (uuid.UUID, error) {
	var res struct{ ID uuid.UUID }
	err := st.DB.WithContext(ctx).Raw(`
		INSERT INTO professionals (full_name, email, password_hash) VALUES (?, ?, ?) RETURNING id
	`, fullName, strings.TrimSpace(email), passwordHash).Scan(&res).Error
	return res.ID, err
}
