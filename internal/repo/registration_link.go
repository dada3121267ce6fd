package repo

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RegistrationLink é o link de cadastro enviado ao paciente: um token público
// que permite preencher a própria ficha sem login ("link de cadastro").
type RegistrationLink struct {
	ID              uuid.UUID
	Token           string
	UserID          uuid.UUID
	PatientFullName string
	PatientEmail    string
	Status          string
	ExpiresAt       time.Time
	CreatedAt       time.Time
}

func generateLinkToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (st *Store) CreateRegistrationLink(ctx context.Context, userID uuid.UUID, fullName, email string, expiresAt time.Time) (*RegistrationLink, error) {
	token, err := generateLinkToken()
	if err != nil {
		return nil, err
	}
	id := uuid.New()
	err = st.DB.WithContext(ctx).Exec(`
		INSERT INTO registration_links (id, token, user_id, patient_full_name, patient_email, status, expires_at)
		VALUES (?, ?, ?, ?, ?, 'PENDING', ?)
	`, id, token, userID, fullName, email, expiresAt).Error
	if err != nil {
		return nil, err
	}
	return &RegistrationLink{
		ID: id, Token: token, UserID: userID,
		PatientFullName: fullName, PatientEmail: email,
		Status: "PENDING", ExpiresAt: expiresAt, CreatedAt: time.Now(),
	}, nil
}

func (st *Store) RegistrationLinkByToken(ctx context.Context, token string) (*RegistrationLink, error) {
	var l RegistrationLink
	err := st.DB.WithContext(ctx).Raw(`
		SELECT id, token, user_id, patient_full_name, patient_email, status, expires_at, created_at
		FROM registration_links WHERE token = ?
	`, token).Scan(&l).Error
	if err != nil {
		return nil, err
	}
	if l.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &l, nil
}

// MarkRegistrationLinkUsed só transiciona PENDING→USED; link já usado ou
// cancelado devolve ErrRecordNotFound.
func (st *Store) MarkRegistrationLinkUsed(ctx context.Context, id uuid.UUID) error {
	result := st.DB.WithContext(ctx).Exec(`
		UPDATE registration_links SET status = 'USED', used_at = now() WHERE id = ? AND status = 'PENDING'
	`, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (st *Store) ListRegistrationLinks(ctx context.Context, userID uuid.UUID) ([]RegistrationLink, error) {
	var list []RegistrationLink
	err := st.DB.WithContext(ctx).Raw(`
		SELECT id, token, user_id, patient_full_name, patient_email, status, expires_at, created_at
		FROM registration_links WHERE user_id = ? ORDER BY created_at DESC
	`, userID).Scan(&list).Error
	return list, err
}
