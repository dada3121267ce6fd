package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Patient é o cadastro do paciente. CPF fica cifrado em repouso (AES-GCM com
// versão de chave) e o hash permite buscar/deduplicar sem decifrar.
type Patient struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	FullName      string
	Email         *string
	Phone         *string
	BirthDate     *string
	CPFEncrypted  []byte
	CPFNonce      []byte
	CPFKeyVersion *string
	CPFHash       *string
}

const patientSelect = `
	SELECT id, user_id, full_name, email, phone, birth_date::text,
	       cpf_encrypted, cpf_nonce, cpf_key_version, cpf_hash
	FROM patients
`

// PatientsByUser lista pacientes do profissional com limite e offset. limit 0 = todos.
func (st *Store) PatientsByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Patient, error) {
	q := patientSelect + ` WHERE user_id = ? AND deleted_at IS NULL ORDER BY full_name`
	args := []interface{}{userID}
	if limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}
	var list []Patient
	err := st.DB.WithContext(ctx).Raw(q, args...).Scan(&list).Error
	return list, err
}

func (st *Store) PatientsCountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := st.DB.WithContext(ctx).Raw(`SELECT COUNT(*) FROM patients WHERE user_id = ? AND deleted_at IS NULL`, userID).Scan(&n).Error
	return n, err
}

func (st *Store) PatientByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*Patient, error) {
	var p Patient
	err := st.DB.WithContext(ctx).Raw(patientSelect+` WHERE id = ? AND user_id = ? AND deleted_at IS NULL`, id, userID).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (st *Store) CreatePatient(ctx context.Context, p *Patient) (uuid.UUID, error) {
	var res struct{ ID uuid.UUID }
	err := st.DB.WithContext(ctx).Raw(`
		INSERT INTO patients (user_id, full_name, email, phone, birth_date, cpf_encrypted, cpf_nonce, cpf_key_version, cpf_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id
	`, p.UserID, p.FullName, p.Email, p.Phone, p.BirthDate, p.CPFEncrypted, p.CPFNonce, p.CPFKeyVersion, p.CPFHash).Scan(&res).Error
	return res.ID, err
}

func (st *Store) UpdatePatient(ctx context.Context, p *Patient) error {
	result := st.DB.WithContext(ctx).Exec(`
		UPDATE patients SET full_name = ?, email = ?, phone = ?, birth_date = ?,
		       cpf_encrypted = ?, cpf_nonce = ?, cpf_key_version = ?, cpf_hash = ?, updated_at = now()
		WHERE id = ? AND user_id = ? AND deleted_at IS NULL
	`, p.FullName, p.Email, p.Phone, p.BirthDate, p.CPFEncrypted, p.CPFNonce, p.CPFKeyVersion, p.CPFHash, p.ID, p.UserID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (st *Store) SoftDeletePatient(ctx context.Context, id, userID uuid.UUID) error {
	result := st.DB.WithContext(ctx).Exec(`
		UPDATE patients SET deleted_at = now() WHERE id = ? AND user_id = ? AND deleted_at IS NULL
	`, id, userID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
