package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/flaviolimadev/prontopsi-backend/internal/agenda"
)

// sessionRow é a linha de sessions como o banco devolve: DATE e TIME já
// formatados no SELECT para as strings que o domínio usa.
type sessionRow struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	PatientID        uuid.UUID
	Date             string
	Time             string
	DurationMinutes  int
	ConsultationType string
	Modality         string
	AttendanceType   string
	Status           int
	Notes            *string
}

func (r *sessionRow) toDomain() agenda.Session {
	return agenda.Session{
		ID:               r.ID,
		UserID:           r.UserID,
		PatientID:        r.PatientID,
		Date:             r.Date,
		Time:             r.Time,
		DurationMinutes:  r.DurationMinutes,
		ConsultationType: r.ConsultationType,
		Modality:         r.Modality,
		AttendanceType:   r.AttendanceType,
		Status:           agenda.SessionStatus(r.Status),
		Notes:            r.Notes,
	}
}

const sessionSelect = `
	SELECT id, user_id, patient_id,
	       to_char(session_date, 'YYYY-MM-DD') AS date,
	       to_char(start_time, 'HH24:MI') AS time,
	       duration_minutes, consultation_type, modality, attendance_type, status, notes
	FROM sessions
`

func (st *Store) CreateSession(ctx context.Context, s *agenda.Session) (*agenda.Session, error) {
	var res struct{ ID uuid.UUID }
	err := st.DB.WithContext(ctx).Raw(`
		INSERT INTO sessions (user_id, patient_id, session_date, start_time, duration_minutes,
		                      consultation_type, modality, attendance_type, status, notes)
		VALUES (?, ?, ?::date, ?::time, ?, ?, ?, ?, ?, ?) RETURNING id
	`, s.UserID, s.PatientID, s.Date, s.Time, s.DurationMinutes,
		s.ConsultationType, s.Modality, s.AttendanceType, int(s.Status), s.Notes).Scan(&res).Error
	if err != nil {
		return nil, conflictFromUnique(err, s.Date, s.Time)
	}
	out := *s
	out.ID = res.ID
	return &out, nil
}

func (st *Store) SessionByID(ctx context.Context, id uuid.UUID) (*agenda.Session, error) {
	var row sessionRow
	err := st.DB.WithContext(ctx).Raw(sessionSelect+` WHERE id = ?`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	s := row.toDomain()
	return &s, nil
}

func (st *Store) UpdateSession(ctx context.Context, id uuid.UUID, patch agenda.SessionPatch) (*agenda.Session, error) {
	updates := map[string]interface{}{"updated_at": gorm.Expr("now()")}
	if patch.Date != nil {
		updates["session_date"] = gorm.Expr("?::date", *patch.Date)
	}
	if patch.Time != nil {
		updates["start_time"] = gorm.Expr("?::time", *patch.Time)
	}
	if patch.DurationMinutes != nil {
		updates["duration_minutes"] = *patch.DurationMinutes
	}
	if patch.ConsultationType != nil {
		updates["consultation_type"] = *patch.ConsultationType
	}
	if patch.Modality != nil {
		updates["modality"] = *patch.Modality
	}
	if patch.AttendanceType != nil {
		updates["attendance_type"] = *patch.AttendanceType
	}
	if patch.Status != nil {
		updates["status"] = int(*patch.Status)
	}
	if patch.Notes != nil {
		updates["notes"] = *patch.Notes
	}
	result := st.DB.WithContext(ctx).Table("sessions").Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		date, timeStr := "", ""
		if patch.Date != nil {
			date = *patch.Date
		}
		if patch.Time != nil {
			timeStr = *patch.Time
		}
		return nil, conflictFromUnique(result.Error, date, timeStr)
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return st.SessionByID(ctx, id)
}

func (st *Store) DeleteSession(ctx context.Context, id uuid.UUID) error {
	result := st.DB.WithContext(ctx).Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListSessionsByDate devolve as sessões não canceladas do profissional em uma
// data — a lista usada pela pré-checagem de conflito do dia.
func (st *Store) ListSessionsByDate(ctx context.Context, userID uuid.UUID, date string) ([]agenda.Session, error) {
	var rows []sessionRow
	err := st.DB.WithContext(ctx).Raw(sessionSelect+`
		WHERE user_id = ? AND session_date = ?::date AND status <> ?
		ORDER BY start_time
	`, userID, date, int(agenda.SessionCancelled)).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]agenda.Session, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

// SessionWithPatientName é uma sessão com o nome do paciente, para a agenda.
type SessionWithPatientName struct {
	agenda.Session
	PatientName string
}

// ListSessionsByRange lista as sessões do profissional no intervalo [from, to],
// com nome do paciente, ordenadas por data e horário.
func (st *Store) ListSessionsByRange(ctx context.Context, userID uuid.UUID, from, to string) ([]SessionWithPatientName, error) {
	type rangeRow struct {
		sessionRow
		PatientName string
	}
	var rows []rangeRow
	err := st.DB.WithContext(ctx).Raw(`
		SELECT s.id, s.user_id, s.patient_id,
		       to_char(s.session_date, 'YYYY-MM-DD') AS date,
		       to_char(s.start_time, 'HH24:MI') AS time,
		       s.duration_minutes, s.consultation_type, s.modality, s.attendance_type, s.status, s.notes,
		       COALESCE(p.full_name, '') AS patient_name
		FROM sessions s
		LEFT JOIN patients p ON p.id = s.patient_id AND p.deleted_at IS NULL
		WHERE s.user_id = ? AND s.session_date >= ?::date AND s.session_date <= ?::date
		ORDER BY s.session_date, s.start_time
	`, userID, from, to).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]SessionWithPatientName, len(rows))
	for i := range rows {
		out[i] = SessionWithPatientName{Session: rows[i].toDomain(), PatientName: rows[i].PatientName}
	}
	return out, nil
}
