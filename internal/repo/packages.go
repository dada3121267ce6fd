package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/flaviolimadev/prontopsi-backend/internal/agenda"
)

func (st *Store) PackageByID(ctx context.Context, id uuid.UUID) (*agenda.Package, error) {
	var p agenda.Package
	err := st.DB.WithContext(ctx).Raw(`
		SELECT id, user_id, title, price, active FROM packages WHERE id = ?
	`, id).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

// ListPackages lista os pacotes do profissional; onlyActive filtra os inativos.
func (st *Store) ListPackages(ctx context.Context, userID uuid.UUID, onlyActive bool) ([]agenda.Package, error) {
	q := `SELECT id, user_id, title, price, active FROM packages WHERE user_id = ?`
	if onlyActive {
		q += ` AND active`
	}
	q += ` ORDER BY title`
	var list []agenda.Package
	err := st.DB.WithContext(ctx).Raw(q, userID).Scan(&list).Error
	return list, err
}

func (st *Store) CreatePackage(ctx context.Context, userID uuid.UUID, title string, price float64) (*agenda.Package, error) {
	var res struct{ ID uuid.UUID }
	err := st.DB.WithContext(ctx).Raw(`
		INSERT INTO packages (user_id, title, price, active) VALUES (?, ?, ?, true) RETURNING id
	`, userID, title, price).Scan(&res).Error
	if err != nil {
		return nil, err
	}
	return &agenda.Package{ID: res.ID, UserID: userID, Title: title, Price: price, Active: true}, nil
}

func (st *Store) UpdatePackage(ctx context.Context, id, userID uuid.UUID, title *string, price *float64, active *bool) error {
	updates := map[string]interface{}{"updated_at": gorm.Expr("now()")}
	if title != nil {
		updates["title"] = *title
	}
	if price != nil {
		updates["price"] = *price
	}
	if active != nil {
		updates["active"] = *active
	}
	result := st.DB.WithContext(ctx).Table("packages").Where("id = ? AND user_id = ?", id, userID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (st *Store) DeletePackage(ctx context.Context, id, userID uuid.UUID) error {
	result := st.DB.WithContext(ctx).Exec(`DELETE FROM packages WHERE id = ? AND user_id = ?`, id, userID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
