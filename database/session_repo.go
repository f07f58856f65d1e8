package database

import (
	"context"

	"github.com/yeremiapane/tablehub/models"
	"gorm.io/gorm"
)

type sessionRepo struct {
	db *gorm.DB
}

func (r *sessionRepo) Create(ctx context.Context, session *models.Session) error {
	return translate(r.db.WithContext(ctx).Create(session).Error, "create session for table", session.TableID)
}

func (r *sessionRepo) Get(ctx context.Context, id uint) (*models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).First(&session, id).Error; err != nil {
		return nil, translate(err, "session", id)
	}
	return &session, nil
}

func (r *sessionRepo) Update(ctx context.Context, session *models.Session) error {
	return translate(r.db.WithContext(ctx).Save(session).Error, "update session", session.ID)
}

type orderItemRepo struct {
	db *gorm.DB
}

func (r *orderItemRepo) Create(ctx context.Context, item *models.OrderItem) error {
	return translate(r.db.WithContext(ctx).Create(item).Error, "create item for session", item.SessionID)
}

func (r *orderItemRepo) ListBySession(ctx context.Context, sessionID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, translate(err, "items of session", sessionID)
	}
	return items, nil
}

func (r *orderItemRepo) FindByIDs(ctx context.Context, ids []uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if len(ids) == 0 {
		return items, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&items).Error; err != nil {
		return nil, translate(err, "items", ids)
	}
	return items, nil
}

func (r *orderItemRepo) Reassign(ctx context.Context, ids []uint, sessionID uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("id IN ?", ids).
		Update("session_id", sessionID)
	if res.Error != nil {
		return 0, translate(res.Error, "reassign items", ids)
	}
	return res.RowsAffected, nil
}
