package database

import (
	"context"
	"time"

	"github.com/yeremiapane/tablehub/models"
	"github.com/yeremiapane/tablehub/repository"
	"gorm.io/gorm"
)

type eventRepo struct {
	db *gorm.DB
}

func (r *eventRepo) Create(ctx context.Context, event *models.MoveEvent) error {
	return translate(r.db.WithContext(ctx).Create(event).Error, "create move event", event.IdempotencyKey)
}

func (r *eventRepo) Get(ctx context.Context, id uint) (*models.MoveEvent, error) {
	var event models.MoveEvent
	if err := r.db.WithContext(ctx).First(&event, id).Error; err != nil {
		return nil, translate(err, "move event", id)
	}
	return &event, nil
}

func (r *eventRepo) FindByDedupKey(ctx context.Context, key string) (*models.MoveEvent, error) {
	var event models.MoveEvent
	if err := r.db.WithContext(ctx).Where("dedup_key = ?", key).First(&event).Error; err != nil {
		return nil, translate(err, "move event with key", key)
	}
	return &event, nil
}

func (r *eventRepo) ListPending(ctx context.Context, limit int) ([]models.MoveEvent, error) {
	var events []models.MoveEvent
	err := r.db.WithContext(ctx).
		Where("status = ?", models.MoveStatusPending).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, translate(err, "pending move events", limit)
	}
	return events, nil
}

func (r *eventRepo) List(ctx context.Context, status models.MoveStatus, limit int) ([]models.MoveEvent, error) {
	var events []models.MoveEvent
	q := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&events).Error; err != nil {
		return nil, translate(err, "move events", status)
	}
	return events, nil
}

func (r *eventRepo) Transition(ctx context.Context, id uint, from models.MoveStatus, update repository.EventUpdate) (bool, error) {
	updatedAt := update.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	values := map[string]interface{}{
		"status":     update.Status,
		"updated_at": updatedAt,
	}
	if update.Result != "" {
		values["result"] = update.Result
	}
	if update.ErrorMessage != "" {
		values["error_message"] = update.ErrorMessage
	}
	if update.ClearDedupKey {
		values["dedup_key"] = nil
	}

	res := r.db.WithContext(ctx).
		Model(&models.MoveEvent{}).
		Where("id = ? AND status = ?", id, from).
		Updates(values)
	if res.Error != nil {
		return false, translate(res.Error, "transition move event", id)
	}
	return res.RowsAffected == 1, nil
}
