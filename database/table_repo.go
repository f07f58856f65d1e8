package database

import (
	"context"

	"github.com/yeremiapane/tablehub/errs"
	"github.com/yeremiapane/tablehub/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type tableRepo struct {
	db *gorm.DB
}

func (r *tableRepo) Create(ctx context.Context, table *models.Table) error {
	return translate(r.db.WithContext(ctx).Create(table).Error, "create table", table.TableNumber)
}

func (r *tableRepo) Get(ctx context.Context, id uint) (*models.Table, error) {
	var table models.Table
	if err := r.db.WithContext(ctx).First(&table, id).Error; err != nil {
		return nil, translate(err, "table", id)
	}
	return &table, nil
}

func (r *tableRepo) GetForUpdate(ctx context.Context, id uint) (*models.Table, error) {
	var table models.Table
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&table, id).Error
	if err != nil {
		return nil, translate(err, "table", id)
	}
	return &table, nil
}

func (r *tableRepo) List(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&tables).Error; err != nil {
		return nil, translate(err, "list tables", "")
	}
	return tables, nil
}

func (r *tableRepo) Update(ctx context.Context, table *models.Table) error {
	expected := table.Version
	table.Version = expected + 1

	res := r.db.WithContext(ctx).
		Model(&models.Table{ID: table.ID}).
		Where("version = ?", expected).
		Select("*").
		Omit("id", "created_at").
		Updates(table)
	if res.Error != nil {
		table.Version = expected
		return translate(res.Error, "update table", table.ID)
	}
	if res.RowsAffected == 0 {
		table.Version = expected
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Table{}).Where("id = ?", table.ID).Count(&count).Error; err != nil {
			return translate(err, "table", table.ID)
		}
		if count == 0 {
			return translate(gorm.ErrRecordNotFound, "table", table.ID)
		}
		return errs.ErrStorageConflict
	}
	return nil
}

func (r *tableRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Table{}).Count(&count).Error
	return count, translate(err, "count tables", "")
}
