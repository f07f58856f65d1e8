package database

import (
	"context"

	"github.com/yeremiapane/tablehub/models"
	"gorm.io/gorm"
)

type auditRepo struct {
	db *gorm.DB
}

func (r *auditRepo) Create(ctx context.Context, entry *models.AuditLog) error {
	return translate(r.db.WithContext(ctx).Create(entry).Error, "create audit entry", entry.Action)
}

func (r *auditRepo) List(ctx context.Context, limit int) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, translate(err, "audit entries", limit)
	}
	return entries, nil
}

type employeeRepo struct {
	db *gorm.DB
}

func (r *employeeRepo) Create(ctx context.Context, employee *models.Employee) error {
	return translate(r.db.WithContext(ctx).Create(employee).Error, "create employee", employee.Name)
}

func (r *employeeRepo) Get(ctx context.Context, id uint) (*models.Employee, error) {
	var employee models.Employee
	if err := r.db.WithContext(ctx).First(&employee, id).Error; err != nil {
		return nil, translate(err, "employee", id)
	}
	return &employee, nil
}

func (r *employeeRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Employee{}).Count(&count).Error
	return count, translate(err, "count employees", "")
}
