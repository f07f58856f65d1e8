package models

import (
	"time"
)

type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	EmployeeID *uint     `gorm:"index" json:"employee_id,omitempty"`
	Action     string    `gorm:"type:varchar(50);not null;index" json:"action"`
	TableID    *uint     `gorm:"index" json:"table_id,omitempty"`
	EventID    *uint     `json:"event_id,omitempty"`
	Detail     string    `gorm:"type:text" json:"detail"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}
