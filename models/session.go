package models

import "time"

// Session is one continuous occupancy. It can be re-hosted by another table.
type Session struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	TableID      uint       `gorm:"not null;index" json:"table_id"`
	OpenedAt     time.Time  `gorm:"not null" json:"opened_at"`
	MergedFromID *uint      `json:"merged_from_id,omitempty"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null" json:"updated_at"`
}
