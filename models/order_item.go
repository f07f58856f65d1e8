package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	SessionID uint            `gorm:"not null;index" json:"session_id"`
	Name      string          `gorm:"type:varchar(100);not null" json:"name"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Notes     string          `gorm:"type:text" json:"notes"`
	Status    string          `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null" json:"updated_at"`
}

// Subtotal is price times quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
