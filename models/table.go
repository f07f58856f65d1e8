package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TableKind string

const (
	TableKindTimed    TableKind = "timed"
	TableKindFlatRate TableKind = "flat_rate"
	TableKindFree     TableKind = "free"
)

func (k TableKind) Valid() bool {
	switch k {
	case TableKindTimed, TableKindFlatRate, TableKindFree:
		return true
	}
	return false
}

// SupportsLight reports whether the station has a controllable lamp.
func (k TableKind) SupportsLight() bool {
	return k == TableKindTimed
}

type TableStatus string

const (
	TableStatusFree     TableStatus = "free"
	TableStatusOccupied TableStatus = "occupied"
	TableStatusReserved TableStatus = "reserved"
	TableStatusSettling TableStatus = "settling"
)

// Table is one physical station. Billing is always recomputed from the
// stored fields; no running total is persisted except FrozenCharge while
// the table is paused.
type Table struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	TableNumber      string          `gorm:"type:varchar(50);not null" json:"table_number"`
	Kind             TableKind       `gorm:"type:varchar(20);not null;default:'timed'" json:"kind"`
	Status           TableStatus     `gorm:"type:varchar(20);not null;default:'free';index" json:"status"`
	Paused           bool            `gorm:"not null;default:false" json:"paused"`
	PausedAt         *time.Time      `json:"paused_at,omitempty"`
	SettledAt        *time.Time      `json:"settled_at,omitempty"`
	StartedAt        *time.Time      `json:"started_at,omitempty"`
	LimitEnd         *time.Time      `json:"limit_end,omitempty"`
	HourlyRate       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"hourly_rate"`
	ServiceCharge    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"service_charge"`
	FrozenCharge     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"frozen_charge"`
	CleaningUntil    *time.Time      `json:"cleaning_until,omitempty"`
	LightOn          bool            `gorm:"not null;default:false" json:"light_on"`
	CurrentSessionID *uint           `gorm:"index" json:"current_session_id,omitempty"`
	Version          uint            `gorm:"not null;default:0" json:"version"`
	CreatedAt        time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"not null" json:"updated_at"`
}

// Occupy moves a free table into the occupied state.
func (t *Table) Occupy(now time.Time, rate decimal.Decimal, limitEnd *time.Time) {
	started := now
	t.Status = TableStatusOccupied
	t.StartedAt = &started
	t.LimitEnd = limitEnd
	t.HourlyRate = rate
	t.Paused = false
	t.PausedAt = nil
	t.SettledAt = nil
	t.FrozenCharge = decimal.Zero
	if t.Kind.SupportsLight() {
		t.LightOn = true
	}
}

// Reset returns the table to free and drops every per-session field.
func (t *Table) Reset() {
	t.Status = TableStatusFree
	t.StartedAt = nil
	t.LimitEnd = nil
	t.Paused = false
	t.PausedAt = nil
	t.SettledAt = nil
	t.HourlyRate = decimal.Zero
	t.ServiceCharge = decimal.Zero
	t.FrozenCharge = decimal.Zero
	t.CurrentSessionID = nil
	t.LightOn = false
}

// TakeOver copies the billing state of src onto t so the running charge
// continues on the new station.
func (t *Table) TakeOver(src *Table, sessionID uint) {
	t.Status = src.Status
	t.StartedAt = src.StartedAt
	t.LimitEnd = src.LimitEnd
	t.HourlyRate = src.HourlyRate
	t.Paused = src.Paused
	t.PausedAt = src.PausedAt
	t.SettledAt = src.SettledAt
	t.FrozenCharge = src.FrozenCharge
	t.ServiceCharge = src.ServiceCharge
	t.CurrentSessionID = &sessionID
	if t.Kind.SupportsLight() {
		t.LightOn = true
	}
}

// IsActive reports whether the table is hosting a billable occupancy.
func (t *Table) IsActive() bool {
	return t.Status == TableStatusOccupied || t.Status == TableStatusSettling
}
