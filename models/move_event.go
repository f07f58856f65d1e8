package models

import (
	"time"

	"gorm.io/datatypes"
)

type MoveKind string

const (
	MoveKindSession MoveKind = "move_session"
	MoveKindItems   MoveKind = "move_items"
)

type MoveScope string

const (
	MoveScopeAll   MoveScope = "all"
	MoveScopeItems MoveScope = "items"
)

type MoveStatus string

const (
	MoveStatusPending    MoveStatus = "pending"
	MoveStatusProcessing MoveStatus = "processing"
	MoveStatusDone       MoveStatus = "done"
	MoveStatusError      MoveStatus = "error"
)

// Terminal reports whether the status can no longer change.
func (s MoveStatus) Terminal() bool {
	return s == MoveStatusDone || s == MoveStatusError
}

// MoveEvent is an outbox row describing one migration request.
// DedupKey carries the idempotency key while the event can still have, or
// already had, an effect; it is cleared when the event fails so the key is
// free again.
type MoveEvent struct {
	ID             uint                      `gorm:"primaryKey" json:"id"`
	Kind           MoveKind                  `gorm:"type:varchar(20);not null" json:"kind"`
	SourceTableID  uint                      `gorm:"not null" json:"source_table_id"`
	DestTableID    uint                      `gorm:"not null" json:"dest_table_id"`
	Scope          MoveScope                 `gorm:"type:varchar(10);not null" json:"scope"`
	ItemIDs        datatypes.JSONSlice[uint] `json:"item_ids,omitempty"`
	IdempotencyKey string                    `gorm:"type:varchar(100);not null;index" json:"idempotency_key"`
	DedupKey       *string                   `gorm:"type:varchar(100);uniqueIndex" json:"-"`
	RequestedBy    *uint                     `json:"requested_by,omitempty"`
	Status         MoveStatus                `gorm:"type:varchar(20);not null;default:'pending';index:idx_move_status_created,priority:1" json:"status"`
	Result         string                    `gorm:"type:text" json:"result,omitempty"`
	ErrorMessage   string                    `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt      time.Time                 `gorm:"not null;index:idx_move_status_created,priority:2" json:"created_at"`
	UpdatedAt      time.Time                 `gorm:"not null" json:"updated_at"`
}
