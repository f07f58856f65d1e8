// Package repository declares the storage contracts used by the services.
// Implementations must return errs.ErrNotFound for missing rows and
// errs.ErrStorageConflict when a conditional write loses a race.
package repository

import (
	"context"
	"time"

	"github.com/yeremiapane/tablehub/models"
)

type TableRepository interface {
	Create(ctx context.Context, table *models.Table) error
	Get(ctx context.Context, id uint) (*models.Table, error)
	// GetForUpdate reads the row and locks it for the rest of the transaction
	// where the driver supports row locks.
	GetForUpdate(ctx context.Context, id uint) (*models.Table, error)
	List(ctx context.Context) ([]models.Table, error)
	// Update writes every column only if the stored version still equals
	// table.Version, then bumps the version.
	Update(ctx context.Context, table *models.Table) error
	Count(ctx context.Context) (int64, error)
}

type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	Get(ctx context.Context, id uint) (*models.Session, error)
	Update(ctx context.Context, session *models.Session) error
}

type OrderItemRepository interface {
	Create(ctx context.Context, item *models.OrderItem) error
	ListBySession(ctx context.Context, sessionID uint) ([]models.OrderItem, error)
	FindByIDs(ctx context.Context, ids []uint) ([]models.OrderItem, error)
	// Reassign points the given items to sessionID and returns the number of
	// rows changed.
	Reassign(ctx context.Context, ids []uint, sessionID uint) (int64, error)
}

type EventRepository interface {
	Create(ctx context.Context, event *models.MoveEvent) error
	Get(ctx context.Context, id uint) (*models.MoveEvent, error)
	// FindByDedupKey returns the event currently holding key.
	FindByDedupKey(ctx context.Context, key string) (*models.MoveEvent, error)
	ListPending(ctx context.Context, limit int) ([]models.MoveEvent, error)
	// List returns events newest first; an empty status matches all.
	List(ctx context.Context, status models.MoveStatus, limit int) ([]models.MoveEvent, error)
	// Transition changes the status of one event only if it is still in
	// from. It reports whether the row was updated.
	Transition(ctx context.Context, id uint, from models.MoveStatus, update EventUpdate) (bool, error)
}

// EventUpdate holds the fields written by EventRepository.Transition.
// A zero UpdatedAt is stamped with the current time.
type EventUpdate struct {
	Status        models.MoveStatus
	UpdatedAt     time.Time
	Result        string
	ErrorMessage  string
	ClearDedupKey bool
}

type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, limit int) ([]models.AuditLog, error)
}

type EmployeeRepository interface {
	Create(ctx context.Context, employee *models.Employee) error
	Get(ctx context.Context, id uint) (*models.Employee, error)
	Count(ctx context.Context) (int64, error)
}

// Repositories groups the repositories that take part in a transaction.
type Repositories struct {
	Tables   TableRepository
	Sessions SessionRepository
	Items    OrderItemRepository
	Events   EventRepository
}

// Store hands out repositories and runs work atomically. Every repository
// passed to fn shares one transaction; fn returning an error rolls it back.
type Store interface {
	Repos() Repositories
	WithTransaction(ctx context.Context, fn func(repos Repositories) error) error
}
