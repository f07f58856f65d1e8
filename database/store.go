package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeremiapane/tablehub/errs"
	"github.com/yeremiapane/tablehub/repository"
	"gorm.io/gorm"
)

// Store is the GORM backed repository.Store.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Repos() repository.Repositories {
	return reposFor(s.db)
}

func (s *Store) WithTransaction(ctx context.Context, fn func(repos repository.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
}

func (s *Store) Audit() repository.AuditRepository {
	return &auditRepo{db: s.db}
}

func (s *Store) Employees() repository.EmployeeRepository {
	return &employeeRepo{db: s.db}
}

func reposFor(db *gorm.DB) repository.Repositories {
	return repository.Repositories{
		Tables:   &tableRepo{db: db},
		Sessions: &sessionRepo{db: db},
		Items:    &orderItemRepo{db: db},
		Events:   &eventRepo{db: db},
	}
}

// translate maps driver errors onto the domain taxonomy.
func translate(err error, what string, id interface{}) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s %v: %w", what, id, errs.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s %v: %w", what, id, errs.ErrStorageConflict)
	default:
		return fmt.Errorf("%s %v: %w", what, id, err)
	}
}
