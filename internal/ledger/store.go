// Package ledger is the persistence layer for users, accounts, categories,
// expenses and substring mappings. Every read that takes a user ID is scoped
// to rows that user owns; rows owned by someone else are reported as not found.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"expense_tracker/internal/domain"

	"gorm.io/gorm"
)

// Store wraps a gorm handle. Inside Transaction the handle is the open tx.
type Store struct {
	db *gorm.DB
}

// New returns a Store backed by db
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for health checks
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn as one unit of work. Returning an error rolls back
// every write fn made through tx.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// lookupErr turns a missing row into domain.NotFound and wraps anything else
func lookupErr(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFound(resource)
	}
	return fmt.Errorf("load %s: %w", resource, err)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
