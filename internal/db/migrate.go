package db

import (
	"expense_tracker/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logrus for structured logging
	"gorm.io/gorm"               // GORM ORM library
)

// Models lists every table owned by the ledger, parents first
func Models() []any {
	return []any{
		&domain.User{},            // Users own accounts and categories
		&domain.Account{},         // Accounts own expenses
		&domain.Category{},        // Categories own mappings
		&domain.Expense{},         // Expenses reference accounts and categories
		&domain.CategoryMapping{}, // Substring rules
	}
}

// Migrate performs automatic migration for the database schema
func Migrate(db *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := db.AutoMigrate(Models()...); err != nil {
		logrus.WithError(err).Error("Migration failed") // Log migration failure
		return err
	}
	logrus.Info("Migration completed.") // Log successful migration
	return nil
}
