package main

import (
	"expense_tracker/internal/config" // Custom import path (Config)
	"expense_tracker/internal/db"     // Custom import path (Database)

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration
	if err := config.ConfigureLogging(cfg); err != nil {
		logrus.Fatal(err)
	}
	gormDB, err := db.Open(cfg) // Same engine selection as the server
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		logrus.Fatal(err)
	}
}
