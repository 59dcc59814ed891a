package main

import (
	"github.com/kingsloob1/snipfair-app-sub000/internal/config" // Configuration
	"github.com/kingsloob1/snipfair-app-sub000/internal/db"     // Database migration
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration
	db.Migrate(cfg.DSN())      // Create or update every table
}
