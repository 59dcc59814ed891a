package db

import (
	"github.com/kingsloob1/snipfair-app-sub000/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus"

	"gorm.io/driver/mysql" // MySQL driver for GORM
	"gorm.io/gorm"         // GORM ORM library
)

// Models lists every table the service owns, in dependency order
var Models = []any{
	&domain.User{},
	&domain.Wallet{},
	&domain.Transaction{},
	&domain.Portfolio{},
	&domain.Appointment{},
	&domain.Deposit{},
	&domain.Pouch{},
	&domain.Dispute{},
	&domain.Review{},
	&domain.Reward{},
	&domain.Setting{},
	&domain.GatewayPayment{},
	&domain.Withdrawal{},
	&domain.Conversation{},
	&domain.Message{},
}

// AutoMigrate creates tables, missing foreign keys, constraints, columns and indexes
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models...)
}

// Migrate performs automatic migration for the database schema
func Migrate(dsn string) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{}) // Open a connection to the database
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err) // Log fatal error if connection fails
	}
	if err := AutoMigrate(db); err != nil {
		logrus.Fatalf("migration failed: %v", err) // Log fatal error if migration fails
	}
	logrus.Info("Migration completed.") // Log successful migration
}
