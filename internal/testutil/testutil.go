// Package testutil builds throwaway databases and redis servers for tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kingsloob1/snipfair-app-sub000/internal/db"
	"github.com/kingsloob1/snipfair-app-sub000/internal/domain"
)

// NewDB opens a private in-memory SQLite database with every table migrated
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err, "open sqlite")
	require.NoError(t, db.AutoMigrate(gdb), "migrate")
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}

// NewFileDB opens a migrated SQLite database in a temporary file. Writers
// take the database lock when their transaction begins and wait for each
// other, so concurrent transactions run one after another.
func NewFileDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=10000&_txlock=immediate"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err, "open sqlite")
	require.NoError(t, db.AutoMigrate(gdb), "migrate")
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}

// NewRedis starts a miniredis server and returns a client connected to it
func NewRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return srv, rdb
}

// CreateUser inserts a user with a wallet holding balance
func CreateUser(t testing.TB, gdb *gorm.DB, username, role string, balance float64) domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	u := domain.User{Username: username, Password: string(hash), Role: role}
	require.NoError(t, gdb.Create(&u).Error)
	w := domain.Wallet{UserID: u.ID, Balance: balance}
	require.NoError(t, gdb.Create(&w).Error)
	u.Wallet = w
	return u
}

// CreatePortfolio inserts an active service for stylistID
func CreatePortfolio(t testing.TB, gdb *gorm.DB, stylistID uint, price float64, minutes int) domain.Portfolio {
	t.Helper()
	p := domain.Portfolio{StylistID: stylistID, Title: "Silk press", Price: price, DurationMinutes: minutes, Active: true}
	require.NoError(t, gdb.Create(&p).Error)
	return p
}

// Balance reads the current wallet balance of userID
func Balance(t testing.TB, gdb *gorm.DB, userID uint) float64 {
	t.Helper()
	var w domain.Wallet
	require.NoError(t, gdb.Where("user_id = ?", userID).First(&w).Error)
	return w.Balance
}
