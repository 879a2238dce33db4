package testutil

import (
	"fmt"
	"io"
	"lounge-portal/internal/client"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewRawDB opens a private in-memory sqlite database with the schema but
// without the one-active-cart index, so tests can stage legacy duplicates.
func NewRawDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps the in-memory database alive and serializes writers
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, client.AutoMigrate(db))

	return db
}

// NewDB is NewRawDB plus the production indexes.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db := NewRawDB(t)
	require.NoError(t, client.EnsureActiveCartIndex(db))

	return db
}

func QuietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
