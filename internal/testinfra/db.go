// Package testinfra provides shared fixtures for tests: an isolated in-memory
// SQLite database migrated with the application models.
package testinfra

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/notes-bin/imgshare/internal/config"
	"github.com/notes-bin/imgshare/internal/database"
)

// NewDB opens a private in-memory database for t and closes it on cleanup.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		Driver:          "sqlite",
		DSN:             fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString()),
		MaxIdleConns:    1,
		MaxOpenConns:    1,
		ConnMaxLifetime: time.Hour,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		_ = database.Close(db)
	})
	return db
}
