package persistence

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dfryer1193/savergallery/shared/db/sqlite"
)

func setupTestMediaDB(t *testing.T) *sql.DB {
	t.Helper()
	database := sqlite.NewSQLiteDB(&sqlite.SQLiteConfig{Path: filepath.Join(t.TempDir(), "media.db")})
	if err := database.Connect(); err != nil {
		t.Fatalf("Failed to connect database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database.DB()
}
