package db

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oxhq/mclint/models"
)

func TestConnect(t *testing.T) {
	tests := []struct {
		name          string
		dsn           string
		debug         bool
		expectedError bool
		errorContains string
	}{
		{
			name: "memory database",
			dsn:  ":memory:",
		},
		{
			name:  "memory database with debug logging",
			dsn:   ":memory:",
			debug: true,
		},
		{
			name: "file database",
			dsn:  filepath.Join(t.TempDir(), "mclint.db"),
		},
		{
			name: "nested directory creation",
			dsn:  filepath.Join(t.TempDir(), "nested", "path", "mclint.db"),
		},
		{
			name:          "libsql URL without a reachable server",
			dsn:           "libsql://127.0.0.1:19999",
			expectedError: true,
			errorContains: "failed to connect",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := Connect(tt.dsn, tt.debug)

			if tt.expectedError {
				assert.Error(t, err)
				if tt.errorContains != "" {
					assert.Contains(t, err.Error(), tt.errorContains)
				}
				assert.Nil(t, db)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, db)
			defer closeDB(db)

			sqlDB, err := db.DB()
			require.NoError(t, err)
			require.NoError(t, sqlDB.Ping())

			var fkEnabled int
			err = db.Raw("PRAGMA foreign_keys").Scan(&fkEnabled).Error
			require.NoError(t, err)
			assert.Equal(t, 1, fkEnabled)

			for _, table := range []string{"sessions", "snapshots"} {
				assert.True(t, db.Migrator().HasTable(table), "Table %s should exist", table)
			}
		})
	}
}

func TestIsURL(t *testing.T) {
	tests := []struct {
		dsn      string
		expected bool
	}{
		{"http://example.com", true},
		{"https://example.com", true},
		{"libsql://test.turso.io", true},
		{"/path/to/database.db", false},
		{"database.db", false},
		{":memory:", false},
		{"", false},
		{"http", false},
		{"http:/", false},
		{"libsq", false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("dsn_%s", tt.dsn), func(t *testing.T) {
			assert.Equal(t, tt.expected, isURL(tt.dsn))
		})
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := Connect(":memory:", false)
	require.NoError(t, err)
	defer closeDB(db)

	// Connect already migrated once; a second run must not fail.
	require.NoError(t, Migrate(db))
	assert.True(t, db.Migrator().HasTable(&models.Session{}))
	assert.True(t, db.Migrator().HasTable(&models.Snapshot{}))
}

func TestConnectDirectoryCreation(t *testing.T) {
	tempDir := filepath.Join(os.TempDir(), fmt.Sprintf("mclint_test_%d", os.Getpid()))
	dbPath := filepath.Join(tempDir, "nested", "deep", "test.db")
	defer os.RemoveAll(tempDir)

	db, err := Connect(dbPath, false)
	require.NoError(t, err)
	defer closeDB(db)

	assert.DirExists(t, filepath.Dir(dbPath))
	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
