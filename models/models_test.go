package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func TestSessionTableName(t *testing.T) {
	assert.Equal(t, "sessions", Session{}.TableName())
}

func TestSnapshotTableName(t *testing.T) {
	assert.Equal(t, "snapshots", Snapshot{}.TableName())
}

func TestSessionModel(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(db)

	tests := []struct {
		name    string
		session Session
	}{
		{
			name:    "minimal session",
			session: Session{ID: "session-001"},
		},
		{
			name: "session with dialect and counter",
			session: Session{
				ID:            "session-002",
				Dialect:       "ampscript",
				AnalysisCount: 7,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.Create(&tt.session).Error
			require.NoError(t, err)

			var retrieved Session
			err = db.Where("id = ?", tt.session.ID).First(&retrieved).Error
			require.NoError(t, err)
			assert.Equal(t, tt.session.Dialect, retrieved.Dialect)
			assert.Equal(t, tt.session.AnalysisCount, retrieved.AnalysisCount)
			assert.False(t, retrieved.CreatedAt.IsZero())
		})
	}
}

func TestSnapshotModel(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(db)

	session := Session{ID: "snap-session-001", Dialect: "sql"}
	require.NoError(t, db.Create(&session).Error)

	errs := []map[string]any{{"line": 3, "rule": "sql-read-only", "severity": "error"}}
	errsJSON, err := json.Marshal(errs)
	require.NoError(t, err)

	snap := Snapshot{
		SessionID:   session.ID,
		Dialect:     "sql",
		Valid:       false,
		ErrorCount:  1,
		Errors:      datatypes.JSON(errsJSON),
		Warnings:    datatypes.JSON(`[]`),
		Suggestions: datatypes.JSON(`[]`),
		ComputedAt:  time.Now().UTC(),
	}
	require.NoError(t, db.Create(&snap).Error)

	var retrieved Snapshot
	require.NoError(t, db.Where("session_id = ?", session.ID).First(&retrieved).Error)
	assert.False(t, retrieved.Valid)
	assert.Equal(t, 1, retrieved.ErrorCount)
	assert.False(t, retrieved.UpdatedAt.IsZero())

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(retrieved.Errors, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "sql-read-only", decoded[0]["rule"])
}

func TestSnapshotUniquePerSession(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(db)

	session := Session{ID: "unique-session-001"}
	require.NoError(t, db.Create(&session).Error)

	first := Snapshot{SessionID: session.ID, Dialect: "ssjs", Valid: true}
	require.NoError(t, db.Create(&first).Error)

	second := Snapshot{SessionID: session.ID, Dialect: "ssjs", Valid: false}
	err := db.Create(&second).Error
	assert.Error(t, err, "one snapshot row per session")
}

func TestSessionSnapshotRelationship(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(db)

	session := Session{ID: "rel-session-001", Dialect: "ampscript"}
	require.NoError(t, db.Create(&session).Error)

	snap := Snapshot{SessionID: session.ID, Dialect: "ampscript", Valid: true}
	require.NoError(t, db.Create(&snap).Error)

	var withSnap Session
	require.NoError(t, db.Preload("Snapshot").Where("id = ?", session.ID).First(&withSnap).Error)
	require.NotNil(t, withSnap.Snapshot)
	assert.Equal(t, snap.ID, withSnap.Snapshot.ID)

	var bare Session
	require.NoError(t, db.Create(&Session{ID: "rel-session-002"}).Error)
	require.NoError(t, db.Preload("Snapshot").Where("id = ?", "rel-session-002").First(&bare).Error)
	assert.Nil(t, bare.Snapshot)
}

// Helper functions

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	_, err = sqlDB.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&Session{}, &Snapshot{}))
	return db
}

func cleanupTestDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
