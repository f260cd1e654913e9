package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/mclint/core"
	"github.com/oxhq/mclint/models"
)

func newTestStore(t *testing.T) *Store {
	db, err := Connect(":memory:", false)
	require.NoError(t, err)
	t.Cleanup(func() { closeDB(db) })
	return NewStore(db)
}

func sampleResult() core.LiveAnalysisResult {
	return core.LiveAnalysisResult{
		Errors: []core.Diagnostic{{
			Line: 1, Rule: "sql-read-only", Message: "DELETE is not allowed",
			Category: core.CategorySyntax, Severity: core.SeverityError,
		}},
		Warnings: []core.Diagnostic{{
			Line: 2, Rule: "sql-leading-wildcard", Message: "leading wildcard",
			Category: core.CategoryPerformance, Severity: core.SeverityWarning,
		}},
		Suggestions: []core.Suggestion{{
			Message: "list columns explicitly", Kind: core.SuggestionBestPractice,
		}},
		Valid:      false,
		ComputedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestSaveAndLoadLatest(t *testing.T) {
	store := newTestStore(t)
	want := sampleResult()

	require.NoError(t, store.SaveLatest("sess-1", core.DialectSQL, want))

	got, err := store.LoadLatest("sess-1")
	require.NoError(t, err)
	assert.Equal(t, want.Valid, got.Valid)
	assert.Equal(t, want.Errors, got.Errors)
	assert.Equal(t, want.Warnings, got.Warnings)
	assert.Equal(t, want.Suggestions, got.Suggestions)
}

func TestSaveLatestUpserts(t *testing.T) {
	store := newTestStore(t)

	first := sampleResult()
	require.NoError(t, store.SaveLatest("sess-1", core.DialectSQL, first))

	second := core.LiveAnalysisResult{
		Errors:      []core.Diagnostic{},
		Warnings:    []core.Diagnostic{},
		Suggestions: []core.Suggestion{},
		Valid:       true,
		ComputedAt:  time.Now().UTC(),
	}
	require.NoError(t, store.SaveLatest("sess-1", core.DialectSQL, second))

	got, err := store.LoadLatest("sess-1")
	require.NoError(t, err)
	assert.True(t, got.Valid)
	assert.Empty(t, got.Errors)

	// One row per session, and the counter tracks cycles.
	var count int64
	require.NoError(t, store.db.Model(&models.Snapshot{}).Where("session_id = ?", "sess-1").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var session models.Session
	require.NoError(t, store.db.Where("id = ?", "sess-1").First(&session).Error)
	assert.Equal(t, 2, session.AnalysisCount)
}

func TestLoadLatestNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.LoadLatest("missing")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestDeleteLatestKeepsSession(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SaveLatest("sess-1", core.DialectSSJS, sampleResult()))

	require.NoError(t, store.DeleteLatest("sess-1"))
	_, err := store.LoadLatest("sess-1")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	var session models.Session
	assert.NoError(t, store.db.Where("id = ?", "sess-1").First(&session).Error)

	// Deleting an absent snapshot is not an error.
	assert.NoError(t, store.DeleteLatest("sess-1"))
}
