package db

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oxhq/mclint/core"
	"github.com/oxhq/mclint/models"
)

// ErrSnapshotNotFound is returned when a session has no persisted snapshot.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Store persists the latest analysis snapshot per session.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an open connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// SaveLatest upserts the snapshot row for a session and bumps the session's
// analysis counter.
func (s *Store) SaveLatest(sessionID string, dialect core.Dialect, result core.LiveAnalysisResult) error {
	errsJSON, err := json.Marshal(result.Errors)
	if err != nil {
		return fmt.Errorf("marshal errors: %w", err)
	}
	warnsJSON, err := json.Marshal(result.Warnings)
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}
	suggJSON, err := json.Marshal(result.Suggestions)
	if err != nil {
		return fmt.Errorf("marshal suggestions: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		session := models.Session{ID: sessionID, Dialect: string(dialect)}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{"dialect": string(dialect)}),
		}).Create(&session).Error; err != nil {
			return fmt.Errorf("upsert session: %w", err)
		}
		if err := tx.Model(&models.Session{}).Where("id = ?", sessionID).
			UpdateColumn("analysis_count", gorm.Expr("analysis_count + 1")).Error; err != nil {
			return fmt.Errorf("bump session counter: %w", err)
		}

		snap := models.Snapshot{
			SessionID:    sessionID,
			Dialect:      string(dialect),
			Valid:        result.Valid,
			ErrorCount:   len(result.Errors),
			WarningCount: len(result.Warnings),
			Errors:       errsJSON,
			Warnings:     warnsJSON,
			Suggestions:  suggJSON,
			ComputedAt:   result.ComputedAt,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"dialect", "valid", "error_count", "warning_count",
				"errors", "warnings", "suggestions", "computed_at",
			}),
		}).Create(&snap).Error; err != nil {
			return fmt.Errorf("upsert snapshot: %w", err)
		}
		return nil
	})
}

// LoadLatest reads the persisted snapshot back into a result.
func (s *Store) LoadLatest(sessionID string) (core.LiveAnalysisResult, error) {
	var snap models.Snapshot
	err := s.db.Where("session_id = ?", sessionID).First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.LiveAnalysisResult{}, fmt.Errorf("%w: %s", ErrSnapshotNotFound, sessionID)
	}
	if err != nil {
		return core.LiveAnalysisResult{}, fmt.Errorf("load snapshot: %w", err)
	}

	result := core.LiveAnalysisResult{
		Valid:      snap.Valid,
		ComputedAt: snap.ComputedAt,
	}
	if err := json.Unmarshal(snap.Errors, &result.Errors); err != nil {
		return core.LiveAnalysisResult{}, fmt.Errorf("unmarshal errors: %w", err)
	}
	if err := json.Unmarshal(snap.Warnings, &result.Warnings); err != nil {
		return core.LiveAnalysisResult{}, fmt.Errorf("unmarshal warnings: %w", err)
	}
	if err := json.Unmarshal(snap.Suggestions, &result.Suggestions); err != nil {
		return core.LiveAnalysisResult{}, fmt.Errorf("unmarshal suggestions: %w", err)
	}
	return result, nil
}

// DeleteLatest removes the snapshot row. The session row stays; clearing a
// cache is not ending the session.
func (s *Store) DeleteLatest(sessionID string) error {
	return s.db.Where("session_id = ?", sessionID).Delete(&models.Snapshot{}).Error
}
