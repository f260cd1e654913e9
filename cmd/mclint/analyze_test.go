package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/mclint/core"
)

func TestMatchesGlobs(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		include  []string
		exclude  []string
		expected bool
	}{
		{"no filters", "emails/welcome.amp", nil, nil, true},
		{"include match", "emails/welcome.amp", []string{"**/*.amp"}, nil, true},
		{"include miss", "emails/welcome.sql", []string{"**/*.amp"}, nil, false},
		{"exclude wins", "emails/welcome.amp", []string{"**/*.amp"}, []string{"emails/**"}, false},
		{"exclude only", "vendor/lib.ssjs", nil, []string{"vendor/**"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, matchesGlobs(tt.path, tt.include, tt.exclude))
		})
	}
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub", ".hidden"), 0o755))
	for _, f := range []string{"a.sql", "b.amp", filepath.Join("sub", "c.ssjs"), filepath.Join("sub", ".hidden", "d.sql")} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("x"), 0o644))
	}

	files, err := collectFiles([]string{dir}, nil, nil)
	require.NoError(t, err)
	assert.Len(t, files, 3, "hidden directories are skipped")

	files, err = collectFiles([]string{dir}, []string{"**/*.sql"}, nil)
	require.NoError(t, err)
	assert.Len(t, files, 1)

	_, err = collectFiles([]string{filepath.Join(dir, "missing")}, nil, nil)
	assert.Error(t, err)
}

func TestDialectFor(t *testing.T) {
	d, ok := dialectFor("query.sql", "")
	require.True(t, ok)
	assert.Equal(t, core.DialectSQL, d)

	d, ok = dialectFor("whatever.txt", "ampscript")
	require.True(t, ok)
	assert.Equal(t, core.DialectAMPscript, d)

	_, ok = dialectFor("README.md", "")
	assert.False(t, ok)
}

func TestMergeForSnapshot(t *testing.T) {
	result := core.ValidationResult{
		Valid:       true,
		Errors:      []core.Diagnostic{},
		Warnings:    []core.Diagnostic{{Line: 1, Rule: "w", Severity: core.SeverityWarning}},
		Suggestions: []core.Suggestion{},
	}
	violations := []core.Violation{
		{Diagnostic: core.Diagnostic{Line: 2, Rule: "e", Severity: core.SeverityError}},
		{Diagnostic: core.Diagnostic{Line: 3, Rule: "i", Severity: core.SeverityInfo}},
	}

	merged := mergeForSnapshot(result, violations)
	assert.False(t, merged.Valid)
	assert.Len(t, merged.Errors, 1)
	assert.Len(t, merged.Warnings, 2)
}
