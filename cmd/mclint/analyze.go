package main

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oxhq/mclint/analysis"
	"github.com/oxhq/mclint/core"
	"github.com/oxhq/mclint/db"
	"github.com/oxhq/mclint/providers/catalog"
	"github.com/oxhq/mclint/rules"
)

type analyzeOptions struct {
	dialect   string
	include   []string
	exclude   []string
	rulesFile string
	jsonOut   bool
	dbURL     string
}

// fileReport is the JSON shape for one analyzed file.
type fileReport struct {
	File        string            `json:"file"`
	Dialect     core.Dialect      `json:"dialect"`
	Valid       bool              `json:"valid"`
	Errors      []core.Diagnostic `json:"errors"`
	Warnings    []core.Diagnostic `json:"warnings"`
	Suggestions []core.Suggestion `json:"suggestions"`
	Violations  []core.Violation  `json:"violations"`
}

func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze [paths...]",
		Short: "Validate files and enforce best-practice rules",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.dialect, "dialect", "d", "", "force a dialect (ampscript, ssjs, sql)")
	cmd.Flags().StringSliceVar(&opts.include, "include", nil, "glob patterns a file must match (doublestar)")
	cmd.Flags().StringSliceVar(&opts.exclude, "exclude", nil, "glob patterns that drop a file")
	cmd.Flags().StringVar(&opts.rulesFile, "rules-file", "", "TOML file with additional rules")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "emit JSON instead of colored text")
	cmd.Flags().StringVar(&opts.dbURL, "db", os.Getenv("MCLINT_DATABASE_URL"), "persist the latest result per file to this database")

	return cmd
}

func runAnalyze(opts *analyzeOptions, paths []string) error {
	facade := analysis.NewDefault()
	if opts.rulesFile != "" {
		if err := rules.LoadTOML(facade.Enforcer().Rules(), opts.rulesFile); err != nil {
			return fmt.Errorf("load rules file: %w", err)
		}
	}

	var store *db.Store
	if opts.dbURL != "" {
		conn, err := db.Connect(opts.dbURL, false)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		store = db.NewStore(conn)
	}

	files, err := collectFiles(paths, opts.include, opts.exclude)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files matched")
	}

	reports := make([]fileReport, 0, len(files))
	errorCount := 0
	for _, file := range files {
		dialect, ok := dialectFor(file, opts.dialect)
		if !ok {
			logger.Debug("skipping file with unknown dialect", zap.String("file", file))
			continue
		}

		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read %s: %w", file, err)
		}
		source := string(data)

		result, err := facade.Validate(source, dialect)
		if err != nil {
			return fmt.Errorf("analyze %s: %w", file, err)
		}
		violations := facade.BestPracticeViolations(source, dialect)
		for _, v := range violations {
			if v.Severity == core.SeverityError {
				errorCount++
			}
		}
		errorCount += len(result.Errors)

		reports = append(reports, fileReport{
			File:        file,
			Dialect:     dialect,
			Valid:       result.Valid && !hasErrorViolation(violations),
			Errors:      result.Errors,
			Warnings:    result.Warnings,
			Suggestions: result.Suggestions,
			Violations:  violations,
		})

		if store != nil {
			snapshot := mergeForSnapshot(result, violations)
			if err := store.SaveLatest(file, dialect, snapshot); err != nil {
				logger.Warn("snapshot persist failed", zap.String("file", file), zap.Error(err))
			}
		}
	}

	if opts.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return err
		}
	} else {
		printReports(reports)
	}

	if errorCount > 0 {
		os.Exit(1)
	}
	return nil
}

func hasErrorViolation(violations []core.Violation) bool {
	for _, v := range violations {
		if v.Severity == core.SeverityError {
			return true
		}
	}
	return false
}

// mergeForSnapshot folds rule violations into a persistable result the same
// way the real-time merge does.
func mergeForSnapshot(result core.ValidationResult, violations []core.Violation) core.LiveAnalysisResult {
	out := core.LiveAnalysisResult{
		Errors:      append([]core.Diagnostic{}, result.Errors...),
		Warnings:    append([]core.Diagnostic{}, result.Warnings...),
		Suggestions: append([]core.Suggestion{}, result.Suggestions...),
	}
	for _, v := range violations {
		if v.Severity == core.SeverityError {
			out.Errors = append(out.Errors, v.Diagnostic)
		} else {
			out.Warnings = append(out.Warnings, v.Diagnostic)
		}
	}
	out.Valid = len(out.Errors) == 0
	return out
}

// collectFiles expands the path arguments into a filtered file list.
func collectFiles(paths, include, exclude []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			if matchesGlobs(p, include, exclude) {
				files = append(files, p)
			}
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if strings.HasPrefix(d.Name(), ".") && path != p {
					return filepath.SkipDir
				}
				return nil
			}
			if matchesGlobs(path, include, exclude) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", p, err)
		}
	}
	return files, nil
}

func matchesGlobs(path string, include, exclude []string) bool {
	slashed := filepath.ToSlash(path)
	if len(include) > 0 {
		matched := false
		for _, pattern := range include {
			if ok, _ := doublestar.Match(pattern, slashed); ok {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, pattern := range exclude {
		if ok, _ := doublestar.Match(pattern, slashed); ok {
			return false
		}
	}
	return true
}

// dialectFor resolves the dialect from the flag or the file extension.
func dialectFor(file, flag string) (core.Dialect, bool) {
	if flag != "" {
		if info, ok := catalog.LookupByAlias(flag); ok {
			return core.Dialect(info.ID), true
		}
		return core.Dialect(flag), true
	}
	if info, ok := catalog.LookupByExtension(filepath.Ext(file)); ok {
		return core.Dialect(info.ID), true
	}
	return "", false
}

func printReports(reports []fileReport) {
	for _, r := range reports {
		status := green("ok")
		if !r.Valid {
			status = red("invalid")
		}
		fmt.Printf("%s [%s] %s\n", bold(r.File), r.Dialect, status)

		for _, d := range r.Errors {
			fmt.Printf("  %s %d:%d %s (%s)\n", red("error"), d.Line, d.Column, d.Message, d.Rule)
		}
		for _, d := range r.Warnings {
			fmt.Printf("  %s %d:%d %s (%s)\n", yellow("warning"), d.Line, d.Column, d.Message, d.Rule)
		}
		for _, v := range r.Violations {
			label := yellow(string(v.Severity))
			if v.Severity == core.SeverityError {
				label = red(string(v.Severity))
			}
			fmt.Printf("  %s %d:%d %s (%s)\n", label, v.Line, v.Column, v.Message, v.Rule)
			if v.Suggestion != "" {
				fmt.Printf("    %s %s\n", cyan("fix:"), v.Suggestion)
			}
		}
		for _, s := range r.Suggestions {
			fmt.Printf("  %s %s\n", cyan("hint"), s.Message)
		}
	}
}
