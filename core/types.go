package core

import (
	"fmt"
	"time"
)

// Dialect identifies one of the source languages the engine understands.
type Dialect string

const (
	DialectAMPscript  Dialect = "ampscript"
	DialectSSJS       Dialect = "ssjs"
	DialectSQL        Dialect = "sql"
	DialectHTML       Dialect = "html"
	DialectCSS        Dialect = "css"
	DialectJavaScript Dialect = "javascript"
)

// Severity ranks a diagnostic. Error outranks warning outranks info.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Rank returns a sortable weight for the severity. Unknown severities rank
// below info so they never displace real findings.
func (s Severity) Rank() int {
	switch s {
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	}
	return 0
}

// Category classifies which analysis pass produced a finding.
type Category string

const (
	CategorySyntax          Category = "syntax"
	CategorySemantics       Category = "semantics"
	CategorySecurity        Category = "security"
	CategoryPerformance     Category = "performance"
	CategoryBestPractice    Category = "best_practice"
	CategoryMaintainability Category = "maintainability"
	CategoryDocumentation   Category = "documentation"
)

// Diagnostic is a located, severity-tagged finding from any analysis pass.
// Lines are 1-indexed; column 0 means "whole line".
type Diagnostic struct {
	Line     int      `json:"line"`
	Column   int      `json:"column,omitempty"`
	Message  string   `json:"message"`
	Rule     string   `json:"rule"`
	Category Category `json:"category"`
	Severity Severity `json:"severity"`
}

// SuggestionKind tags the concern an advisory suggestion addresses.
type SuggestionKind string

const (
	SuggestionPerformance     SuggestionKind = "performance"
	SuggestionBestPractice    SuggestionKind = "best_practice"
	SuggestionSecurity        SuggestionKind = "security"
	SuggestionMaintainability SuggestionKind = "maintainability"
)

// Suggestion is advisory output. It never affects validity.
type Suggestion struct {
	Message string         `json:"message"`
	Kind    SuggestionKind `json:"kind"`
}

// Violation is a diagnostic produced by the best-practices rule table,
// carrying a remediation suggestion. ID is derived from (rule, line, column)
// and is the deduplication key.
type Violation struct {
	Diagnostic
	ID         string `json:"id"`
	Suggestion string `json:"suggestion"`
	DocsURL    string `json:"docs_url,omitempty"`
}

// ViolationID builds the canonical dedup key for a rule match.
func ViolationID(rule string, line, column int) string {
	return fmt.Sprintf("%s:%d:%d", rule, line, column)
}

// ValidationResult is the bundle returned by every dialect validator.
type ValidationResult struct {
	Valid       bool         `json:"valid"`
	Errors      []Diagnostic `json:"errors"`
	Warnings    []Diagnostic `json:"warnings"`
	Suggestions []Suggestion `json:"suggestions"`
}

// ComplexityMetrics captures heuristic complexity measures for one source unit.
type ComplexityMetrics struct {
	Cyclomatic   int `json:"cyclomatic"`
	Cognitive    int `json:"cognitive"`
	NestingDepth int `json:"nesting_depth"`
	LinesOfCode  int `json:"lines_of_code"`
}

// MemoryMetrics estimates the memory profile of one source unit.
type MemoryMetrics struct {
	EstimatedBytes       float64 `json:"estimated_bytes"`
	VariableCount        int     `json:"variable_count"`
	StringConcatenations int     `json:"string_concatenations"`
	ArrayOperations      int     `json:"array_operations"`
}

// RecommendationKind tags how a performance recommendation should be acted on.
type RecommendationKind string

const (
	RecommendRefactoring  RecommendationKind = "refactoring"
	RecommendOptimization RecommendationKind = "optimization"
	RecommendCaching      RecommendationKind = "caching"
)

// Impact grades how much a recommendation is expected to matter.
type Impact string

const (
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

// Recommendation is generated from fixed metric thresholds.
type Recommendation struct {
	Kind    RecommendationKind `json:"kind"`
	Message string             `json:"message"`
	Impact  Impact             `json:"impact"`
	Line    int                `json:"line,omitempty"`
}

// PerformanceMetrics is the full report from the metrics calculator.
type PerformanceMetrics struct {
	Complexity               ComplexityMetrics `json:"complexity"`
	MemoryUsage              MemoryMetrics     `json:"memory_usage"`
	EstimatedExecutionTimeMs float64           `json:"estimated_execution_time_ms"`
	APICallCount             int               `json:"api_call_count"`
	LoopComplexity           int               `json:"loop_complexity"`
	Recommendations          []Recommendation  `json:"recommendations"`
}

// LiveAnalysisResult is the merged snapshot for one completed analysis cycle.
// Valid is true iff Errors is empty.
type LiveAnalysisResult struct {
	Errors      []Diagnostic `json:"errors"`
	Warnings    []Diagnostic `json:"warnings"`
	Suggestions []Suggestion `json:"suggestions"`
	Valid       bool         `json:"valid"`
	ComputedAt  time.Time    `json:"computed_at"`
}

// EmptyResult returns the valid, empty snapshot used when analysis is skipped
// or degraded after a pass failure with no cached fallback.
func EmptyResult() LiveAnalysisResult {
	return LiveAnalysisResult{
		Errors:      []Diagnostic{},
		Warnings:    []Diagnostic{},
		Suggestions: []Suggestion{},
		Valid:       true,
		ComputedAt:  time.Now().UTC(),
	}
}
