package base

import (
	"regexp"
	"strings"

	"github.com/oxhq/mclint/core"
)

// Report accumulates findings during a validator scan and assembles the
// ValidationResult bundle. A single malformed line must never abort the scan,
// so validators record what they can and keep going.
type Report struct {
	errors      []core.Diagnostic
	warnings    []core.Diagnostic
	suggestions []core.Suggestion
}

// Add records a diagnostic under its own severity bucket.
func (r *Report) Add(d core.Diagnostic) {
	if d.Line < 1 {
		d.Line = 1
	}
	if d.Severity == core.SeverityError {
		r.errors = append(r.errors, d)
		return
	}
	r.warnings = append(r.warnings, d)
}

// Error records an error diagnostic.
func (r *Report) Error(line int, rule, message string, category core.Category) {
	r.Add(core.Diagnostic{
		Line:     line,
		Message:  message,
		Rule:     rule,
		Category: category,
		Severity: core.SeverityError,
	})
}

// Warn records a warning diagnostic.
func (r *Report) Warn(line int, rule, message string, category core.Category) {
	r.Add(core.Diagnostic{
		Line:     line,
		Message:  message,
		Rule:     rule,
		Category: category,
		Severity: core.SeverityWarning,
	})
}

// Suggest records an advisory suggestion.
func (r *Report) Suggest(kind core.SuggestionKind, message string) {
	r.suggestions = append(r.suggestions, core.Suggestion{Message: message, Kind: kind})
}

// Errors returns the error diagnostics recorded so far.
func (r *Report) Errors() []core.Diagnostic { return r.errors }

// Warnings returns the warning diagnostics recorded so far.
func (r *Report) Warnings() []core.Diagnostic { return r.warnings }

// Result assembles the final bundle. Valid is true iff no errors were
// recorded.
func (r *Report) Result() core.ValidationResult {
	res := core.ValidationResult{
		Valid:       len(r.errors) == 0,
		Errors:      r.errors,
		Warnings:    r.warnings,
		Suggestions: r.suggestions,
	}
	if res.Errors == nil {
		res.Errors = []core.Diagnostic{}
	}
	if res.Warnings == nil {
		res.Warnings = []core.Diagnostic{}
	}
	if res.Suggestions == nil {
		res.Suggestions = []core.Suggestion{}
	}
	return res
}

var callRe = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_.]*)\s*\(`)

// FunctionCalls extracts identifier( occurrences from a masked line. Dotted
// names are returned whole (DataExtension.Init).
func FunctionCalls(maskedLine string) []string {
	matches := callRe.FindAllStringSubmatch(maskedLine, -1)
	if len(matches) == 0 {
		return nil
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// UnknownFunctions filters calls down to names that are neither in the known
// set nor acceptable as custom identifiers. Keywords that look like calls
// (if, for) are excluded by the keyword set.
func UnknownFunctions(calls []string, known map[string]struct{}, keywords map[string]struct{}, customOK *regexp.Regexp) []string {
	var unknown []string
	for _, call := range calls {
		lower := strings.ToLower(call)
		if _, ok := keywords[lower]; ok {
			continue
		}
		if _, ok := known[lower]; ok {
			continue
		}
		if customOK != nil && customOK.MatchString(call) {
			continue
		}
		unknown = append(unknown, call)
	}
	return unknown
}

// KnownSet builds a lowercase membership set from a name list.
func KnownSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[strings.ToLower(n)] = struct{}{}
	}
	return set
}
