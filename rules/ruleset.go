package rules

import (
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/oxhq/mclint/core"
)

// Definition is one best-practice rule. Pattern is matched per line unless
// Global is set, in which case it runs once against the whole text and may
// span lines.
type Definition struct {
	ID         string
	Category   core.Category
	Severity   core.Severity
	Pattern    *regexp.Regexp
	Global     bool
	Message    string
	Suggestion string
	DocsURL    string
	Dialects   []core.Dialect
}

// AppliesTo reports whether the rule fires for the given dialect.
func (d Definition) AppliesTo(dialect core.Dialect) bool {
	for _, dl := range d.Dialects {
		if dl == dialect {
			return true
		}
	}
	return false
}

// RuleSet is the mutable rule table. It is created at engine start-up and
// shared; add/remove are the only mutations.
type RuleSet struct {
	mu    sync.RWMutex
	rules map[string]Definition
}

// NewRuleSet builds a set from the given definitions. Later duplicates of
// an ID overwrite earlier ones.
func NewRuleSet(defs ...Definition) *RuleSet {
	set := &RuleSet{rules: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		set.rules[d.ID] = d
	}
	return set
}

// Add registers a rule. Invalid definitions are rejected rather than
// silently dropped later.
func (s *RuleSet) Add(def Definition) error {
	if def.ID == "" {
		return fmt.Errorf("rule id is required")
	}
	if def.Pattern == nil {
		return fmt.Errorf("rule %s: pattern is required", def.ID)
	}
	if len(def.Dialects) == 0 {
		return fmt.Errorf("rule %s: at least one dialect is required", def.ID)
	}
	if def.Severity == "" {
		def.Severity = core.SeverityInfo
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[def.ID] = def
	return nil
}

// Remove deletes a rule by ID, reporting whether it existed.
func (s *RuleSet) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rules[id]
	delete(s.rules, id)
	return ok
}

// ForDialect returns the rules applicable to a dialect, sorted by ID for
// deterministic evaluation order.
func (s *RuleSet) ForDialect(dialect core.Dialect) []Definition {
	s.mu.RLock()
	defer s.mu.RUnlock()

	defs := make([]Definition, 0, len(s.rules))
	for _, d := range s.rules {
		if d.AppliesTo(dialect) {
			defs = append(defs, d)
		}
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs
}

// All returns every rule, sorted by ID.
func (s *RuleSet) All() []Definition {
	s.mu.RLock()
	defer s.mu.RUnlock()

	defs := make([]Definition, 0, len(s.rules))
	for _, d := range s.rules {
		defs = append(defs, d)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs
}

// Len returns the number of registered rules.
func (s *RuleSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rules)
}

var scriptDialects = []core.Dialect{core.DialectAMPscript, core.DialectSSJS, core.DialectJavaScript}

var allDialects = []core.Dialect{
	core.DialectAMPscript, core.DialectSSJS, core.DialectSQL,
	core.DialectHTML, core.DialectCSS, core.DialectJavaScript,
}

// DefaultRuleSet returns the built-in rule table.
func DefaultRuleSet() *RuleSet {
	return NewRuleSet(
		Definition{
			ID:         "sql-select-star",
			Category:   core.CategoryBestPractice,
			Severity:   core.SeverityWarning,
			Pattern:    regexp.MustCompile(`(?i)\bselect\s+\*`),
			Message:    "SELECT * retrieves every column and breaks when the data extension changes",
			Suggestion: "List only the columns the activity needs",
			DocsURL:    "https://docs.mclint.dev/rules/sql-select-star",
			Dialects:   []core.Dialect{core.DialectSQL},
		},
		Definition{
			ID:         "naming_ampscript_variables",
			Category:   core.CategoryBestPractice,
			Severity:   core.SeverityError,
			Pattern:    regexp.MustCompile(`(?i)\bSET\s+[A-Za-z_]\w*\s*=`),
			Message:    "AMPscript variables must carry the @ sigil",
			Suggestion: "Rename the variable to start with @",
			DocsURL:    "https://docs.mclint.dev/rules/naming-ampscript-variables",
			Dialects:   []core.Dialect{core.DialectAMPscript},
		},
		Definition{
			ID:         "hardcoded-credentials",
			Category:   core.CategorySecurity,
			Severity:   core.SeverityError,
			Pattern:    regexp.MustCompile(`(?i)\b(password|passwd|pwd|secret|apikey|api_key|token)\w*\s*[:=]\s*["'][^"']{4,}["']`),
			Message:    "credential literal embedded in source",
			Suggestion: "Move the secret to platform configuration or a key vault",
			Dialects:   scriptDialects,
		},
		Definition{
			ID:         "line-length",
			Category:   core.CategoryMaintainability,
			Severity:   core.SeverityInfo,
			Pattern:    regexp.MustCompile(`^.{121,}$`),
			Message:    "line exceeds 120 characters",
			Suggestion: "Break the expression across lines",
			Dialects:   allDialects,
		},
		Definition{
			ID:         "magic-numbers",
			Category:   core.CategoryMaintainability,
			Severity:   core.SeverityInfo,
			Pattern:    regexp.MustCompile(`[=<>]\s*\d{4,}\b`),
			Message:    "unexplained numeric literal",
			Suggestion: "Name the constant so the next reader knows what it means",
			Dialects:   scriptDialects,
		},
		Definition{
			ID:         "missing-documentation",
			Category:   core.CategoryDocumentation,
			Severity:   core.SeverityInfo,
			Pattern:    regexp.MustCompile(`(?m)^[ \t]*([^/*\n \t][^\n]*)?\n[ \t]*function[ \t]+[A-Za-z_$][\w$]*`),
			Global:     true,
			Message:    "function declared without a preceding comment",
			Suggestion: "Describe what the function does on the line above it",
			DocsURL:    "https://docs.mclint.dev/rules/missing-documentation",
			Dialects:   []core.Dialect{core.DialectSSJS, core.DialectJavaScript},
		},
		Definition{
			ID:         "ssjs-var-keyword",
			Category:   core.CategoryBestPractice,
			Severity:   core.SeverityWarning,
			Pattern:    regexp.MustCompile(`^\s*[A-Za-z_$][\w$]*\s*=[^=]`),
			Message:    "assignment without var creates a global at send time",
			Suggestion: "Declare the variable with var before assigning",
			DocsURL:    "https://docs.mclint.dev/rules/ssjs-var-keyword",
			Dialects:   []core.Dialect{core.DialectSSJS, core.DialectJavaScript},
		},
		Definition{
			ID:         "ampscript-uppercase-functions",
			Category:   core.CategoryBestPractice,
			Severity:   core.SeverityInfo,
			Pattern:    regexp.MustCompile(`\b(lookup(?:rows|orderedrows)?|rowcount|field|row|concat|trim|uppercase|lowercase|length|substring|replace|format|formatdate|now|iif|empty|isemailaddress|requestparameter|queryparameter|attributevalue|redirectto|httpget|httppost|treataslocal)\(`),
			Message:    "AMPscript function call is not in the documented casing",
			Suggestion: "Use the documented PascalCase name, e.g. Lookup or RowCount",
			DocsURL:    "https://docs.mclint.dev/rules/ampscript-uppercase-functions",
			Dialects:   []core.Dialect{core.DialectAMPscript},
		},
		Definition{
			ID:         "todo-comment",
			Category:   core.CategoryDocumentation,
			Severity:   core.SeverityInfo,
			Pattern:    regexp.MustCompile(`\b(TODO|FIXME|HACK)\b`),
			Message:    "unresolved marker comment",
			Suggestion: "Resolve the marker or track it outside the message body",
			Dialects:   allDialects,
		},
		Definition{
			ID:         "ssjs-eval",
			Category:   core.CategorySecurity,
			Severity:   core.SeverityWarning,
			Pattern:    regexp.MustCompile(`\bEval\s*\(`),
			Message:    "Eval executes arbitrary code at send time",
			Suggestion: "Replace Eval with explicit logic",
			Dialects:   []core.Dialect{core.DialectSSJS},
		},
		Definition{
			ID:         "sql-no-lock-hint",
			Category:   core.CategoryBestPractice,
			Severity:   core.SeverityInfo,
			Pattern:    regexp.MustCompile(`(?i)with\s*\(\s*nolock\s*\)`),
			Message:    "NOLOCK hints are ignored by the query activity engine",
			Suggestion: "Drop the hint",
			Dialects:   []core.Dialect{core.DialectSQL},
		},
		Definition{
			ID:         "empty-ampscript-block",
			Category:   core.CategoryMaintainability,
			Severity:   core.SeverityInfo,
			Pattern:    regexp.MustCompile(`%%\[\s*\]%%`),
			Global:     true,
			Message:    "empty AMPscript block",
			Suggestion: "Remove the block",
			Dialects:   []core.Dialect{core.DialectAMPscript},
		},
	)
}
