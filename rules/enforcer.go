package rules

import (
	"sort"

	"github.com/oxhq/mclint/core"
)

// Enforcer applies the rule table to source text. It is independent of the
// dialect validators; overlap between the two is deduplicated downstream by
// the orchestrator on the (rule, line, column) key.
type Enforcer struct {
	rules *RuleSet
}

// NewEnforcer wraps an explicit rule set. Pass DefaultRuleSet() for the
// built-in table.
func NewEnforcer(set *RuleSet) *Enforcer {
	if set == nil {
		set = DefaultRuleSet()
	}
	return &Enforcer{rules: set}
}

// Rules exposes the underlying set for registration APIs.
func (e *Enforcer) Rules() *RuleSet { return e.rules }

// RulesForDialect returns the rules that would fire for a dialect.
func (e *Enforcer) RulesForDialect(dialect core.Dialect) []Definition {
	return e.rules.ForDialect(dialect)
}

// AddCustomRule registers an extra rule at runtime.
func (e *Enforcer) AddCustomRule(def Definition) error {
	return e.rules.Add(def)
}

// RemoveRule deletes a rule by ID.
func (e *Enforcer) RemoveRule(id string) bool {
	return e.rules.Remove(id)
}

// EnforceRules scans code with every rule applicable to the dialect.
// Line rules run per line; global rules run once against the whole text with
// their match offsets converted to line/column positions. Output is
// deduplicated on (rule, line, column) and ordered by severity rank
// descending, then line, then column.
func (e *Enforcer) EnforceRules(code string, dialect core.Dialect) []core.Violation {
	defs := e.rules.ForDialect(dialect)
	lines := core.Lines(code)

	seen := make(map[string]struct{})
	violations := make([]core.Violation, 0)

	record := func(def Definition, line, column int) {
		id := core.ViolationID(def.ID, line, column)
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		violations = append(violations, core.Violation{
			Diagnostic: core.Diagnostic{
				Line:     line,
				Column:   column,
				Message:  def.Message,
				Rule:     def.ID,
				Category: def.Category,
				Severity: def.Severity,
			},
			ID:         id,
			Suggestion: def.Suggestion,
			DocsURL:    def.DocsURL,
		})
	}

	for _, def := range defs {
		if def.Global {
			for _, loc := range def.Pattern.FindAllStringIndex(code, -1) {
				line, column := core.OffsetToPosition(code, loc[0])
				record(def, line, column)
			}
			continue
		}
		for i, line := range lines {
			for _, loc := range def.Pattern.FindAllStringIndex(line, -1) {
				record(def, i+1, loc[0])
			}
		}
	}

	sort.SliceStable(violations, func(i, j int) bool {
		a, b := violations[i], violations[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.Rule < b.Rule
	})

	return violations
}
