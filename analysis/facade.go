package analysis

import (
	"errors"
	"fmt"

	"github.com/oxhq/mclint/core"
	"github.com/oxhq/mclint/metrics"
	"github.com/oxhq/mclint/providers"
	"github.com/oxhq/mclint/providers/ampscript"
	"github.com/oxhq/mclint/providers/sqlmc"
	"github.com/oxhq/mclint/providers/ssjs"
	"github.com/oxhq/mclint/rules"
)

// ErrUnknownDialect is returned when no validator is registered for the
// requested dialect.
var ErrUnknownDialect = errors.New("unknown dialect")

// Facade is the thin analysis service the orchestrator talks to instead of
// the validators directly, so dialect implementations can be swapped.
type Facade struct {
	registry *providers.Registry
	enforcer *rules.Enforcer
	calc     *metrics.Calculator
}

// New assembles a facade from explicit parts.
func New(registry *providers.Registry, enforcer *rules.Enforcer, calc *metrics.Calculator) *Facade {
	return &Facade{registry: registry, enforcer: enforcer, calc: calc}
}

// NewDefault wires the built-in dialect validators, the default rule table
// and the metrics calculator.
func NewDefault() *Facade {
	registry := providers.NewRegistry()
	registry.Register(ampscript.New())
	registry.Register(ssjs.New())
	registry.Register(sqlmc.New())

	return New(registry, rules.NewEnforcer(rules.DefaultRuleSet()), metrics.NewCalculator())
}

// Registry exposes the validator registry.
func (f *Facade) Registry() *providers.Registry { return f.registry }

// Enforcer exposes the best-practices enforcer.
func (f *Facade) Enforcer() *rules.Enforcer { return f.enforcer }

// Validate runs the full validator bundle for a dialect.
func (f *Facade) Validate(code string, dialect core.Dialect) (core.ValidationResult, error) {
	v, ok := f.registry.Get(dialect)
	if !ok {
		return core.ValidationResult{}, fmt.Errorf("%w: %s", ErrUnknownDialect, dialect)
	}
	return v.Validate(code), nil
}

// ValidateSyntax runs only the syntax pass. Validators without a dedicated
// syntax capability degrade to a full scan filtered down to syntax findings.
func (f *Facade) ValidateSyntax(code string, dialect core.Dialect) ([]core.Diagnostic, error) {
	v, ok := f.registry.Get(dialect)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDialect, dialect)
	}

	if sv, ok := v.(providers.SyntaxValidator); ok {
		return sv.ValidateSyntax(code), nil
	}

	result := v.Validate(code)
	diags := make([]core.Diagnostic, 0)
	for _, d := range result.Errors {
		if d.Category == core.CategorySyntax {
			diags = append(diags, d)
		}
	}
	for _, d := range result.Warnings {
		if d.Category == core.CategorySyntax {
			diags = append(diags, d)
		}
	}
	return diags, nil
}

// AnalyzePerformance returns the metrics report for a source unit. The
// dialect does not need a registered validator; the calculator carries its
// own token tables.
func (f *Facade) AnalyzePerformance(code string, dialect core.Dialect) core.PerformanceMetrics {
	return f.calc.Calculate(code, dialect)
}

// BestPracticeViolations applies the rule table.
func (f *Facade) BestPracticeViolations(code string, dialect core.Dialect) []core.Violation {
	return f.enforcer.EnforceRules(code, dialect)
}

// Capabilities reports what the dialect's validator supports.
func (f *Facade) Capabilities(dialect core.Dialect) (providers.Capabilities, error) {
	v, ok := f.registry.Get(dialect)
	if !ok {
		return providers.Capabilities{}, fmt.Errorf("%w: %s", ErrUnknownDialect, dialect)
	}
	return providers.DetectCapabilities(v), nil
}

// GenerateFixedCode rewrites source for the given diagnostics when the
// dialect supports fix generation; otherwise the source comes back
// unchanged with an empty diff.
func (f *Facade) GenerateFixedCode(code string, dialect core.Dialect, diags []core.Diagnostic) (string, string, error) {
	v, ok := f.registry.Get(dialect)
	if !ok {
		return code, "", fmt.Errorf("%w: %s", ErrUnknownDialect, dialect)
	}
	fg, ok := v.(providers.FixGenerator)
	if !ok {
		return code, "", nil
	}
	fixed, diff := fg.GenerateFixedCode(code, diags)
	return fixed, diff, nil
}
