package providers

import (
	"github.com/oxhq/mclint/core"
	"github.com/oxhq/mclint/providers/catalog"
)

// Validator is the minimal contract every dialect implements.
type Validator interface {
	// Metadata
	Dialect() core.Dialect
	Extensions() []string

	// Core operation: full heuristic scan of one source unit.
	Validate(source string) core.ValidationResult
}

// SyntaxValidator exposes the syntax pass on its own, for immediate
// (non-debounced) checks.
type SyntaxValidator interface {
	ValidateSyntax(source string) []core.Diagnostic
}

// SemanticsValidator exposes the semantic pass on its own.
type SemanticsValidator interface {
	ValidateSemantics(source string) []core.Diagnostic
}

// PerformanceAnalyzer exposes dialect-specific performance findings.
type PerformanceAnalyzer interface {
	AnalyzePerformance(source string) []core.Diagnostic
}

// OptimizationAdvisor produces advisory suggestions beyond diagnostics.
type OptimizationAdvisor interface {
	OptimizationSuggestions(source string) []core.Suggestion
}

// FixGenerator rewrites source to address a subset of diagnostics. The
// returned diff is unified-format against the input.
type FixGenerator interface {
	GenerateFixedCode(source string, diagnostics []core.Diagnostic) (fixed, diff string)
}

// Capabilities reports which optional contracts a validator supports, so the
// orchestrator can degrade gracefully instead of assuming a fixed method set.
type Capabilities struct {
	Syntax       bool `json:"syntax"`
	Semantics    bool `json:"semantics"`
	Performance  bool `json:"performance"`
	Optimization bool `json:"optimization"`
	FixGen       bool `json:"fix_gen"`
}

// DetectCapabilities probes a validator for its optional contracts.
func DetectCapabilities(v Validator) Capabilities {
	var c Capabilities
	_, c.Syntax = v.(SyntaxValidator)
	_, c.Semantics = v.(SemanticsValidator)
	_, c.Performance = v.(PerformanceAnalyzer)
	_, c.Optimization = v.(OptimizationAdvisor)
	_, c.FixGen = v.(FixGenerator)
	return c
}

// Registry manages all dialect validators
type Registry struct {
	validators map[core.Dialect]Validator
}

// NewRegistry creates validator registry
func NewRegistry() *Registry {
	return &Registry{
		validators: make(map[core.Dialect]Validator),
	}
}

// Register adds a validator
func (r *Registry) Register(v Validator) {
	r.validators[v.Dialect()] = v
	catalog.Register(catalog.DialectInfo{
		ID:         string(v.Dialect()),
		Extensions: v.Extensions(),
	})
}

// Get retrieves validator by dialect
func (r *Registry) Get(dialect core.Dialect) (Validator, bool) {
	v, exists := r.validators[dialect]
	return v, exists
}

// List returns all validators
func (r *Registry) List() []Validator {
	result := make([]Validator, 0, len(r.validators))
	for _, v := range r.validators {
		result = append(result, v)
	}
	return result
}

// Dialects returns all registered dialect identifiers
func (r *Registry) Dialects() []core.Dialect {
	dialects := make([]core.Dialect, 0, len(r.validators))
	for d := range r.validators {
		dialects = append(dialects, d)
	}
	return dialects
}
