package ssjs

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/oxhq/mclint/core"
	"github.com/oxhq/mclint/providers/base"
	"github.com/oxhq/mclint/providers/catalog"
)

// SSJS is the server-side scripting dialect. It exposes the rich contract:
// each pass is callable on its own, plus fix generation, all behind the
// capability interfaces in providers.

func init() {
	catalog.Register(catalog.DialectInfo{
		ID:         string(core.DialectSSJS),
		Aliases:    []string{"ssjs", "server-script", "serverjs"},
		Extensions: []string{".ssjs"},
	})
}

// Validator performs line-oriented heuristic analysis of SSJS.
type Validator struct{}

// New creates an SSJS validator.
func New() *Validator {
	return &Validator{}
}

// Dialect returns the dialect identifier.
func (v *Validator) Dialect() core.Dialect { return core.DialectSSJS }

// Extensions returns supported file extensions.
func (v *Validator) Extensions() []string { return []string{".ssjs"} }

var (
	scriptTagRe     = regexp.MustCompile(`(?i)<script\b[^>]*>`)
	runatAttrRe     = regexp.MustCompile(`(?i)runat\s*=\s*["']?server`)
	platformLoadRe  = regexp.MustCompile(`Platform\.Load\s*\(`)
	platformUseRe   = regexp.MustCompile(`\bPlatform\.\w`)
	varDeclRe       = regexp.MustCompile(`\bvar\s+([A-Za-z_$][\w$]*)`)
	funcDeclRe      = regexp.MustCompile(`\bfunction\s+([A-Za-z_$][\w$]*)\s*\(`)
	assignRe        = regexp.MustCompile(`^\s*([A-Za-z_$][\w$]*)\s*=[^=]`)
	assignCondRe    = regexp.MustCompile(`\b(if|while)\s*\([^=!<>]*[^=!<>]=[^=][^)]*\)`)
	deInitRe        = regexp.MustCompile(`DataExtension\.Init\s*\(`)
	boundInitRe     = regexp.MustCompile(`(?:var\s+)?[A-Za-z_$][\w$]*\s*=\s*DataExtension\.Init\s*\(`)
	loopStartRe     = regexp.MustCompile(`\b(for|while)\s*\(`)
	dataCallRe      = regexp.MustCompile(`(DataExtension\.Init|\.Rows\.Retrieve|\.Rows\.Lookup|Platform\.Function\.Lookup(?:Rows)?|HTTP\.(?:Get|Post))\s*\(`)
	emptyRetrieveRe = regexp.MustCompile(`\.Rows\.Retrieve\s*\(\s*\)`)
	requestInputRe  = regexp.MustCompile(`Request\.(GetQueryStringParameter|GetFormField)\s*\(`)
	writeCallRe     = regexp.MustCompile(`\bWrite\s*\(`)
	credentialRe    = regexp.MustCompile(`(?i)\b\w*(password|passwd|secret|apikey|api_key|token)\w*\s*[:=]\s*["'][^"']+["']`)
	lookupConcatRe  = regexp.MustCompile(`(\.Rows\.Lookup|Platform\.Function\.Lookup(?:Rows)?)\s*\([^)]*\+`)
	semicolonOKRe   = regexp.MustCompile(`[;{}(,:]\s*$|^\s*$|^\s*//|\b(else|try|do)\s*$`)
	stmtLineRe      = regexp.MustCompile(`^\s*(var\s|return\b|[A-Za-z_$][\w$]*\s*=[^=]|[A-Za-z_$][\w$.]*\s*\()`)
)

// Validate runs every pass and bundles the findings. Security findings are
// only reachable through this composite call.
func (v *Validator) Validate(source string) core.ValidationResult {
	var report base.Report

	for _, d := range v.ValidateSyntax(source) {
		report.Add(d)
	}
	for _, d := range v.ValidateSemantics(source) {
		report.Add(d)
	}
	for _, d := range v.scanSecurity(source) {
		report.Add(d)
	}
	for _, d := range v.AnalyzePerformance(source) {
		report.Add(d)
	}
	for _, s := range v.OptimizationSuggestions(source) {
		report.Suggest(s.Kind, s.Message)
	}

	return report.Result()
}

// ValidateSyntax scans for delimiter problems, statements missing
// terminators, assignment-vs-comparison confusion and script tags without
// the server attribute.
func (v *Validator) ValidateSyntax(source string) []core.Diagnostic {
	var diags []core.Diagnostic
	lines := core.Lines(source)

	declared := declaredFunctions(source)

	for i, raw := range lines {
		lineNo := i + 1
		line := core.MaskLiterals(raw, "//")

		if !core.QuotesBalanced(raw) {
			diags = append(diags, diag(lineNo, "ssjs-unterminated-string",
				"unterminated string literal", core.CategorySyntax, core.SeverityError))
		}

		if scriptTagRe.MatchString(raw) && !runatAttrRe.MatchString(raw) {
			diags = append(diags, diag(lineNo, "ssjs-missing-runat",
				`script tag requires runat="server" to execute on the platform`, core.CategorySyntax, core.SeverityError))
		}

		if assignCondRe.MatchString(line) {
			diags = append(diags, diag(lineNo, "ssjs-assignment-in-condition",
				"assignment inside a condition; use == for comparison", core.CategorySyntax, core.SeverityError))
		}

		if stmtLineRe.MatchString(line) && !semicolonOKRe.MatchString(line) &&
			!loopStartRe.MatchString(line) && !assignCondRe.MatchString(line) &&
			!strings.Contains(line, "function") && !strings.Contains(line, "if") {
			diags = append(diags, diag(lineNo, "ssjs-missing-semicolon",
				"statement is missing its terminating semicolon", core.CategorySyntax, core.SeverityWarning))
		}

		for _, name := range base.UnknownFunctions(undottedCalls(line), builtinFunctions, keywordSet, nil) {
			if _, ok := declared[name]; ok {
				continue
			}
			diags = append(diags, diag(lineNo, "ssjs-unknown-function",
				fmt.Sprintf("unknown function %q", name), core.CategorySyntax, core.SeverityWarning))
		}
	}

	masked := maskAll(source)
	if n := core.DelimiterBalance(masked, "{", "}"); n != 0 {
		diags = append(diags, diag(len(lines), "ssjs-unbalanced-brace",
			fmt.Sprintf("unbalanced braces (%+d)", n), core.CategorySyntax, core.SeverityError))
	}
	if n := core.DelimiterBalance(masked, "(", ")"); n != 0 {
		diags = append(diags, diag(len(lines), "ssjs-unbalanced-paren",
			fmt.Sprintf("unbalanced parentheses (%+d)", n), core.CategorySyntax, core.SeverityError))
	}

	return diags
}

// ValidateSemantics tracks declared-vs-used variables and the platform
// conventions: Core must be loaded near the top, and initialization results
// must be bound.
func (v *Validator) ValidateSemantics(source string) []core.Diagnostic {
	var diags []core.Diagnostic
	lines := core.Lines(source)
	masked := maskAll(source)

	if platformUseRe.MatchString(masked) && !platformLoadRe.MatchString(masked) {
		diags = append(diags, diag(1, "ssjs-missing-platform-load",
			`Platform functions are used but Platform.Load("Core", ...) never runs`, core.CategorySemantics, core.SeverityWarning))
	}

	declared := make(map[string]int)
	for i, raw := range lines {
		line := core.MaskLiterals(raw, "//")
		for _, m := range varDeclRe.FindAllStringSubmatch(line, -1) {
			if _, ok := declared[m[1]]; !ok {
				declared[m[1]] = i + 1
			}
		}
		if m := funcDeclRe.FindStringSubmatch(line); m != nil {
			declared[m[1]] = i + 1
		}
	}

	for i, raw := range lines {
		lineNo := i + 1
		line := core.MaskLiterals(raw, "//")

		if m := assignRe.FindStringSubmatch(line); m != nil {
			if _, ok := declared[m[1]]; !ok {
				diags = append(diags, diag(lineNo, "ssjs-undeclared-variable",
					fmt.Sprintf("%s is assigned without a var declaration", m[1]), core.CategorySemantics, core.SeverityWarning))
			}
		}

		if deInitRe.MatchString(line) && !boundInitRe.MatchString(line) {
			diags = append(diags, diag(lineNo, "ssjs-unbound-init",
				"DataExtension.Init result must be assigned to a variable", core.CategorySemantics, core.SeverityWarning))
		}
	}

	names := make([]string, 0, len(declared))
	for name := range declared {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if declared[names[i]] != declared[names[j]] {
			return declared[names[i]] < declared[names[j]]
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		uses := core.CountPattern(regexp.MustCompile(`\b`+regexp.QuoteMeta(name)+`\b`), masked)
		if uses <= 1 {
			diags = append(diags, diag(declared[name], "ssjs-unused-variable",
				fmt.Sprintf("%s is declared but never used", name), core.CategorySemantics, core.SeverityWarning))
		}
	}

	return diags
}

func (v *Validator) scanSecurity(source string) []core.Diagnostic {
	var diags []core.Diagnostic

	for i, raw := range core.Lines(source) {
		lineNo := i + 1
		line := core.MaskLiterals(raw, "//")

		if credentialRe.MatchString(raw) {
			diags = append(diags, diag(lineNo, "ssjs-hardcoded-credential",
				"credential value assigned from a string literal; use a key vault or environment configuration", core.CategorySecurity, core.SeverityError))
		}

		if requestInputRe.MatchString(line) && writeCallRe.MatchString(line) {
			diags = append(diags, diag(lineNo, "ssjs-unescaped-output",
				"request parameter written to output without escaping; wrap it in Platform.Function.HTMLEncode", core.CategorySecurity, core.SeverityError))
		}

		if lookupConcatRe.MatchString(line) {
			diags = append(diags, diag(lineNo, "ssjs-injection-risk",
				"string concatenation feeds a lookup filter; pass values as separate arguments", core.CategorySecurity, core.SeverityError))
		}
	}

	return diags
}

// AnalyzePerformance flags expensive primitives inside loops and unbounded
// retrieves. Loop depth increments on loop-start tokens and decrements on
// block-end tokens; partially typed code clamps at zero.
func (v *Validator) AnalyzePerformance(source string) []core.Diagnostic {
	var diags []core.Diagnostic
	var loops core.DepthTracker

	for i, raw := range core.Lines(source) {
		lineNo := i + 1
		line := core.MaskLiterals(raw, "//")

		if loopStartRe.MatchString(line) {
			loops.Open(1)
		}

		if m := dataCallRe.FindStringSubmatch(line); m != nil && loops.Depth() > 0 {
			severity := core.SeverityWarning
			if loops.Depth() >= 2 {
				severity = core.SeverityError
			}
			diags = append(diags, diag(lineNo, "ssjs-data-call-in-loop",
				fmt.Sprintf("%s executed inside a loop (depth %d); initialize outside and reuse", strings.TrimRight(m[1], " ("), loops.Depth()),
				core.CategoryPerformance, severity))
		}

		if emptyRetrieveRe.MatchString(line) {
			diags = append(diags, diag(lineNo, "ssjs-unfiltered-retrieve",
				"Retrieve without a filter pulls the whole data extension", core.CategoryPerformance, core.SeverityWarning))
		}

		if loops.Depth() > 0 && strings.Contains(line, "}") {
			loops.Close(strings.Count(line, "}"))
		}
	}

	return diags
}

// OptimizationSuggestions reports batchable repeated calls and concatenation
// patterns worth replacing.
func (v *Validator) OptimizationSuggestions(source string) []core.Suggestion {
	var suggestions []core.Suggestion

	calls := make(map[string]int)
	for _, raw := range core.Lines(source) {
		line := core.MaskLiterals(raw, "//")
		for _, m := range dataCallRe.FindAllStringSubmatch(line, -1) {
			calls[m[1]]++
		}
	}
	names := make([]string, 0, len(calls))
	for name := range calls {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if count := calls[name]; count >= 3 {
			suggestions = append(suggestions, core.Suggestion{
				Kind: core.SuggestionPerformance,
				Message: fmt.Sprintf("%s is called %d times; batch the lookups into a single retrieve",
					name, count),
			})
		}
	}

	masked := maskAll(source)
	if concats := strings.Count(masked, "+="); concats > 5 {
		suggestions = append(suggestions, core.Suggestion{
			Kind:    core.SuggestionPerformance,
			Message: fmt.Sprintf("%d string concatenations; collect parts in an array and join once", concats),
		})
	}

	return suggestions
}

func diag(line int, rule, message string, category core.Category, severity core.Severity) core.Diagnostic {
	return core.Diagnostic{
		Line:     line,
		Message:  message,
		Rule:     rule,
		Category: category,
		Severity: severity,
	}
}

func maskAll(source string) string {
	lines := core.Lines(source)
	masked := make([]string, len(lines))
	for i, line := range lines {
		masked[i] = core.MaskLiterals(line, "//")
	}
	return strings.Join(masked, "\n")
}

func declaredFunctions(source string) map[string]struct{} {
	declared := make(map[string]struct{})
	for _, m := range funcDeclRe.FindAllStringSubmatch(maskAll(source), -1) {
		declared[m[1]] = struct{}{}
	}
	return declared
}

var undottedCallRe = regexp.MustCompile(`(?:^|[^\w$.])([A-Za-z_$][\w$]*)\s*\(`)

// undottedCalls extracts bare call names; method calls on objects are left to
// their owners, only free functions are checked against the allow-list.
func undottedCalls(maskedLine string) []string {
	matches := undottedCallRe.FindAllStringSubmatch(maskedLine, -1)
	if len(matches) == 0 {
		return nil
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}
