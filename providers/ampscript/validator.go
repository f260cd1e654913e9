package ampscript

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/oxhq/mclint/core"
	"github.com/oxhq/mclint/providers/base"
	"github.com/oxhq/mclint/providers/catalog"
)

// AMPscript is the templating dialect embedded in email bodies and cloud
// pages. It exposes the simple validator contract: one Validate call
// returning the full bundle.

func init() {
	catalog.Register(catalog.DialectInfo{
		ID:         string(core.DialectAMPscript),
		Aliases:    []string{"amp", "ampscript", "template-script"},
		Extensions: []string{".amp", ".ampscript"},
	})
}

// Validator performs line-oriented heuristic analysis of AMPscript.
type Validator struct{}

// New creates an AMPscript validator.
func New() *Validator {
	return &Validator{}
}

// Dialect returns the dialect identifier.
func (v *Validator) Dialect() core.Dialect { return core.DialectAMPscript }

// Extensions returns supported file extensions.
func (v *Validator) Extensions() []string { return []string{".amp", ".ampscript"} }

var (
	outputOpenRe   = regexp.MustCompile(`%%=`)
	outputCloseRe  = regexp.MustCompile(`=%%`)
	varDeclRe      = regexp.MustCompile(`(?i)\bVAR\s+(@\w+(?:\s*,\s*@\w+)*)`)
	setStmtRe      = regexp.MustCompile(`(?i)\bSET\s+(@\w+)`)
	forStmtRe      = regexp.MustCompile(`(?i)\bFOR\s+(@\w+)\s*=`)
	nextStmtRe     = regexp.MustCompile(`(?i)\bNEXT\b`)
	ifStmtRe       = regexp.MustCompile(`(?i)\bIF\b`)
	elseIfRe       = regexp.MustCompile(`(?i)\bELSEIF\b`)
	endIfRe        = regexp.MustCompile(`(?i)\bENDIF\b`)
	varUseRe       = regexp.MustCompile(`@\w+`)
	credentialRe   = regexp.MustCompile(`(?i)\bSET\s+@\w*(password|passwd|secret|apikey|api_key|token)\w*\s*=\s*['"][^'"]+['"]`)
	lookupCallRe   = regexp.MustCompile(`(?i)\b(Lookup|LookupRows|LookupOrderedRows)\s*\(`)
	requestParamRe = regexp.MustCompile(`(?i)\b(RequestParameter|QueryParameter)\s*\(`)
	customNameRe   = regexp.MustCompile(`^[A-Z][A-Za-z0-9]*_[A-Za-z0-9_]+$`)
)

// Validate runs the syntax, semantic, security and performance scans and
// bundles the findings.
func (v *Validator) Validate(source string) core.ValidationResult {
	var report base.Report

	lines := core.Lines(source)
	code := codeLines(lines)
	v.scanSyntax(source, lines, code, &report)
	v.scanSemantics(lines, code, &report)
	v.scanSecurity(lines, code, &report)
	v.scanPerformance(lines, code, &report)

	return report.Result()
}

var stmtStartRe = regexp.MustCompile(`(?i)^\s*(SET|VAR|IF|ELSEIF|ELSE|ENDIF|FOR|NEXT)\b`)

// codeLines marks which lines are AMPscript rather than surrounding email
// body text. A line counts when it sits inside a %%[ ]%% block, carries an
// output block, or starts with a statement keyword (bare snippets pasted
// into the editor have no block markers).
func codeLines(lines []string) []bool {
	code := make([]bool, len(lines))
	inBlock := false
	for i, line := range lines {
		opens := strings.Contains(line, "%%[")
		closes := strings.Contains(line, "]%%")
		if inBlock || opens || closes || strings.Contains(line, "%%=") || stmtStartRe.MatchString(line) {
			code[i] = true
		}
		if opens {
			inBlock = true
		}
		if closes {
			inBlock = false
		}
	}
	return code
}

func (v *Validator) scanSyntax(source string, lines []string, code []bool, report *base.Report) {
	// Block delimiters are matched globally: code typed mid-edit routinely
	// has an open block at the bottom of the buffer.
	if n := core.DelimiterBalance(source, "%%[", "]%%"); n > 0 {
		report.Error(lastLine(lines), "ampscript-unclosed-block",
			"AMPscript block '%%[' is never closed with ']%%'", core.CategorySyntax)
	} else if n < 0 {
		report.Error(lastLine(lines), "ampscript-unopened-block",
			"']%%' closes a block that was never opened", core.CategorySyntax)
	}

	ifDepth, forDepth := 0, 0
	for i, raw := range lines {
		if !code[i] {
			continue
		}
		lineNo := i + 1
		line := core.MaskLiterals(raw, "")

		// Output blocks close on the same line they open.
		opens := core.CountPattern(outputOpenRe, line)
		closes := core.CountPattern(outputCloseRe, line)
		if opens > closes {
			report.Error(lineNo, "ampscript-output-block",
				"output block '%%=' must be closed with '=%%' on the same line", core.CategorySyntax)
		} else if closes > opens {
			report.Error(lineNo, "ampscript-output-block",
				"'=%%' closes an output block that was never opened", core.CategorySyntax)
		}

		if !core.QuotesBalanced(raw) {
			report.Error(lineNo, "ampscript-unmatched-quote",
				"unterminated string literal", core.CategorySyntax)
		}

		if ifStmtRe.MatchString(line) && !elseIfRe.MatchString(line) && !endIfRe.MatchString(line) {
			ifDepth++
		}
		if endIfRe.MatchString(line) {
			ifDepth--
		}
		if forStmtRe.MatchString(line) {
			forDepth++
		}
		if nextStmtRe.MatchString(line) {
			forDepth--
		}

		for _, name := range base.UnknownFunctions(base.FunctionCalls(line), knownFunctions, keywordSet, customNameRe) {
			report.Warn(lineNo, "ampscript-unknown-function",
				fmt.Sprintf("unknown AMPscript function %q", name), core.CategorySyntax)
		}
	}

	if ifDepth > 0 {
		report.Error(lastLine(lines), "ampscript-missing-endif",
			"IF without matching ENDIF", core.CategorySyntax)
	}
	if forDepth > 0 {
		report.Error(lastLine(lines), "ampscript-missing-next",
			"FOR without matching NEXT", core.CategorySyntax)
	}
}

func (v *Validator) scanSemantics(lines []string, code []bool, report *base.Report) {
	declared := make(map[string]int) // var -> declaration line
	used := make(map[string]bool)

	for i, raw := range lines {
		if !code[i] {
			continue
		}
		line := core.MaskLiterals(raw, "")

		for _, m := range varDeclRe.FindAllStringSubmatch(line, -1) {
			for _, name := range varUseRe.FindAllString(m[1], -1) {
				declareVar(declared, name, i+1)
			}
		}
		if m := setStmtRe.FindStringSubmatch(line); m != nil {
			declareVar(declared, m[1], i+1)
		}
		if m := forStmtRe.FindStringSubmatch(line); m != nil {
			declareVar(declared, m[1], i+1)
		}

		// Every remaining occurrence counts as a use.
		stripped := setStmtRe.ReplaceAllString(varDeclRe.ReplaceAllString(line, ""), "")
		for _, name := range varUseRe.FindAllString(stripped, -1) {
			used[strings.ToLower(name)] = true
			if _, ok := declared[strings.ToLower(name)]; !ok {
				report.Warn(i+1, "ampscript-undeclared-variable",
					fmt.Sprintf("variable %s used before VAR or SET", name), core.CategorySemantics)
			}
		}
	}

	names := make([]string, 0, len(declared))
	for name := range declared {
		if !used[name] {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		if declared[names[i]] != declared[names[j]] {
			return declared[names[i]] < declared[names[j]]
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		report.Warn(declared[name], "ampscript-unused-variable",
			fmt.Sprintf("variable %s is declared but never used", name), core.CategorySemantics)
	}
}

func (v *Validator) scanSecurity(lines []string, code []bool, report *base.Report) {
	for i, raw := range lines {
		if !code[i] {
			continue
		}
		lineNo := i + 1

		if credentialRe.MatchString(raw) {
			report.Error(lineNo, "ampscript-hardcoded-credential",
				"credential value assigned from a string literal; store secrets outside the message body", core.CategorySecurity)
		}

		// Request parameters flowing into lookup filters are the classic
		// injection shape for the query primitives.
		line := core.MaskLiterals(raw, "")
		if lookupCallRe.MatchString(line) && requestParamRe.MatchString(line) {
			report.Error(lineNo, "ampscript-injection-risk",
				"request parameter passed directly into a Lookup filter; validate or whitelist the value first", core.CategorySecurity)
		}
	}
}

func (v *Validator) scanPerformance(lines []string, code []bool, report *base.Report) {
	var loops core.DepthTracker
	lookupCalls := make(map[string]int)

	for i, raw := range lines {
		if !code[i] {
			continue
		}
		lineNo := i + 1
		line := core.MaskLiterals(raw, "")

		if forStmtRe.MatchString(line) {
			loops.Open(1)
		}

		if m := lookupCallRe.FindString(line); m != "" {
			if loops.Depth() > 0 {
				sev := "warning"
				if loops.Depth() >= 2 {
					sev = "error"
				}
				d := core.Diagnostic{
					Line:     lineNo,
					Message:  "data extension lookup inside a FOR loop; hoist it or restructure the rowset",
					Rule:     "ampscript-lookup-in-loop",
					Category: core.CategoryPerformance,
					Severity: core.Severity(sev),
				}
				report.Add(d)
			}
			lookupCalls[strings.ToLower(strings.TrimRight(m, "( \t"))]++
		}

		if nextStmtRe.MatchString(line) {
			loops.Close(1)
		}
	}

	names := make([]string, 0, len(lookupCalls))
	for name := range lookupCalls {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if count := lookupCalls[name]; count >= 3 {
			report.Suggest(core.SuggestionPerformance, fmt.Sprintf(
				"%d separate %s calls; a single LookupRows with the combined filter is one query instead of %d",
				count, name, count))
		}
	}
}

func declareVar(declared map[string]int, name string, line int) {
	key := strings.ToLower(name)
	if _, ok := declared[key]; !ok {
		declared[key] = line
	}
}

func lastLine(lines []string) int {
	if len(lines) == 0 {
		return 1
	}
	return len(lines)
}
