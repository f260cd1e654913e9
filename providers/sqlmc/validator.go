package sqlmc

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/oxhq/mclint/core"
	"github.com/oxhq/mclint/providers/base"
	"github.com/oxhq/mclint/providers/catalog"
)

// The warehouse SQL dialect runs inside query activities against campaign
// data views. Queries are read-only SELECT statements; DML shows up when
// people paste from other databases and must be rejected outright.

func init() {
	catalog.Register(catalog.DialectInfo{
		ID:         string(core.DialectSQL),
		Aliases:    []string{"sql", "query", "sfmc-sql"},
		Extensions: []string{".sql"},
	})
}

// Validator performs line-oriented heuristic analysis of warehouse SQL.
type Validator struct{}

// New creates a SQL validator.
func New() *Validator {
	return &Validator{}
}

// Dialect returns the dialect identifier.
func (v *Validator) Dialect() core.Dialect { return core.DialectSQL }

// Extensions returns supported file extensions.
func (v *Validator) Extensions() []string { return []string{".sql"} }

var (
	firstKeywordRe    = regexp.MustCompile(`(?i)^\s*(\w+)`)
	forbiddenRe       = regexp.MustCompile(`(?i)^(insert|update|delete|drop|alter|create|truncate|merge|exec|execute)$`)
	selectRe          = regexp.MustCompile(`(?i)\bselect\b`)
	fromRe            = regexp.MustCompile(`(?i)\bfrom\b`)
	joinRe            = regexp.MustCompile(`(?i)\b(inner\s+join|left\s+(outer\s+)?join|right\s+(outer\s+)?join|full\s+(outer\s+)?join|cross\s+join|join)\b`)
	onClauseRe        = regexp.MustCompile(`(?i)\bon\b`)
	crossJoinRe       = regexp.MustCompile(`(?i)\bcross\s+join\b`)
	leadingWildcardRe = regexp.MustCompile(`(?i)\blike\s+'%`)
	whereFuncRe       = regexp.MustCompile(`(?i)\bwhere\b[^=<>]*\b(upper|lower|ltrim|rtrim|trim|convert|cast|substring|datepart|isnull)\s*\(\s*[A-Za-z_\[]`)
	notInSubqueryRe   = regexp.MustCompile(`(?i)\bnot\s+in\s*\(\s*select\b`)
)

// Validate runs the syntax, structural and performance scans and bundles
// the findings. SELECT * is a best-practice concern handled by the rule
// table, not here.
func (v *Validator) Validate(source string) core.ValidationResult {
	var report base.Report

	masked := maskSQL(source)
	trimmed := strings.TrimSpace(masked)
	if trimmed == "" {
		return report.Result()
	}

	v.scanStructure(source, masked, &report)
	v.scanLines(source, &report)
	v.scanPerformance(source, masked, &report)

	return report.Result()
}

func (v *Validator) scanStructure(source, masked string, report *base.Report) {
	if m := firstKeywordRe.FindStringSubmatch(masked); m != nil {
		keyword := strings.ToLower(m[1])
		if forbiddenRe.MatchString(keyword) {
			report.Error(1, "sql-read-only",
				fmt.Sprintf("%s is not allowed; query activities are read-only SELECT statements", strings.ToUpper(keyword)),
				core.CategorySyntax)
			return
		}
		if keyword != "select" && keyword != "with" {
			report.Error(1, "sql-not-a-select",
				fmt.Sprintf("statement must start with SELECT, found %q", m[1]), core.CategorySyntax)
			return
		}
	}

	// SELECT needs a FROM unless every row comes from a subquery-free
	// projection, which the warehouse dialect has no use for.
	selects := core.CountPattern(selectRe, masked)
	froms := core.CountPattern(fromRe, masked)
	if selects > froms {
		line := 1
		if locs := selectRe.FindAllStringIndex(masked, -1); len(locs) > 0 {
			line, _ = core.OffsetToPosition(masked, locs[0][0])
		}
		report.Error(line, "sql-missing-from",
			"SELECT without a FROM clause", core.CategorySyntax)
	}

	if n := core.DelimiterBalance(masked, "(", ")"); n != 0 {
		report.Error(len(core.Lines(source)), "sql-unbalanced-paren",
			fmt.Sprintf("unbalanced parentheses (%+d)", n), core.CategorySyntax)
	}

	joins := core.CountPattern(joinRe, masked)
	crosses := core.CountPattern(crossJoinRe, masked)
	ons := core.CountPattern(onClauseRe, masked)
	if joins-crosses > ons {
		report.Error(1, "sql-join-without-on",
			"JOIN without an ON condition produces a cartesian product", core.CategorySyntax)
	}
}

func (v *Validator) scanLines(source string, report *base.Report) {
	for i, raw := range core.Lines(source) {
		if !core.QuotesBalanced(raw) {
			report.Error(i+1, "sql-unterminated-string",
				"unterminated string literal", core.CategorySyntax)
		}
	}
}

func (v *Validator) scanPerformance(source, masked string, report *base.Report) {
	// Wildcards live inside the literal, so this one scans the raw text.
	for _, loc := range leadingWildcardRe.FindAllStringIndex(source, -1) {
		line, _ := core.OffsetToPosition(source, loc[0])
		report.Warn(line, "sql-leading-wildcard",
			"LIKE with a leading wildcard cannot use an index", core.CategoryPerformance)
	}

	if loc := whereFuncRe.FindStringIndex(masked); loc != nil {
		line, _ := core.OffsetToPosition(masked, loc[0])
		report.Warn(line, "sql-function-in-where",
			"function applied to a column in WHERE defeats indexing; compute against the literal side instead",
			core.CategoryPerformance)
	}

	if loc := notInSubqueryRe.FindStringIndex(masked); loc != nil {
		line, _ := core.OffsetToPosition(masked, loc[0])
		report.Warn(line, "sql-not-in-subquery",
			"NOT IN with a subquery scans the full set; a LEFT JOIN / IS NULL usually performs better",
			core.CategoryPerformance)
	}
}

// maskSQL blanks string literals and line comments so keyword counting
// stays honest.
func maskSQL(source string) string {
	lines := core.Lines(source)
	masked := make([]string, len(lines))
	for i, line := range lines {
		masked[i] = core.MaskLiterals(line, "--")
	}
	return strings.Join(masked, "\n")
}
