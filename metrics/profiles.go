package metrics

import (
	"regexp"

	"github.com/oxhq/mclint/core"
)

// profile holds the per-dialect token tables driving every metric scan.
type profile struct {
	decisionRe   *regexp.Regexp
	logicalRe    *regexp.Regexp
	blockOpenRe  *regexp.Regexp
	blockCloseRe *regexp.Regexp
	loopRe       *regexp.Regexp
	apiRe        *regexp.Regexp
	declRe       *regexp.Regexp
	concatRe     *regexp.Regexp
	arrayRe      *regexp.Regexp

	lineComment string

	// Interpreted dialects pay more per allocation and per line.
	memoryMultiplier  float64
	baseTimePerLineMs float64
	apiOverheadMs     float64
}

var profiles = map[core.Dialect]profile{
	core.DialectAMPscript: {
		decisionRe:   regexp.MustCompile(`(?i)\b(IF|ELSEIF|IIF)\b`),
		logicalRe:    regexp.MustCompile(`(?i)\b(AND|OR|NOT)\b`),
		blockOpenRe:  regexp.MustCompile(`(?i)\b(IF|FOR)\b`),
		blockCloseRe: regexp.MustCompile(`(?i)\b(ENDIF|NEXT)\b`),
		loopRe:       regexp.MustCompile(`(?i)\bFOR\s+@`),
		apiRe:        regexp.MustCompile(`(?i)\b(Lookup|LookupRows|LookupOrderedRows|HTTPGet|HTTPPost|InsertDE|UpdateDE|UpsertDE|DeleteDE|ClaimRow|DataExtensionRowCount)\s*\(`),
		declRe:       regexp.MustCompile(`(?i)\b(VAR|SET)\s+@`),
		concatRe:     regexp.MustCompile(`(?i)\bConcat\s*\(`),
		arrayRe:      regexp.MustCompile(`(?i)\b(BuildRowsetFrom\w+|Row|RowCount)\s*\(`),

		memoryMultiplier:  3.0,
		baseTimePerLineMs: 0.5,
		apiOverheadMs:     20,
	},
	core.DialectSSJS: {
		decisionRe:   regexp.MustCompile(`\b(if|case|catch|while|for)\b|\?`),
		logicalRe:    regexp.MustCompile(`&&|\|\|`),
		blockOpenRe:  regexp.MustCompile(`\{`),
		blockCloseRe: regexp.MustCompile(`\}`),
		loopRe:       regexp.MustCompile(`\b(for|while|do)\b`),
		apiRe:        regexp.MustCompile(`(DataExtension\.Init|\.Rows\.(Retrieve|Lookup|Add|Update|Remove)|HTTP\.(Get|Post)|Platform\.Function\.\w+|WSProxy)\s*\(?`),
		declRe:       regexp.MustCompile(`\bvar\s+[A-Za-z_$]`),
		concatRe:     regexp.MustCompile(`\+=|"\s*\+|'\s*\+`),
		arrayRe:      regexp.MustCompile(`\.(push|concat|slice|splice|join)\s*\(|\[\s*\]`),
		lineComment:  "//",

		memoryMultiplier:  2.0,
		baseTimePerLineMs: 0.2,
		apiOverheadMs:     15,
	},
	core.DialectSQL: {
		decisionRe:   regexp.MustCompile(`(?i)\b(CASE|WHEN|JOIN|WHERE|HAVING)\b`),
		logicalRe:    regexp.MustCompile(`(?i)\b(AND|OR)\b`),
		blockOpenRe:  regexp.MustCompile(`\(`),
		blockCloseRe: regexp.MustCompile(`\)`),
		loopRe:       regexp.MustCompile(`(?i)\b(CURSOR|WHILE)\b`),
		apiRe:        regexp.MustCompile(`(?i)\b(SELECT|INSERT|UPDATE|DELETE)\b`),
		declRe:       regexp.MustCompile(`(?i)\bAS\s+\w+`),
		concatRe:     regexp.MustCompile(`(?i)\+|\bCONCAT\s*\(`),
		arrayRe:      regexp.MustCompile(`(?i)\bIN\s*\(`),
		lineComment:  "--",

		memoryMultiplier:  1.0,
		baseTimePerLineMs: 0.1,
		apiOverheadMs:     5,
	},
}

// fallback covers the generic markup/style/script dialects that share the
// engine without their own token tables.
var fallbackProfile = profile{
	decisionRe:   regexp.MustCompile(`\b(if|case|while|for)\b`),
	logicalRe:    regexp.MustCompile(`&&|\|\|`),
	blockOpenRe:  regexp.MustCompile(`\{`),
	blockCloseRe: regexp.MustCompile(`\}`),
	loopRe:       regexp.MustCompile(`\b(for|while)\b`),
	apiRe:        regexp.MustCompile(`\bfetch\s*\(|XMLHttpRequest`),
	declRe:       regexp.MustCompile(`\b(var|let|const)\s+`),
	concatRe:     regexp.MustCompile(`\+=`),
	arrayRe:      regexp.MustCompile(`\.(push|concat|slice)\s*\(`),
	lineComment:  "//",

	memoryMultiplier:  1.5,
	baseTimePerLineMs: 0.15,
	apiOverheadMs:     10,
}

func profileFor(dialect core.Dialect) profile {
	if p, ok := profiles[dialect]; ok {
		return p
	}
	return fallbackProfile
}
