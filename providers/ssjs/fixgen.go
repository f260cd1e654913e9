package ssjs

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/oxhq/mclint/core"
)

var condEqRe = regexp.MustCompile(`(\b(?:if|while)\s*\([^=!<>)]*[^=!<>\s])\s*=\s*([^=])`)

// GenerateFixedCode rewrites the lines named by fixable diagnostics and
// returns the fixed source plus a unified diff. Diagnostics are applied in
// descending line order so earlier rewrites can't shift later indices.
// Unsupported rules are skipped.
func (v *Validator) GenerateFixedCode(source string, diagnostics []core.Diagnostic) (string, string) {
	lines := core.Lines(source)

	sorted := make([]core.Diagnostic, len(diagnostics))
	copy(sorted, diagnostics)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Line > sorted[j].Line })

	for _, d := range sorted {
		idx := d.Line - 1
		if idx < 0 || idx >= len(lines) {
			continue
		}
		switch d.Rule {
		case "ssjs-missing-semicolon":
			lines[idx] = appendSemicolon(lines[idx])
		case "ssjs-assignment-in-condition":
			lines[idx] = condEqRe.ReplaceAllString(lines[idx], "$1 == $2")
		case "ssjs-missing-runat":
			lines[idx] = addRunat(lines[idx])
		}
	}

	fixed := strings.Join(lines, "\n")
	return fixed, unifiedDiff(source, fixed)
}

func appendSemicolon(line string) string {
	trimmed := strings.TrimRight(line, " \t")
	if trimmed == "" || strings.HasSuffix(trimmed, ";") {
		return line
	}
	return trimmed + ";"
}

var scriptCloseRe = regexp.MustCompile(`(?i)(<script\b[^>]*)(>)`)

func addRunat(line string) string {
	if runatAttrRe.MatchString(line) {
		return line
	}
	return scriptCloseRe.ReplaceAllString(line, `$1 runat="server"$2`)
}

func unifiedDiff(original, modified string) string {
	if original == modified {
		return ""
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(modified),
		FromFile: "original",
		ToFile:   "fixed",
		Context:  3,
	}

	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return text
}
