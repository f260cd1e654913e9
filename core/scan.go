package core

import (
	"regexp"
	"strings"
)

// Lines splits source text for line-oriented scanning. The engine never
// parses a real grammar; every pass works off this split.
func Lines(code string) []string {
	return strings.Split(strings.ReplaceAll(code, "\r\n", "\n"), "\n")
}

// OffsetToPosition converts a byte offset in code to a 1-indexed line and
// 0-indexed column by counting the newlines in the prefix.
func OffsetToPosition(code string, offset int) (line, column int) {
	if offset < 0 {
		return 1, 0
	}
	if offset > len(code) {
		offset = len(code)
	}
	prefix := code[:offset]
	line = strings.Count(prefix, "\n") + 1
	if idx := strings.LastIndexByte(prefix, '\n'); idx >= 0 {
		column = offset - idx - 1
	} else {
		column = offset
	}
	return line, column
}

// MaskLiterals blanks quoted string spans and strips a trailing line comment
// so keyword scans don't fire on literal text. The masked line keeps its
// length, so offsets and columns stay valid. Escapes via backslash and
// doubled quotes (the SQL convention) are honored.
func MaskLiterals(line, lineComment string) string {
	out := []byte(line)
	var quote byte
	for i := 0; i < len(out); i++ {
		c := out[i]
		switch {
		case quote != 0:
			if c == '\\' && i+1 < len(out) {
				out[i], out[i+1] = ' ', ' '
				i++
				continue
			}
			if c == quote {
				if i+1 < len(out) && out[i+1] == quote {
					out[i], out[i+1] = ' ', ' '
					i++
					continue
				}
				quote = 0
				continue
			}
			out[i] = ' '
		case c == '\'' || c == '"':
			quote = c
		case lineComment != "" && quote == 0 &&
			strings.HasPrefix(string(out[i:]), lineComment):
			for j := i; j < len(out); j++ {
				out[j] = ' '
			}
			return string(out)
		}
	}
	return string(out)
}

// QuotesBalanced reports whether single and double quotes each close on the
// given line. Good enough for dialects where strings don't span lines.
func QuotesBalanced(line string) bool {
	singles, doubles := 0, 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\'':
			if i+1 < len(line) && line[i+1] == '\'' {
				i++ // doubled quote escape
				continue
			}
			singles++
		case '"':
			doubles++
		}
	}
	return singles%2 == 0 && doubles%2 == 0
}

// DelimiterBalance returns occurrences(open) - occurrences(close) over the
// whole text.
func DelimiterBalance(code, open, close string) int {
	return strings.Count(code, open) - strings.Count(code, close)
}

// CountPattern counts non-overlapping matches of re in s.
func CountPattern(re *regexp.Regexp, s string) int {
	return len(re.FindAllStringIndex(s, -1))
}

// DepthTracker tracks block nesting during a line scan. Depth never goes
// negative; stray closers from partially typed code are absorbed.
type DepthTracker struct {
	depth int
	max   int
}

// Open increments nesting n times.
func (t *DepthTracker) Open(n int) {
	t.depth += n
	if t.depth > t.max {
		t.max = t.depth
	}
}

// Close decrements nesting n times, clamping at zero.
func (t *DepthTracker) Close(n int) {
	t.depth -= n
	if t.depth < 0 {
		t.depth = 0
	}
}

// Depth returns the current nesting level.
func (t *DepthTracker) Depth() int { return t.depth }

// Max returns the deepest nesting level seen so far.
func (t *DepthTracker) Max() int { return t.max }
