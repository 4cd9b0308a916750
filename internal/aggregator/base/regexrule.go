package base

import (
	"regexp"
	"strings"
)

// splitReplacementRule splits a "pattern|replacement" rule on the first
// unescaped `|`, unescaping `\|` back to a literal pipe in both halves.
// Grounded on spec.md §4.4 stage 8's regex_replacements format.
func splitReplacementRule(rule string) (pattern, replacement string, ok bool) {
	var b strings.Builder
	escaped := false
	for i := 0; i < len(rule); i++ {
		c := rule[i]
		switch {
		case escaped:
			b.WriteByte(c)
			escaped = false
		case c == '\\':
			escaped = true
		case c == '|':
			pattern = b.String()
			replacement = unescapePipe(rule[i+1:])
			return pattern, replacement, true
		default:
			b.WriteByte(c)
		}
	}
	return "", "", false
}

func unescapePipe(s string) string {
	return strings.ReplaceAll(s, `\|`, "|")
}

func compileReplacementPattern(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(pattern)
}
