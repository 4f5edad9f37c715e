package common

import (
	"regexp"
	"strings"
)

// ansiRegex matches ANSI escape sequences (colors, cursor movement, etc.)
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// keyValueSep separates key from value in "key:   value" blocks
var keyValueSep = regexp.MustCompile(`:\s+`)

// StripANSI removes ANSI escape codes from a string.
// Useful for parsing CLI output that may contain terminal formatting.
func StripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// NormalizeNewlines converts CRLF and stray CR to LF
func NormalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// MatchingLines returns the trimmed lines of s that fully match re.
// re is applied per line, so it should be anchored with ^ and $.
func MatchingLines(re *regexp.Regexp, s string) []string {
	var lines []string
	for _, line := range strings.Split(NormalizeNewlines(s), "\n") {
		line = strings.TrimSpace(line)
		if re.MatchString(line) {
			lines = append(lines, line)
		}
	}
	return lines
}

// ParseKeyValue parses "key:   value" lines. Lines without a colon followed
// by whitespace are ignored; a later key overwrites an earlier one.
func ParseKeyValue(s string) map[string]string {
	table := make(map[string]string)
	for _, line := range strings.Split(NormalizeNewlines(strings.TrimSpace(s)), "\n") {
		if !keyValueSep.MatchString(line) {
			continue
		}
		parts := keyValueSep.Split(line, 3)
		table[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return table
}

// LastLine returns the last non-blank line of s
func LastLine(s string) string {
	lines := strings.Split(NormalizeNewlines(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			return lines[i]
		}
	}
	return ""
}
