// Package strip removes line comments from source text.
//
// The Python-style scanner is line based: it cuts everything from the first
// unescaped '#' on a code line and passes triple-quoted string regions
// through untouched. It does not tokenize the language, so a '#' inside an
// ordinary quoted string on a code line is cut as well.
package strip

import (
	"strings"
	"unicode"
)

const (
	tripleDouble = `"""`
	tripleSingle = `'''`
)

// Scanner carries the triple-quote region state between lines.
// The zero value is ready to scan a new document.
type Scanner struct {
	inRegion bool
	delim    string // meaningful only while inRegion
}

// InRegion reports whether the scanner is inside an unterminated triple-quoted region.
func (s *Scanner) InRegion() bool {
	return s.inRegion
}

// Line processes the next line of the document and returns its output.
//
// A line whose trimmed text starts with a triple quote is a delimiter line and
// is returned unmodified. It closes the open region only when it ends with the
// opening delimiter and is not the bare delimiter itself; every other
// delimiter line opens a region, even while one is already open. So a bare
// `"""` line never closes, and a single-line `"""doc"""` opens a region.
func (s *Scanner) Line(line string) string {
	trimmed := strings.TrimSpace(line)
	if delim := leadingDelim(trimmed); delim != "" {
		if s.inRegion && strings.HasSuffix(trimmed, s.delim) && trimmed != s.delim {
			s.inRegion = false
			s.delim = ""
			return line
		}
		s.inRegion = true
		s.delim = delim
		return line
	}

	if s.inRegion {
		return line
	}

	return stripCodeLine(line)
}

func leadingDelim(trimmed string) string {
	switch {
	case strings.HasPrefix(trimmed, tripleDouble):
		return tripleDouble
	case strings.HasPrefix(trimmed, tripleSingle):
		return tripleSingle
	}
	return ""
}

// stripCodeLine cuts the line at the first '#' not preceded by a backslash
// and right-trims what is left.
func stripCodeLine(line string) string {
	if i := commentIndex(line); i >= 0 {
		line = line[:i]
	}
	return strings.TrimRightFunc(line, unicode.IsSpace)
}

func commentIndex(line string) int {
	for i := 0; i < len(line); i++ {
		if line[i] == '#' && (i == 0 || line[i-1] != '\\') {
			return i
		}
	}
	return -1
}

// Lines strips a whole document given as lines. The output always has the
// same number of lines as the input.
func Lines(lines []string) []string {
	var s Scanner
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = s.Line(line)
	}
	return out
}

// Python strips '#' comments from text, preserving triple-quoted regions.
func Python(text string) string {
	return strings.Join(Lines(strings.Split(text, "\n")), "\n")
}
