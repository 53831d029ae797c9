package strip

import (
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"mvdan.cc/sh/v3/syntax"
)

// Shell strips comments from a shell script.
//
// The script is parsed so that '#' inside quotes, parameter expansions and
// heredoc bodies is left alone; only real comment nodes are cut, at the byte
// offset the parser recorded for them. The shebang on the first line is kept.
// Scripts that fail to parse are handled by the line scanner used for Python.
func Shell(text string) string {
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash), syntax.KeepComments(true))
	prog, err := parser.Parse(strings.NewReader(text), "")
	if err != nil {
		slog.Debug("shell parse failed, using line scanner", "error", err)
		return Python(text)
	}

	starts := lineStarts(text)

	// line index -> column of the first comment on that line
	cuts := make(map[int]int)
	syntax.Walk(prog, func(node syntax.Node) bool {
		c, ok := node.(*syntax.Comment)
		if !ok {
			return true
		}
		// Line and Col saturate on long scripts; the offset does not.
		off := int(c.Hash.Offset())
		if off == 0 && strings.HasPrefix(c.Text, "!") {
			return true
		}
		line := sort.SearchInts(starts, off+1) - 1
		col := off - starts[line]
		if prev, seen := cuts[line]; !seen || col < prev {
			cuts[line] = col
		}
		return true
	})

	if len(cuts) == 0 {
		return text
	}

	lines := strings.Split(text, "\n")
	for i, col := range cuts {
		if i >= len(lines) || col > len(lines[i]) {
			continue
		}
		lines[i] = strings.TrimRightFunc(lines[i][:col], unicode.IsSpace)
	}
	return strings.Join(lines, "\n")
}

// lineStarts returns the byte offset at which each line of text begins.
func lineStarts(text string) []int {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}
