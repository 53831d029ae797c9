package strip

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Language selects the comment syntax used to strip a document.
type Language string

const (
	LangPython Language = "python"
	LangShell  Language = "shell"
)

// CommentPrefix returns the line-comment marker for the language.
func (l Language) CommentPrefix() string {
	return "#"
}

// DisplayName returns the name used in prompts.
func (l Language) DisplayName() string {
	switch l {
	case LangShell:
		return "shell"
	default:
		return "Python"
	}
}

// ParseLanguage maps a user-supplied name to a Language. Empty input is
// returned as an empty Language so callers can fall back to Detect.
func ParseLanguage(name string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return "", nil
	case "python", "py":
		return LangPython, nil
	case "shell", "sh", "bash":
		return LangShell, nil
	}
	return "", fmt.Errorf("unsupported language: %s", name)
}

var shellExtensions = map[string]bool{
	".sh": true, ".bash": true, ".zsh": true, ".ksh": true,
}

var shellInterpreters = map[string]bool{
	"sh": true, "bash": true, "zsh": true, "ksh": true, "dash": true,
}

// Detect picks the language of a document from its file extension, then its
// shebang. Anything unrecognised is treated as Python.
func Detect(path, text string) Language {
	ext := strings.ToLower(filepath.Ext(path))
	if shellExtensions[ext] {
		return LangShell
	}
	if ext == ".py" || ext == ".pyw" || ext == ".pyi" {
		return LangPython
	}
	if shellInterpreters[shebangInterpreter(text)] {
		return LangShell
	}
	return LangPython
}

// shebangInterpreter returns the interpreter name from a "#!" first line,
// looking through /usr/bin/env.
func shebangInterpreter(text string) string {
	first, _, _ := strings.Cut(text, "\n")
	if !strings.HasPrefix(first, "#!") {
		return ""
	}
	fields := strings.Fields(first[2:])
	if len(fields) == 0 {
		return ""
	}
	interp := filepath.Base(fields[0])
	if interp == "env" {
		for _, f := range fields[1:] {
			if !strings.HasPrefix(f, "-") {
				return filepath.Base(f)
			}
		}
		return ""
	}
	return interp
}

// Document strips comments from text using the rules for lang.
func Document(lang Language, text string) string {
	if lang == LangShell {
		return Shell(text)
	}
	return Python(text)
}
