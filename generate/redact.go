package generate

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/Paranoid-AF/remark/strip"
	"mvdan.cc/sh/v3/syntax"
)

// safeVars are environment variables whose values are not sensitive.
var safeVars = map[string]bool{
	"HOME": true, "USER": true, "PWD": true, "OLDPWD": true,
	"SHELL": true, "PATH": true, "LANG": true, "TERM": true,
	"EDITOR": true, "PAGER": true, "HOSTNAME": true, "LOGNAME": true,
	"TMPDIR": true, "XDG_CONFIG_HOME": true, "XDG_DATA_HOME": true,
	"XDG_RUNTIME_DIR": true, "LC_ALL": true, "LC_CTYPE": true,
}

var (
	// NAME = "value" where NAME looks like it holds a credential.
	rePySecret = regexp.MustCompile(`(?im)^(\s*[A-Za-z_][A-Za-z0-9_]*(?:key|token|secret|passw(?:or)?d|pwd)[A-Za-z0-9_]*\s*[:=]\s*[rbuf]?)(['"])[^'"\n]*(['"])`)
	reAssign   = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)=(\S+)`)
)

// redactDocument masks likely secrets in text for debug logging.
// The result is never sent to the model or written to disk.
func redactDocument(lang strip.Language, text string) string {
	if lang == strip.LangShell {
		return redactShell(text)
	}
	return rePySecret.ReplaceAllString(text, "${1}${2}***${3}")
}

// redactShell replaces assignment values, except for safe variables.
func redactShell(text string) string {
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash), syntax.KeepComments(true))
	prog, err := parser.Parse(strings.NewReader(text), "")
	if err != nil {
		return regexRedact(text)
	}

	syntax.Walk(prog, func(node syntax.Node) bool {
		if n, ok := node.(*syntax.Assign); ok {
			if n.Name != nil && !safeVars[n.Name.Value] && n.Value != nil {
				n.Value.Parts = []syntax.WordPart{&syntax.Lit{Value: "***"}}
			}
		}
		return true
	})

	var buf bytes.Buffer
	if err := syntax.NewPrinter().Print(&buf, prog); err != nil {
		return regexRedact(text)
	}
	return buf.String()
}

// regexRedact is a fallback for scripts that fail to parse.
func regexRedact(text string) string {
	return reAssign.ReplaceAllStringFunc(text, func(m string) string {
		name := reAssign.FindStringSubmatch(m)[1]
		if safeVars[name] {
			return m
		}
		return name + "=***"
	})
}
