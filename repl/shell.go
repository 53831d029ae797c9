package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Paranoid-AF/remark/session"
)

var commandNames = []string{"open", "generate", "strip", "push", "show", "lang", "help", "quit"}

const helpText = `commands:
  open <path>              select a file
  generate                 add comments with the model
  strip                    remove comments from the shown text
  push                     overwrite the file with the edited text
  show [original|edited]   print a buffer
  lang [python|shell]      force a language, no argument to detect
  help                     this list
  quit                     exit
`

// shell runs interactive commands against one session.
type shell struct {
	sess   *session.Session
	out    io.Writer
	report *Report
}

// exec runs one command line. It returns true when the shell should exit.
func (sh *shell) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "quit", "exit", "q":
		return true

	case "help", "?":
		fmt.Fprint(sh.out, helpText)

	case "open":
		if len(args) != 1 {
			fmt.Fprintln(sh.out, "usage: open <path>")
			return false
		}
		if err := sh.sess.Browse(args[0]); err != nil {
			fmt.Fprintf(sh.out, "error: %v\n", err)
			return false
		}
		fmt.Fprintf(sh.out, "%s (%s, %d lines)\n", sh.sess.Path(), sh.sess.Language(), countLines(sh.sess.Original()))

	case "generate":
		in := sh.sess.Original()
		start := time.Now()
		err := sh.sess.Generate(ctx)
		sh.record(actionGenerate, in, err)
		if sh.fail(err) {
			return false
		}
		slog.Debug("generated", "path", sh.sess.Path(), "cached", sh.sess.Cached(), "elapsed", time.Since(start))
		sh.print(sh.sess.Edited())

	case "strip":
		in := sh.sess.Displayed()
		err := sh.sess.Strip()
		sh.record(actionStrip, in, err)
		if sh.fail(err) {
			return false
		}
		sh.print(sh.sess.Edited())

	case "push":
		in := sh.sess.Edited()
		err := sh.sess.Push()
		sh.record(actionPush, in, err)
		if sh.fail(err) {
			return false
		}
		fmt.Fprintln(sh.out, "File successfully overwritten!")

	case "show":
		which := "edited"
		if len(args) > 0 {
			which = args[0]
		}
		switch which {
		case "original":
			sh.print(sh.sess.Original())
		case "edited":
			sh.print(sh.sess.Displayed())
		default:
			fmt.Fprintln(sh.out, "usage: show [original|edited]")
		}

	case "lang":
		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		if err := sh.sess.SetLanguage(name); err != nil {
			fmt.Fprintf(sh.out, "error: %v\n", err)
			return false
		}
		if sh.sess.Path() != "" {
			fmt.Fprintf(sh.out, "language: %s\n", sh.sess.Language())
		}

	default:
		fmt.Fprintf(sh.out, "unknown command %q, type help\n", cmd)
	}
	return false
}

// fail prints err in the shell's words and reports whether there was one.
func (sh *shell) fail(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, session.ErrNoFile):
		fmt.Fprintln(sh.out, "Please select a file first!")
	case errors.Is(err, session.ErrNothingToPush):
		fmt.Fprintln(sh.out, "Nothing to push, generate or strip first.")
	default:
		fmt.Fprintf(sh.out, "error: %v\n", err)
	}
	return true
}

func (sh *shell) print(text string) {
	fmt.Fprint(sh.out, text)
	if text != "" && !strings.HasSuffix(text, "\n") {
		fmt.Fprintln(sh.out)
	}
}

func (sh *shell) record(action, in string, err error) {
	e := Entry{
		Timestamp: time.Now(),
		Action:    action,
		Path:      sh.sess.Path(),
		LinesIn:   countLines(in),
	}
	if sh.sess.Path() != "" {
		e.Language = string(sh.sess.Language())
	}
	if err != nil {
		e.Error = err.Error()
	} else {
		e.Cached = action == actionGenerate && sh.sess.Cached()
		if action == actionPush {
			e.LinesOut = countLines(sh.sess.Original())
		} else {
			e.LinesOut = countLines(sh.sess.Edited())
		}
	}
	if rerr := sh.report.Record(e); rerr != nil {
		slog.Warn("failed to record report entry", "error", rerr)
	}
}
