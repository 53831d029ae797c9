package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Console is the interactive line editor.
// It reads from /dev/tty so it works even when stdout is redirected.
type Console struct {
	tty      *os.File
	oldState *term.State
	term     *term.Terminal
}

// NewConsole opens /dev/tty, switches to raw mode and attaches a line editor.
func NewConsole(prompt string) (*Console, error) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open /dev/tty: %w", err)
	}

	old, err := term.MakeRaw(int(tty.Fd()))
	if err != nil {
		tty.Close()
		return nil, fmt.Errorf("raw mode: %w", err)
	}

	t := term.NewTerminal(tty, prompt)
	t.AutoCompleteCallback = completeCommand
	if w, h, err := term.GetSize(int(tty.Fd())); err == nil {
		t.SetSize(w, h)
	}

	return &Console{tty: tty, oldState: old, term: t}, nil
}

// Close restores terminal state and closes the tty fd.
func (c *Console) Close() {
	term.Restore(int(c.tty.Fd()), c.oldState)
	c.tty.Close()
}

// ReadLine reads one edited line. Returns io.EOF when the user presses
// Ctrl-D on empty input.
func (c *Console) ReadLine() (string, error) {
	return c.term.ReadLine()
}

// Writer returns a writer that translates \n to \r\n for raw mode.
func (c *Console) Writer() io.Writer {
	return c.term
}

// completeCommand completes the command word on Tab.
func completeCommand(line string, pos int, key rune) (string, int, bool) {
	if key != '\t' || pos != len(line) || strings.ContainsRune(line, ' ') {
		return "", 0, false
	}

	var match string
	for _, name := range commandNames {
		if !strings.HasPrefix(name, line) {
			continue
		}
		if match != "" {
			return "", 0, false // ambiguous
		}
		match = name
	}
	if match == "" {
		return "", 0, false
	}
	completed := match + " "
	return completed, len(completed), true
}
