// Package session holds the state behind the remark shell: the selected
// file, its original text and the edited text waiting to be pushed.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	remark "github.com/Paranoid-AF/remark"
	"github.com/Paranoid-AF/remark/strip"
	"github.com/google/renameio"
)

var (
	// ErrNoFile is returned by actions that need a selected file.
	ErrNoFile = errors.New("please select a file first")
	// ErrNothingToPush is returned by Push when there is no edited text.
	ErrNothingToPush = errors.New("nothing to push; generate or strip first")
)

// Handler processes strip and generate requests.
type Handler interface {
	Handle(ctx context.Context, req *remark.Request) *remark.Response
}

// Session is one user's working state. It is not safe for concurrent use.
type Session struct {
	handler  Handler
	language string // forced language name, empty to detect

	path     string
	original string
	edited   string
	dirty    bool // edited holds a result, possibly empty
	cached   bool
}

// New creates an empty session that sends work to h.
func New(h Handler) *Session {
	return &Session{handler: h}
}

// SetLanguage forces the comment syntax. An empty name restores detection.
func (s *Session) SetLanguage(name string) error {
	if _, err := strip.ParseLanguage(name); err != nil {
		return err
	}
	s.language = name
	return nil
}

// Language returns the language used for the current file.
func (s *Session) Language() strip.Language {
	if lang, _ := strip.ParseLanguage(s.language); lang != "" {
		return lang
	}
	return strip.Detect(s.path, s.original)
}

// Path returns the selected file, or "" if none.
func (s *Session) Path() string { return s.path }

// Original returns the text read from the selected file.
func (s *Session) Original() string { return s.original }

// Edited returns the generated or stripped text, or "" if none yet.
func (s *Session) Edited() string { return s.edited }

// HasEdit reports whether there is an edited text waiting to be pushed.
func (s *Session) HasEdit() bool { return s.dirty }

// Cached reports whether the last generation came from the result cache.
func (s *Session) Cached() bool { return s.cached }

// Displayed returns the text the next Strip works on: the edited text when
// there is any, otherwise the original.
func (s *Session) Displayed() string {
	if s.dirty {
		return s.edited
	}
	return s.original
}

// Browse selects path and reads it as the original text.
func (s *Session) Browse(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	s.path = abs
	s.original = string(data)
	s.edited = ""
	s.dirty = false
	s.cached = false

	slog.Debug("opened file", "path", abs, "bytes", len(data))
	return nil
}

// Generate asks the handler to comment the original text.
func (s *Session) Generate(ctx context.Context) error {
	if s.path == "" {
		return ErrNoFile
	}
	resp := s.handler.Handle(ctx, s.request(remark.ActionGenerate, s.original))
	if resp.Error != nil {
		return resp.Error
	}
	s.edited = resp.Content
	s.dirty = true
	s.cached = resp.Cached
	return nil
}

// Strip removes comments from the displayed text.
func (s *Session) Strip() error {
	if s.path == "" {
		return ErrNoFile
	}
	resp := s.handler.Handle(context.Background(), s.request(remark.ActionStrip, s.Displayed()))
	if resp.Error != nil {
		return resp.Error
	}
	s.edited = resp.Content
	s.dirty = true
	s.cached = false
	return nil
}

// Push overwrites the selected file with the edited text. The write is
// atomic and keeps the file's permission bits. The pushed text becomes the
// new original.
func (s *Session) Push() error {
	if s.path == "" {
		return ErrNoFile
	}
	if !s.dirty {
		return ErrNothingToPush
	}

	target, err := filepath.EvalSymlinks(s.path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", s.path, err)
	}
	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("stat %s: %w", target, err)
	}
	if err := renameio.WriteFile(target, []byte(s.edited), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}

	slog.Debug("file overwritten", "path", target, "bytes", len(s.edited))
	s.original = s.edited
	s.edited = ""
	s.dirty = false
	s.cached = false
	return nil
}

func (s *Session) request(action, content string) *remark.Request {
	return &remark.Request{
		Action:   action,
		Path:     s.path,
		Content:  content,
		Language: s.language,
	}
}
