// Package remark defines the request/response types for remark IPC.
// Messages are JSON-encoded and sent over a Unix domain socket, one per line.
package remark

// Actions understood by the daemon and the engine.
const (
	ActionStrip    = "strip"
	ActionGenerate = "generate"
)

// Request is sent from an editor client to the daemon.
type Request struct {
	// RequestID is a per-session incrementing identifier assigned by the client.
	// The daemon echoes it back in the response for ordering.
	RequestID int `json:"request_id"`
	// Action is either "strip" or "generate".
	Action string `json:"action"`
	// Path is the file the content belongs to. Used for language detection
	// and project context; the daemon never writes to it.
	Path string `json:"path,omitempty"`
	// Content is the full document text.
	Content string `json:"content"`
	// Language forces the comment syntax ("python" or "shell").
	// Empty means detect from Path and Content.
	Language string `json:"language,omitempty"`
	// SessionID identifies the editor session.
	SessionID string `json:"session_id,omitempty"`
}

// Response is sent from the daemon back to the client.
type Response struct {
	// RequestID is echoed from the request for ordering on the client side.
	RequestID int `json:"request_id"`
	// Content is the transformed document text.
	Content string `json:"content"`
	// Cached is true when a generation was served from the result cache.
	Cached bool `json:"cached,omitempty"`
	// Error is set when the daemon cannot fulfill the request.
	Error *Error `json:"error,omitempty"`
}

// Error describes a daemon-side error returned to the client.
type Error struct {
	// Code is a machine-readable error identifier (e.g. "not_configured", "api_error").
	Code string `json:"code"`
	// Message is a human-readable error description.
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// ConfigRequest is sent from a client for configuration operations.
type ConfigRequest struct {
	// Type is always "config".
	Type string `json:"type"`
	// Action is the config operation: "get", "reload", "defaults", "default_prompt" or "validate".
	Action string `json:"action"`
}

// ConfigResponse is sent from the daemon in response to a ConfigRequest.
type ConfigResponse struct {
	// Config is the current configuration (for "get", "reload", and "defaults" actions).
	Config *Config `json:"config,omitempty"`
	// Prompt is the default prompt template (for "default_prompt" action).
	Prompt string `json:"prompt,omitempty"`
	// Warnings contains configuration warnings (for "validate" action).
	Warnings []string `json:"warnings,omitempty"`
	// Error is set when the operation fails.
	Error *Error `json:"error,omitempty"`
}
