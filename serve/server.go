package main

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"sync"

	remark "github.com/Paranoid-AF/remark"
	defaults "github.com/Paranoid-AF/remark/default"
	"github.com/Paranoid-AF/remark/generate"
)

// Handler processes strip and generate requests.
type Handler interface {
	Handle(ctx context.Context, req *remark.Request) *remark.Response
	Close()
}

// sessionEntry tracks a cancellable in-flight request for a session.
type sessionEntry struct {
	requestID int
	cancel    context.CancelFunc
}

// Server listens on a Unix domain socket for requests.
type Server struct {
	listener net.Listener
	sockPath string

	// newHandler builds the engine on reload.
	newHandler func() Handler

	mu       sync.Mutex
	engine   Handler
	sessions map[string]sessionEntry
}

// NewServer creates a new IPC server bound to the given socket path.
func NewServer(sockPath string) (*Server, error) {
	newEngine := func() Handler { return generate.NewEngine() }
	return NewServerWithHandler(sockPath, newEngine(), newEngine)
}

// NewServerWithHandler creates a new IPC server with a custom Handler.
// reload may be nil, in which case config reloads keep h.
func NewServerWithHandler(sockPath string, h Handler, reload func() Handler) (*Server, error) {
	// Remove stale socket file if it exists
	if err := os.Remove(sockPath); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	listener, err := net.Listen("unix", sockPath)
	if err != nil {
		return nil, err
	}

	return &Server{
		listener:   listener,
		sockPath:   sockPath,
		newHandler: reload,
		engine:     h,
		sessions:   make(map[string]sessionEntry),
	}, nil
}

// Serve accepts connections and handles requests.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return err
		}
		go s.handleConn(conn)
	}
}

// Close shuts down the server, the engine, and removes the socket file.
func (s *Server) Close() {
	s.mu.Lock()
	s.engine.Close()
	s.mu.Unlock()
	s.listener.Close()
	os.Remove(s.sockPath)
}

func (s *Server) currentEngine() Handler {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), maxRequestBytes)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			slog.Warn("failed to read request", "error", err)
		}
		return
	}

	raw := scanner.Bytes()
	slog.Debug("request", "bytes", len(raw))

	// Config requests carry "type":"config".
	var cfgReq remark.ConfigRequest
	if err := json.Unmarshal(raw, &cfgReq); err == nil && cfgReq.Type == "config" {
		s.handleConfigRequest(conn, &cfgReq)
		return
	}

	var req remark.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		slog.Warn("invalid request", "error", err)
		return
	}

	// Cancel any in-flight request for this session and create a new context.
	ctx, cancel := context.WithCancel(context.Background())
	sid := req.SessionID
	reqID := req.RequestID
	if sid != "" {
		s.mu.Lock()
		if prev, ok := s.sessions[sid]; ok {
			prev.cancel()
		}
		s.sessions[sid] = sessionEntry{requestID: reqID, cancel: cancel}
		s.mu.Unlock()
	}
	defer func() {
		cancel()
		if sid != "" {
			s.mu.Lock()
			if cur, ok := s.sessions[sid]; ok && cur.requestID == reqID {
				delete(s.sessions, sid)
			}
			s.mu.Unlock()
		}
	}()

	resp := s.currentEngine().Handle(ctx, &req)

	// If cancelled, skip writing; the client has already moved on.
	if ctx.Err() != nil {
		slog.Debug("dropped cancelled response", "session", sid, "request_id", reqID)
		return
	}

	resp.RequestID = req.RequestID
	writeJSON(conn, resp)
}

func (s *Server) handleConfigRequest(conn net.Conn, req *remark.ConfigRequest) {
	var resp remark.ConfigResponse

	switch req.Action {
	case "get":
		cfg, err := remark.LoadConfig()
		if err != nil {
			resp.Error = &remark.Error{
				Code:    "config_error",
				Message: err.Error(),
			}
		} else {
			resp.Config = cfg
		}

	case "reload":
		cfg, err := remark.LoadConfig()
		if err != nil {
			resp.Error = &remark.Error{
				Code:    "config_error",
				Message: err.Error(),
			}
			break
		}
		s.reloadEngine()
		resp.Config = cfg

	case "defaults":
		resp.Config = remark.DefaultConfig()

	case "default_prompt":
		resp.Prompt = defaults.DefaultPrompt

	case "validate":
		cfg, err := remark.LoadConfig()
		if err != nil {
			resp.Error = &remark.Error{
				Code:    "config_error",
				Message: err.Error(),
			}
		} else {
			resp.Warnings = remark.ValidateConfig(cfg)
		}

	default:
		resp.Error = &remark.Error{
			Code:    "unknown_action",
			Message: "unknown config action: " + req.Action,
		}
	}

	writeJSON(conn, resp)
}

// reloadEngine swaps in a fresh engine built from the current config.
// In-flight requests keep the engine they started with.
func (s *Server) reloadEngine() {
	if s.newHandler == nil {
		return
	}
	next := s.newHandler()

	s.mu.Lock()
	old := s.engine
	s.engine = next
	s.mu.Unlock()

	old.Close()
	slog.Info("engine reloaded")
}

func writeJSON(conn net.Conn, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal response", "error", err)
		return
	}

	slog.Debug("response", "bytes", len(data))

	if _, err := conn.Write(append(data, '\n')); err != nil {
		slog.Debug("failed to write response", "error", err)
	}
}
