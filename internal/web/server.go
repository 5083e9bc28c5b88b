// Package web provides the HTTP status page and control API of the hestia
// daemon.
package web

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/sweeney/hestia/internal/board"
	"github.com/sweeney/hestia/internal/status"
)

// Server serves the status page and API over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	boards     []*board.Board
	logDir     string
	hostname   string
	now        func() time.Time
}

// New creates a Server that reads state from the given tracker and reads and
// actuates the given boards. logDir may be empty, which disables the log
// endpoints.
func New(addr string, tracker *status.Tracker, boards []*board.Board, logDir string) *Server {
	s := &Server{
		tracker:  tracker,
		boards:   boards,
		logDir:   logDir,
		hostname: hostnamePrefix(),
		now:      time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/log_files", s.handleLogFiles)
	mux.HandleFunc("/api/log/", s.handleLog)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}
