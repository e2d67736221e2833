package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Server exposes a Reporter's Snapshot over a single read-only route. It
// is optional: `loom generate` only starts one when --monitor is set, for
// long-running generation jobs a caller wants to poll.
type Server struct {
	reporter *Reporter
	http     *http.Server
}

// NewServer builds a Server bound to addr (e.g. "localhost:4555"),
// reporting reporter's snapshots at GET /status.
func NewServer(addr string, reporter *Reporter) *Server {
	r := mux.NewRouter()
	s := &Server{reporter: reporter}
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	s.http = &http.Server{Addr: addr, Handler: r}
	return s
}

func (s *Server) handleStatus(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.reporter.Snapshot()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Start begins serving in a background goroutine, returning immediately.
// errs receives the listener error, if any, once the server stops for a
// reason other than a clean Shutdown.
func (s *Server) Start() <-chan error {
	errs := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- fmt.Errorf("progress: server error: %w", err)
			return
		}
		errs <- nil
	}()
	return errs
}

// Shutdown gracefully stops the server, mirroring cmd/start.go's
// bounded-timeout shutdown.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.http.Shutdown(ctx)
}
