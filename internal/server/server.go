// Package server exposes the dispatcher over HTTP.
//
//	GET  /health  -> {"status":"ok"}
//	POST /agent   -> AgentResponse
//	GET  /agents  -> registered agents with implementation and description
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/hupe1980/lamina/core"
	"github.com/hupe1980/lamina/logging"
)

const maxBodyBytes = 1 << 20

// Dispatcher handles one request.
type Dispatcher interface {
	Dispatch(ctx context.Context, req core.AgentRequest) (core.AgentResponse, error)
}

// Catalog lists registered agents.
type Catalog interface {
	// Agents maps agent names to their implementation identifier.
	Agents() map[string]string
	Describe() []core.AgentInfo
}

// Options configures a Server.
type Options struct {
	Logger logging.Logger
}

// Server is the HTTP shim around a Dispatcher.
type Server struct {
	dispatcher Dispatcher
	catalog    Catalog
	logger     logging.Logger
	mux        *http.ServeMux
}

// New creates a Server.
func New(dispatcher Dispatcher, catalog Catalog, optFns ...func(o *Options)) *Server {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{
		dispatcher: dispatcher,
		catalog:    catalog,
		logger:     logging.OrNoOp(opts.Logger),
		mux:        http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /agent", s.handleAgent)
	s.mux.HandleFunc("GET /agents", s.handleAgents)

	return s
}

// Handler returns the routing handler.
func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server.start", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		s.logger.Info("server.shutdown")

		return srv.Shutdown(shutdownCtx)
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Agent   string `json:"agent,omitempty"`
	Details string `json:"details,omitempty"`
}

type agentsBody struct {
	Agents  map[string]string `json:"agents"`
	Details []core.AgentInfo  `json:"details"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAgents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, agentsBody{
		Agents:  s.catalog.Agents(),
		Details: s.catalog.Describe(),
	})
}

func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	var req core.AgentRequest

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body", Details: err.Error()})
		return
	}

	resp, err := s.dispatcher.Dispatch(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var noMatch *core.NoMatchingAgentError

	switch {
	case errors.As(err, &noMatch):
		s.logger.Warn("server.agent.no_match", "reason", noMatch.Reason, "agent", noMatch.AgentName)
		body := errorBody{Error: noMatch.Reason}
		if noMatch.AgentName != "" {
			body.Error = noMatch.Error()
			body.Agent = noMatch.AgentName
		}
		writeJSON(w, http.StatusNotFound, body)
	case errors.Is(err, core.ErrValidation):
		s.logger.Warn("server.agent.invalid", "error", err)
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	default:
		s.logger.Error("server.agent.error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Error:   "An unexpected error occurred",
			Details: err.Error(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
