// Package server is the backend: it fans a prompt out to Ollama models and
// streams their tokens back as server-sent events.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"arena/internal/orchestrator"
	"arena/internal/session"
	"arena/internal/stream"
)

const maxBodyBytes = 1 << 20

// Lister reports the models installed on the model server
type Lister interface {
	Installed(ctx context.Context) ([]string, error)
}

// Server serves the generate and models endpoints
type Server struct {
	orch   *orchestrator.Orchestrator
	lister Lister
	logger *slog.Logger
	mux    *http.ServeMux
}

func New(orch *orchestrator.Orchestrator, lister Lister, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		orch:   orch,
		lister: lister,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.mux.HandleFunc("POST "+stream.GeneratePath, s.handleGenerate)
	s.mux.HandleFunc("GET "+stream.ModelsPath, s.handleModels)
	return s
}

// Handler returns the HTTP handler with CORS applied
func (s *Server) Handler() http.Handler {
	return cors(s.mux)
}

// Run serves on addr until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server: listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.orch.StopAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.With("request", uuid.NewString())

	var req session.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := validate(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	logger.Info("server: generate", "models", strings.Join(req.Models, ","), "prompt_len", len(req.Prompt))
	start := time.Now()

	for resp := range s.orch.Send(r.Context(), req.Models, req.Prompt) {
		rec, ok := toRecord(resp)
		if !ok {
			continue
		}
		if resp.Error != nil {
			logger.Warn("server: model failed", "model", resp.ModelID, "error", resp.Error)
		}
		if err := stream.WriteRecord(w, rec); err != nil {
			// Client went away; the request context cancels the fan-out.
			logger.Debug("server: write failed", "error", err)
			return
		}
		flusher.Flush()
	}

	logger.Info("server: generate finished", "elapsed", time.Since(start).Round(time.Millisecond).String())
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	names, err := s.lister.Installed(r.Context())
	if err != nil {
		s.logger.Warn("server: list models failed", "error", err)
		writeError(w, http.StatusBadGateway, "Failed to get models: "+err.Error())
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": names})
}

func validate(req session.Request) error {
	if strings.TrimSpace(req.Prompt) == "" {
		return session.ErrEmptyPrompt
	}
	if len(req.Models) == 0 {
		return session.ErrNoModels
	}
	seen := make(map[string]bool, len(req.Models))
	for _, m := range req.Models {
		if strings.TrimSpace(m) == "" {
			return errors.New("model name is empty")
		}
		if seen[m] {
			return fmt.Errorf("%w: %s", session.ErrDuplicate, m)
		}
		seen[m] = true
	}
	return nil
}

// toRecord maps one fan-out response to its wire record
func toRecord(resp orchestrator.Response) (stream.Record, bool) {
	switch {
	case resp.Error != nil:
		msg := fmt.Sprintf("An unexpected error occurred for model %s: %v", resp.ModelID, resp.Error)
		return stream.ErrorRecord(resp.ModelID, msg), true
	case resp.Content != "":
		return stream.TokenRecord(resp.ModelID, resp.Content, resp.Done), true
	case resp.Done:
		return stream.TokenRecord(resp.ModelID, "", true), true
	default:
		return stream.Record{}, false
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// cors allows every origin, as the browser frontend is served elsewhere
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
			h.Set("Access-Control-Allow-Headers", reqHeaders)
		} else {
			h.Set("Access-Control-Allow-Headers", "*")
		}
		h.Add("Vary", "Origin")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
