package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

const shutdownTimeout = 10 * time.Second

// Handler returns the HTTP interface:
//
//	GET /color?url=...&strategy=median_cut|named_palette&normalize=0..1
//	GET /stats
//
// Validation failures answer 400 with a plain-text message. Other methods
// answer 405.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /color", s.handleColor)
	mux.HandleFunc("GET /stats", s.handleStats)
	return mux
}

// ListenAndServe serves Handler on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleColor(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	normalize, err := parseNormalize(q.Get("normalize"))
	if err != nil {
		s.badRequest(w, r, err)
		return
	}

	key, err := colorArgs{
		URL:       q.Get("url"),
		Strategy:  q.Get("strategy"),
		Normalize: normalize,
	}.key()
	if err != nil {
		s.badRequest(w, r, err)
		return
	}

	s.writeJSON(w, s.cache.Get(r.Context(), key))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.cache.Stats())
}

func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Debug("rejected request", "query", r.URL.RawQuery, "error", err)
	http.Error(w, err.Error(), http.StatusBadRequest)
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to write response", "error", err)
	}
}
