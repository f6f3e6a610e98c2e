package server

import (
	"context"
	"net/http"
	"time"

	"letrado/internal/logging"
)

// NewServeMux wires routes and the middleware stack.
func NewServeMux(h *Handler, limiter *IPRateLimiter) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("POST /api/generate", h.Generate)
	mux.HandleFunc("POST /api/ingest", h.Ingest)
	mux.HandleFunc("POST /api/documents/query", h.QueryDocument)
	mux.HandleFunc("POST /api/analyze", h.Analyze)
	mux.HandleFunc("GET /api/analyses/{id}", h.GetAnalysis)

	// Stack middleware: outermost first.
	var handler http.Handler = mux
	if limiter != nil {
		handler = limiter.Middleware(handler)
	}
	handler = Logging(handler)
	handler = RequestID(handler)
	handler = Recovery(handler)
	return handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
// Timeouts are generous because generation and analysis are
// synchronous and can wait on admission plus several model calls.
func Run(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Server("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
