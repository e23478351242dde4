package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const maxBodyBytes = 1 << 20

// ServeHTTP adapts net/http onto Dispatch. Repeated query keys keep their
// first value.
func (r *Router) ServeHTTP(w http.ResponseWriter, httpReq *http.Request) {
	if r.isPreflight(httpReq) {
		resp := Response{StatusCode: http.StatusNoContent}
		r.decorate(&resp)
		delete(resp.Headers, "Content-Type")
		writeResponse(w, resp)
		return
	}

	req := Request{
		Method: httpReq.Method,
		Path:   httpReq.URL.Path,
		Query:  map[string]string{},
	}
	for key, values := range httpReq.URL.Query() {
		if len(values) > 0 {
			req.Query[key] = values[0]
		}
	}

	if httpReq.Body != nil {
		raw, err := io.ReadAll(io.LimitReader(httpReq.Body, maxBodyBytes+1))
		if err != nil || len(raw) > maxBodyBytes {
			resp := messageResponse(http.StatusBadRequest, MsgInvalidBody)
			r.decorate(&resp)
			writeResponse(w, resp)
			return
		}
		if len(raw) > 0 {
			body := string(raw)
			req.Body = &body
		}
	}

	writeResponse(w, r.Dispatch(httpReq.Context(), req))
}

// isPreflight reports whether httpReq is a CORS preflight for the task route.
// Without a configured origin preflights fall through to Dispatch.
func (r *Router) isPreflight(httpReq *http.Request) bool {
	return r.corsOrigin != "" &&
		httpReq.Method == http.MethodOptions &&
		httpReq.URL.Path == TaskPath &&
		httpReq.Header.Get("Access-Control-Request-Method") != ""
}

func writeResponse(w http.ResponseWriter, resp Response) {
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.WriteString(w, resp.Body)
}

type Server struct {
	handler http.Handler
	logger  *slog.Logger
}

func NewServer(handler http.Handler, logger *slog.Logger) *Server {
	return &Server{handler: handler, logger: logger}
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("http server listening", slog.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("http server stopped")
	return nil
}
