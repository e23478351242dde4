package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"task-api/internal/tasks"
)

type apiTestHarness struct {
	Ctx    context.Context
	Store  *tasks.MemoryStore
	Router *Router
	Logs   *bytes.Buffer
}

func newAPITestHarness(t *testing.T, opts ...Option) *apiTestHarness {
	t.Helper()

	store := tasks.NewMemoryStore()
	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	return &apiTestHarness{
		Ctx:    context.Background(),
		Store:  store,
		Router: NewRouter(tasks.NewService(store), logger, opts...),
		Logs:   logs,
	}
}

func (h *apiTestHarness) do(method, path string, query map[string]string, body string) Response {
	req := Request{Method: method, Path: path, Query: query}
	if body != "" {
		req.Body = &body
	}
	return h.Router.Dispatch(h.Ctx, req)
}

func decodeBody(t *testing.T, resp Response) map[string]string {
	t.Helper()

	var out map[string]string
	if err := json.Unmarshal([]byte(resp.Body), &out); err != nil {
		t.Fatalf("decode response body %q: %v", resp.Body, err)
	}
	return out
}

func expectMessage(t *testing.T, resp Response, status int, message string) map[string]string {
	t.Helper()

	if resp.StatusCode != status {
		t.Fatalf("expected status %d, got %d (body=%s)", status, resp.StatusCode, resp.Body)
	}
	body := decodeBody(t, resp)
	if body["message"] != message {
		t.Fatalf("expected message %q, got %q", message, body["message"])
	}
	return body
}
