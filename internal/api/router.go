// Package api exposes the task service over an HTTP-shaped request/response
// surface shared by the net/http server and the Lambda proxy adapter.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"task-api/internal/tasks"
)

const TaskPath = "/task"

const (
	MsgUnsupportedRoute = "Unsupported route"
	MsgMissingFields    = "Missing required fields"
	MsgInvalidBody      = "Invalid request body"
	MsgMissingTaskID    = "Missing taskId query parameter"
	MsgTaskNotFound     = "Task not found"
	MsgTaskNotExist     = "Task does not exist"
	MsgInternalError    = "Internal server error"
	MsgTaskCreated      = "Task created"
	MsgTaskUpdated      = "Task updated"
	MsgTaskDeleted      = "Task deleted"
)

const QueryTaskID = "taskId"

// Request is a transport-neutral inbound request. Body is nil when the
// transport carried none.
type Request struct {
	Method string
	Path   string
	Query  map[string]string
	Body   *string
}

type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       string
}

// TaskService is what the handlers need from the domain layer.
type TaskService interface {
	CreateTask(ctx context.Context, task tasks.Task) (tasks.Task, error)
	GetTask(ctx context.Context, taskID string) (tasks.Task, bool, error)
	UpdateTask(ctx context.Context, task tasks.Task) (tasks.Task, error)
	DeleteTask(ctx context.Context, taskID string) error
}

type handlerFunc func(ctx context.Context, req Request) Response

type route struct {
	method string
	path   string
}

type Router struct {
	service    TaskService
	logger     *slog.Logger
	corsOrigin string
	routes     map[route]handlerFunc
	now        func() time.Time
}

type Option func(*Router)

// WithCORSOrigin adds Access-Control-Allow-* headers to every response and
// lets ServeHTTP answer preflight requests for the task route.
func WithCORSOrigin(origin string) Option {
	return func(r *Router) {
		r.corsOrigin = origin
	}
}

func NewRouter(service TaskService, logger *slog.Logger, opts ...Option) *Router {
	r := &Router{
		service: service,
		logger:  logger,
		now:     time.Now,
	}
	r.routes = map[route]handlerFunc{
		{http.MethodPost, TaskPath}:   r.handleCreate,
		{http.MethodGet, TaskPath}:    r.handleRead,
		{http.MethodPut, TaskPath}:    r.handleUpdate,
		{http.MethodDelete, TaskPath}: r.handleDelete,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dispatch routes req by exact (method, path) and returns the handler's
// response.
func (r *Router) Dispatch(ctx context.Context, req Request) Response {
	start := r.now()

	var resp Response
	if handler, ok := r.routes[route{req.Method, req.Path}]; ok {
		resp = handler(ctx, req)
	} else {
		resp = messageResponse(http.StatusBadRequest, MsgUnsupportedRoute)
	}
	r.decorate(&resp)

	r.logger.LogAttrs(ctx, slog.LevelDebug, "request handled",
		slog.String("method", req.Method),
		slog.String("path", req.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", r.now().Sub(start)),
	)
	return resp
}

func (r *Router) decorate(resp *Response) {
	if resp.Headers == nil {
		resp.Headers = map[string]string{}
	}
	resp.Headers["Content-Type"] = "application/json"
	if r.corsOrigin != "" {
		resp.Headers["Access-Control-Allow-Origin"] = r.corsOrigin
		resp.Headers["Access-Control-Allow-Headers"] = "Content-Type"
		resp.Headers["Access-Control-Allow-Methods"] = "OPTIONS,GET,POST,PUT,DELETE"
	}
}
