package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"task-api/internal/tasks"
)

type messageBody struct {
	Message string `json:"message"`
	TaskID  string `json:"taskId,omitempty"`
}

func (r *Router) handleCreate(ctx context.Context, req Request) Response {
	input, err := tasks.ParseTaskInput(bodyBytes(req))
	if err != nil {
		return r.errorResponse(ctx, err)
	}

	created, err := r.service.CreateTask(ctx, input)
	if err != nil {
		return r.errorResponse(ctx, err)
	}
	return jsonResponse(http.StatusOK, messageBody{Message: MsgTaskCreated, TaskID: created.ID})
}

func (r *Router) handleRead(ctx context.Context, req Request) Response {
	task, found, err := r.service.GetTask(ctx, req.Query[QueryTaskID])
	if err != nil {
		return r.errorResponse(ctx, err)
	}
	if !found {
		return messageResponse(http.StatusNotFound, MsgTaskNotFound)
	}
	return jsonResponse(http.StatusOK, task)
}

func (r *Router) handleUpdate(ctx context.Context, req Request) Response {
	input, err := tasks.ParseTaskInput(bodyBytes(req))
	if err != nil {
		return r.errorResponse(ctx, err)
	}

	if _, err := r.service.UpdateTask(ctx, input); err != nil {
		return r.errorResponse(ctx, err)
	}
	return messageResponse(http.StatusOK, MsgTaskUpdated)
}

func (r *Router) handleDelete(ctx context.Context, req Request) Response {
	if err := r.service.DeleteTask(ctx, req.Query[QueryTaskID]); err != nil {
		return r.errorResponse(ctx, err)
	}
	return messageResponse(http.StatusOK, MsgTaskDeleted)
}

// errorResponse maps domain errors onto status codes. Anything unrecognised
// is treated as a backend failure and its cause is logged, not returned.
func (r *Router) errorResponse(ctx context.Context, err error) Response {
	var missing *tasks.MissingFieldsError
	switch {
	case errors.As(err, &missing):
		return messageResponse(http.StatusBadRequest, MsgMissingFields)
	case errors.Is(err, tasks.ErrInvalidBody):
		return messageResponse(http.StatusBadRequest, MsgInvalidBody)
	case errors.Is(err, tasks.ErrMissingTaskID):
		return messageResponse(http.StatusBadRequest, MsgMissingTaskID)
	case errors.Is(err, tasks.ErrPreconditionFailed):
		return messageResponse(http.StatusPreconditionFailed, MsgTaskNotExist)
	}

	attrs := []slog.Attr{slog.String("error", err.Error())}
	var backendErr *tasks.BackendError
	if errors.As(err, &backendErr) {
		attrs = append(attrs, slog.String("op", backendErr.Op))
	}
	r.logger.LogAttrs(ctx, slog.LevelError, "task backend failure", attrs...)
	return messageResponse(http.StatusInternalServerError, MsgInternalError)
}

func bodyBytes(req Request) []byte {
	if req.Body == nil {
		return nil
	}
	return []byte(*req.Body)
}

func messageResponse(status int, message string) Response {
	return jsonResponse(status, messageBody{Message: message})
}

func jsonResponse(status int, v any) Response {
	body, err := json.Marshal(v)
	if err != nil {
		return Response{
			StatusCode: http.StatusInternalServerError,
			Body:       `{"message":"` + MsgInternalError + `"}`,
		}
	}
	return Response{StatusCode: status, Body: string(body)}
}
