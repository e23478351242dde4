package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidBody        = errors.New("invalid request body")
	ErrMissingTaskID      = errors.New("missing task id")
	ErrPreconditionFailed = errors.New("task precondition failed")
	ErrInvalidTableName   = errors.New("invalid table name")

	ErrUnsupportedPrecondition = errors.New("unsupported update precondition")
)

type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// BackendError marks a store failure that is not the caller's fault.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

type Store interface {
	GetTask(ctx context.Context, taskID string) (Task, bool, error)
	PutTask(ctx context.Context, task Task) error
	UpdateTask(ctx context.Context, taskID string, fields TaskFields, precondition Precondition) error
	DeleteTask(ctx context.Context, taskID string) error
}

func checkPrecondition(precondition Precondition) error {
	if precondition != PreconditionMustExist {
		return fmt.Errorf("%w: %s", ErrUnsupportedPrecondition, precondition)
	}
	return nil
}

func validateTableName(table string) error {
	if table == "" || len(table) > 255 {
		return fmt.Errorf("%w: %q", ErrInvalidTableName, table)
	}
	for _, r := range table {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == '-', r == '.':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidTableName, table)
		}
	}
	return nil
}
