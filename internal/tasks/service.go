package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	store Store
	newID func() string
}

func NewService(store Store) *Service {
	return &Service{
		store: store,
		newID: uuid.NewString,
	}
}

// nextTaskID never hands back the ID the client tried to supply.
func (s *Service) nextTaskID(clientID string) string {
	id := s.newID()
	for id == clientID {
		id = s.newID()
	}
	return id
}

// CreateTask stores task under a freshly minted ID and returns the stored
// record. Writes are unconditional.
func (s *Service) CreateTask(ctx context.Context, task Task) (Task, error) {
	task.ID = s.nextTaskID(task.ID)
	if err := s.store.PutTask(ctx, task); err != nil {
		return Task{}, &BackendError{Op: "put task", Err: err}
	}
	return task, nil
}

func (s *Service) GetTask(ctx context.Context, taskID string) (Task, bool, error) {
	if taskID == "" {
		return Task{}, false, ErrMissingTaskID
	}

	task, found, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return Task{}, false, &BackendError{Op: "get task", Err: err}
	}
	return task, found, nil
}

// UpdateTask replaces the mutable fields of an existing task. It fails with
// ErrPreconditionFailed rather than creating the record.
func (s *Service) UpdateTask(ctx context.Context, task Task) (Task, error) {
	if task.ID == "" {
		return Task{}, fmt.Errorf("%w: taskId must be a non-empty string", ErrInvalidBody)
	}

	err := s.store.UpdateTask(ctx, task.ID, task.Fields(), PreconditionMustExist)
	if errors.Is(err, ErrPreconditionFailed) {
		return Task{}, fmt.Errorf("update task %q: %w", task.ID, err)
	}
	if err != nil {
		return Task{}, &BackendError{Op: "update task", Err: err}
	}
	return task, nil
}

func (s *Service) DeleteTask(ctx context.Context, taskID string) error {
	if taskID == "" {
		return ErrMissingTaskID
	}

	if err := s.store.DeleteTask(ctx, taskID); err != nil {
		return &BackendError{Op: "delete task", Err: err}
	}
	return nil
}
