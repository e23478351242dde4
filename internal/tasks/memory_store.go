package tasks

import (
	"context"
	"sync"
)

type MemoryStore struct {
	mu        sync.RWMutex
	tasksByID map[string]Task
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasksByID: make(map[string]Task),
	}
}

func (s *MemoryStore) GetTask(_ context.Context, taskID string) (Task, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasksByID[taskID]
	return task, ok, nil
}

func (s *MemoryStore) PutTask(_ context.Context, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasksByID[task.ID] = task
	return nil
}

func (s *MemoryStore) UpdateTask(_ context.Context, taskID string, fields TaskFields, precondition Precondition) error {
	if err := checkPrecondition(precondition); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tasksByID[taskID]
	if !ok {
		return ErrPreconditionFailed
	}

	s.tasksByID[taskID] = existing.WithFields(fields)
	return nil
}

func (s *MemoryStore) DeleteTask(_ context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tasksByID, taskID)
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.tasksByID)
}
