package tasks

import (
	"context"
	"errors"
	"testing"
)

type sqliteTestHarness struct {
	Ctx     context.Context
	Store   *SQLStore
	Service *Service
}

func newSQLiteTestHarness(t *testing.T) *sqliteTestHarness {
	t.Helper()

	dbPath := t.TempDir() + "/tasks.db"
	store, err := NewSQLiteStore(dbPath, "tasks")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	return &sqliteTestHarness{
		Ctx:     context.Background(),
		Store:   store,
		Service: NewService(store),
	}
}

// storeContract runs the behaviour every Store implementation must share.
func storeContract(t *testing.T, ctx context.Context, store Store) {
	t.Helper()

	task := Task{ID: "task-1", Title: "Buy milk", Description: "2%", Status: "open"}
	if err := store.PutTask(ctx, task); err != nil {
		t.Fatalf("PutTask: %v", err)
	}

	got, found, err := store.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if !found {
		t.Fatalf("expected task %q to be found", task.ID)
	}
	if got != task {
		t.Fatalf("expected %#v, got %#v", task, got)
	}

	fields := TaskFields{Title: "Buy oat milk", Description: "1L", Status: "done"}
	if err := store.UpdateTask(ctx, task.ID, fields, PreconditionMustExist); err != nil {
		t.Fatalf("UpdateTask existing: %v", err)
	}
	got, _, err = store.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask after update: %v", err)
	}
	if want := task.WithFields(fields); got != want {
		t.Fatalf("expected %#v after update, got %#v", want, got)
	}

	if err := store.UpdateTask(ctx, task.ID, fields, PreconditionMustExist); err != nil {
		t.Fatalf("UpdateTask with unchanged values: %v", err)
	}

	err = store.UpdateTask(ctx, "missing", fields, PreconditionMustExist)
	if !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("expected ErrPreconditionFailed, got %v", err)
	}
	if _, found, _ := store.GetTask(ctx, "missing"); found {
		t.Fatalf("failed conditional update must not create the task")
	}

	err = store.UpdateTask(ctx, "unguarded", fields, Precondition(0))
	if !errors.Is(err, ErrUnsupportedPrecondition) {
		t.Fatalf("expected ErrUnsupportedPrecondition, got %v", err)
	}
	if _, found, _ := store.GetTask(ctx, "unguarded"); found {
		t.Fatalf("update without a precondition must not write the task")
	}

	overwrite := Task{ID: task.ID, Title: "t", Description: "d", Status: "s"}
	if err := store.PutTask(ctx, overwrite); err != nil {
		t.Fatalf("PutTask overwrite: %v", err)
	}
	got, _, _ = store.GetTask(ctx, task.ID)
	if got != overwrite {
		t.Fatalf("expected put to overwrite, got %#v", got)
	}

	for i := 0; i < 2; i++ {
		if err := store.DeleteTask(ctx, task.ID); err != nil {
			t.Fatalf("DeleteTask #%d: %v", i+1, err)
		}
	}
	if _, found, _ := store.GetTask(ctx, task.ID); found {
		t.Fatalf("expected task to be deleted")
	}
}
