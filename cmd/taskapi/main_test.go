package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	"task-api/internal/config"
)

func storeArgs(dbPath string) []string {
	return []string{"--store", "sqlite", "--dsn", dbPath, "--table", "tasks", "--env-file", ""}
}

func runTaskCommand(t *testing.T, sub string, dbPath string, extra ...string) (string, error) {
	t.Helper()

	args := append([]string{"task", sub}, storeArgs(dbPath)...)
	args = append(args, extra...)
	return captureStdout(func() error {
		return run(args)
	})
}

func TestRunTaskCreateGetUpdateDelete(t *testing.T) {
	dbPath := t.TempDir() + "/state.db"

	out, err := runTaskCommand(t, "create", dbPath,
		"--title", "Buy-milk", "--description", "2%", "--status", "open")
	if err != nil {
		t.Fatalf("task create failed: %v", err)
	}
	created := parseKVLine(t, out)
	if created["result"] != "created" {
		t.Fatalf("expected result=created, got %q (output=%q)", created["result"], out)
	}
	id := created["task_id"]

	out, err = runTaskCommand(t, "get", dbPath, "--id", id)
	if err != nil {
		t.Fatalf("task get failed: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode task get output %q: %v", out, err)
	}
	if got["taskId"] != id || got["title"] != "Buy-milk" || got["status"] != "open" {
		t.Fatalf("unexpected task: %#v", got)
	}

	out, err = runTaskCommand(t, "update", dbPath,
		"--id", id, "--title", "Buy-bread", "--description", "rye", "--status", "done")
	if err != nil {
		t.Fatalf("task update failed: %v", err)
	}
	if updated := parseKVLine(t, out); updated["result"] != "updated" || updated["task_id"] != id {
		t.Fatalf("unexpected update output %q", out)
	}

	out, _ = runTaskCommand(t, "get", dbPath, "--id", id)
	if !strings.Contains(out, `"title":"Buy-bread"`) {
		t.Fatalf("expected updated title, got %q", out)
	}

	for i := 0; i < 2; i++ {
		out, err = runTaskCommand(t, "delete", dbPath, "--id", id)
		if err != nil {
			t.Fatalf("task delete #%d failed: %v", i+1, err)
		}
		if deleted := parseKVLine(t, out); deleted["result"] != "deleted" {
			t.Fatalf("unexpected delete output %q", out)
		}
	}

	if _, err := runTaskCommand(t, "get", dbPath, "--id", id); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestRunTaskUpdateUnknownIDFails(t *testing.T) {
	dbPath := t.TempDir() + "/state.db"

	_, err := runTaskCommand(t, "update", dbPath,
		"--id", "zzz", "--title", "a", "--description", "b", "--status", "c")
	if err == nil {
		t.Fatalf("expected update of unknown task to fail")
	}
}

func TestRunTaskCreateRequiresAllFields(t *testing.T) {
	dbPath := t.TempDir() + "/state.db"

	_, err := runTaskCommand(t, "create", dbPath, "--title", "a", "--status", "c")
	if err == nil || !strings.Contains(err.Error(), "required") {
		t.Fatalf("expected missing field error, got %v", err)
	}
}

func TestRunServeFailsFastWithoutTable(t *testing.T) {
	t.Setenv(config.EnvTable, "")
	t.Setenv(config.EnvStore, "")

	_, err := captureStdout(func() error {
		return run([]string{"serve", "--env-file", "", "--addr", "127.0.0.1:0"})
	})
	if !errors.Is(err, config.ErrMissingTable) {
		t.Fatalf("expected ErrMissingTable, got %v", err)
	}
}

func TestRunLambdaFailsFastWithoutTable(t *testing.T) {
	t.Setenv(config.EnvTable, "")

	_, err := captureStdout(func() error {
		return run([]string{"lambda", "--env-file", ""})
	})
	if !errors.Is(err, config.ErrMissingTable) {
		t.Fatalf("expected ErrMissingTable, got %v", err)
	}
}

func TestRunRejectsUnknownStore(t *testing.T) {
	_, err := captureStdout(func() error {
		return run([]string{"task", "get", "--env-file", "", "--table", "tasks", "--store", "redis", "--id", "x"})
	})
	if err == nil || !strings.Contains(err.Error(), "unknown store") {
		t.Fatalf("expected unknown store error, got %v", err)
	}
}

func TestRunPrintsUsage(t *testing.T) {
	out, err := captureStdout(func() error {
		return run(nil)
	})
	if err != nil {
		t.Fatalf("run without args failed: %v", err)
	}
	if !strings.Contains(out, "taskapi usage:") {
		t.Fatalf("expected usage output, got %q", out)
	}
}

func captureStdout(fn func() error) (string, error) {
	originalStdout := os.Stdout
	reader, writer, err := os.Pipe()
	if err != nil {
		return "", err
	}

	os.Stdout = writer
	runErr := fn()
	_ = writer.Close()
	os.Stdout = originalStdout

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, reader)
	_ = reader.Close()

	return strings.TrimSpace(buf.String()), runErr
}

func parseKVLine(t *testing.T, line string) map[string]string {
	t.Helper()

	values := map[string]string{}
	for _, part := range strings.Fields(line) {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		values[key] = value
	}

	for _, key := range []string{"task_id", "result"} {
		if values[key] == "" {
			t.Fatalf("missing %s in output: %s", key, fmt.Sprintf("%q", line))
		}
	}
	return values
}
