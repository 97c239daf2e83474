package executor

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestExecuteCapturesStdout(t *testing.T) {
	e := New()
	out, err := e.Execute(context.Background(), "sh", "-c", "printf hello")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out != "hello" {
		t.Errorf("Execute() stdout = %q, want %q", out, "hello")
	}
}

func TestExecuteFailureCarriesStderr(t *testing.T) {
	e := New()
	_, err := e.Execute(context.Background(), "sh", "-c", "echo boom >&2; exit 3")
	if err == nil {
		t.Fatal("Execute() expected error, got nil")
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Execute() error = %T, want *ExitError", err)
	}
	if exitErr.Stderr != "boom" {
		t.Errorf("ExitError.Stderr = %q, want %q", exitErr.Stderr, "boom")
	}
	if strings.Contains(err.Error(), "boom") {
		t.Errorf("error message leaks stderr: %q", err.Error())
	}
}

func TestExecuteInDir(t *testing.T) {
	e := New()
	dir := t.TempDir()
	out, err := e.ExecuteInDir(context.Background(), dir, "pwd")
	if err != nil {
		t.Fatalf("ExecuteInDir() error = %v", err)
	}
	if !strings.Contains(strings.TrimSpace(out), strings.TrimPrefix(dir, "/private")) {
		t.Errorf("ExecuteInDir() ran in %q, want %q", strings.TrimSpace(out), dir)
	}
}
