package run

import (
	"testing"
	"time"
)

func TestStateRepo_Reserve(t *testing.T) {
	t.Parallel()
	repo := newStateRepo()

	if err := repo.reserve("run-1", NewLogBuffer()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	status, exists := repo.status("run-1")
	if !exists {
		t.Fatal("Expected run to exist after reserve")
	}
	if status.State != StateAccepted {
		t.Errorf("Expected state %q, got %q", StateAccepted, status.State)
	}
}

func TestStateRepo_ReserveAlreadyExists(t *testing.T) {
	t.Parallel()
	repo := newStateRepo()

	if err := repo.reserve("run-1", NewLogBuffer()); err != nil {
		t.Fatalf("First reserve failed: %v", err)
	}
	if err := repo.reserve("run-1", NewLogBuffer()); err == nil {
		t.Error("Expected error for duplicate reserve")
	}
}

func TestStateRepo_Transitions(t *testing.T) {
	t.Parallel()
	repo := newStateRepo()
	repo.reserve("run-1", NewLogBuffer())

	repo.markRunning("run-1")
	status, _ := repo.status("run-1")
	if status.State != StateRunning {
		t.Errorf("Expected state %q, got %q", StateRunning, status.State)
	}

	exitCode := 0
	repo.finish("run-1", &exitCode, "")
	status, _ = repo.status("run-1")
	if status.State != StateCompleted {
		t.Errorf("Expected state %q, got %q", StateCompleted, status.State)
	}
	if status.ExitCode == nil || *status.ExitCode != 0 {
		t.Errorf("Expected exit code 0, got %v", status.ExitCode)
	}
}

func TestStateRepo_FinishWithError(t *testing.T) {
	t.Parallel()
	repo := newStateRepo()
	repo.reserve("run-1", NewLogBuffer())
	repo.markRunning("run-1")

	repo.finish("run-1", nil, "container engine unreachable: a docker error")
	status, _ := repo.status("run-1")
	if status.State != StateFailed {
		t.Errorf("Expected state %q, got %q", StateFailed, status.State)
	}
	if status.Error != "container engine unreachable: a docker error" {
		t.Errorf("Unexpected error message %q", status.Error)
	}
}

func TestStateRepo_StatusUnknown(t *testing.T) {
	t.Parallel()
	repo := newStateRepo()

	if _, exists := repo.status("missing"); exists {
		t.Error("Expected unknown run to not exist")
	}
	if _, exists := repo.logsOf("missing"); exists {
		t.Error("Expected unknown run to have no logs")
	}
}

func TestStateRepo_LogsOf(t *testing.T) {
	t.Parallel()
	repo := newStateRepo()
	logs := NewLogBuffer()
	repo.reserve("run-1", logs)

	got, exists := repo.logsOf("run-1")
	if !exists {
		t.Fatal("Expected logs to exist")
	}
	if got != logs {
		t.Error("Expected the reserved log buffer back")
	}
}

func TestStateRepo_List(t *testing.T) {
	t.Parallel()
	repo := newStateRepo()
	repo.reserve("run-1", NewLogBuffer())
	repo.reserve("run-2", NewLogBuffer())
	repo.markRunning("run-2")

	statuses := repo.list()
	if len(statuses) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(statuses))
	}
}

func TestStateRepo_Release(t *testing.T) {
	t.Parallel()
	repo := newStateRepo()
	repo.reserve("run-1", NewLogBuffer())

	if !repo.release("run-1") {
		t.Error("Expected release to report existing run")
	}
	if repo.release("run-1") {
		t.Error("Expected second release to report missing run")
	}
	if _, exists := repo.status("run-1"); exists {
		t.Error("Expected run gone after release")
	}
}

func TestStateRepo_Expired(t *testing.T) {
	t.Parallel()
	repo := newStateRepo()
	repo.reserve("old", NewLogBuffer())
	repo.reserve("fresh", NewLogBuffer())
	repo.reserve("active", NewLogBuffer())
	repo.markRunning("active")

	exitCode := 0
	repo.finish("old", &exitCode, "")
	repo.finish("fresh", &exitCode, "")

	// Backdate the old run past the retention window.
	repo.mu.Lock()
	repo.runs["old"].finishedAt = time.Now().Add(-time.Hour)
	repo.mu.Unlock()

	expired := repo.expired(15 * time.Minute)
	if len(expired) != 1 || expired[0] != "old" {
		t.Errorf("Expected only the old run to expire, got %v", expired)
	}
}
