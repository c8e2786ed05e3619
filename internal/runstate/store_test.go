package runstate

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestMemoryStoreCreateGetUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	task := &Task{RunID: "run1", Jurisdiction: "Example County", Status: StatusQueued, CreatedAt: time.Now()}
	if err := s.Create(ctx, task); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := s.Get(ctx, "run1", "Example County")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil || got.Status != StatusQueued {
		t.Fatalf("Get() = %+v, want queued task", got)
	}

	task.Status = StatusSucceeded
	task.Found = true
	if err := s.Update(ctx, task); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, err = s.Get(ctx, "run1", "Example County")
	if err != nil {
		t.Fatalf("Get() after update error = %v", err)
	}
	if got.Status != StatusSucceeded || !got.Found {
		t.Errorf("Get() after update = %+v, want succeeded/found", got)
	}
}

func TestMemoryStoreListFiltersByRun(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	s.Create(ctx, &Task{RunID: "run1", Jurisdiction: "A County"})
	s.Create(ctx, &Task{RunID: "run1", Jurisdiction: "B County"})
	s.Create(ctx, &Task{RunID: "run2", Jurisdiction: "C County"})

	tasks, err := s.List(ctx, "run1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("List(run1) returned %d tasks, want 2", len(tasks))
	}
}

func TestMemoryStoreGetMissingReturnsNil(t *testing.T) {
	s := NewMemoryStore()
	got, err := s.Get(context.Background(), "nope", "nowhere")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Errorf("Get() = %+v, want nil for missing task", got)
	}
}

func TestSQLiteStoreCreateGetUpdateList(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runstate.db")

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	task := &Task{RunID: "run1", Jurisdiction: "Example County", Status: StatusRunning, CreatedAt: time.Now(), StartedAt: time.Now()}
	if err := store.Create(ctx, task); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := store.Get(ctx, "run1", "Example County")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil || got.Status != StatusRunning {
		t.Fatalf("Get() = %+v, want running task", got)
	}

	task.Status = StatusFailed
	task.Error = "search engine timeout"
	task.FinishedAt = time.Now()
	if err := store.Update(ctx, task); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err = store.Get(ctx, "run1", "Example County")
	if err != nil {
		t.Fatalf("Get() after update error = %v", err)
	}
	if got.Status != StatusFailed || got.Error != "search engine timeout" {
		t.Errorf("Get() after update = %+v, want failed task with error message", got)
	}

	tasks, err := store.List(ctx, "run1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("List() returned %d tasks, want 1", len(tasks))
	}
}

func TestSQLiteStoreGetMissingReturnsNil(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runstate.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	got, err := store.Get(context.Background(), "nope", "nowhere")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Errorf("Get() = %+v, want nil for missing task", got)
	}
}
