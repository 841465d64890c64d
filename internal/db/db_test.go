package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dori/tasklist/internal/model"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateAndListKeepsCreationOrder(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	titles := []string{"Buy milk", "Wash car", "Call mom"}
	for _, title := range titles {
		task, err := db.CreateTask(ctx, title)
		if err != nil {
			t.Fatalf("CreateTask(%q): %v", title, err)
		}
		if task.ID == "" || task.Completed {
			t.Errorf("CreateTask(%q) = %+v", title, task)
		}
	}

	tasks, err := db.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != len(titles) {
		t.Fatalf("got %d tasks, want %d", len(tasks), len(titles))
	}
	for i, title := range titles {
		if tasks[i].Title != title {
			t.Errorf("tasks[%d].Title = %q, want %q", i, tasks[i].Title, title)
		}
	}
}

func TestListEmpty(t *testing.T) {
	db := openTestDB(t)

	tasks, err := db.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", tasks)
	}
}

func TestUpdateTask(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	created, err := db.CreateTask(ctx, "Buy milk")
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	got, err := db.UpdateTask(ctx, created.ID, model.CompletedPatch(true))
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	want := model.Task{ID: created.ID, Title: "Buy milk", Completed: true}
	if got != want {
		t.Errorf("UpdateTask = %+v, want %+v", got, want)
	}

	got, err = db.UpdateTask(ctx, created.ID, model.TitlePatch("Buy oat milk"))
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if got.Title != "Buy oat milk" || !got.Completed {
		t.Errorf("title patch must keep completed: %+v", got)
	}

	stored, err := db.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if stored != got {
		t.Errorf("GetTask = %+v, want %+v", stored, got)
	}
}

func TestUpdateMissingTask(t *testing.T) {
	db := openTestDB(t)

	_, err := db.UpdateTask(context.Background(), "nope", model.TitlePatch("x"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateEmptyPatch(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.UpdateTask(context.Background(), "1", model.TaskPatch{}); err == nil {
		t.Error("expected error for empty patch")
	}
}

func TestDeleteTask(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	a, _ := db.CreateTask(ctx, "a")
	b, _ := db.CreateTask(ctx, "b")

	if err := db.DeleteTask(ctx, a.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if err := db.DeleteTask(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
	if _, err := db.GetTask(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetTask after delete: expected ErrNotFound, got %v", err)
	}

	tasks, _ := db.ListTasks(ctx)
	if len(tasks) != 1 || tasks[0].ID != b.ID {
		t.Errorf("remaining tasks = %+v", tasks)
	}
}

func TestPositionsAfterDelete(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	a, _ := db.CreateTask(ctx, "a")
	b, _ := db.CreateTask(ctx, "b")
	if err := db.DeleteTask(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	c, _ := db.CreateTask(ctx, "c")

	tasks, _ := db.ListTasks(ctx)
	if len(tasks) != 2 || tasks[0].ID != a.ID || tasks[1].ID != c.ID {
		t.Errorf("tasks = %+v", tasks)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "test.db")
	ctx := context.Background()

	db, err := Open(DriverSQLite, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := db.CreateTask(ctx, "persist me"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = Open(DriverSQLite, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	tasks, err := db.ListTasks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 || tasks[0].Title != "persist me" {
		t.Errorf("tasks = %+v", tasks)
	}
}

func TestDriverName(t *testing.T) {
	db := openTestDB(t)
	if got := db.Driver(); got != DriverSQLite {
		t.Errorf("Driver() = %q, want %q", got, DriverSQLite)
	}
}

func TestUpdateTaskKeepsUnpatchedFields(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	created, err := db.CreateTask(ctx, "Buy milk")
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if _, err := db.UpdateTask(ctx, created.ID, model.CompletedPatch(true)); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}

	got, err := db.UpdateTask(ctx, created.ID, model.TitlePatch("Buy oat milk"))
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	want := model.Task{ID: created.ID, Title: "Buy oat milk", Completed: true}
	if got != want {
		t.Errorf("UpdateTask = %+v, want %+v", got, want)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open("postgres", "x"); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestOpenInvalidMySQLDSN(t *testing.T) {
	if _, err := Open(DriverMySQL, "not a dsn"); err == nil {
		t.Error("expected error for invalid mysql dsn")
	}
}

// TestQueriesAfterListNoDeadlock guards the single-connection setup: every
// query must release its connection before the next one starts.
func TestQueriesAfterListNoDeadlock(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := db.CreateTask(ctx, "task"); err != nil {
			t.Fatal(err)
		}
	}

	done := make(chan error, 1)
	go func() {
		tasks, err := db.ListTasks(ctx)
		if err != nil {
			done <- err
			return
		}
		for _, task := range tasks {
			if _, err := db.UpdateTask(ctx, task.ID, model.CompletedPatch(true)); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Test timed out - possible deadlock detected")
	}
}
