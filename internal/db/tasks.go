package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dori/tasklist/internal/model"
	"github.com/google/uuid"
)

// ErrNotFound is returned when no task has the requested id
var ErrNotFound = errors.New("task not found")

// ListTasks returns all tasks in creation order
func (db *DB) ListTasks(ctx context.Context) ([]model.Task, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, title, completed
		FROM tasks
		ORDER BY position, created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTasks(rows)
}

// GetTask returns a single task by ID
func (db *DB) GetTask(ctx context.Context, id string) (model.Task, error) {
	return getTask(ctx, db, id)
}

// CreateTask appends a new, not completed task
func (db *DB) CreateTask(ctx context.Context, title string) (model.Task, error) {
	task := model.Task{
		ID:    uuid.New().String(),
		Title: title,
	}
	now := time.Now().UTC()

	err := db.Transaction(ctx, func(tx *sql.Tx) error {
		var position int64
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), 0) + 1 FROM tasks`).Scan(&position); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (id, title, completed, position, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, task.ID, task.Title, false, position, now, now)
		return err
	})
	if err != nil {
		return model.Task{}, err
	}

	return task, nil
}

// UpdateTask applies the fields present in patch and returns the result
func (db *DB) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	if patch.IsEmpty() {
		return model.Task{}, errors.New("empty patch")
	}

	var task model.Task
	err := db.Transaction(ctx, func(tx *sql.Tx) error {
		current, err := getTask(ctx, tx, id)
		if err != nil {
			return err
		}

		task = patch.Apply(current)
		_, err = tx.ExecContext(ctx, `
			UPDATE tasks SET title = ?, completed = ?, updated_at = ?
			WHERE id = ?
		`, task.Title, task.Completed, time.Now().UTC(), id)
		return err
	})
	if err != nil {
		return model.Task{}, err
	}

	return task, nil
}

// DeleteTask deletes a task
func (db *DB) DeleteTask(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Helper functions

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getTask(ctx context.Context, q queryer, id string) (model.Task, error) {
	row := q.QueryRowContext(ctx, `SELECT id, title, completed FROM tasks WHERE id = ?`, id)

	t, err := scanTaskRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, ErrNotFound
	}
	return t, err
}

func scanTasks(rows *sql.Rows) ([]model.Task, error) {
	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTaskRow(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTaskRow(s scanner) (model.Task, error) {
	var t model.Task
	if err := s.Scan(&t.ID, &t.Title, &t.Completed); err != nil {
		return model.Task{}, err
	}
	return t, nil
}
