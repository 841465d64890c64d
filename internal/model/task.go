package model

import (
	"encoding/json"
	"errors"
)

// ErrMissingID is returned when a task record arrives without an identifier
var ErrMissingID = errors.New("task record has no id")

// Task represents a todo item as exchanged with the task service
type Task struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// taskWire accepts both the canonical "id" key and the "_id" key used by
// document-store backends.
type taskWire struct {
	ID        *string `json:"id"`
	LegacyID  *string `json:"_id"`
	Title     string  `json:"title"`
	Completed bool    `json:"completed"`
}

// UnmarshalJSON decodes a task and rejects records without an id
func (t *Task) UnmarshalJSON(data []byte) error {
	var w taskWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	var id string
	switch {
	case w.ID != nil && *w.ID != "":
		id = *w.ID
	case w.LegacyID != nil && *w.LegacyID != "":
		id = *w.LegacyID
	default:
		return ErrMissingID
	}

	*t = Task{
		ID:        id,
		Title:     w.Title,
		Completed: w.Completed,
	}
	return nil
}

// TaskPatch is a partial update. Nil fields are left untouched.
type TaskPatch struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// TitlePatch returns a patch that only renames a task
func TitlePatch(title string) TaskPatch {
	return TaskPatch{Title: &title}
}

// CompletedPatch returns a patch that only sets the completion flag
func CompletedPatch(completed bool) TaskPatch {
	return TaskPatch{Completed: &completed}
}

// IsEmpty returns true if the patch changes nothing
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Completed == nil
}

// Apply returns a copy of t with the patch applied
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	return t
}

// IndexOf returns the position of the task with the given id, or -1
func IndexOf(tasks []Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
