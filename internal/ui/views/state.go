package views

import (
	"context"

	"github.com/dori/tasklist/internal/model"
)

// TaskService is the remote collaborator the list view talks to
type TaskService interface {
	List(ctx context.Context) ([]model.Task, error)
	Create(ctx context.Context, title string) (model.Task, error)
	Update(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error)
	Delete(ctx context.Context, id string) error
}

// Operation names passed to the Reporter
const (
	OpLoad   = "load tasks"
	OpAdd    = "add task"
	OpUpdate = "update task"
	OpDelete = "delete task"
	OpToggle = "toggle task"
)

// EditSession is an open edit overlay for one task
type EditSession struct {
	TaskID string
	Draft  string
}

// TaskState is everything the list view knows. It is a plain value owned by
// one ListView and is rebuilt from scratch when the view is recreated.
type TaskState struct {
	Tasks   []model.Task
	Draft   string
	Editing *EditSession

	// Per-task write ordering. Every update gets the next sequence number;
	// a response older than the last one applied for the same id is dropped,
	// as is any update response for a task already deleted.
	seq     uint64
	applied map[string]uint64
	deleted map[string]bool
}

// NewTaskState returns an empty state
func NewTaskState() TaskState {
	return TaskState{
		Tasks:   []model.Task{},
		applied: make(map[string]uint64),
		deleted: make(map[string]bool),
	}
}

// IsEditing reports whether the edit overlay is open
func (s TaskState) IsEditing() bool {
	return s.Editing != nil
}

// editDraft returns the draft of the open edit session, or "" if closed
func (s TaskState) editDraft() string {
	if s.Editing == nil {
		return ""
	}
	return s.Editing.Draft
}

// openEdit starts an edit session seeded with the task's current title
func (s *TaskState) openEdit(task model.Task) {
	s.Editing = &EditSession{TaskID: task.ID, Draft: task.Title}
}

// closeEdit drops the edit session without saving
func (s *TaskState) closeEdit() {
	s.Editing = nil
}

// nextSeq issues a sequence number for a write against id
func (s *TaskState) nextSeq() uint64 {
	s.seq++
	return s.seq
}

// accept reports whether an update response for id with the given sequence
// may be applied, and records it as the latest applied one if so.
func (s *TaskState) accept(id string, seq uint64) bool {
	if s.deleted[id] {
		return false
	}
	if s.applied == nil {
		s.applied = make(map[string]uint64)
	}
	if seq < s.applied[id] {
		return false
	}
	s.applied[id] = seq
	return true
}

// markDeleted removes id and makes later update responses for it stale
func (s *TaskState) markDeleted(id string) {
	if s.deleted == nil {
		s.deleted = make(map[string]bool)
	}
	s.deleted[id] = true
	s.removeTask(id)
}

// replaceAll swaps in a freshly loaded list
func (s *TaskState) replaceAll(tasks []model.Task) {
	if tasks == nil {
		tasks = []model.Task{}
	}
	s.Tasks = tasks
}

// appendTask adds a created task at the end. The slice is copied so earlier
// snapshots of the state stay untouched.
func (s *TaskState) appendTask(task model.Task) {
	next := make([]model.Task, len(s.Tasks), len(s.Tasks)+1)
	copy(next, s.Tasks)
	s.Tasks = append(next, task)
}

// replaceTask swaps the entry with the same id. Returns false if absent.
func (s *TaskState) replaceTask(task model.Task) bool {
	i := model.IndexOf(s.Tasks, task.ID)
	if i < 0 {
		return false
	}
	next := make([]model.Task, len(s.Tasks))
	copy(next, s.Tasks)
	next[i] = task
	s.Tasks = next
	return true
}

// removeTask drops the entry with the given id. Returns false if absent.
func (s *TaskState) removeTask(id string) bool {
	i := model.IndexOf(s.Tasks, id)
	if i < 0 {
		return false
	}
	next := make([]model.Task, 0, len(s.Tasks)-1)
	next = append(next, s.Tasks[:i]...)
	next = append(next, s.Tasks[i+1:]...)
	s.Tasks = next
	return true
}
