package views

import (
	"testing"

	"github.com/dori/tasklist/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestAcceptDropsOlderSequence(t *testing.T) {
	s := NewTaskState()

	assert.True(t, s.accept("1", 2))
	assert.False(t, s.accept("1", 1))
	assert.True(t, s.accept("1", 3))
	assert.True(t, s.accept("2", 1), "ids are tracked separately")
}

func TestAcceptOnZeroValueState(t *testing.T) {
	var s TaskState
	assert.True(t, s.accept("1", 1))
}

func TestNextSeqIncreases(t *testing.T) {
	s := NewTaskState()
	a := s.nextSeq()
	b := s.nextSeq()
	assert.Less(t, a, b)
}

func TestMutationsDoNotAliasEarlierSnapshots(t *testing.T) {
	s := NewTaskState()
	s.replaceAll([]model.Task{{ID: "1", Title: "a"}, {ID: "2", Title: "b"}})
	snapshot := s

	s.replaceTask(model.Task{ID: "1", Title: "changed"})
	s.removeTask("2")
	s.appendTask(model.Task{ID: "3", Title: "c"})

	assert.Equal(t, []model.Task{{ID: "1", Title: "a"}, {ID: "2", Title: "b"}}, snapshot.Tasks)
	assert.Equal(t, []model.Task{{ID: "1", Title: "changed"}, {ID: "3", Title: "c"}}, s.Tasks)
}

func TestReplaceAndRemoveMissingID(t *testing.T) {
	s := NewTaskState()
	s.replaceAll([]model.Task{{ID: "1"}})

	assert.False(t, s.replaceTask(model.Task{ID: "9"}))
	assert.False(t, s.removeTask("9"))
	assert.Len(t, s.Tasks, 1)
}

func TestReplaceAllNilBecomesEmpty(t *testing.T) {
	s := NewTaskState()
	s.replaceAll(nil)
	assert.NotNil(t, s.Tasks)
	assert.Empty(t, s.Tasks)
}

func TestEditDraftKeptAsTyped(t *testing.T) {
	s := NewTaskState()
	assert.Equal(t, "", s.editDraft())

	s.openEdit(model.Task{ID: "1", Title: " x "})
	assert.True(t, s.IsEditing())
	assert.Equal(t, " x ", s.editDraft())

	s.closeEdit()
	assert.False(t, s.IsEditing())
}

func TestMarkDeletedRejectsLaterUpdates(t *testing.T) {
	s := NewTaskState()
	s.replaceAll([]model.Task{{ID: "1"}, {ID: "2"}})
	assert.True(t, s.accept("1", 2))

	s.markDeleted("1")

	assert.Equal(t, []model.Task{{ID: "2"}}, s.Tasks)
	assert.False(t, s.accept("1", 3))
	assert.True(t, s.accept("2", 4))
}

func TestMarkDeletedOnZeroValueState(t *testing.T) {
	var s TaskState
	s.markDeleted("1")
	assert.False(t, s.accept("1", 1))
}

type countingReporter struct{ failures, discards int }

func (c *countingReporter) ReportFailure(string, error)  { c.failures++ }
func (c *countingReporter) ReportDiscard(string, string) { c.discards++ }

func TestMultiReporterFansOut(t *testing.T) {
	a, b := &countingReporter{}, &countingReporter{}
	m := MultiReporter{a, b}

	m.ReportFailure(OpAdd, errUnavailable)
	m.ReportDiscard(OpToggle, "1")

	assert.Equal(t, 1, a.failures)
	assert.Equal(t, 1, b.discards)
}
