package ui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dori/tasklist/internal/model"
	"github.com/dori/tasklist/internal/ui/theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	tasks []model.Task
}

func (s stubService) List(context.Context) ([]model.Task, error) { return s.tasks, nil }
func (s stubService) Create(_ context.Context, title string) (model.Task, error) {
	return model.Task{ID: "new", Title: title}, nil
}
func (s stubService) Update(_ context.Context, id string, p model.TaskPatch) (model.Task, error) {
	return p.Apply(model.Task{ID: id}), nil
}
func (s stubService) Delete(context.Context, string) error { return nil }

func newTestRoot(t *testing.T, tasks ...model.Task) RootModel {
	t.Helper()
	m := newRootModel(stubService{tasks: tasks}, nil, "http://localhost:5000")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = next.(RootModel)

	// run the initial load
	next, _ = m.Update(m.listView.Init()())
	return next.(RootModel)
}

func sendKey(m RootModel, k tea.KeyMsg) (RootModel, tea.Cmd) {
	next, cmd := m.Update(k)
	return next.(RootModel), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestRootLoadsAndRenders(t *testing.T) {
	m := newTestRoot(t, model.Task{ID: "1", Title: "Buy milk"}, model.Task{ID: "2", Title: "Wash car", Completed: true})

	out := m.View()
	assert.Contains(t, out, "todolist")
	assert.Contains(t, out, "1/2 done")
	assert.Contains(t, out, "Buy milk")
}

func TestQuitOnlyOutsideInput(t *testing.T) {
	m := newTestRoot(t)

	_, cmd := sendKey(m, runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	m, _ = sendKey(m, runes("a"))
	require.True(t, m.listView.IsInputMode())
	m, _ = sendKey(m, runes("q"))
	assert.Equal(t, "q", m.listView.State().Draft, "q must be typed into the draft")

	_, cmd = sendKey(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestHelpToggle(t *testing.T) {
	m := newTestRoot(t)

	m, _ = sendKey(m, runes("?"))
	assert.True(t, m.helpVisible)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	m, _ = sendKey(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.helpVisible)
}

func TestThemeCycle(t *testing.T) {
	defer theme.SetTheme(theme.Nord)
	theme.SetTheme(theme.Nord)
	m := newTestRoot(t)

	m, cmd := sendKey(m, tea.KeyMsg{Type: tea.KeyCtrlT})
	require.NotNil(t, cmd)
	assert.Equal(t, "dracula", theme.Current.Theme.Name)

	next, _ := m.Update(cmd())
	m = next.(RootModel)
	assert.Equal(t, "Theme: dracula", m.statusMsg)
	assert.Contains(t, m.View(), "Theme: dracula")
}

func TestKeysReachListView(t *testing.T) {
	m := newTestRoot(t, model.Task{ID: "1", Title: "Buy milk"})

	m, cmd := sendKey(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	m = next.(RootModel)

	assert.True(t, m.listView.State().Tasks[0].Completed)
}
