package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dori/tasklist/internal/model"
	"github.com/dori/tasklist/internal/ui/theme"
)

// ListMode represents the current input mode of the list view
type ListMode int

const (
	ListModeNormal ListMode = iota
	ListModeAdd
	ListModeEdit
)

// ListView displays tasks and the edit overlay
type ListView struct {
	svc      TaskService
	reporter Reporter
	width    int
	height   int

	state        TaskState
	cursor       int
	scrollOffset int

	mode      ListMode
	input     textinput.Model // new-task draft
	editInput textinput.Model // edit overlay draft
}

// NewListView creates a new list view. A nil reporter discards failures.
func NewListView(svc TaskService, reporter Reporter) ListView {
	if reporter == nil {
		reporter = nopReporter{}
	}

	ti := textinput.New()
	ti.Placeholder = "Add a new task..."
	ti.CharLimit = 256

	ei := textinput.New()
	ei.CharLimit = 256

	return ListView{
		svc:       svc,
		reporter:  reporter,
		state:     NewTaskState(),
		input:     ti,
		editInput: ei,
	}
}

// Init loads the task list once when the view is mounted
func (v ListView) Init() tea.Cmd {
	return v.LoadAll()
}

// State returns the current view state
func (v ListView) State() TaskState {
	return v.state
}

// Mode returns the current input mode
func (v ListView) Mode() ListMode {
	return v.mode
}

// Cursor returns the index of the highlighted task
func (v ListView) Cursor() int {
	return v.cursor
}

// IsInputMode returns true when the view is capturing text input
func (v ListView) IsInputMode() bool {
	return v.mode == ListModeAdd || v.mode == ListModeEdit
}

// SetSize updates the view dimensions
func (v ListView) SetSize(width, height int) ListView {
	v.width = width
	v.height = height
	v.input.Width = width - 6
	v.editInput.Width = min(width-10, 60)
	return v
}

// LoadAll fetches the whole list. On failure the current list is kept.
func (v ListView) LoadAll() tea.Cmd {
	svc := v.svc
	return func() tea.Msg {
		tasks, err := svc.List(context.Background())
		return tasksLoadedMsg{tasks: tasks, err: err}
	}
}

// SetDraft replaces the new-task draft
func (v ListView) SetDraft(title string) ListView {
	v.state.Draft = title
	v.input.SetValue(title)
	return v
}

// AddTask submits the draft as typed. An empty draft does nothing.
func (v ListView) AddTask() (ListView, tea.Cmd) {
	title := v.state.Draft
	if title == "" {
		return v, nil
	}

	svc := v.svc
	return v, func() tea.Msg {
		task, err := svc.Create(context.Background(), title)
		return taskCreatedMsg{task: task, err: err}
	}
}

// OpenEdit opens the edit overlay for task. No request is made.
func (v ListView) OpenEdit(task model.Task) ListView {
	v.state.openEdit(task)
	v.mode = ListModeEdit
	v.editInput.SetValue(task.Title)
	v.editInput.CursorEnd()
	return v
}

// SetEditDraft replaces the draft in the open edit overlay
func (v ListView) SetEditDraft(title string) ListView {
	if v.state.Editing == nil {
		return v
	}
	v.state.Editing = &EditSession{TaskID: v.state.Editing.TaskID, Draft: title}
	v.editInput.SetValue(title)
	return v
}

// UpdateTask saves the edit draft. The overlay closes only once the service
// confirms; an empty draft does nothing and keeps it open.
func (v ListView) UpdateTask() (ListView, tea.Cmd) {
	title := v.state.editDraft()
	if title == "" {
		return v, nil
	}

	id := v.state.Editing.TaskID
	seq := v.state.nextSeq()
	return v, v.update(OpUpdate, id, seq, model.TitlePatch(title))
}

// CloseEdit closes the edit overlay without saving
func (v ListView) CloseEdit() ListView {
	v.state.closeEdit()
	v.mode = ListModeNormal
	v.editInput.Blur()
	v.editInput.SetValue("")
	return v
}

// DeleteTask removes the task once the service confirms
func (v ListView) DeleteTask(id string) (ListView, tea.Cmd) {
	svc := v.svc
	return v, func() tea.Msg {
		err := svc.Delete(context.Background(), id)
		return taskDeletedMsg{id: id, err: err}
	}
}

// ToggleComplete flips the completion flag of a task
func (v ListView) ToggleComplete(id string, completed bool) (ListView, tea.Cmd) {
	seq := v.state.nextSeq()
	return v, v.update(OpToggle, id, seq, model.CompletedPatch(!completed))
}

func (v ListView) update(op, id string, seq uint64, patch model.TaskPatch) tea.Cmd {
	svc := v.svc
	return func() tea.Msg {
		task, err := svc.Update(context.Background(), id, patch)
		return taskUpdatedMsg{op: op, id: id, seq: seq, task: task, err: err}
	}
}

// visibleTaskCount returns how many tasks can fit in the viewport
func (v ListView) visibleTaskCount() int {
	// Title, input box (3 lines) and spacing
	available := v.height - 6
	if available < 1 {
		available = 1
	}
	return available
}

// ensureCursorVisible adjusts scrollOffset to keep cursor in view
func (v *ListView) ensureCursorVisible() {
	visible := v.visibleTaskCount()

	if v.cursor < v.scrollOffset {
		v.scrollOffset = v.cursor
	}
	if v.cursor >= v.scrollOffset+visible {
		v.scrollOffset = v.cursor - visible + 1
	}

	if v.scrollOffset < 0 {
		v.scrollOffset = 0
	}
	maxOffset := len(v.state.Tasks) - visible
	if maxOffset < 0 {
		maxOffset = 0
	}
	if v.scrollOffset > maxOffset {
		v.scrollOffset = maxOffset
	}
}

// clampCursor keeps the cursor on an existing row after the list shrinks
func (v *ListView) clampCursor() {
	if v.cursor >= len(v.state.Tasks) {
		v.cursor = max(0, len(v.state.Tasks)-1)
	}
	v.ensureCursorVisible()
}

// Update handles messages for the list view
func (v ListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tasksLoadedMsg:
		if msg.err != nil {
			v.reporter.ReportFailure(OpLoad, msg.err)
			return v, nil
		}
		v.state.replaceAll(msg.tasks)
		v.clampCursor()
		return v, nil

	case taskCreatedMsg:
		if msg.err != nil {
			v.reporter.ReportFailure(OpAdd, msg.err)
			return v, nil
		}
		v.state.appendTask(msg.task)
		v = v.SetDraft("")
		return v, nil

	case taskUpdatedMsg:
		if msg.err != nil {
			v.reporter.ReportFailure(msg.op, msg.err)
			return v, nil
		}
		if !v.state.accept(msg.id, msg.seq) {
			v.reporter.ReportDiscard(msg.op, msg.id)
			return v, nil
		}
		v.state.replaceTask(msg.task)
		if msg.op == OpUpdate && v.state.Editing != nil && v.state.Editing.TaskID == msg.id {
			v = v.CloseEdit()
		}
		return v, nil

	case taskDeletedMsg:
		if msg.err != nil {
			v.reporter.ReportFailure(OpDelete, msg.err)
			return v, nil
		}
		v.state.markDeleted(msg.id)
		if v.state.Editing != nil && v.state.Editing.TaskID == msg.id {
			v = v.CloseEdit()
		}
		v.clampCursor()
		return v, nil

	case tea.KeyMsg:
		switch v.mode {
		case ListModeAdd:
			return v.handleAddMode(msg)
		case ListModeEdit:
			return v.handleEditMode(msg)
		default:
			return v.handleNormalMode(msg)
		}
	}

	// Cursor blink and other input messages
	var cmd tea.Cmd
	switch v.mode {
	case ListModeAdd:
		v.input, cmd = v.input.Update(msg)
	case ListModeEdit:
		v.editInput, cmd = v.editInput.Update(msg)
	}
	return v, cmd
}

// currentTask returns the task under the cursor
func (v ListView) currentTask() (model.Task, bool) {
	if v.cursor < 0 || v.cursor >= len(v.state.Tasks) {
		return model.Task{}, false
	}
	return v.state.Tasks[v.cursor], true
}

// handleNormalMode handles keypresses in normal mode
func (v ListView) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	// Navigation
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
			v.ensureCursorVisible()
		}
	case "down", "j":
		if v.cursor < len(v.state.Tasks)-1 {
			v.cursor++
			v.ensureCursorVisible()
		}
	case "g", "home":
		v.cursor = 0
		v.ensureCursorVisible()
	case "G", "end":
		v.cursor = max(0, len(v.state.Tasks)-1)
		v.ensureCursorVisible()

	// Actions
	case "a", "i":
		v.mode = ListModeAdd
		cmd := v.input.Focus()
		return v, cmd

	case "enter", "e":
		if task, ok := v.currentTask(); ok {
			v = v.OpenEdit(task)
			cmd := v.editInput.Focus()
			return v, cmd
		}

	case " ", "tab", "x":
		if task, ok := v.currentTask(); ok {
			return v.ToggleComplete(task.ID, task.Completed)
		}

	case "d", "delete":
		if task, ok := v.currentTask(); ok {
			return v.DeleteTask(task.ID)
		}

	case "r":
		return v, v.LoadAll()
	}

	return v, nil
}

// handleAddMode handles keypresses while the new-task input has focus
func (v ListView) handleAddMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if v.state.Draft != "" {
			v.mode = ListModeNormal
			v.input.Blur()
			return v.AddTask()
		}
		return v, nil
	case "esc":
		// The draft survives leaving the input
		v.mode = ListModeNormal
		v.input.Blur()
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	v.state.Draft = v.input.Value()
	return v, cmd
}

// handleEditMode handles keypresses while the edit overlay is open
func (v ListView) handleEditMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return v.UpdateTask()
	case "esc":
		return v.CloseEdit(), nil
	}

	var cmd tea.Cmd
	v.editInput, cmd = v.editInput.Update(msg)
	if v.state.Editing != nil {
		v.state.Editing = &EditSession{TaskID: v.state.Editing.TaskID, Draft: v.editInput.Value()}
	}
	return v, cmd
}

// View renders the list, or the edit overlay when it is open
func (v ListView) View() string {
	if v.mode == ListModeEdit && v.state.Editing != nil {
		return v.renderEditOverlay()
	}

	styles := theme.Current.Styles
	t := theme.Current.Theme

	var b strings.Builder

	b.WriteString(styles.Title.Render("To-Do List"))
	b.WriteString("\n")

	inputStyle := styles.Input
	if v.mode == ListModeAdd {
		inputStyle = styles.InputFocused
	}
	b.WriteString(inputStyle.Render(v.input.View()))
	b.WriteString("\n\n")

	if len(v.state.Tasks) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Foreground(t.Subtle).
			Italic(true)
		b.WriteString(emptyStyle.Render("No tasks. Press 'a' to add one."))
		return b.String()
	}

	visible := v.visibleTaskCount()
	endIdx := v.scrollOffset + visible
	if endIdx > len(v.state.Tasks) {
		endIdx = len(v.state.Tasks)
	}

	scrollStyle := lipgloss.NewStyle().Foreground(t.Subtle)
	if v.scrollOffset > 0 {
		b.WriteString(scrollStyle.Render(fmt.Sprintf("  ↑ %d more above", v.scrollOffset)))
		b.WriteString("\n")
	}

	for i := v.scrollOffset; i < endIdx; i++ {
		b.WriteString(v.renderTask(v.state.Tasks[i], i == v.cursor))
		b.WriteString("\n")
	}

	if remaining := len(v.state.Tasks) - endIdx; remaining > 0 {
		b.WriteString(scrollStyle.Render(fmt.Sprintf("  ↓ %d more below", remaining)))
		b.WriteString("\n")
	}

	return b.String()
}

// renderTask renders one row: cursor, checkbox, title
func (v ListView) renderTask(task model.Task, focused bool) string {
	styles := theme.Current.Styles

	cursor := "  "
	if focused {
		cursor = styles.Cursor.Render("> ")
	}

	checkbox := styles.CheckboxOpen.Render("[ ]")
	titleStyle := styles.TaskNormal
	if task.Completed {
		checkbox = styles.CheckboxDone.Render("[x]")
		titleStyle = styles.TaskDone
	} else if focused {
		titleStyle = styles.TaskFocused
	}

	title := task.Title
	if v.width > 0 {
		// cursor + checkbox + padding
		maxWidth := v.width - 8
		if maxWidth > 3 && lipgloss.Width(title) > maxWidth {
			title = truncate(title, maxWidth)
		}
	}

	return cursor + checkbox + titleStyle.Render(title)
}

// renderEditOverlay renders the modal edit panel centred in the view
func (v ListView) renderEditOverlay() string {
	styles := theme.Current.Styles

	var b strings.Builder
	b.WriteString(styles.PanelTitle.Render("Edit Task"))
	b.WriteString("\n\n")
	b.WriteString(styles.InputFocused.Render(v.editInput.View()))
	b.WriteString("\n\n")
	b.WriteString(styles.HelpKey.Render("enter"))
	b.WriteString(styles.HelpDesc.Render(" update  "))
	b.WriteString(styles.HelpKey.Render("esc"))
	b.WriteString(styles.HelpDesc.Render(" close"))

	panel := styles.Panel.Render(b.String())
	if v.width == 0 || v.height == 0 {
		return panel
	}
	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, panel)
}

// truncate shortens s to width cells, ending with an ellipsis
func truncate(s string, width int) string {
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// Messages returned by service commands

type tasksLoadedMsg struct {
	tasks []model.Task
	err   error
}

type taskCreatedMsg struct {
	task model.Task
	err  error
}

type taskUpdatedMsg struct {
	op   string
	id   string
	seq  uint64
	task model.Task
	err  error
}

type taskDeletedMsg struct {
	id  string
	err error
}
