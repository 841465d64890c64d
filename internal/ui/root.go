package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dori/tasklist/internal/app"
	"github.com/dori/tasklist/internal/ui/theme"
	"github.com/dori/tasklist/internal/ui/views"
)

// RootModel mounts the list view and owns the chrome around it
type RootModel struct {
	keys   KeyMap
	help   help.Model
	width  int
	height int

	listView    views.ListView
	helpVisible bool
	baseURL     string

	// Status message
	statusMsg string
	startup   tea.Cmd
}

// NewRootModel creates a new root model
func NewRootModel(application *app.App) RootModel {
	m := newRootModel(application.Client, application.Reporter, application.Client.BaseURL())

	if err := theme.Apply(application.Config.Theme); err != nil {
		application.Logger.Warn("falling back to default theme", "err", err)
		msg := StatusMsg{Message: err.Error()}
		m.startup = func() tea.Msg { return msg }
	}
	return m
}

func newRootModel(svc views.TaskService, reporter views.Reporter, baseURL string) RootModel {
	h := help.New()
	h.ShowAll = false

	return RootModel{
		keys:     DefaultKeyMap(),
		help:     h,
		listView: views.NewListView(svc, reporter),
		baseURL:  baseURL,
	}
}

// Init loads the list once
func (m RootModel) Init() tea.Cmd {
	return tea.Batch(m.listView.Init(), m.startup)
}

// Update handles messages
func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

		// Reserve space for header (2 lines) and footer (2 lines)
		m.listView = m.listView.SetSize(m.width, m.height-4)
		return m, nil

	case tea.KeyMsg:
		m.statusMsg = ""
		isInputMode := m.listView.IsInputMode()

		// Global keybindings
		switch {
		case key.Matches(msg, m.keys.Quit):
			// ctrl+c always quits, but 'q' only quits when not in input mode
			if msg.String() == "ctrl+c" || !isInputMode {
				return m, tea.Quit
			}

		case key.Matches(msg, m.keys.ThemeCycle):
			next := theme.Next(theme.Current.Theme.Name)
			theme.SetTheme(next)
			return m, func() tea.Msg { return ThemeChangedMsg{ThemeName: next.Name} }
		}

		if isInputMode {
			break
		}

		if m.helpVisible {
			if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Cancel) {
				m.helpVisible = false
				m.help.ShowAll = false
			}
			return m, nil
		}

		if key.Matches(msg, m.keys.Help) {
			m.helpVisible = true
			m.help.ShowAll = true
			return m, nil
		}

	case StatusMsg:
		m.statusMsg = msg.Message
		return m, nil

	case ThemeChangedMsg:
		m.statusMsg = fmt.Sprintf("Theme: %s", msg.ThemeName)
		return m, nil
	}

	newListView, cmd := m.listView.Update(msg)
	m.listView = newListView.(views.ListView)
	return m, cmd
}

// View renders the UI
func (m RootModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())

	contentHeight := m.height - 4
	if m.statusMsg != "" {
		contentHeight--
	}

	var content string
	if m.helpVisible {
		content = m.renderHelp()
	} else {
		content = m.listView.View()
	}

	// Ensure content fills available space
	contentLines := strings.Count(content, "\n") + 1
	if contentLines < contentHeight {
		content += strings.Repeat("\n", contentHeight-contentLines)
	}
	sections = append(sections, content)

	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

// renderHeader renders the app name, backend and completion count
func (m RootModel) renderHeader() string {
	styles := theme.Current.Styles

	tasks := m.listView.State().Tasks
	done := 0
	for _, t := range tasks {
		if t.Completed {
			done++
		}
	}

	left := styles.Header.Render("todolist")
	right := styles.Footer.Render(fmt.Sprintf("%d/%d done  %s", done, len(tasks), m.baseURL))

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

// renderFooter renders the status line and key hints
func (m RootModel) renderFooter() string {
	styles := theme.Current.Styles

	var hints string
	if m.listView.IsInputMode() {
		hints = m.help.ShortHelpView(inputHelp{k: m.keys}.ShortHelp())
	} else {
		hints = m.help.ShortHelpView(m.keys.ShortHelp())
	}

	var lines []string
	if m.statusMsg != "" {
		lines = append(lines, styles.StatusValue.Render(m.statusMsg))
	}
	lines = append(lines, styles.Footer.Render(hints))
	return strings.Join(lines, "\n")
}

// renderHelp renders the help overlay
func (m RootModel) renderHelp() string {
	styles := theme.Current.Styles

	var b strings.Builder
	b.WriteString(styles.PanelTitle.Render("Keyboard Shortcuts"))
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n\n")
	b.WriteString(styles.HelpDesc.Render("Press ? or esc to close"))

	return styles.Panel.Render(b.String())
}
