package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/taskdeck/internal/db"
	"github.com/balkashynov/taskdeck/internal/models"
	"github.com/balkashynov/taskdeck/internal/store"
)

// Focus represents what UI element has focus
type Focus int

const (
	FocusProjects Focus = iota
	FocusTasks
	FocusSearch
)

type projectsLoadedMsg struct{ err error }
type tasksLoadedMsg struct{ err error }
type actionDoneMsg struct{ err error }

// BoardModel is the TUI model for the project/task board. All server
// state lives in the two stores; the model only tracks cursor and
// focus.
type BoardModel struct {
	width  int
	height int

	projects *store.ProjectStore
	tasks    *store.TaskStore

	focus       Focus
	cursor      int
	openProject *models.Project

	searchInput textinput.Model
	errMsg      string
}

// NewBoardModel creates the board over the given stores.
func NewBoardModel(projects *store.ProjectStore, tasks *store.TaskStore) BoardModel {
	search := textinput.New()
	search.Placeholder = "search title..."
	search.CharLimit = 120
	search.Width = 30

	return BoardModel{
		projects:    projects,
		tasks:       tasks,
		focus:       FocusProjects,
		searchInput: search,
	}
}

// Init loads the project list.
func (m BoardModel) Init() tea.Cmd {
	return m.loadProjects()
}

func (m BoardModel) loadProjects() tea.Cmd {
	return func() tea.Msg {
		return projectsLoadedMsg{err: m.projects.Fetch()}
	}
}

func (m BoardModel) openTasks(projectID uint) tea.Cmd {
	return func() tea.Msg {
		return tasksLoadedMsg{err: m.tasks.Fetch(projectID)}
	}
}

func (m BoardModel) applyFilters(u store.FilterUpdate) tea.Cmd {
	return func() tea.Msg {
		return tasksLoadedMsg{err: m.tasks.SetFilters(u)}
	}
}

// Update handles messages
func (m BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case projectsLoadedMsg:
		m.errMsg = errText(msg.err)
		m.clampCursor()
		return m, nil

	case tasksLoadedMsg:
		m.errMsg = errText(msg.err)
		m.clampCursor()
		return m, nil

	case actionDoneMsg:
		m.errMsg = errText(msg.err)
		// Reconciliation already happened inside the store (refetch on
		// success, rollback on failure); just redraw.
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		if m.focus == FocusSearch {
			return m.handleSearchKeys(msg)
		}
		if m.focus == FocusTasks {
			return m.handleTaskKeys(msg)
		}
		return m.handleProjectKeys(msg)
	}

	return m, nil
}

func (m BoardModel) handleProjectKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.cursor < len(m.projects.Projects())-1 {
			m.cursor++
		}
		return m, nil

	case "f":
		// Cycle project status filter: all -> active -> archived
		next := models.ProjectStatus("")
		switch m.projects.StatusFilter() {
		case "":
			next = models.ProjectActive
		case models.ProjectActive:
			next = models.ProjectArchived
		}
		m.cursor = 0
		filter := next
		return m, func() tea.Msg {
			return projectsLoadedMsg{err: m.projects.SetStatusFilter(filter)}
		}

	case "r":
		return m, m.loadProjects()

	case "enter":
		projects := m.projects.Projects()
		if m.cursor >= len(projects) {
			return m, nil
		}
		project := projects[m.cursor]
		m.openProject = &project
		m.focus = FocusTasks
		m.cursor = 0
		return m, m.openTasks(project.ID)
	}

	return m, nil
}

func (m BoardModel) handleTaskKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	tasks := m.tasks.Tasks()

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "esc":
		// Leaving the board view resets filters, tasks, selection and
		// counts.
		m.tasks.Clear()
		m.openProject = nil
		m.focus = FocusProjects
		m.cursor = 0
		m.errMsg = ""
		return m, nil

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.cursor < len(tasks)-1 {
			m.cursor++
		}
		return m, nil

	case "left", "h":
		current, _ := m.tasks.Page()
		if current > 1 {
			page := current - 1
			m.cursor = 0
			return m, m.applyFilters(store.FilterUpdate{Page: &page})
		}
		return m, nil

	case "right", "l":
		current, last := m.tasks.Page()
		if current < last {
			page := current + 1
			m.cursor = 0
			return m, m.applyFilters(store.FilterUpdate{Page: &page})
		}
		return m, nil

	case "/":
		m.focus = FocusSearch
		m.searchInput.Focus()
		return m, textinput.Blink

	case "s":
		status, _, _, _ := m.tasks.Filters()
		next := nextStatusFilter(status)
		page := 1
		m.cursor = 0
		return m, m.applyFilters(store.FilterUpdate{Status: &next, Page: &page})

	case "o":
		_, sortField, _, _ := m.tasks.Filters()
		next := nextSortField(sortField)
		return m, m.applyFilters(store.FilterUpdate{Sort: &next})

	case "O":
		_, _, order, _ := m.tasks.Filters()
		next := db.OrderAsc
		if order == db.OrderAsc {
			next = db.OrderDesc
		}
		return m, m.applyFilters(store.FilterUpdate{Order: &next})

	case " ":
		if m.cursor < len(tasks) {
			m.tasks.ToggleSelect(tasks[m.cursor].ID)
		}
		return m, nil

	case "a":
		m.tasks.SelectAll()
		return m, nil

	case "c":
		m.tasks.ClearSelection()
		return m, nil

	case "enter":
		if m.cursor >= len(tasks) {
			return m, nil
		}
		task := tasks[m.cursor]
		next := nextTaskStatus(task.Status)
		return m, func() tea.Msg {
			return actionDoneMsg{err: m.tasks.UpdateStatus(task.ID, next)}
		}

	case "1", "2", "3":
		status := map[string]models.TaskStatus{
			"1": models.StatusTodo,
			"2": models.StatusInProgress,
			"3": models.StatusDone,
		}[msg.String()]
		return m, func() tea.Msg {
			return actionDoneMsg{err: m.tasks.BulkUpdateStatus(status)}
		}

	case "x":
		if m.cursor >= len(tasks) {
			return m, nil
		}
		task := tasks[m.cursor]
		return m, func() tea.Msg {
			return actionDoneMsg{err: m.tasks.DeleteTask(task.ID)}
		}
	}

	return m, nil
}

// handleSearchKeys handles key input when in search mode
func (m BoardModel) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.focus = FocusTasks
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		return m, nil

	case "enter":
		m.focus = FocusTasks
		m.searchInput.Blur()
		search := m.searchInput.Value()
		page := 1
		m.cursor = 0
		return m, m.applyFilters(store.FilterUpdate{Search: &search, Page: &page})
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m *BoardModel) clampCursor() {
	var n int
	if m.focus == FocusProjects {
		n = len(m.projects.Projects())
	} else {
		n = len(m.tasks.Tasks())
	}
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func nextStatusFilter(s models.TaskStatus) models.TaskStatus {
	switch s {
	case "":
		return models.StatusTodo
	case models.StatusTodo:
		return models.StatusInProgress
	case models.StatusInProgress:
		return models.StatusDone
	}
	return ""
}

func nextSortField(s string) string {
	switch s {
	case db.SortCreatedAt:
		return db.SortDueDate
	case db.SortDueDate:
		return db.SortPriority
	}
	return db.SortCreatedAt
}

func nextTaskStatus(s models.TaskStatus) models.TaskStatus {
	switch s {
	case models.StatusTodo:
		return models.StatusInProgress
	case models.StatusInProgress:
		return models.StatusDone
	}
	return models.StatusTodo
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// View renders the board
func (m BoardModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var body string
	if m.focus == FocusProjects {
		body = m.renderProjects()
	} else {
		body = m.renderTasks()
	}

	var footer string
	switch {
	case m.errMsg != "":
		footer = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError)).Render("error: " + m.errMsg)
	case m.focus == FocusSearch:
		footer = "search: " + m.searchInput.View()
	default:
		footer = m.renderHelpBar()
	}

	return lipgloss.JoinVertical(lipgloss.Left, "", body, "", footer)
}

func (m BoardModel) renderProjects() string {
	var b strings.Builder

	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccentBright))
	title := "Projects"
	if filter := m.projects.StatusFilter(); filter != "" {
		title += " (" + string(filter) + ")"
	}
	b.WriteString(header.Render(title))
	b.WriteString("\n\n")

	projects := m.projects.Projects()
	if len(projects) == 0 {
		b.WriteString(mutedStyle().Render("No projects found"))
		return b.String()
	}

	for i, p := range projects {
		line := fmt.Sprintf("%-4d %-40s %-9s %d tasks", p.ID, truncate(p.Name, 38), p.Status, p.TasksCount)
		b.WriteString(m.renderRow(line, i == m.cursor))
		b.WriteString("\n")
	}

	return b.String()
}

func (m BoardModel) renderTasks() string {
	var b strings.Builder

	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccentBright))
	name := ""
	if m.openProject != nil {
		name = m.openProject.Name
	}
	b.WriteString(header.Render("Tasks - " + name))
	b.WriteString("\n")

	counts := m.tasks.Counts()
	b.WriteString(mutedStyle().Render(fmt.Sprintf(
		"todo %d | in progress %d | done %d | total %d",
		counts.Todo, counts.InProgress, counts.Done, counts.Total)))
	b.WriteString("\n\n")

	tasks := m.tasks.Tasks()
	if len(tasks) == 0 {
		b.WriteString(mutedStyle().Render("No tasks match"))
		b.WriteString("\n")
	}

	for i, t := range tasks {
		marker := " "
		if m.tasks.IsSelected(t.ID) {
			marker = "*"
		}
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.String()
		}
		b.WriteString(m.renderTaskRow(t, marker, due, i == m.cursor))
		b.WriteString("\n")
	}

	current, last := m.tasks.Page()
	status, sortField, order, search := m.tasks.Filters()
	filterInfo := fmt.Sprintf("sort %s/%s", sortField, order)
	if status != "" {
		filterInfo += " | status " + string(status)
	}
	if search != "" {
		filterInfo += " | search " + search
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle().Render(fmt.Sprintf(
		"page %d/%d (%d tasks) | %s | %d selected",
		current, last, m.tasks.Total(), filterInfo, len(m.tasks.SelectedIDs()))))

	return b.String()
}

func (m BoardModel) renderRow(line string, selected bool) string {
	if selected {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorPrimaryText)).
			Background(lipgloss.Color(ColorAccentMain)).
			Render(line)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText)).Render(line)
}

// renderTaskRow renders one task line. The status cell carries the
// per-state color except on the cursor row, where the highlight
// background owns the whole line.
func (m BoardModel) renderTaskRow(t models.Task, marker, due string, underCursor bool) string {
	if underCursor {
		line := fmt.Sprintf("%s %-4d %-12s %-7s %-11s %s",
			marker, t.ID, t.Status, t.Priority, due, truncate(t.Title, 40))
		return m.renderRow(line, true)
	}

	base := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText))
	status := lipgloss.NewStyle().
		Foreground(lipgloss.Color(statusColor(t.Status))).
		Render(fmt.Sprintf("%-12s", t.Status))

	left := base.Render(fmt.Sprintf("%s %-4d ", marker, t.ID))
	right := base.Render(fmt.Sprintf(" %-7s %-11s %s", t.Priority, due, truncate(t.Title, 40)))
	return left + status + right
}

// statusColor maps a task status onto the board theme.
func statusColor(s models.TaskStatus) string {
	switch s {
	case models.StatusDone:
		return ColorSuccess
	case models.StatusInProgress:
		return ColorWarning
	}
	return ColorSecondaryText
}

func (m BoardModel) renderHelpBar() string {
	help := "j/k move | enter open | f filter | r refresh | q quit"
	if m.focus == FocusTasks {
		help = "j/k move | h/l page | / search | s status | o sort | O order | space select | a all | c clear | enter advance | 1/2/3 bulk | x delete | esc back | q quit"
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelpText)).Render(help)
}

func mutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText)).Italic(true)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
