package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/dayplan/internal/models"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	TaskListView ViewState = iota
	InstanceListView
)

// DataSource provides the plan data the TUI renders. The CLI wires this to
// the repositories; tests supply a stub.
type DataSource interface {
	ListTasks() ([]*models.Task, error)
	HasRule(taskID string) bool
	ListInstances(taskID string) ([]*models.TaskInstance, error)
	SetInstanceStatus(id string, status models.Status) (*models.TaskInstance, error)
}

type tasksLoadedMsg struct {
	tasks []*models.Task
	err   error
}

type instancesLoadedMsg struct {
	taskID    string
	instances []*models.TaskInstance
	err       error
}

type instanceUpdatedMsg struct {
	instance *models.TaskInstance
	err      error
}

// Model represents the TUI application state.
type Model struct {
	view         ViewState
	source       DataSource
	width        int
	height       int
	taskList     list.Model
	instanceList list.Model
	selectedTask *models.Task
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model over the provided data source.
func NewModel(source DataSource) *Model {
	return &Model{
		view:   TaskListView,
		source: source,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Init initializes the TUI by loading the task list.
func (m *Model) Init() tea.Cmd {
	return m.loadTasks()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.taskList.Width() == 0 {
			m.taskList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.instanceList.Width() == 0 {
			m.instanceList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case TaskListView:
			return m.handleTaskListKeys(msg)
		case InstanceListView:
			return m.handleInstanceListKeys(msg)
		}

	case tasksLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		items := make([]list.Item, len(msg.tasks))
		for i, task := range msg.tasks {
			items[i] = taskItem{task: task, recurring: m.source.HasRule(task.ID())}
		}
		m.taskList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.taskList.Title = "Tasks"
		m.taskList.SetSize(m.width-4, m.height-8)
		return m, nil

	case instancesLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = TaskListView
			return m, nil
		}
		items := make([]list.Item, len(msg.instances))
		for i, instance := range msg.instances {
			items[i] = instanceItem{instance: instance}
		}
		m.instanceList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		if m.selectedTask != nil {
			m.instanceList.Title = fmt.Sprintf("Instances of '%s'", m.selectedTask.Title())
		}
		m.instanceList.SetSize(m.width-4, m.height-8)
		m.view = InstanceListView
		return m, nil

	case instanceUpdatedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		if m.selectedTask != nil {
			return m, m.loadInstances(m.selectedTask.ID())
		}
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case TaskListView:
		return m.renderTaskList()
	case InstanceListView:
		return m.renderInstanceList()
	default:
		return ""
	}
}

func (m *Model) handleTaskListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		return m, m.loadTasks()
	case "enter":
		selected := m.taskList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(taskItem); ok {
				m.selectedTask = item.task
				return m, m.loadInstances(item.task.ID())
			}
		}
	}

	var cmd tea.Cmd
	m.taskList, cmd = m.taskList.Update(msg)
	return m, cmd
}

func (m *Model) handleInstanceListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = TaskListView
		return m, nil
	case "d":
		return m, m.applyStatus(models.StatusDone)
	case "s":
		return m, m.applyStatus(models.StatusSkipped)
	}

	var cmd tea.Cmd
	m.instanceList, cmd = m.instanceList.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case TaskListView:
		m.taskList, cmd = m.taskList.Update(msg)
	case InstanceListView:
		m.instanceList, cmd = m.instanceList.Update(msg)
	}
	return m, cmd
}

func (m *Model) loadTasks() tea.Cmd {
	return func() tea.Msg {
		tasks, err := m.source.ListTasks()
		return tasksLoadedMsg{tasks: tasks, err: err}
	}
}

func (m *Model) loadInstances(taskID string) tea.Cmd {
	return func() tea.Msg {
		instances, err := m.source.ListInstances(taskID)
		return instancesLoadedMsg{taskID: taskID, instances: instances, err: err}
	}
}

func (m *Model) applyStatus(status models.Status) tea.Cmd {
	selected := m.instanceList.SelectedItem()
	item, ok := selected.(instanceItem)
	if !ok {
		return nil
	}

	return func() tea.Msg {
		instance, err := m.source.SetInstanceStatus(item.instance.ID(), status)
		return instanceUpdatedMsg{instance: instance, err: err}
	}
}

func (m *Model) renderTaskList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.refresh, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.taskList.View(), helpView)
}

func (m *Model) renderInstanceList() string {
	helpKeys := []key.Binding{m.keys.done, m.keys.skip, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.instanceList.View(), helpView)
}
