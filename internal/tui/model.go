package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dennisdiepolder/monti/calldesk/internal/types"
	"github.com/dennisdiepolder/monti/calldesk/internal/view"
)

// focusList is the focus index of the record list; form fields use 0..n-1
const focusList = -1

var fieldLabels = map[string]string{
	view.FieldAgentName:    "Agent",
	view.FieldCustomerName: "Customer",
	view.FieldPhoneNumber:  "Phone",
	view.FieldIssue:        "Issue",
	view.FieldStatus:       "Status",
	view.FieldCallDuration: "Duration (min)",
}

// changedMsg is sent whenever the manager's state changes
type changedMsg struct{}

// opDoneMsg reports the outcome of a store-backed action
type opDoneMsg struct {
	op  string
	err error
}

// Model is the bubbletea model for the record manager screen
type Model struct {
	ctx     context.Context
	manager *view.Manager
	snap    view.Snapshot

	inputs  []textinput.Model
	focus   int
	cursor  int
	formKey string

	notice string
	err    error

	width    int
	height   int
	quitting bool
}

// New creates a model over manager. ctx bounds every store call it issues.
func New(ctx context.Context, manager *view.Manager) Model {
	inputs := make([]textinput.Model, len(view.FormFields))
	for i, name := range view.FormFields {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = fieldLabels[name]
		in.CharLimit = 120
		in.Cursor.SetMode(cursor.CursorStatic)
		inputs[i] = in
	}

	m := Model{
		ctx:     ctx,
		manager: manager,
		inputs:  inputs,
		focus:   focusList,
	}
	m.sync()
	return m
}

// Init performs the initial fetch
func (m Model) Init() tea.Cmd {
	manager, ctx := m.manager, m.ctx
	return func() tea.Msg {
		manager.Mount(ctx)
		return changedMsg{}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for i := range m.inputs {
			m.inputs[i].Width = max(20, msg.Width/2-20)
		}
		return m, nil

	case changedMsg:
		m.sync()
		return m, nil

	case opDoneMsg:
		if msg.err != nil {
			m.err = msg.err
			m.notice = ""
		} else {
			m.err = nil
			m.notice = msg.op
		}
		m.sync()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}
		if m.focus == focusList {
			return m.handleListKey(msg)
		}
		return m.handleFormKey(msg)
	}

	return m, nil
}

// sync re-reads the manager state and refreshes the inputs when the form
// moved to a different phase or record.
func (m *Model) sync() {
	m.snap = m.manager.Snapshot()

	if n := len(m.snap.List.Records); m.cursor >= n {
		m.cursor = max(0, n-1)
	}

	key := string(m.snap.Form.Phase)
	if m.snap.Form.Editing != nil {
		key += ":" + string(m.snap.Form.Editing.ID)
	}
	if key == m.formKey {
		return
	}
	m.formKey = key
	for i, name := range view.FormFields {
		if v := fieldValue(m.snap.Form.Fields, name); m.inputs[i].Value() != v {
			m.inputs[i].SetValue(v)
		}
	}
}

func (m Model) selected() (types.Record, bool) {
	recs := m.snap.List.Records
	if m.cursor < 0 || m.cursor >= len(recs) {
		return types.Record{}, false
	}
	return recs[m.cursor], true
}

// do runs fn off the update loop and reports its outcome as opDoneMsg
func (m Model) do(op string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: op, err: fn(ctx)}
	}
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	caps := m.snap.Capabilities

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.cursor < len(m.snap.List.Records)-1 {
			m.cursor++
		}
		return m, nil

	case "tab":
		return m.setFocus(0), nil

	case "shift+tab":
		return m.setFocus(len(m.inputs) - 1), nil

	case "r":
		manager := m.manager
		return m, m.do("refreshed", func(ctx context.Context) error {
			manager.Refresh(ctx)
			return nil
		})

	case "e":
		rec, ok := m.selected()
		if !ok {
			return m, nil
		}
		if err := m.manager.BeginEdit(rec.ID); err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.sync()
		return m.setFocus(0), nil

	case "m", "enter":
		if !caps.StatusMenu {
			if msg.String() == "m" {
				m.err = view.ErrUnsupported
			}
			return m, nil
		}
		rec, ok := m.selected()
		if !ok {
			return m, nil
		}
		if err := m.manager.ToggleMenu(rec.ID); err != nil {
			m.err = err
		}
		m.sync()
		return m, nil

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		return m.pickStatus(int(msg.String()[0] - '1'))

	case "d":
		rec, ok := m.selected()
		if !ok {
			return m, nil
		}
		manager, id := m.manager, rec.ID
		return m, m.do("deleted "+string(id), func(ctx context.Context) error {
			return manager.Delete(ctx, id)
		})

	case "esc":
		if m.snap.Menu.Open() {
			m.manager.CloseMenu()
		} else if m.snap.Form.Editing != nil {
			m.manager.CancelEdit()
		}
		m.manager.ClearError()
		m.err = nil
		m.sync()
		return m, nil
	}

	return m, nil
}

func (m Model) pickStatus(n int) (tea.Model, tea.Cmd) {
	status, ok := m.snap.Vocabulary.Option(n)
	if !ok {
		return m, nil
	}
	rec, ok := m.selected()
	if !ok {
		return m, nil
	}
	manager, id := m.manager, rec.ID
	op := fmt.Sprintf("%s → %s", id, status)

	switch caps := m.snap.Capabilities; {
	case caps.InlineStatus:
		return m, m.do(op, func(ctx context.Context) error {
			return manager.ChangeStatus(ctx, id, status)
		})
	case caps.StatusMenu:
		if m.snap.Menu.OpenFor != id {
			m.err = errors.New("open the status menu with m first")
			return m, nil
		}
		return m, m.do(op, func(ctx context.Context) error {
			return manager.SelectStatus(ctx, id, status)
		})
	default:
		m.err = view.ErrUnsupported
		return m, nil
	}
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	name := view.FormFields[m.focus]

	switch msg.String() {
	case "tab", "down":
		if m.focus == len(m.inputs)-1 {
			return m.setFocus(focusList), nil
		}
		return m.setFocus(m.focus + 1), nil

	case "shift+tab", "up":
		if m.focus == 0 {
			return m.setFocus(focusList), nil
		}
		return m.setFocus(m.focus - 1), nil

	case "esc":
		if m.snap.Form.Editing != nil {
			m.manager.CancelEdit()
			m.sync()
		}
		return m.setFocus(focusList), nil

	case "enter":
		manager := m.manager
		op := "created record"
		if m.snap.Form.Editing != nil {
			op = "updated " + string(m.snap.Form.Editing.ID)
		}
		return m, m.do(op, func(ctx context.Context) error {
			return manager.Submit(ctx)
		})
	}

	if name == view.FieldStatus {
		return m.cycleStatus(msg)
	}

	var cmd tea.Cmd
	before := m.inputs[m.focus].Value()
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if after := m.inputs[m.focus].Value(); after != before {
		if err := m.manager.SetField(name, after); err != nil {
			m.err = err
		}
		m.sync()
	}
	return m, cmd
}

// cycleStatus moves the form's status through the vocabulary with ←/→
func (m Model) cycleStatus(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var step int
	switch msg.String() {
	case "left", "h":
		step = -1
	case "right", "l", " ":
		step = 1
	default:
		return m, nil
	}

	opts := statusCycle(m.snap.Vocabulary)
	idx := -1
	for i, s := range opts {
		if s == m.snap.Form.Fields.Status {
			idx = i
		}
	}
	if idx < 0 && step < 0 {
		idx = 0
	}
	idx = (idx + step + len(opts)) % len(opts)

	if err := m.manager.SetField(view.FieldStatus, string(opts[idx])); err != nil {
		m.err = err
	}
	m.sync()
	m.inputs[m.focus].SetValue(string(opts[idx]))
	return m, nil
}

// statusCycle is the vocabulary plus the initial status, which every
// vocabulary accepts.
func statusCycle(v types.Vocabulary) []types.Status {
	for _, s := range v.Options {
		if s == types.InitialStatus {
			return v.Options
		}
	}
	return append([]types.Status{types.InitialStatus}, v.Options...)
}

func (m Model) setFocus(i int) Model {
	for j := range m.inputs {
		m.inputs[j].Blur()
	}
	m.focus = i
	if i != focusList && view.FormFields[i] != view.FieldStatus {
		m.inputs[i].Focus()
	}
	return m
}

func fieldValue(f types.RecordFields, name string) string {
	switch name {
	case view.FieldAgentName:
		return f.AgentName
	case view.FieldCustomerName:
		return f.CustomerName
	case view.FieldPhoneNumber:
		return f.PhoneNumber
	case view.FieldIssue:
		return f.Issue
	case view.FieldStatus:
		return string(f.Status)
	case view.FieldCallDuration:
		return string(f.CallDuration)
	}
	return ""
}
