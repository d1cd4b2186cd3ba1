package view

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/dennisdiepolder/monti/calldesk/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

var (
	ErrUnsupported   = errors.New("action not supported in this view mode")
	ErrNotFound      = errors.New("record not found in list")
	ErrBusy          = errors.New("form is already submitting")
	ErrUnknownField  = errors.New("unknown form field")
	ErrInvalidStatus = errors.New("status not allowed")
)

// RecordStore is the contract the view needs from a record client
type RecordStore interface {
	List(ctx context.Context) []types.Record
	Create(ctx context.Context, fields types.RecordFields) error
	ReplaceAll(ctx context.Context, id types.RecordID, fields types.RecordFields) (types.Record, error)
	UpdateStatus(ctx context.Context, id types.RecordID, status types.Status) error
	Remove(ctx context.Context, id types.RecordID) error
}

// ValidationError lists the form fields that failed validation
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing or invalid fields: " + strings.Join(e.Fields, ", ")
}

// Options configures a Manager
type Options struct {
	Mode       types.ViewMode
	Vocabulary types.Vocabulary
}

// Manager owns the list, form and status-menu state of one record view.
// Every mutation that succeeds is followed by a reconciliation fetch.
type Manager struct {
	store    RecordStore
	strategy Strategy
	vocab    types.Vocabulary
	validate *validator.Validate
	logger   zerolog.Logger

	mu        sync.Mutex
	list      ListState
	form      FormState
	menu      MenuState
	lastErr   error
	listeners map[int]func(Snapshot)
	nextSub   int
}

// NewManager creates a Manager over store
func NewManager(store RecordStore, opts Options, logger zerolog.Logger) *Manager {
	vocab := opts.Vocabulary
	if len(vocab.Options) == 0 {
		vocab = types.CallStatuses
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	strategy := StrategyFor(opts.Mode)
	return &Manager{
		store:    store,
		strategy: strategy,
		vocab:    vocab,
		validate: v,
		logger: logger.With().
			Str("component", "view").
			Str("mode", string(strategy.Mode())).
			Logger(),
		list:      ListState{Records: []types.Record{}, Phase: ListIdle},
		form:      FormState{Fields: blankFields(), Phase: FormBlank},
		listeners: make(map[int]func(Snapshot)),
	}
}

// Mode returns the view mode
func (m *Manager) Mode() types.ViewMode { return m.strategy.Mode() }

// Vocabulary returns the status vocabulary offered by the view
func (m *Manager) Vocabulary() types.Vocabulary { return m.vocab }

// Capabilities returns the actions enabled by the view mode
func (m *Manager) Capabilities() Capabilities { return m.strategy.Capabilities() }

// Subscribe registers fn to receive a snapshot after every state change.
// The returned func removes the subscription.
func (m *Manager) Subscribe(fn func(Snapshot)) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// Snapshot returns a deep copy of the current state
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{
		Mode:         m.strategy.Mode(),
		Vocabulary:   m.vocab,
		Capabilities: m.strategy.Capabilities(),
		List:         m.list.clone(),
		Form:         m.form.clone(),
		Menu:         m.menu,
		LastError:    m.lastErr,
		StaleDropped: m.list.stale,
	}
}

// notify must be called without m.mu held
func (m *Manager) notify() {
	m.mu.Lock()
	if len(m.listeners) == 0 {
		m.mu.Unlock()
		return
	}
	snap := m.snapshotLocked()
	fns := make([]func(Snapshot), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// LastError returns the most recent user-visible failure, if any
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// ClearError dismisses the last error
func (m *Manager) ClearError() {
	m.mu.Lock()
	m.lastErr = nil
	m.mu.Unlock()
	m.notify()
}

// Mount performs the initial fetch
func (m *Manager) Mount(ctx context.Context) {
	m.Refresh(ctx)
}

// Refresh re-fetches the whole collection and replaces the list with it,
// unless a fetch issued later has already been applied. It reports whether
// this fetch's result was applied.
func (m *Manager) Refresh(ctx context.Context) bool {
	m.mu.Lock()
	m.list.issued++
	token := m.list.issued
	m.list.inFlight++
	m.list.Phase = ListFetching
	m.mu.Unlock()
	m.notify()

	records := m.store.List(ctx)

	m.mu.Lock()
	m.list.inFlight--
	applied := token > m.list.applied
	if applied {
		m.list.Records = make([]types.Record, len(records))
		copy(m.list.Records, records)
		m.list.applied = token
	} else {
		m.list.stale++
	}
	if m.list.inFlight == 0 {
		m.list.Phase = ListIdle
	}
	count := len(m.list.Records)
	m.mu.Unlock()

	if applied {
		m.logger.Debug().Uint64("token", token).Int("records", count).Msg("list reconciled")
	} else {
		m.logger.Debug().Uint64("token", token).Msg("discarded stale list response")
	}
	m.notify()
	return applied
}

// SetField updates one form field. Typing into a blank form starts the
// create flow.
func (m *Manager) SetField(name, value string) error {
	m.mu.Lock()
	if m.form.Phase == FormSubmitting {
		m.mu.Unlock()
		return ErrBusy
	}

	f := &m.form.Fields
	switch name {
	case FieldAgentName:
		f.AgentName = value
	case FieldCustomerName:
		f.CustomerName = value
	case FieldPhoneNumber:
		f.PhoneNumber = value
	case FieldIssue:
		f.Issue = value
	case FieldStatus:
		f.Status = types.Status(value)
	case FieldCallDuration:
		f.CallDuration = types.Minutes(value)
	default:
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	if m.form.Phase == FormBlank {
		m.form.Phase = FormEditing
	}
	m.mu.Unlock()
	m.notify()
	return nil
}

// BeginEdit loads the record with id into the form and marks it as the
// record being edited.
func (m *Manager) BeginEdit(id types.RecordID) error {
	if !m.strategy.Capabilities().FullEdit {
		return ErrUnsupported
	}

	m.mu.Lock()
	if m.form.Phase == FormSubmitting {
		m.mu.Unlock()
		return ErrBusy
	}
	record, ok := m.list.Find(id)
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m.form = FormState{
		Fields:  record.Fields(),
		Editing: &record,
		Phase:   FormEditingExisting,
	}
	m.menu = MenuState{}
	m.mu.Unlock()

	m.logger.Debug().Str("record_id", string(id)).Msg("editing record")
	m.notify()
	return nil
}

// CancelEdit discards the form and the editing reference
func (m *Manager) CancelEdit() error {
	m.mu.Lock()
	if m.form.Phase == FormSubmitting {
		m.mu.Unlock()
		return ErrBusy
	}
	m.form = FormState{Fields: blankFields(), Phase: FormBlank}
	m.mu.Unlock()
	m.notify()
	return nil
}

// Submit validates the form and either creates a new record or, when a
// record is being edited, replaces it. On success the form resets and the
// list is reconciled; on failure the form is kept and the error recorded.
func (m *Manager) Submit(ctx context.Context) error {
	m.mu.Lock()
	if m.form.Phase == FormSubmitting {
		m.mu.Unlock()
		return ErrBusy
	}
	fields := m.form.Fields.TrimSpace()
	if fields.Status == "" {
		fields.Status = types.InitialStatus
	}
	if err := m.validateFields(fields); err != nil {
		m.lastErr = err
		m.mu.Unlock()
		m.notify()
		return err
	}
	var editing *types.Record
	if m.form.Editing != nil {
		r := *m.form.Editing
		editing = &r
	}
	prev := m.form.Phase
	m.form.Phase = FormSubmitting
	m.mu.Unlock()
	m.notify()

	var err error
	if editing != nil {
		_, err = m.store.ReplaceAll(ctx, editing.ID, fields)
	} else {
		err = m.store.Create(ctx, fields)
	}

	m.mu.Lock()
	if err != nil {
		m.form.Phase = prev
		m.lastErr = err
		m.mu.Unlock()
		m.logger.Error().Err(err).Msg("error submitting form")
		m.notify()
		return err
	}
	m.form = FormState{Fields: blankFields(), Phase: FormBlank}
	m.lastErr = nil
	m.mu.Unlock()

	if editing != nil {
		m.logger.Info().Str("record_id", string(editing.ID)).Msg("record replaced")
	} else {
		m.logger.Info().Msg("record created")
	}
	m.notify()
	m.Refresh(ctx)
	return nil
}

// ToggleMenu opens the status menu for id, or closes it if it is already
// open for id.
func (m *Manager) ToggleMenu(id types.RecordID) error {
	if !m.strategy.Capabilities().StatusMenu {
		return ErrUnsupported
	}

	m.mu.Lock()
	if m.menu.OpenFor == id {
		m.menu = MenuState{}
	} else {
		if _, ok := m.list.Find(id); !ok {
			m.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		m.menu = MenuState{OpenFor: id}
	}
	m.mu.Unlock()
	m.notify()
	return nil
}

// CloseMenu closes any open status menu
func (m *Manager) CloseMenu() {
	m.mu.Lock()
	m.menu = MenuState{}
	m.mu.Unlock()
	m.notify()
}

// SelectStatus picks a status from the row menu: the menu closes at once,
// then the status is sent and the list reconciled.
func (m *Manager) SelectStatus(ctx context.Context, id types.RecordID, status types.Status) error {
	if !m.strategy.Capabilities().StatusMenu {
		return ErrUnsupported
	}
	if err := m.checkStatus(status); err != nil {
		return err
	}

	m.mu.Lock()
	m.menu = MenuState{}
	m.mu.Unlock()
	m.notify()

	return m.updateStatus(ctx, id, status)
}

// ChangeStatus applies an inline status selection
func (m *Manager) ChangeStatus(ctx context.Context, id types.RecordID, status types.Status) error {
	if !m.strategy.Capabilities().InlineStatus {
		return ErrUnsupported
	}
	if err := m.checkStatus(status); err != nil {
		return err
	}
	return m.updateStatus(ctx, id, status)
}

func (m *Manager) updateStatus(ctx context.Context, id types.RecordID, status types.Status) error {
	if err := m.store.UpdateStatus(ctx, id, status); err != nil {
		m.fail(err, "error updating status")
		return err
	}
	m.logger.Info().Str("record_id", string(id)).Str("status", string(status)).Msg("status updated")
	m.succeed()
	m.Refresh(ctx)
	return nil
}

// Delete removes a record and reconciles. Deleting the record currently
// being edited also resets the form.
func (m *Manager) Delete(ctx context.Context, id types.RecordID) error {
	if err := m.store.Remove(ctx, id); err != nil {
		m.fail(err, "error deleting record")
		return err
	}

	m.mu.Lock()
	if m.form.Editing != nil && m.form.Editing.ID == id && m.form.Phase != FormSubmitting {
		m.form = FormState{Fields: blankFields(), Phase: FormBlank}
	}
	if m.menu.OpenFor == id {
		m.menu = MenuState{}
	}
	m.mu.Unlock()

	m.logger.Info().Str("record_id", string(id)).Msg("record deleted")
	m.succeed()
	m.Refresh(ctx)
	return nil
}

func (m *Manager) fail(err error, msg string) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
	m.logger.Error().Err(err).Msg(msg)
	m.notify()
}

func (m *Manager) succeed() {
	m.mu.Lock()
	m.lastErr = nil
	m.mu.Unlock()
}

func (m *Manager) checkStatus(status types.Status) error {
	if !m.vocab.Allows(status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return nil
}

func (m *Manager) validateFields(fields types.RecordFields) error {
	var failed []string
	if err := m.validate.Struct(fields); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			failed = append(failed, fe.Field())
		}
	}
	if fields.Status != "" && !m.vocab.Allows(fields.Status) {
		failed = append(failed, FieldStatus)
	}
	if len(failed) > 0 {
		return &ValidationError{Fields: failed}
	}
	return nil
}
