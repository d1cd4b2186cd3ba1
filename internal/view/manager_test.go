package view

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/dennisdiepolder/monti/calldesk/internal/types"
	"github.com/rs/zerolog"
)

var errTransport = errors.New("connection refused")

// fakeStore is an in-memory RecordStore that records every call
type fakeStore struct {
	mu      sync.Mutex
	records []types.Record
	nextID  int
	calls   []string
	fail    map[string]error

	replaced     types.RecordFields
	replacedID   types.RecordID
	listBlockers []chan struct{} // consumed one per List call when non-empty
}

func newFakeStore(records ...types.Record) *fakeStore {
	return &fakeStore{records: records, nextID: 100, fail: map[string]error{}}
}

func (s *fakeStore) record(op string) error {
	s.calls = append(s.calls, op)
	return s.fail[op]
}

func (s *fakeStore) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c == op {
			n++
		}
	}
	return n
}

func (s *fakeStore) List(ctx context.Context) []types.Record {
	s.mu.Lock()
	var gate chan struct{}
	if len(s.listBlockers) > 0 {
		gate = s.listBlockers[0]
		s.listBlockers = s.listBlockers[1:]
	}
	if err := s.record("list"); err != nil {
		s.mu.Unlock()
		return []types.Record{}
	}
	out := make([]types.Record, len(s.records))
	copy(out, s.records)
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return out
}

func (s *fakeStore) Create(ctx context.Context, fields types.RecordFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("create"); err != nil {
		return err
	}
	s.nextID++
	s.records = append(s.records, types.Record{ID: types.RecordID(strconv.Itoa(s.nextID)), RecordFields: fields})
	return nil
}

func (s *fakeStore) ReplaceAll(ctx context.Context, id types.RecordID, fields types.RecordFields) (types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("replaceAll"); err != nil {
		return types.Record{}, err
	}
	s.replacedID, s.replaced = id, fields
	for i := range s.records {
		if s.records[i].ID == id {
			s.records[i].RecordFields = fields
			return s.records[i], nil
		}
	}
	return types.Record{}, errTransport
}

func (s *fakeStore) UpdateStatus(ctx context.Context, id types.RecordID, status types.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("updateStatus"); err != nil {
		return err
	}
	for i := range s.records {
		if s.records[i].ID == id {
			s.records[i].Status = status
			return nil
		}
	}
	return errTransport
}

func (s *fakeStore) Remove(ctx context.Context, id types.RecordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("remove"); err != nil {
		return err
	}
	for i := range s.records {
		if s.records[i].ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return nil
		}
	}
	return errTransport
}

func seedRecord(id string) types.Record {
	return types.Record{
		ID: types.RecordID(id),
		RecordFields: types.RecordFields{
			AgentName:    "A",
			CustomerName: "C",
			PhoneNumber:  "555",
			Issue:        "Login",
			Status:       types.StatusPending,
			CallDuration: "4",
		},
	}
}

func newTestManager(store RecordStore, mode types.ViewMode) *Manager {
	return NewManager(store, Options{Mode: mode, Vocabulary: types.CallStatuses}, zerolog.Nop())
}

func fillForm(t *testing.T, m *Manager) {
	t.Helper()
	values := map[string]string{
		FieldAgentName:    "Ana",
		FieldCustomerName: "Bo",
		FieldPhoneNumber:  "555-0100",
		FieldIssue:        "Refund",
		FieldCallDuration: "7",
	}
	for name, v := range values {
		if err := m.SetField(name, v); err != nil {
			t.Fatalf("SetField(%s): %v", name, err)
		}
	}
}

func TestMountLoadsList(t *testing.T) {
	store := newFakeStore(seedRecord("1"), seedRecord("2"))
	m := newTestManager(store, types.ModeFullEdit)

	m.Mount(context.Background())

	snap := m.Snapshot()
	if len(snap.List.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(snap.List.Records))
	}
	if snap.List.Phase != ListIdle {
		t.Errorf("expected idle list, got %s", snap.List.Phase)
	}
	if snap.Form.Phase != FormBlank {
		t.Errorf("expected blank form, got %s", snap.Form.Phase)
	}
}

func TestCreateRoundTrip(t *testing.T) {
	store := newFakeStore(seedRecord("1"))
	m := newTestManager(store, types.ModeSimple)
	m.Mount(context.Background())

	fillForm(t, m)
	if got := m.Snapshot().Form.Phase; got != FormEditing {
		t.Fatalf("expected editing phase after typing, got %s", got)
	}

	if err := m.Submit(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := m.Snapshot()
	if len(snap.List.Records) != 2 {
		t.Fatalf("expected exactly one additional record, got %d", len(snap.List.Records))
	}
	created := snap.List.Records[1]
	want := types.RecordFields{
		AgentName:    "Ana",
		CustomerName: "Bo",
		PhoneNumber:  "555-0100",
		Issue:        "Refund",
		Status:       types.StatusPending,
		CallDuration: "7",
	}
	if created.RecordFields != want {
		t.Errorf("expected %+v, got %+v", want, created.RecordFields)
	}
	if snap.Form.Phase != FormBlank || snap.Form.Fields != blankFields() {
		t.Errorf("expected form reset, got %+v", snap.Form)
	}
	if store.count("list") != 2 {
		t.Errorf("expected mount + reconciliation fetch, got %d list calls", store.count("list"))
	}
}

func TestEditFlowReplacesInsteadOfCreating(t *testing.T) {
	existing := seedRecord("7")
	store := newFakeStore(existing)
	m := newTestManager(store, types.ModeFullEdit)
	m.Mount(context.Background())

	if err := m.BeginEdit("7"); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}

	snap := m.Snapshot()
	if snap.Form.Fields != existing.RecordFields {
		t.Errorf("expected form populated from record, got %+v", snap.Form.Fields)
	}
	if snap.Form.Editing == nil || snap.Form.Editing.ID != "7" {
		t.Fatalf("expected editing reference to record 7, got %+v", snap.Form.Editing)
	}
	if snap.Form.Phase != FormEditingExisting {
		t.Errorf("expected editing_existing phase, got %s", snap.Form.Phase)
	}

	if err := m.SetField(FieldIssue, "Billing"); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	if err := m.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if store.count("create") != 0 {
		t.Error("submit in edit mode must not create")
	}
	if store.count("replaceAll") != 1 {
		t.Fatalf("expected one replaceAll, got %d", store.count("replaceAll"))
	}
	want := existing.RecordFields
	want.Issue = "Billing"
	if store.replacedID != "7" || store.replaced != want {
		t.Errorf("expected replaceAll(7, %+v), got (%s, %+v)", want, store.replacedID, store.replaced)
	}

	snap = m.Snapshot()
	if snap.Form.Phase != FormBlank || snap.Form.Editing != nil {
		t.Errorf("expected form and editing reference cleared, got %+v", snap.Form)
	}
	if snap.List.Records[0].Issue != "Billing" {
		t.Errorf("expected reconciled list to show Billing, got %s", snap.List.Records[0].Issue)
	}
}

func TestCancelEdit(t *testing.T) {
	store := newFakeStore(seedRecord("7"))
	m := newTestManager(store, types.ModeFullEdit)
	m.Mount(context.Background())

	if err := m.BeginEdit("7"); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	if err := m.CancelEdit(); err != nil {
		t.Fatalf("CancelEdit: %v", err)
	}

	snap := m.Snapshot()
	if snap.Form.Editing != nil || snap.Form.Phase != FormBlank {
		t.Errorf("expected blank form, got %+v", snap.Form)
	}
}

func TestBeginEditUnknownRecord(t *testing.T) {
	m := newTestManager(newFakeStore(), types.ModeFullEdit)
	m.Mount(context.Background())

	if err := m.BeginEdit("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSubmitFailureKeepsFormAndSkipsReconciliation(t *testing.T) {
	store := newFakeStore()
	store.fail["create"] = errTransport
	m := newTestManager(store, types.ModeFullEdit)
	m.Mount(context.Background())
	fillForm(t, m)

	err := m.Submit(context.Background())
	if !errors.Is(err, errTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}

	snap := m.Snapshot()
	if snap.Form.Phase != FormEditing {
		t.Errorf("expected form kept in editing phase, got %s", snap.Form.Phase)
	}
	if snap.Form.Fields.AgentName != "Ana" {
		t.Errorf("expected form content kept, got %+v", snap.Form.Fields)
	}
	if !errors.Is(snap.LastError, errTransport) {
		t.Errorf("expected last error recorded, got %v", snap.LastError)
	}
	if store.count("list") != 1 {
		t.Errorf("expected no reconciliation after failure, got %d list calls", store.count("list"))
	}
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name       string
		set        map[string]string
		wantFields []string
	}{
		{
			name:       "blank form",
			set:        map[string]string{},
			wantFields: []string{"agentName", "customerName", "phoneNumber", "issue", "callDuration"},
		},
		{
			name: "non numeric duration",
			set: map[string]string{
				FieldAgentName: "a", FieldCustomerName: "b", FieldPhoneNumber: "c",
				FieldIssue: "d", FieldCallDuration: "ten",
			},
			wantFields: []string{"callDuration"},
		},
		{
			name: "whitespace only",
			set: map[string]string{
				FieldAgentName: "  ", FieldCustomerName: "b", FieldPhoneNumber: "c",
				FieldIssue: "d", FieldCallDuration: "1",
			},
			wantFields: []string{"agentName"},
		},
		{
			name: "status outside vocabulary",
			set: map[string]string{
				FieldAgentName: "a", FieldCustomerName: "b", FieldPhoneNumber: "c",
				FieldIssue: "d", FieldCallDuration: "1", FieldStatus: "Shuffle",
			},
			wantFields: []string{"status"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			m := newTestManager(store, types.ModeFullEdit)
			for k, v := range tt.set {
				if err := m.SetField(k, v); err != nil {
					t.Fatalf("SetField: %v", err)
				}
			}

			err := m.Submit(context.Background())
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if len(verr.Fields) != len(tt.wantFields) {
				t.Fatalf("expected fields %v, got %v", tt.wantFields, verr.Fields)
			}
			for i, f := range tt.wantFields {
				if verr.Fields[i] != f {
					t.Errorf("expected field %d to be %s, got %s", i, f, verr.Fields[i])
				}
			}
			if store.count("create") != 0 {
				t.Error("invalid form must not reach the store")
			}
		})
	}
}

func TestSetFieldUnknown(t *testing.T) {
	m := newTestManager(newFakeStore(), types.ModeFullEdit)
	if err := m.SetField("color", "red"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestSelectStatusIsolation(t *testing.T) {
	store := newFakeStore(seedRecord("1"), seedRecord("2"))
	m := newTestManager(store, types.ModeMenuDriven)
	m.Mount(context.Background())
	before := m.Snapshot().List.Records

	if err := m.ToggleMenu("1"); err != nil {
		t.Fatalf("ToggleMenu: %v", err)
	}
	if got := m.Snapshot().Menu.OpenFor; got != "1" {
		t.Fatalf("expected menu open for 1, got %q", got)
	}

	if err := m.SelectStatus(context.Background(), "1", types.StatusResolved); err != nil {
		t.Fatalf("SelectStatus: %v", err)
	}

	snap := m.Snapshot()
	if snap.Menu.Open() {
		t.Error("expected menu closed after selection")
	}
	after := snap.List.Records
	want := before[0].RecordFields
	want.Status = types.StatusResolved
	if after[0].RecordFields != want {
		t.Errorf("expected only status changed, got %+v", after[0].RecordFields)
	}
	if after[1] != before[1] {
		t.Errorf("expected other record untouched, got %+v", after[1])
	}
}

func TestSelectStatusFailureClosesMenu(t *testing.T) {
	store := newFakeStore(seedRecord("1"))
	store.fail["updateStatus"] = errTransport
	m := newTestManager(store, types.ModeMenuDriven)
	m.Mount(context.Background())

	m.ToggleMenu("1")
	err := m.SelectStatus(context.Background(), "1", types.StatusInProgress)
	if !errors.Is(err, errTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}

	snap := m.Snapshot()
	if snap.Menu.Open() {
		t.Error("menu closes before the request completes")
	}
	if snap.LastError == nil {
		t.Error("expected last error to be recorded")
	}
	if store.count("list") != 1 {
		t.Errorf("expected no reconciliation after failure, got %d list calls", store.count("list"))
	}
}

func TestToggleMenu(t *testing.T) {
	m := newTestManager(newFakeStore(seedRecord("1"), seedRecord("2")), types.ModeMenuDriven)
	m.Mount(context.Background())

	steps := []struct {
		id   types.RecordID
		want types.RecordID
	}{
		{"1", "1"},
		{"2", "2"},
		{"2", ""},
	}
	for _, step := range steps {
		if err := m.ToggleMenu(step.id); err != nil {
			t.Fatalf("ToggleMenu(%s): %v", step.id, err)
		}
		if got := m.Snapshot().Menu.OpenFor; got != step.want {
			t.Errorf("after toggling %s expected open for %q, got %q", step.id, step.want, got)
		}
	}

	if err := m.ToggleMenu("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestModeCapabilities(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		mode      types.ViewMode
		editErr   error
		menuErr   error
		inlineErr error
		selectErr error
	}{
		{types.ModeSimple, ErrUnsupported, ErrUnsupported, nil, ErrUnsupported},
		{types.ModeMenuDriven, ErrUnsupported, nil, ErrUnsupported, nil},
		{types.ModeFullEdit, nil, ErrUnsupported, ErrUnsupported, ErrUnsupported},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			m := newTestManager(newFakeStore(seedRecord("1")), tt.mode)
			m.Mount(ctx)

			if err := m.BeginEdit("1"); !errors.Is(err, tt.editErr) {
				t.Errorf("BeginEdit: expected %v, got %v", tt.editErr, err)
			}
			m.CancelEdit()
			if err := m.ToggleMenu("1"); !errors.Is(err, tt.menuErr) {
				t.Errorf("ToggleMenu: expected %v, got %v", tt.menuErr, err)
			}
			if err := m.ChangeStatus(ctx, "1", types.StatusResolved); !errors.Is(err, tt.inlineErr) {
				t.Errorf("ChangeStatus: expected %v, got %v", tt.inlineErr, err)
			}
			if err := m.SelectStatus(ctx, "1", types.StatusInProgress); !errors.Is(err, tt.selectErr) {
				t.Errorf("SelectStatus: expected %v, got %v", tt.selectErr, err)
			}
		})
	}
}

func TestChangeStatusRejectsUnknownStatus(t *testing.T) {
	store := newFakeStore(seedRecord("1"))
	m := newTestManager(store, types.ModeSimple)
	m.Mount(context.Background())

	err := m.ChangeStatus(context.Background(), "1", types.StatusShuffle)
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if store.count("updateStatus") != 0 {
		t.Error("invalid status must not reach the store")
	}
}

func TestDeleteTwiceNeverResurrects(t *testing.T) {
	store := newFakeStore(seedRecord("1"), seedRecord("2"))
	m := newTestManager(store, types.ModeFullEdit)
	m.Mount(context.Background())

	if err := m.Delete(context.Background(), "1"); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := m.Delete(context.Background(), "1"); err == nil {
		t.Fatal("expected second delete to report an error")
	}

	m.Refresh(context.Background())
	records := m.Snapshot().List.Records
	if len(records) != 1 || records[0].ID != "2" {
		t.Errorf("expected only record 2 to remain, got %+v", records)
	}
}

func TestDeleteEditedRecordResetsForm(t *testing.T) {
	m := newTestManager(newFakeStore(seedRecord("1")), types.ModeFullEdit)
	m.Mount(context.Background())

	m.BeginEdit("1")
	if err := m.Delete(context.Background(), "1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if snap := m.Snapshot(); snap.Form.Editing != nil {
		t.Errorf("expected editing reference cleared, got %+v", snap.Form.Editing)
	}
}

func TestStaleRefreshDiscarded(t *testing.T) {
	store := newFakeStore(seedRecord("1"))
	gate := make(chan struct{})
	store.listBlockers = []chan struct{}{gate}
	m := newTestManager(store, types.ModeFullEdit)

	// First fetch snapshots one record then blocks.
	firstDone := make(chan bool)
	go func() {
		firstDone <- m.Refresh(context.Background())
	}()

	// Wait for the first fetch to take its snapshot.
	deadline := time.Now().Add(time.Second)
	for store.count("list") < 1 {
		if time.Now().After(deadline) {
			t.Fatal("first fetch never started")
		}
		time.Sleep(time.Millisecond)
	}

	// Server state moves on and a second fetch resolves first.
	store.mu.Lock()
	store.records = append(store.records, seedRecord("2"))
	store.mu.Unlock()

	if !m.Refresh(context.Background()) {
		t.Fatal("expected newer fetch to be applied")
	}
	if got := m.Snapshot().List.Phase; got != ListFetching {
		t.Errorf("expected fetching while older request is in flight, got %s", got)
	}

	close(gate)
	if applied := <-firstDone; applied {
		t.Error("expected older response to be discarded")
	}

	snap := m.Snapshot()
	if len(snap.List.Records) != 2 {
		t.Errorf("expected newer snapshot with 2 records to win, got %d", len(snap.List.Records))
	}
	if snap.StaleDropped != 1 {
		t.Errorf("expected 1 stale response dropped, got %d", snap.StaleDropped)
	}
	if snap.List.Phase != ListIdle {
		t.Errorf("expected idle after all fetches, got %s", snap.List.Phase)
	}
}

func TestListFailureDegradesToEmpty(t *testing.T) {
	store := newFakeStore(seedRecord("1"))
	m := newTestManager(store, types.ModeFullEdit)
	m.Mount(context.Background())

	store.fail["list"] = errTransport
	m.Refresh(context.Background())

	snap := m.Snapshot()
	if len(snap.List.Records) != 0 {
		t.Errorf("expected empty list after failed fetch, got %d", len(snap.List.Records))
	}
	if snap.LastError != nil {
		t.Errorf("list failures are not user errors, got %v", snap.LastError)
	}
}

func TestSubscribe(t *testing.T) {
	m := newTestManager(newFakeStore(seedRecord("1")), types.ModeFullEdit)

	var mu sync.Mutex
	var phases []ListPhase
	unsubscribe := m.Subscribe(func(s Snapshot) {
		mu.Lock()
		phases = append(phases, s.List.Phase)
		mu.Unlock()
	})

	m.Mount(context.Background())
	unsubscribe()
	m.Refresh(context.Background())

	mu.Lock()
	defer mu.Unlock()
	if len(phases) != 2 {
		t.Fatalf("expected 2 notifications before unsubscribe, got %d", len(phases))
	}
	if phases[0] != ListFetching || phases[1] != ListIdle {
		t.Errorf("expected fetching then idle, got %v", phases)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	m := newTestManager(newFakeStore(seedRecord("1")), types.ModeFullEdit)
	m.Mount(context.Background())
	m.BeginEdit("1")

	snap := m.Snapshot()
	snap.List.Records[0].AgentName = "mutated"
	snap.Form.Editing.AgentName = "mutated"

	again := m.Snapshot()
	if again.List.Records[0].AgentName == "mutated" || again.Form.Editing.AgentName == "mutated" {
		t.Error("snapshot mutations leaked into manager state")
	}
}
