package view

import (
	"github.com/dennisdiepolder/monti/calldesk/internal/types"
)

// ListPhase is the fetch state of the record list
type ListPhase string

const (
	ListIdle     ListPhase = "idle"
	ListFetching ListPhase = "fetching"
)

// FormPhase is the lifecycle state of the record form
type FormPhase string

const (
	FormBlank           FormPhase = "blank"
	FormEditing         FormPhase = "editing"          // filling in a new record
	FormEditingExisting FormPhase = "editing_existing" // editing a loaded record
	FormSubmitting      FormPhase = "submitting"
)

// Form field names, matching the record's JSON names
const (
	FieldAgentName    = "agentName"
	FieldCustomerName = "customerName"
	FieldPhoneNumber  = "phoneNumber"
	FieldIssue        = "issue"
	FieldStatus       = "status"
	FieldCallDuration = "callDuration"
)

// FormFields lists the form's fields in display order
var FormFields = []string{
	FieldAgentName,
	FieldCustomerName,
	FieldPhoneNumber,
	FieldIssue,
	FieldStatus,
	FieldCallDuration,
}

// ListState is the view's cached copy of the server collection
type ListState struct {
	Records []types.Record
	Phase   ListPhase

	issued   uint64 // last token handed to a fetch
	applied  uint64 // token of the response currently shown
	inFlight int
	stale    uint64 // responses discarded because a newer one was applied
}

// FormState holds the editable form and the editing reference
type FormState struct {
	Fields  types.RecordFields
	Editing *types.Record // non-nil while editing an existing record
	Phase   FormPhase
}

// MenuState tracks which row's status menu is open
type MenuState struct {
	OpenFor types.RecordID // empty when closed
}

// Open reports whether a menu is open for any row
func (m MenuState) Open() bool { return m.OpenFor != "" }

// Snapshot is a deep copy of the view state, safe to render from
type Snapshot struct {
	Mode         types.ViewMode
	Vocabulary   types.Vocabulary
	Capabilities Capabilities
	List         ListState
	Form         FormState
	Menu         MenuState
	LastError    error
	StaleDropped uint64
}

// blankFields is the form content after a reset
func blankFields() types.RecordFields {
	return types.RecordFields{Status: types.InitialStatus}
}

func (s ListState) clone() ListState {
	out := s
	out.Records = make([]types.Record, len(s.Records))
	copy(out.Records, s.Records)
	return out
}

func (s FormState) clone() FormState {
	out := s
	if s.Editing != nil {
		r := *s.Editing
		out.Editing = &r
	}
	return out
}

// Find returns the record with the given id from the list
func (s ListState) Find(id types.RecordID) (types.Record, bool) {
	for _, r := range s.Records {
		if r.ID == id {
			return r, true
		}
	}
	return types.Record{}, false
}
