package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/dennisdiepolder/monti/calldesk/internal/types"
)

// ErrNotFound is returned when no record has the requested id
var ErrNotFound = errors.New("record not found")

// Store defines the record storage interface
type Store interface {
	List(ctx context.Context) ([]types.Record, error)
	Get(ctx context.Context, id types.RecordID) (types.Record, error)
	Create(ctx context.Context, fields types.RecordFields) (types.Record, error)
	Update(ctx context.Context, id types.RecordID, patch Patch) (types.Record, error)
	Delete(ctx context.Context, id types.RecordID) error
	Close() error
}

// Patch carries the fields of a partial update; nil fields are left as is
type Patch struct {
	AgentName    *string        `json:"agentName" validate:"omitnil,min=1"`
	CustomerName *string        `json:"customerName" validate:"omitnil,min=1"`
	PhoneNumber  *string        `json:"phoneNumber" validate:"omitnil,min=1"`
	Issue        *string        `json:"issue" validate:"omitnil,min=1"`
	Status       *types.Status  `json:"status" validate:"omitnil,min=1"`
	CallDuration *types.Minutes `json:"callDuration" validate:"omitnil,min=1,numeric"`
}

// TrimSpace returns a copy of the patch with surrounding whitespace removed
// from every set field
func (p Patch) TrimSpace() Patch {
	trim := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := strings.TrimSpace(*s)
		return &v
	}
	out := Patch{
		AgentName:    trim(p.AgentName),
		CustomerName: trim(p.CustomerName),
		PhoneNumber:  trim(p.PhoneNumber),
		Issue:        trim(p.Issue),
	}
	if p.Status != nil {
		v := types.Status(strings.TrimSpace(string(*p.Status)))
		out.Status = &v
	}
	if p.CallDuration != nil {
		v := types.Minutes(strings.TrimSpace(string(*p.CallDuration)))
		out.CallDuration = &v
	}
	return out
}

// Empty reports whether the patch changes nothing
func (p Patch) Empty() bool {
	return p.AgentName == nil && p.CustomerName == nil && p.PhoneNumber == nil &&
		p.Issue == nil && p.Status == nil && p.CallDuration == nil
}

// Apply returns f with the patch's fields overlaid
func (p Patch) Apply(f types.RecordFields) types.RecordFields {
	if p.AgentName != nil {
		f.AgentName = *p.AgentName
	}
	if p.CustomerName != nil {
		f.CustomerName = *p.CustomerName
	}
	if p.PhoneNumber != nil {
		f.PhoneNumber = *p.PhoneNumber
	}
	if p.Issue != nil {
		f.Issue = *p.Issue
	}
	if p.Status != nil {
		f.Status = *p.Status
	}
	if p.CallDuration != nil {
		f.CallDuration = *p.CallDuration
	}
	return f
}

// PatchFrom builds a patch that replaces every field
func PatchFrom(f types.RecordFields) Patch {
	return Patch{
		AgentName:    &f.AgentName,
		CustomerName: &f.CustomerName,
		PhoneNumber:  &f.PhoneNumber,
		Issue:        &f.Issue,
		Status:       &f.Status,
		CallDuration: &f.CallDuration,
	}
}
