package types

import (
	"fmt"
	"strings"
)

// Status is the lifecycle marker of a record
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusResolved   Status = "Resolved"

	// Playlist vocabulary
	StatusRepeat     Status = "Repeat"
	StatusShuffle    Status = "Shuffle"
	StatusMixedAlbum Status = "Mixed Album"
)

// InitialStatus is assigned on create when the caller leaves status empty
const InitialStatus = StatusPending

// Vocabulary is a named set of statuses a view offers for selection
type Vocabulary struct {
	Name    string
	Options []Status
}

var (
	CallStatuses = Vocabulary{
		Name:    "calls",
		Options: []Status{StatusPending, StatusInProgress, StatusResolved},
	}
	PlaylistModes = Vocabulary{
		Name:    "playlist",
		Options: []Status{StatusRepeat, StatusShuffle, StatusMixedAlbum},
	}
)

// ParseVocabulary resolves a vocabulary by name
func ParseVocabulary(name string) (Vocabulary, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "calls":
		return CallStatuses, nil
	case "playlist":
		return PlaylistModes, nil
	default:
		return Vocabulary{}, fmt.Errorf("unknown status set %q", name)
	}
}

// Allows reports whether s may be stored under this vocabulary. The initial
// status is always allowed since create defaults to it.
func (v Vocabulary) Allows(s Status) bool {
	if s == InitialStatus {
		return true
	}
	for _, opt := range v.Options {
		if opt == s {
			return true
		}
	}
	return false
}

// Option returns the n-th (zero-based) option, if any
func (v Vocabulary) Option(n int) (Status, bool) {
	if n < 0 || n >= len(v.Options) {
		return "", false
	}
	return v.Options[n], true
}
