package types

import (
	"fmt"
	"strings"
)

// ViewMode selects which presentation strategy a record view uses
type ViewMode string

const (
	// ModeSimple shows an inline status select per row
	ModeSimple ViewMode = "simple"
	// ModeMenuDriven toggles a per-row status action menu
	ModeMenuDriven ViewMode = "menu"
	// ModeFullEdit loads a whole record into the form for replacement
	ModeFullEdit ViewMode = "edit"
)

// AllViewModes lists every supported mode
var AllViewModes = []ViewMode{ModeSimple, ModeMenuDriven, ModeFullEdit}

// ParseViewMode resolves a mode name, accepting a few aliases
func ParseViewMode(s string) (ViewMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "edit", "full", "fulledit", "full-edit":
		return ModeFullEdit, nil
	case "simple", "inline":
		return ModeSimple, nil
	case "menu", "menudriven", "menu-driven":
		return ModeMenuDriven, nil
	default:
		return "", fmt.Errorf("unknown view mode %q", s)
	}
}
