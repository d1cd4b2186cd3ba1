package view

import (
	"github.com/dennisdiepolder/monti/calldesk/internal/types"
)

// Capabilities describes which actions a view mode offers
type Capabilities struct {
	InlineStatus bool // status select per row
	StatusMenu   bool // toggled per-row status menu
	FullEdit     bool // load a record into the form and replace it
}

// Strategy is a presentation variant over the shared record contract
type Strategy interface {
	Mode() types.ViewMode
	Capabilities() Capabilities
}

type simpleStrategy struct{}

func (simpleStrategy) Mode() types.ViewMode { return types.ModeSimple }
func (simpleStrategy) Capabilities() Capabilities {
	return Capabilities{InlineStatus: true}
}

type menuStrategy struct{}

func (menuStrategy) Mode() types.ViewMode { return types.ModeMenuDriven }
func (menuStrategy) Capabilities() Capabilities {
	return Capabilities{StatusMenu: true}
}

type fullEditStrategy struct{}

func (fullEditStrategy) Mode() types.ViewMode { return types.ModeFullEdit }
func (fullEditStrategy) Capabilities() Capabilities {
	return Capabilities{FullEdit: true}
}

// StrategyFor returns the strategy for a mode, defaulting to full edit
func StrategyFor(mode types.ViewMode) Strategy {
	switch mode {
	case types.ModeSimple:
		return simpleStrategy{}
	case types.ModeMenuDriven:
		return menuStrategy{}
	default:
		return fullEditStrategy{}
	}
}
