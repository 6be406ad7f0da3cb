// Package ui provides UI backends for ramadanbar (GTK popup or dmenu-style launchers).
package ui

import (
	"github.com/cpuguy83/ramadanbar/internal/session"
)

// UI is the interface for displaying the schedule to the user. The setters
// inherited from session.Sink may be called from any goroutine.
type UI interface {
	session.Sink

	// Init initializes the UI. Must be called before other methods.
	Init() error

	// Show displays the UI.
	Show()

	// Hide hides the UI.
	Hide()

	// Toggle shows or hides the UI.
	Toggle()

	// OnSelect sets the callback for when the user picks a district.
	OnSelect(fn func(id string))

	// OnSearch sets the callback for when the district search text changes.
	OnSearch(fn func(query string))

	// OnDropdown sets the callback for when the district picker opens or closes.
	OnDropdown(fn func(open bool))
}

// Config holds UI configuration.
type Config struct {
	Language string // "en" or "bn"
}
