//go:build nogtk || !cgo

package ui

import (
	"github.com/cpuguy83/ramadanbar/internal/schedule"
)

// GTK is a stub when GTK is not available.
type GTK struct{}

// NewGTK returns nil when GTK is not available.
func NewGTK(cfg Config) *GTK {
	return nil
}

// GTKAvailable returns false when GTK is not available.
func GTKAvailable() bool {
	return false
}

// Init is a no-op stub.
func (g *GTK) Init() error {
	return nil
}

// Show is a no-op stub.
func (g *GTK) Show() {}

// Hide is a no-op stub.
func (g *GTK) Hide() {}

// Toggle is a no-op stub.
func (g *GTK) Toggle() {}

// SetLoading is a no-op stub.
func (g *GTK) SetLoading(bool) {}

// SetError is a no-op stub.
func (g *GTK) SetError(error) {}

// SetDistricts is a no-op stub.
func (g *GTK) SetDistricts([]schedule.District, string) {}

// SetSchedule is a no-op stub.
func (g *GTK) SetSchedule(schedule.District, []schedule.DayRecord, schedule.Result) {}

// SetCountdown is a no-op stub.
func (g *GTK) SetCountdown(string) {}

// OnSelect is a no-op stub.
func (g *GTK) OnSelect(func(id string)) {}

// OnSearch is a no-op stub.
func (g *GTK) OnSearch(func(query string)) {}

// OnDropdown is a no-op stub.
func (g *GTK) OnDropdown(func(open bool)) {}
