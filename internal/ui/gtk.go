//go:build !nogtk && cgo

package ui

// GTK wraps the Popup to implement the UI interface.
type GTK struct {
	*Popup
}

var _ UI = (*GTK)(nil)

// NewGTK creates a new GTK UI backend.
func NewGTK(cfg Config) *GTK {
	return &GTK{Popup: NewPopup(cfg)}
}

// GTKAvailable returns true if GTK is available.
// Use the 'nogtk' build tag to build without GTK support for systems
// that don't have GTK4 installed.
func GTKAvailable() bool {
	return true
}

// Init initializes the GTK UI. Must be called from the GTK main thread.
func (g *GTK) Init() error {
	g.Popup.Init()
	return nil
}
