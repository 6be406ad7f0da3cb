package menu

import (
	"bytes"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/cpuguy83/ramadanbar/internal/filter"
	"github.com/cpuguy83/ramadanbar/internal/labels"
	"github.com/cpuguy83/ramadanbar/internal/schedule"
	"github.com/cpuguy83/ramadanbar/internal/ui"
)

// Config holds menu UI configuration.
type Config struct {
	Program  string   // dmenu program to use (auto-detect if empty)
	Args     []string // extra args to pass to the program
	Language string
}

// Menu implements the ui.UI interface using dmenu-style launchers.
type Menu struct {
	*ui.View

	cfg     Config
	program string
	labels  labels.Set

	onSelect   func(id string)
	onSearch   func(query string)
	onDropdown func(open bool)

	mu        sync.Mutex
	all       []schedule.District // unfiltered districts
	searching bool
	isShowing bool
}

var _ ui.UI = (*Menu)(nil)

// New creates a new Menu UI backend.
func New(cfg Config) (*Menu, error) {
	program := cfg.Program
	if program == "" {
		var err error
		program, err = Detect()
		if err != nil {
			return nil, err
		}
		slog.Debug("auto-detected menu program", "program", program)
	} else {
		// Verify the specified program exists
		if _, err := exec.LookPath(program); err != nil {
			return nil, fmt.Errorf("menu program %q not found: %w", program, err)
		}
	}

	return &Menu{
		View:    ui.NewView(),
		cfg:     cfg,
		program: program,
		labels:  labels.For(cfg.Language),
	}, nil
}

// Init initializes the menu UI.
func (m *Menu) Init() error {
	return nil // No initialization needed for dmenu
}

// Show displays the summary menu.
func (m *Menu) Show() {
	m.mu.Lock()
	if m.isShowing {
		m.mu.Unlock()
		return
	}
	m.isShowing = true
	m.mu.Unlock()

	// Run in goroutine to not block
	go func() {
		defer func() {
			m.mu.Lock()
			m.isShowing = false
			m.mu.Unlock()
		}()

		m.showSummary()
	}()
}

// Hide closes any open menu.
func (m *Menu) Hide() {
	// dmenu closes itself when user makes a selection or presses Escape
}

// Toggle shows the menu if not showing, otherwise does nothing.
func (m *Menu) Toggle() {
	m.mu.Lock()
	isShowing := m.isShowing
	m.mu.Unlock()

	if !isShowing {
		m.Show()
	}
	// Can't programmatically close dmenu, so Toggle just shows
}

// SetDistricts records the districts. Lists published while the picker is
// searching are filtered and don't replace the full list.
func (m *Menu) SetDistricts(districts []schedule.District, selected string) {
	m.View.SetDistricts(districts, selected)

	m.mu.Lock()
	if !m.searching {
		m.all = districts
	}
	m.mu.Unlock()
}

// OnSelect sets the callback for district selection.
func (m *Menu) OnSelect(fn func(id string)) {
	m.onSelect = fn
}

// OnSearch sets the callback for search text changes.
func (m *Menu) OnSearch(fn func(query string)) {
	m.onSearch = fn
}

// OnDropdown sets the callback for the district picker opening or closing.
func (m *Menu) OnDropdown(fn func(open bool)) {
	m.onDropdown = fn
}

// showSummary displays the countdown summary and handles selection.
func (m *Menu) showSummary() {
	state := m.State()
	lines := formatSummary(state, m.labels, time.Now().Format(schedule.DateLayout))

	selected, err := m.runDmenu(lines, m.labels.Title)
	if err != nil {
		slog.Debug("menu closed without selection", "error", err)
		return
	}

	selected = strings.TrimSpace(selected)
	if selected == "" || isSeparator(selected) {
		return
	}

	districtAction, tableAction := summaryActions(m.labels)
	switch selected {
	case districtAction:
		m.showDistricts()
	case tableAction:
		m.showTable()
	default:
		copyToClipboard(selected)
	}
}

// showDistricts runs the district picker. Text that matches no line is taken
// as a search query and the picker is shown again with the matches.
func (m *Menu) showDistricts() {
	m.dropdown(true)

	var query string
	for {
		m.mu.Lock()
		all := m.all
		m.mu.Unlock()

		lines, ids := formatDistrictList(filter.Search(all, query), m.State().Selected, m.labels)

		selected, err := m.runDmenu(lines, m.labels.SearchPrompt)
		selected = strings.TrimSpace(selected)
		if err != nil || selected == "" || isSeparator(selected) {
			m.closePicker(query)
			return
		}

		if isBackAction(selected) {
			m.closePicker(query)
			m.showSummary()
			return
		}

		if id, ok := ids[selected]; ok {
			slog.Debug("district picked from menu", "district", id)
			m.endSearch()
			if m.onSelect != nil {
				m.onSelect(id)
			}
			return
		}

		query = selected
		m.search(query)
	}
}

// showTable displays the month table.
func (m *Menu) showTable() {
	lines := formatScheduleTable(m.State(), m.labels)

	selected, err := m.runDmenu(lines, m.labels.FullSchedule)
	if err != nil {
		slog.Debug("table menu closed without selection", "error", err)
		return
	}

	selected = strings.TrimSpace(selected)
	if selected == "" || isSeparator(selected) {
		return
	}
	if isBackAction(selected) {
		m.showSummary()
		return
	}
	copyToClipboard(selected)
}

func (m *Menu) dropdown(open bool) {
	if m.onDropdown != nil {
		m.onDropdown(open)
	}
}

func (m *Menu) search(query string) {
	m.mu.Lock()
	m.searching = query != ""
	m.mu.Unlock()

	if m.onSearch != nil {
		m.onSearch(query)
	}
}

func (m *Menu) endSearch() {
	m.mu.Lock()
	m.searching = false
	m.mu.Unlock()
}

// closePicker resets the search and reports the picker closed.
func (m *Menu) closePicker(query string) {
	if query != "" {
		m.search("")
	}
	m.dropdown(false)
}

// runDmenu runs the dmenu program with the given input lines.
// Returns the selected line or an error if the user cancelled.
func (m *Menu) runDmenu(lines []string, prompt string) (string, error) {
	args := m.buildArgs(prompt)
	cmd := exec.Command(m.program, args...)

	cmd.Stdin = strings.NewReader(strings.Join(lines, "\n"))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("running dmenu", "program", m.program, "args", args)

	if err := cmd.Run(); err != nil {
		// Exit code 1 usually means user cancelled (pressed Escape)
		if exitErr, ok := err.(*exec.ExitError); ok {
			if exitErr.ExitCode() == 1 {
				return "", fmt.Errorf("cancelled")
			}
		}
		return "", fmt.Errorf("dmenu failed: %w (stderr: %s)", err, stderr.String())
	}

	return stdout.String(), nil
}

// buildArgs builds command-line arguments for the dmenu program.
func (m *Menu) buildArgs(prompt string) []string {
	var args []string

	switch m.program {
	case "rofi":
		args = []string{"-dmenu", "-p", prompt, "-i"}
	case "wofi":
		args = []string{"--dmenu", "--prompt", prompt, "--insensitive"}
	case "fuzzel":
		args = []string{"--dmenu", "--prompt", prompt + ": "}
	case "bemenu":
		args = []string{"-p", prompt, "-i"}
	case "dmenu":
		args = []string{"-p", prompt, "-i", "-l", "20"}
	default:
		// Generic dmenu-compatible args
		args = []string{"-p", prompt}
	}

	return append(args, m.cfg.Args...)
}

// clipboardText strips the decorations menu lines carry.
func clipboardText(text string) string {
	clean := strings.TrimSpace(text)
	for _, prefix := range []string{"⏳ ", "▶ ", "✓ ", "📍 ", "📅 "} {
		clean = strings.TrimPrefix(clean, prefix)
	}
	return clean
}

// copyToClipboard copies text to the system clipboard.
// Tries wl-copy (Wayland) first, then xclip and xsel (X11).
func copyToClipboard(text string) {
	clean := clipboardText(text)

	if path, err := exec.LookPath("wl-copy"); err == nil && path != "" {
		if err := exec.Command("wl-copy", clean).Run(); err == nil {
			slog.Debug("copied to clipboard via wl-copy", "text", clean)
			return
		}
	}

	if path, err := exec.LookPath("xclip"); err == nil && path != "" {
		cmd := exec.Command("xclip", "-selection", "clipboard")
		cmd.Stdin = strings.NewReader(clean)
		if err := cmd.Run(); err == nil {
			slog.Debug("copied to clipboard via xclip", "text", clean)
			return
		}
	}

	if path, err := exec.LookPath("xsel"); err == nil && path != "" {
		cmd := exec.Command("xsel", "--clipboard", "--input")
		cmd.Stdin = strings.NewReader(clean)
		if err := cmd.Run(); err == nil {
			slog.Debug("copied to clipboard via xsel", "text", clean)
			return
		}
	}

	slog.Debug("no clipboard tool available", "text", clean)
}
