package ui

import (
	"fmt"
	"sync"

	"github.com/cpuguy83/ramadanbar/internal/countdown"
	"github.com/cpuguy83/ramadanbar/internal/labels"
	"github.com/cpuguy83/ramadanbar/internal/schedule"
	"github.com/cpuguy83/ramadanbar/internal/session"
)

// ViewState is everything a backend renders.
type ViewState struct {
	Loading   bool
	Err       error
	Districts []schedule.District
	Selected  string
	District  schedule.District
	Days      []schedule.DayRecord
	Result    schedule.Result
	Countdown string
}

// View stores the latest display state. Backends embed it to implement the
// session.Sink setters and read it back when rendering.
type View struct {
	mu    sync.RWMutex
	state ViewState
}

// NewView returns a view in the loading state.
func NewView() *View {
	return &View{state: ViewState{Loading: true, Countdown: countdown.Sentinel}}
}

// State returns a copy of the current state.
func (v *View) State() ViewState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

// SetLoading marks the schedule as loading.
func (v *View) SetLoading(loading bool) {
	v.mu.Lock()
	v.state.Loading = loading
	v.mu.Unlock()
}

// SetError records the latest error.
func (v *View) SetError(err error) {
	v.mu.Lock()
	v.state.Err = err
	v.mu.Unlock()
}

// SetDistricts replaces the selectable districts.
func (v *View) SetDistricts(districts []schedule.District, selected string) {
	v.mu.Lock()
	v.state.Districts = districts
	v.state.Selected = selected
	v.mu.Unlock()
}

// SetSchedule replaces the displayed district schedule and resolution.
func (v *View) SetSchedule(district schedule.District, days []schedule.DayRecord, res schedule.Result) {
	v.mu.Lock()
	v.state.Loading = false
	v.state.Err = nil
	v.state.Selected = district.ID
	v.state.District = district
	v.state.Days = days
	v.state.Result = res
	v.mu.Unlock()
}

// SetCountdown records the latest countdown text.
func (v *View) SetCountdown(text string) {
	v.mu.Lock()
	v.state.Countdown = text
	v.mu.Unlock()
}

var _ session.Sink = (*View)(nil)

// Row is one line of the month table.
type Row struct {
	Ramadan int
	Date    string
	Weekday string
	Sehri   string
	Iftar   string
	Current bool
}

// Rows formats days for the month table. The row whose Ramadan index matches
// the current day's is marked current.
func Rows(days []schedule.DayRecord, current *schedule.DayRecord) []Row {
	rows := make([]Row, 0, len(days))
	for _, day := range days {
		rows = append(rows, Row{
			Ramadan: day.Ramadan,
			Date:    labels.FormatDate(day.Date),
			Weekday: day.Day,
			Sehri:   day.Sehri,
			Iftar:   day.Iftar,
			Current: current != nil && day.Ramadan == current.Ramadan,
		})
	}
	return rows
}

// TodayHeading returns the Ramadan day and date shown above today's times.
// Without a current day the date falls back to now's.
func TodayHeading(res schedule.Result, l labels.Set, today string) (title, date string) {
	if res.CurrentDay == nil {
		return l.RamadanDay(0), labels.FormatDate(today)
	}
	return l.RamadanDay(res.CurrentDay.Ramadan), labels.FormatDate(res.CurrentDay.Date)
}

// StatusText returns the status line for the state, or "" when all is well.
func StatusText(state ViewState, l labels.Set) string {
	switch {
	case state.Err != nil && session.IsFormatError(state.Err):
		return fmt.Sprintf("⚠ %s: %v", l.InvalidRecord, state.Err)
	case state.Err != nil:
		return fmt.Sprintf("⚠ %s: %v", l.LoadFailed, state.Err)
	case state.Loading:
		return l.Loading
	default:
		return ""
	}
}
