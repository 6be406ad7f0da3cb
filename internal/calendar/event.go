// Package calendar turns a district's schedule into calendar events and
// exports them as ICS files or to a CalDAV server.
package calendar

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cpuguy83/ramadanbar/internal/schedule"
)

// eventLength is the duration given to exported events. Sehri and Iftar are
// instants; calendar clients render zero-length entries poorly.
const eventLength = 15 * time.Minute

// uidSuffix marks the events ramadanbar owns in a shared calendar.
const uidSuffix = "@ramadanbar"

// Event represents a single Sehri or Iftar occurrence.
type Event struct {
	// UID is the unique identifier for this event. It is stable across
	// exports so republishing overwrites instead of duplicating.
	UID string

	// Type is the kind of event.
	Type schedule.EventType

	// Summary is the event title.
	Summary string

	// Description holds the Ramadan day and weekday.
	Description string

	// Location is the district name.
	Location string

	// District is the district ID the event belongs to.
	District string

	// Ramadan is the Ramadan day index.
	Ramadan int

	// Start is when the event happens.
	Start time.Time

	// End is Start plus a fixed display length.
	End time.Time
}

// Duration returns the duration of the event.
func (e *Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// IsUpcoming returns true if the event starts within the given duration.
func (e *Event) IsUpcoming(now time.Time, within time.Duration) bool {
	until := e.Start.Sub(now)
	return until > 0 && until <= within
}

// StartsIn returns how long until the event starts (negative if already started).
func (e *Event) StartsIn(now time.Time) time.Duration {
	return e.Start.Sub(now)
}

// Events builds the Sehri and Iftar events for every day of a district's
// schedule, sorted by start time. Records with malformed times are skipped;
// their errors are joined into the returned error alongside the events of the
// well-formed records.
func Events(district schedule.District, days []schedule.DayRecord, loc *time.Location) ([]Event, error) {
	events := make([]Event, 0, 2*len(days))

	var errs []error
	for _, day := range days {
		sehri, err := day.SehriAt(loc)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		iftar, err := day.IftarAt(loc)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		events = append(events,
			newEvent(district, day, schedule.Sehri, sehri),
			newEvent(district, day, schedule.Iftar, iftar),
		)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
	return events, errors.Join(errs...)
}

func newEvent(district schedule.District, day schedule.DayRecord, typ schedule.EventType, at time.Time) Event {
	name := district.DisplayName("en")

	var summary string
	switch typ {
	case schedule.Sehri:
		summary = fmt.Sprintf("Sehri ends (%s)", name)
	default:
		summary = fmt.Sprintf("Iftar (%s)", name)
	}

	return Event{
		UID:         fmt.Sprintf("%s-%s-%s%s", district.ID, day.Date, typ, uidSuffix),
		Type:        typ,
		Summary:     summary,
		Description: fmt.Sprintf("Ramadan %d, %s", day.Ramadan, day.Day),
		Location:    name,
		District:    district.ID,
		Ramadan:     day.Ramadan,
		Start:       at,
		End:         at.Add(eventLength),
	}
}

// Upcoming returns the events that start after now, in order.
func Upcoming(events []Event, now time.Time) []Event {
	i := sort.Search(len(events), func(i int) bool {
		return events[i].Start.After(now)
	})
	return events[i:]
}
