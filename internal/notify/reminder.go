package notify

import (
	"fmt"
	"slices"
	"time"

	"github.com/cpuguy83/ramadanbar/internal/calendar"
	"github.com/cpuguy83/ramadanbar/internal/countdown"
	"github.com/cpuguy83/ramadanbar/internal/labels"
	"github.com/cpuguy83/ramadanbar/internal/schedule"
)

// Reminder is a notification due ahead of an event.
type Reminder struct {
	Event  calendar.Event
	Before time.Duration
}

// Key identifies the reminder for deduplication.
func (r Reminder) Key() string {
	return fmt.Sprintf("%s/%s", r.Event.UID, r.Before)
}

// Due returns the reminders to send at now. For each upcoming event only the
// shortest lead time that now falls within is reported, so starting late
// does not produce a burst of stale reminders.
func Due(events []calendar.Event, now time.Time, before []time.Duration) []Reminder {
	if len(before) == 0 {
		return nil
	}

	leads := slices.Clone(before)
	slices.Sort(leads)

	var due []Reminder
	for _, event := range calendar.Upcoming(events, now) {
		for _, lead := range leads {
			if lead <= 0 {
				continue
			}
			if event.IsUpcoming(now, lead) {
				due = append(due, Reminder{Event: event, Before: lead})
				break
			}
		}
	}
	return due
}

// Notification renders the reminder.
func (r Reminder) Notification(l labels.Set, now time.Time) Notification {
	urgency := UrgencyNormal
	if r.Event.Type == schedule.Iftar {
		urgency = UrgencyCritical
	}

	return Notification{
		Summary: fmt.Sprintf("%s %s", l.Event(r.Event.Type), labels.FormatTime(r.Event.Start)),
		Body:    fmt.Sprintf("%s\n%s", r.Event.Location, countdown.Format(r.Event.StartsIn(now))),
		Urgency: urgency,
		Actions: []Action{{Key: "default", Label: l.FullSchedule}},
		Key:     r.Key(),
	}
}

// Digest renders the daily summary for the next event's day. An ended
// schedule produces the end-of-season greeting.
func Digest(district string, res schedule.Result, loc *time.Location, l labels.Set) (Notification, error) {
	if res.Ended() {
		return Notification{
			Summary: l.Ended,
			Body:    l.EidMubarak,
			Urgency: UrgencyLow,
			Key:     "digest/ended/" + district,
		}, nil
	}

	day := res.Next.Day
	sehri, err := day.SehriAt(loc)
	if err != nil {
		return Notification{}, err
	}
	iftar, err := day.IftarAt(loc)
	if err != nil {
		return Notification{}, err
	}

	return Notification{
		Summary: fmt.Sprintf("%s · %s", l.RamadanDay(day.Ramadan), district),
		Body: fmt.Sprintf("%s\n%s %s\n%s %s",
			labels.FormatDate(day.Date),
			l.SehriEnds, labels.FormatTime(sehri),
			l.IftarStarts, labels.FormatTime(iftar)),
		Urgency: UrgencyLow,
		Key:     fmt.Sprintf("digest/%s/%s", district, day.Date),
	}, nil
}
