package schedule

import "time"

// EventType identifies which daily event a countdown targets.
type EventType int

const (
	Sehri EventType = iota
	Iftar
)

func (t EventType) String() string {
	switch t {
	case Sehri:
		return "sehri"
	case Iftar:
		return "iftar"
	default:
		return "unknown"
	}
}

// NextEvent is the soonest upcoming Sehri or Iftar relative to a moment.
type NextEvent struct {
	Type   EventType
	Target time.Time
	Day    DayRecord
}

// Result is the outcome of a resolution pass.
type Result struct {
	// CurrentDay is the record the display should treat as "today", or nil.
	CurrentDay *DayRecord

	// Next is the event to count down to, or nil once the observance is over.
	Next *NextEvent
}

// Ended reports whether the observance is over (or there is no data).
func (r Result) Ended() bool {
	return r.Next == nil
}

// Resolve finds the next Sehri or Iftar at or after now in days, which must be
// ordered by date. Times are interpreted in now's location.
//
// An empty schedule, or one whose last Iftar has passed, yields the ended
// state. A record with an unparseable date or time fails the whole pass with a
// *ScheduleFormatError.
func Resolve(days []DayRecord, now time.Time) (Result, error) {
	if len(days) == 0 {
		return Result{}, nil
	}

	loc := now.Location()
	today := now.Format(DateLayout)

	var current *DayRecord
	for i := range days {
		if days[i].Date == today {
			current = &days[i]
			break
		}
	}

	for i := range days {
		day := days[i]

		sehri, err := day.SehriAt(loc)
		if err != nil {
			return Result{}, err
		}
		iftar, err := day.IftarAt(loc)
		if err != nil {
			return Result{}, err
		}

		if now.Before(sehri) {
			// Today's record is only replaced by a later day's here, while
			// the Iftar branch replaces it unconditionally. With unique dates
			// both rules pick the same record; this may be an inconsistency
			// and is kept until the display rules are confirmed.
			if day.Date != today {
				current = &day
			}
			return Result{
				CurrentDay: current,
				Next:       &NextEvent{Type: Sehri, Target: sehri, Day: day},
			}, nil
		}

		if now.Before(iftar) {
			return Result{
				CurrentDay: &day,
				Next:       &NextEvent{Type: Iftar, Target: iftar, Day: day},
			}, nil
		}
	}

	return Result{}, nil
}
