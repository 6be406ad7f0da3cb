package schedule

import (
	"fmt"
	"strings"
	"time"
)

// ClockLayout is the layout of the Sehri and Iftar fields. Single-digit hours
// ("4:30 AM") are accepted as well.
const ClockLayout = "03:04 PM"

// parseClockLayout tolerates both padded and unpadded hours.
const parseClockLayout = "3:04 PM"

// Field names reported by ScheduleFormatError.
const (
	FieldDate  = "date"
	FieldSehri = "sehri"
	FieldIftar = "iftar"
)

// ScheduleFormatError reports a DayRecord whose date or time-of-day field
// cannot be parsed. It indicates corrupt input data.
type ScheduleFormatError struct {
	Record DayRecord
	Field  string
	Value  string
	Err    error
}

func (e *ScheduleFormatError) Error() string {
	return fmt.Sprintf("schedule record %s (ramadan %d): invalid %s %q: %v",
		e.Record.Date, e.Record.Ramadan, e.Field, e.Value, e.Err)
}

func (e *ScheduleFormatError) Unwrap() error {
	return e.Err
}

// instant combines the record's date with a wall-clock value.
func (d DayRecord) instant(field, clock string, loc *time.Location) (time.Time, error) {
	date, err := d.Time(loc)
	if err != nil {
		return time.Time{}, err
	}

	tod, err := time.Parse(parseClockLayout, strings.ToUpper(strings.TrimSpace(clock)))
	if err != nil {
		return time.Time{}, &ScheduleFormatError{Record: d, Field: field, Value: clock, Err: err}
	}

	return time.Date(date.Year(), date.Month(), date.Day(), tod.Hour(), tod.Minute(), 0, 0, loc), nil
}
