// Package schedule provides the Sehri/Iftar data model, schedule sources and
// the resolver that picks the next event to count down to.
package schedule

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// DateLayout is the layout of DayRecord.Date.
const DateLayout = "2006-01-02"

// ErrUnknownDistrict is returned when a district ID is not present in the data.
var ErrUnknownDistrict = errors.New("unknown district")

// DayRecord is the schedule for one day of the observance.
type DayRecord struct {
	// Date is the calendar date in 2006-01-02 form.
	Date string `json:"date"`

	// Ramadan is the 1-based fasting day index.
	Ramadan int `json:"ramadan"`

	// Day is the weekday name as supplied by the data source.
	Day string `json:"day"`

	// Sehri is the wall-clock time the pre-dawn meal must end, e.g. "04:30 AM".
	Sehri string `json:"sehri"`

	// Iftar is the wall-clock time the fast is broken, e.g. "06:15 PM".
	Iftar string `json:"iftar"`
}

// SehriAt returns the absolute Sehri instant of the record in loc.
func (d DayRecord) SehriAt(loc *time.Location) (time.Time, error) {
	return d.instant(FieldSehri, d.Sehri, loc)
}

// IftarAt returns the absolute Iftar instant of the record in loc.
func (d DayRecord) IftarAt(loc *time.Location) (time.Time, error) {
	return d.instant(FieldIftar, d.Iftar, loc)
}

// Time returns the calendar date of the record at midnight in loc.
func (d DayRecord) Time(loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(d.Date), loc)
	if err != nil {
		return time.Time{}, &ScheduleFormatError{Record: d, Field: FieldDate, Value: d.Date, Err: err}
	}
	return t, nil
}

// District is a selectable schedule region.
type District struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	BnName string `json:"bnName"`
}

// DisplayName returns the name to show for the given language ("bn" or "en").
func (d District) DisplayName(lang string) string {
	if lang == "bn" && d.BnName != "" {
		return d.BnName
	}
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}

// Data is the full schedule document: the selectable districts and the
// per-district day records.
type Data struct {
	Districts []District             `json:"districts"`
	Schedule  map[string][]DayRecord `json:"schedule"`
}

// Days returns the records for a district ordered by date, or nil if the
// district has no schedule.
func (d *Data) Days(id string) []DayRecord {
	if d == nil {
		return nil
	}
	return d.Schedule[id]
}

// District looks up a district by ID.
func (d *Data) District(id string) (District, error) {
	if d != nil {
		for _, dist := range d.Districts {
			if dist.ID == id {
				return dist, nil
			}
		}
	}
	return District{}, fmt.Errorf("%w: %q", ErrUnknownDistrict, id)
}

// sortDays orders every district's records by date. Records come from an
// external file and are expected sorted already; this only guards the resolver
// scan against a shuffled file.
func (d *Data) sortDays() {
	for _, days := range d.Schedule {
		sort.SliceStable(days, func(i, j int) bool {
			return days[i].Date < days[j].Date
		})
	}
}

// Validate checks the schedule invariants: every district's dates are unique,
// ascending and contiguous, the Ramadan index grows by one per record, and
// every Sehri and Iftar parses with Sehri before Iftar. All violations are
// reported together; malformed times are *ScheduleFormatError values.
func (d *Data) Validate() error {
	var errs []error
	for id, days := range d.Schedule {
		if err := validateDays(days); err != nil {
			errs = append(errs, fmt.Errorf("district %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func validateDays(days []DayRecord) error {
	if len(days) == 0 {
		return nil
	}

	first, err := days[0].Time(time.UTC)
	if err != nil {
		return err
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Dtstart: first,
		Count:   len(days),
	})
	if err != nil {
		return fmt.Errorf("build daily rule: %w", err)
	}
	expected := r.All()

	var errs []error
	for i, day := range days {
		t, err := day.Time(time.UTC)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if i < len(expected) && !t.Equal(expected[i]) {
			errs = append(errs, fmt.Errorf("record %d: date %s, expected %s", i, day.Date, expected[i].Format(DateLayout)))
		}
		if i > 0 && day.Ramadan != days[i-1].Ramadan+1 {
			errs = append(errs, fmt.Errorf("record %d: ramadan day %d follows %d", i, day.Ramadan, days[i-1].Ramadan))
		}
		if err := validateTimes(day); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// validateTimes parses both clock fields and checks their order.
func validateTimes(day DayRecord) error {
	sehri, serr := day.SehriAt(time.UTC)
	iftar, ierr := day.IftarAt(time.UTC)
	if serr != nil || ierr != nil {
		return errors.Join(serr, ierr)
	}
	if !sehri.Before(iftar) {
		return fmt.Errorf("%s: sehri %s is not before iftar %s", day.Date, day.Sehri, day.Iftar)
	}
	return nil
}
