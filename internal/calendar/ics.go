package calendar

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	ics "github.com/emersion/go-ical"

	"github.com/cpuguy83/ramadanbar/internal/schedule"
)

const (
	productID = "-//ramadanbar//ramadanbar//EN"

	propType     = "X-RAMADANBAR-TYPE"
	propDistrict = "X-RAMADANBAR-DISTRICT"
	propRamadan  = "X-RAMADANBAR-RAMADAN"
)

// NewCalendar builds an ICS calendar holding events.
func NewCalendar(events []Event) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.Props.SetText(ics.PropVersion, "2.0")
	cal.Props.SetText(ics.PropProductID, productID)

	stamp := time.Now().UTC()
	for _, event := range events {
		cal.Children = append(cal.Children, eventComponent(event, stamp))
	}
	return cal
}

// eventComponent converts an Event to a VEVENT. Times are written in UTC so
// readers do not need the writer's zone database.
func eventComponent(event Event, stamp time.Time) *ics.Component {
	comp := ics.NewComponent(ics.CompEvent)

	comp.Props.SetText(ics.PropUID, event.UID)
	comp.Props.SetText(ics.PropSummary, event.Summary)

	// DTSTAMP is required by RFC 5545
	comp.Props.SetDateTime(ics.PropDateTimeStamp, stamp)

	if event.Description != "" {
		comp.Props.SetText(ics.PropDescription, event.Description)
	}
	if event.Location != "" {
		comp.Props.SetText(ics.PropLocation, event.Location)
	}

	comp.Props.SetDateTime(ics.PropDateTimeStart, event.Start.UTC())
	comp.Props.SetDateTime(ics.PropDateTimeEnd, event.End.UTC())

	setRaw(comp.Props, propType, event.Type.String())
	setRaw(comp.Props, propDistrict, event.District)
	setRaw(comp.Props, propRamadan, strconv.Itoa(event.Ramadan))

	return comp
}

// setRaw sets an extension property without a VALUE parameter.
func setRaw(props ics.Props, name, value string) {
	prop := ics.NewProp(name)
	prop.Value = value
	props.Set(prop)
}

// Encode writes events as an ICS document.
func Encode(w io.Writer, events []Event) error {
	if err := ics.NewEncoder(w).Encode(NewCalendar(events)); err != nil {
		return fmt.Errorf("encode ICS: %w", err)
	}
	return nil
}

// WriteICS writes events to an ICS file atomically.
// It writes to a temp file first, then renames to the final path.
func WriteICS(path string, events []Event) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, events); err != nil {
		return err
	}

	// Each call gets its own temp file so concurrent writers never share one.
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

// ReadICS reads events from an ICS file.
func ReadICS(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ICS file: %w", err)
	}
	defer f.Close()

	return ParseICS(f)
}

// ParseICS parses events from an ICS reader. Components that are not
// ramadanbar events are skipped.
func ParseICS(r io.Reader) ([]Event, error) {
	dec := ics.NewDecoder(r)

	var events []Event

	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode ICS: %w", err)
		}

		for _, comp := range cal.Children {
			if comp.Name != ics.CompEvent {
				continue
			}

			event, err := parseEventComponent(comp)
			if err != nil {
				continue
			}
			events = append(events, event)
		}
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})

	return events, nil
}

// parseEventComponent converts an ICS VEVENT component to an Event.
func parseEventComponent(comp *ics.Component) (Event, error) {
	var event Event

	if prop := comp.Props.Get(ics.PropUID); prop != nil {
		event.UID = prop.Value
	}

	var err error
	if event.Summary, err = comp.Props.Text(ics.PropSummary); err != nil {
		return event, fmt.Errorf("event %s: summary: %w", event.UID, err)
	}
	if event.Description, err = comp.Props.Text(ics.PropDescription); err != nil {
		return event, fmt.Errorf("event %s: description: %w", event.UID, err)
	}
	if event.Location, err = comp.Props.Text(ics.PropLocation); err != nil {
		return event, fmt.Errorf("event %s: location: %w", event.UID, err)
	}
	if prop := comp.Props.Get(propDistrict); prop != nil {
		event.District = prop.Value
	}

	prop := comp.Props.Get(propType)
	if prop == nil {
		return event, fmt.Errorf("event %s: missing %s", event.UID, propType)
	}
	switch prop.Value {
	case schedule.Sehri.String():
		event.Type = schedule.Sehri
	case schedule.Iftar.String():
		event.Type = schedule.Iftar
	default:
		return event, fmt.Errorf("event %s: unknown type %q", event.UID, prop.Value)
	}

	if prop := comp.Props.Get(propRamadan); prop != nil {
		n, err := strconv.Atoi(prop.Value)
		if err != nil {
			return event, fmt.Errorf("event %s: parse ramadan day: %w", event.UID, err)
		}
		event.Ramadan = n
	}

	start := comp.Props.Get(ics.PropDateTimeStart)
	if start == nil {
		return event, fmt.Errorf("event %s: missing start", event.UID)
	}
	t, err := start.DateTime(time.Local)
	if err != nil {
		return event, fmt.Errorf("parse start time: %w", err)
	}
	event.Start = t

	if prop := comp.Props.Get(ics.PropDateTimeEnd); prop != nil {
		t, err := prop.DateTime(time.Local)
		if err != nil {
			return event, fmt.Errorf("parse end time: %w", err)
		}
		event.End = t
	} else {
		event.End = event.Start.Add(eventLength)
	}

	return event, nil
}
