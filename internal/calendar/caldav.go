package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	ics "github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
)

// caldavClient is the subset of *caldav.Client used for publishing.
type caldavClient interface {
	FindCurrentUserPrincipal(ctx context.Context) (string, error)
	FindCalendarHomeSet(ctx context.Context, principal string) (string, error)
	FindCalendars(ctx context.Context, calendarHomeSet string) ([]caldav.Calendar, error)
	PutCalendarObject(ctx context.Context, path string, cal *ics.Calendar) (*caldav.CalendarObject, error)
	QueryCalendar(ctx context.Context, calendar string, query *caldav.CalendarQuery) ([]caldav.CalendarObject, error)
	RemoveAll(ctx context.Context, name string) error
}

// CalDAVPublisher pushes events into a calendar on a CalDAV server.
type CalDAVPublisher struct {
	url      string
	calendar string // Optional: calendar name, first calendar if empty
	client   caldavClient
}

// NewCalDAVPublisher creates a publisher for the server at endpoint.
func NewCalDAVPublisher(endpoint, username, password, calendar string) (*CalDAVPublisher, error) {
	// Create HTTP client with basic auth
	httpClient := &http.Client{
		Timeout: 60 * time.Second,
		Transport: &basicAuthTransport{
			username: username,
			password: password,
			base:     http.DefaultTransport,
		},
	}

	client, err := caldav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("create caldav client: %w", err)
	}

	return &CalDAVPublisher{
		url:      endpoint,
		calendar: calendar,
		client:   client,
	}, nil
}

// Name returns the server URL.
func (p *CalDAVPublisher) Name() string {
	return p.url
}

// Publish writes every event as its own calendar object. Objects are keyed by
// event UID, so publishing the same schedule again overwrites it. Once every
// event is written, objects ramadanbar published earlier that are not part of
// events (another district's schedule) are removed.
func (p *CalDAVPublisher) Publish(ctx context.Context, events []Event) (int, error) {
	cal, err := p.findCalendar(ctx)
	if err != nil {
		return 0, err
	}

	slog.Info("publishing events", "calendar", cal.Name, "events", len(events))

	keep := make(map[string]bool, len(events))
	stamp := time.Now().UTC()
	for i, event := range events {
		obj := ics.NewCalendar()
		obj.Props.SetText(ics.PropVersion, "2.0")
		obj.Props.SetText(ics.PropProductID, productID)
		obj.Children = append(obj.Children, eventComponent(event, stamp))

		if _, err := p.client.PutCalendarObject(ctx, objectPath(cal.Path, event.UID), obj); err != nil {
			return i, fmt.Errorf("put event %s: %w", event.UID, err)
		}
		keep[event.UID] = true
	}

	if err := p.prune(ctx, cal, keep); err != nil {
		return len(events), err
	}
	return len(events), nil
}

// prune removes ramadanbar's events in cal whose UID is not in keep.
func (p *CalDAVPublisher) prune(ctx context.Context, cal caldav.Calendar, keep map[string]bool) error {
	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name: "VCALENDAR",
			Comps: []caldav.CalendarCompRequest{{
				Name:  "VEVENT",
				Props: []string{"UID", propDistrict},
			}},
		},
		CompFilter: caldav.CompFilter{
			Name:  "VCALENDAR",
			Comps: []caldav.CompFilter{{Name: "VEVENT"}},
		},
	}

	objects, err := p.client.QueryCalendar(ctx, cal.Path, query)
	if err != nil {
		return fmt.Errorf("query calendar %s: %w", cal.Name, err)
	}

	var errs []error
	removed := 0
	for _, obj := range objects {
		uid := ownedUID(obj)
		if uid == "" || keep[uid] {
			continue
		}
		if err := p.client.RemoveAll(ctx, obj.Path); err != nil {
			errs = append(errs, fmt.Errorf("remove stale event %s: %w", uid, err))
			continue
		}
		removed++
	}

	if removed > 0 {
		slog.Info("removed stale events", "calendar", cal.Name, "events", removed)
	}
	return errors.Join(errs...)
}

// ownedUID returns the UID of the event in obj when ramadanbar published it,
// or "" otherwise.
func ownedUID(obj caldav.CalendarObject) string {
	if obj.Data == nil {
		return ""
	}
	for _, event := range obj.Data.Events() {
		uid, err := event.Props.Text(ics.PropUID)
		if err != nil || !strings.HasSuffix(uid, uidSuffix) {
			continue
		}
		if event.Props.Get(propDistrict) == nil {
			continue
		}
		return uid
	}
	return ""
}

// findCalendar locates the target calendar in the user's calendar home.
func (p *CalDAVPublisher) findCalendar(ctx context.Context) (caldav.Calendar, error) {
	principal, err := p.client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return caldav.Calendar{}, fmt.Errorf("find principal: %w", err)
	}

	homeSet, err := p.client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return caldav.Calendar{}, fmt.Errorf("find calendar home: %w", err)
	}

	cals, err := p.client.FindCalendars(ctx, homeSet)
	if err != nil {
		return caldav.Calendar{}, fmt.Errorf("find calendars: %w", err)
	}

	return pickCalendar(cals, p.calendar)
}

// pickCalendar returns the calendar named name, or the first one that
// supports events when name is empty.
func pickCalendar(cals []caldav.Calendar, name string) (caldav.Calendar, error) {
	for _, cal := range cals {
		if name != "" {
			if strings.EqualFold(cal.Name, name) {
				return cal, nil
			}
			continue
		}
		if supportsEvents(cal) {
			return cal, nil
		}
	}

	if name != "" {
		return caldav.Calendar{}, fmt.Errorf("calendar %q not found", name)
	}
	return caldav.Calendar{}, fmt.Errorf("no calendar supports events")
}

func supportsEvents(cal caldav.Calendar) bool {
	if len(cal.SupportedComponentSet) == 0 {
		return true
	}
	for _, comp := range cal.SupportedComponentSet {
		if comp == ics.CompEvent {
			return true
		}
	}
	return false
}

// objectPath returns the path of the calendar object for uid.
func objectPath(calendarPath, uid string) string {
	return path.Join(calendarPath, url.PathEscape(uid)+".ics")
}

// basicAuthTransport adds basic auth to HTTP requests.
type basicAuthTransport struct {
	username string
	password string
	base     http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.username != "" {
		req = req.Clone(req.Context())
		req.SetBasicAuth(t.username, t.password)
	}
	return t.base.RoundTrip(req)
}
