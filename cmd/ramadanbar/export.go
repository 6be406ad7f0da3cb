package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cpuguy83/ramadanbar/internal/calendar"
	"github.com/cpuguy83/ramadanbar/internal/config"
	"github.com/cpuguy83/ramadanbar/internal/schedule"
)

type exportRequest struct {
	district schedule.District
	days     []schedule.DayRecord
}

// exporter runs calendar exports one at a time. Requests made while an export
// is running replace each other, and only the latest one runs next.
type exporter struct {
	export func(ctx context.Context, district schedule.District, days []schedule.DayRecord) error

	mu      sync.Mutex
	pending *exportRequest
	wake    chan struct{}
}

func newExporter(fn func(ctx context.Context, district schedule.District, days []schedule.DayRecord) error) *exporter {
	return &exporter{
		export: fn,
		wake:   make(chan struct{}, 1),
	}
}

// Request queues an export of the district's schedule.
func (e *exporter) Request(district schedule.District, days []schedule.DayRecord) {
	e.mu.Lock()
	e.pending = &exportRequest{district: district, days: days}
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Run processes requests until ctx is cancelled.
func (e *exporter) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.wake:
		}

		e.mu.Lock()
		req := e.pending
		e.pending = nil
		e.mu.Unlock()

		if req == nil {
			continue
		}
		if err := e.export(ctx, req.district, req.days); err != nil {
			slog.Warn("calendar export failed", "district", req.district.ID, "error", err)
		}
	}
}

// runExport writes the configured calendar exports once.
func runExport(ctx context.Context, cfg *config.Config) error {
	if !exportConfigured(cfg) {
		return errors.New("no export configured (set export.ics or export.caldav.url)")
	}

	district, days, err := loadDistrict(ctx, cfg)
	if err != nil {
		return err
	}
	return export(ctx, cfg, district, days)
}

func exportConfigured(cfg *config.Config) bool {
	return cfg.Export.ICS != "" || cfg.Export.CalDAV.URL != ""
}

// export writes the district's events to every configured target.
func export(ctx context.Context, cfg *config.Config, district schedule.District, days []schedule.DayRecord) error {
	events, err := calendar.Events(district, days, time.Local)
	if err != nil {
		return err
	}

	var errs []error

	if cfg.Export.ICS != "" {
		if err := calendar.WriteICS(cfg.Export.ICS, events); err != nil {
			errs = append(errs, err)
		} else {
			slog.Info("exported calendar", "path", cfg.Export.ICS, "events", len(events))
		}
	}

	if dav := cfg.Export.CalDAV; dav.URL != "" {
		if err := publish(ctx, dav, events); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func publish(ctx context.Context, dav config.CalDAVConfig, events []calendar.Event) error {
	password, err := dav.GetPassword()
	if err != nil {
		return fmt.Errorf("caldav password: %w", err)
	}

	pub, err := calendar.NewCalDAVPublisher(dav.URL, dav.Username, password, dav.Calendar)
	if err != nil {
		return err
	}

	n, err := pub.Publish(ctx, events)
	if err != nil {
		return fmt.Errorf("publish to %s (%d of %d events): %w", pub.Name(), n, len(events), err)
	}
	slog.Info("published calendar", "target", pub.Name(), "events", n)
	return nil
}
