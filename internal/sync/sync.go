// Package sync loads the schedule document from its configured source.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cpuguy83/ramadanbar/internal/config"
	"github.com/cpuguy83/ramadanbar/internal/filter"
	"github.com/cpuguy83/ramadanbar/internal/schedule"
)

// Loader fetches the schedule and retries until the first success.
type Loader struct {
	source   schedule.Source
	filter   *filter.Filter
	interval time.Duration
}

// NewLoader creates a Loader from configuration.
func NewLoader(cfg *config.Config) (*Loader, error) {
	src, err := createSource(cfg.Schedule)
	if err != nil {
		return nil, err
	}

	f, err := filter.New(cfg.Filters)
	if err != nil {
		return nil, fmt.Errorf("district filters: %w", err)
	}

	return newLoader(src, f, cfg.Schedule.RetryInterval), nil
}

func newLoader(src schedule.Source, f *filter.Filter, interval time.Duration) *Loader {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Loader{source: src, filter: f, interval: interval}
}

// Interval returns the configured retry interval.
func (l *Loader) Interval() time.Duration {
	return l.interval
}

// Load fetches the schedule once. Districts are narrowed by the configured
// filters. Schedule invariant violations are logged but do not fail the load.
func (l *Loader) Load(ctx context.Context) (*schedule.Data, error) {
	name := l.source.Name()
	slog.Debug("fetching schedule", "source", name)

	data, err := l.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch schedule from %s: %w", name, err)
	}

	fetched := len(data.Districts)
	data.Districts = l.filter.Apply(data.Districts)

	if err := data.Validate(); err != nil {
		slog.Warn("schedule has inconsistencies", "source", name, "error", err)
	}

	slog.Info("schedule loaded", "source", name, "districts", fetched, "after_filter", len(data.Districts))
	return data, nil
}

// Run loads the schedule, calling onLoad after every attempt. Failed attempts
// are retried at the configured interval. Run returns after the first
// successful load or when the context is cancelled.
func (l *Loader) Run(ctx context.Context, onLoad func(*schedule.Data, error)) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		data, err := l.Load(ctx)
		if err != nil && errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return
		}
		onLoad(data, err)
		if err == nil {
			return
		}
		slog.Warn("schedule load failed, retrying", "error", err, "interval", l.interval)

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

// createSource creates the schedule source from configuration.
func createSource(cfg config.ScheduleConfig) (schedule.Source, error) {
	switch cfg.Type {
	case "", "file":
		if cfg.Path == "" {
			return nil, errors.New("schedule.path is required for file sources")
		}
		return schedule.NewFileSource(cfg.Path), nil

	case "http":
		if cfg.URL == "" {
			return nil, errors.New("schedule.url is required for http sources")
		}
		password, err := cfg.GetPassword()
		if err != nil {
			return nil, err
		}
		return schedule.NewHTTPSource(cfg.URL, cfg.Username, password), nil

	default:
		return nil, fmt.Errorf("unknown schedule source type %q", cfg.Type)
	}
}
