// ramadanbar is a system tray app that counts down to the next Sehri or Iftar.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	gosync "sync"
	"syscall"
	"time"

	"github.com/cpuguy83/ramadanbar/internal/calendar"
	"github.com/cpuguy83/ramadanbar/internal/config"
	"github.com/cpuguy83/ramadanbar/internal/countdown"
	"github.com/cpuguy83/ramadanbar/internal/labels"
	"github.com/cpuguy83/ramadanbar/internal/notify"
	"github.com/cpuguy83/ramadanbar/internal/schedule"
	"github.com/cpuguy83/ramadanbar/internal/session"
	"github.com/cpuguy83/ramadanbar/internal/sync"
	"github.com/cpuguy83/ramadanbar/internal/tray"
	"github.com/cpuguy83/ramadanbar/internal/ui"
	"github.com/cpuguy83/ramadanbar/internal/ui/menu"

	"github.com/robfig/cron/v3"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config file (default: ~/.config/ramadanbar/config.yaml)")
		verbose    = flag.Bool("v", false, "verbose logging")
		district   = flag.String("district", "", "district to show (overrides config)")
		printOnce  = flag.Bool("print", false, "print the current status and schedule, then exit")
		exportOnce = flag.Bool("export", false, "export the schedule to the configured ICS file and CalDAV calendar, then exit")
	)
	flag.Parse()

	// Setup logging
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Load configuration
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFrom(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *district != "" {
		cfg.District = *district
	}

	if *printOnce || *exportOnce {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if *printOnce {
			err = runPrint(ctx, cfg, os.Stdout)
		}
		if err == nil && *exportOnce {
			err = runExport(ctx, cfg)
		}
		if err != nil {
			slog.Error("failed", "error", err)
			os.Exit(1)
		}
		return
	}

	slog.Info("starting ramadanbar",
		"district", cfg.District,
		"source", cfg.Schedule.Type,
		"backend", cfg.UI.Backend,
	)

	app := &App{
		cfg:    cfg,
		labels: labels.For(cfg.UI.Language),
	}

	if err := app.Run(); err != nil {
		slog.Error("app failed", "error", err)
		os.Exit(1)
	}
}

// App is the main ramadanbar application.
type App struct {
	cfg      *config.Config
	labels   labels.Set
	tray     *tray.Tray
	ui       ui.UI
	notifier *notify.Notifier
	loader   *sync.Loader
	session  *session.Session
	cron     *cron.Cron

	exporter *exporter

	mu          gosync.Mutex
	exported    string // district last exported
	eventsError string // last reported reminder build error

	// Context for background goroutines
	ctx    context.Context
	cancel context.CancelFunc
}

// activate wires the loader, session, display and tray together and starts
// the background goroutines.
func (a *App) activate() error {
	var err error

	// Create context for background goroutines
	a.ctx, a.cancel = context.WithCancel(context.Background())

	a.loader, err = sync.NewLoader(a.cfg)
	if err != nil {
		return fmt.Errorf("create loader: %w", err)
	}

	a.ui, err = a.createUI()
	if err != nil {
		return fmt.Errorf("create UI: %w", err)
	}
	if err := a.ui.Init(); err != nil {
		return fmt.Errorf("init UI: %w", err)
	}

	a.session = session.New(session.Config{
		District:    a.cfg.District,
		Tick:        a.cfg.Countdown.Tick,
		ExpiryDelay: a.cfg.Countdown.ExpiryDelay,
	}, a.ui)
	a.session.Observe(a.onSnapshot)

	a.ui.OnSelect(a.session.Select)
	a.ui.OnSearch(a.session.Search)
	a.ui.OnDropdown(a.session.SetDropdownOpen)

	// Initialize tray
	a.tray, err = tray.New()
	if err != nil {
		return fmt.Errorf("create tray: %w", err)
	}

	// Set tray click handler to toggle the UI
	a.tray.OnActivate(func() {
		slog.Debug("tray activated, toggling UI")
		a.ui.Toggle()
	})

	if err := a.tray.Start(); err != nil {
		return fmt.Errorf("start tray: %w", err)
	}

	// Initialize notifications
	if a.cfg.Notifications.Enabled {
		a.notifier, err = notify.New("Ramadanbar")
		if err != nil {
			slog.Warn("failed to initialize notifications", "error", err)
		} else {
			if err := a.notifier.WatchActions(func(id uint32, actionKey string) {
				slog.Debug("notification action", "id", id, "action", actionKey)
				a.ui.Show()
			}); err != nil {
				slog.Warn("failed to watch notification actions", "error", err)
			}

			if err := a.startDigest(); err != nil {
				return err
			}

			go a.notificationLoop()
		}
	}

	go func() {
		if err := a.session.Run(a.ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("session stopped", "error", err)
		}
	}()
	go a.loader.Run(a.ctx, a.session.Loaded)

	if exportConfigured(a.cfg) {
		a.exporter = newExporter(func(ctx context.Context, district schedule.District, days []schedule.DayRecord) error {
			return export(ctx, a.cfg, district, days)
		})
		go a.exporter.Run(a.ctx)
	}

	slog.Info("ramadanbar running", "retry_interval", a.loader.Interval())
	return nil
}

// createUI creates the configured UI backend.
func (a *App) createUI() (ui.UI, error) {
	if a.useGTK() {
		return ui.NewGTK(ui.Config{Language: a.cfg.UI.Language}), nil
	}
	return menu.New(menu.Config{
		Program:  a.cfg.UI.Program,
		Args:     a.cfg.UI.Args,
		Language: a.cfg.UI.Language,
	})
}

// startDigest schedules the daily summary notification.
func (a *App) startDigest() error {
	if a.cfg.Notifications.Digest == "" {
		return nil
	}

	a.cron = cron.New()
	if _, err := a.cron.AddFunc(a.cfg.Notifications.Digest, a.sendDigest); err != nil {
		return fmt.Errorf("invalid digest schedule %q: %w", a.cfg.Notifications.Digest, err)
	}
	a.cron.Start()
	slog.Debug("digest scheduled", "schedule", a.cfg.Notifications.Digest)
	return nil
}

// cleanup releases resources when the app is shutting down.
func (a *App) cleanup() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.cron != nil {
		<-a.cron.Stop().Done()
	}
	if a.tray != nil {
		a.tray.Stop()
	}
	if a.notifier != nil {
		a.notifier.Close()
	}
}

// onSnapshot mirrors session changes onto the tray and keeps the calendar
// export in step with the selected district.
func (a *App) onSnapshot(snap session.Snapshot) {
	a.tray.SetState(tray.StateFor(snap, time.Now(), a.cfg.Countdown.Imminent))
	a.tray.SetTooltip(tray.Tooltip(snap, a.labels))

	if !snap.Loaded || snap.Err != nil || snap.District.ID == "" {
		return
	}

	a.mu.Lock()
	changed := a.exported != snap.District.ID
	a.exported = snap.District.ID
	a.mu.Unlock()

	if changed && a.exporter != nil {
		a.exporter.Request(snap.District, snap.Days)
	}
}

// notificationLoop checks for upcoming events and sends reminders.
func (a *App) notificationLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkNotifications(time.Now())
		case <-a.ctx.Done():
			return
		}
	}
}

// checkNotifications sends the reminders due at now.
func (a *App) checkNotifications(now time.Time) {
	snap := a.session.Snapshot()
	if !snap.Loaded || snap.Err != nil {
		return
	}

	events, err := calendar.Events(snap.District, snap.Days, now.Location())
	if a.noteEventsError(err) {
		slog.Warn("malformed schedule records get no reminders", "district", snap.District.ID, "error", err)
	}

	for _, r := range notify.Due(events, now, a.cfg.Notifications.Before) {
		if _, err := a.notifier.Send(r.Notification(a.labels, now)); err != nil {
			slog.Warn("failed to send notification", "error", err)
		}
	}

	a.notifier.CleanupOldNotifications(48 * time.Hour)
}

// noteEventsError records the latest error from building reminder events and
// reports whether it differs from the previous one, so each problem is
// logged once instead of on every check.
func (a *App) noteEventsError(err error) bool {
	msg := ""
	if err != nil {
		msg = err.Error()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	changed := msg != a.eventsError
	a.eventsError = msg
	return changed && err != nil
}

// sendDigest sends the daily summary for the selected district.
func (a *App) sendDigest() {
	snap := a.session.Snapshot()
	if !snap.Loaded || snap.Err != nil {
		return
	}

	n, err := notify.Digest(snap.District.DisplayName(a.labels.Lang), snap.Result, time.Local, a.labels)
	if err != nil {
		slog.Warn("failed to build digest", "error", err)
		return
	}
	if _, err := a.notifier.Send(n); err != nil {
		slog.Warn("failed to send digest", "error", err)
	}
}

// loadDistrict loads the schedule once and returns the configured district,
// falling back to the first one.
func loadDistrict(ctx context.Context, cfg *config.Config) (schedule.District, []schedule.DayRecord, error) {
	loader, err := sync.NewLoader(cfg)
	if err != nil {
		return schedule.District{}, nil, err
	}
	data, err := loader.Load(ctx)
	if err != nil {
		return schedule.District{}, nil, err
	}

	district, err := data.District(cfg.District)
	if err != nil {
		if len(data.Districts) == 0 {
			return schedule.District{}, nil, err
		}
		slog.Warn("configured district not found, using first district", "district", cfg.District)
		district = data.Districts[0]
	}
	return district, data.Days(district.ID), nil
}

// runPrint resolves the schedule once and writes a plain-text report.
func runPrint(ctx context.Context, cfg *config.Config, w io.Writer) error {
	district, days, err := loadDistrict(ctx, cfg)
	if err != nil {
		return err
	}

	now := time.Now()
	res, err := schedule.Resolve(days, now)
	if err != nil {
		return err
	}
	return writeReport(w, labels.For(cfg.UI.Language), district, days, res, now)
}

// writeReport writes the countdown, today's times and the month table.
func writeReport(w io.Writer, l labels.Set, district schedule.District, days []schedule.DayRecord, res schedule.Result, now time.Time) error {
	fmt.Fprintf(w, "%s · %s\n", l.Title, district.DisplayName(l.Lang))

	if res.Ended() {
		fmt.Fprintf(w, "%s %s\n", l.Ended, l.EidMubarak)
	} else {
		remaining := time.Duration(countdown.Remaining(res.Next.Target, now)) * time.Second
		fmt.Fprintf(w, "%s: %s (%s %s)\n", l.Countdown(res.Next.Type), countdown.Format(remaining),
			l.TargetTime, labels.FormatTime(res.Next.Target))
	}

	title, date := ui.TodayHeading(res, l, now.Format(schedule.DateLayout))
	fmt.Fprintf(w, "%s, %s\n\n", title, date)

	fmt.Fprintf(w, "  %-4s %-12s %-10s %-9s %s\n", l.Fast, l.Date, "", l.SehriEnds, l.IftarStarts)
	for _, r := range ui.Rows(days, res.CurrentDay) {
		marker := "  "
		if r.Current {
			marker = "> "
		}
		fmt.Fprintf(w, "%s%-4d %-12s %-10s %-9s %s\n", marker, r.Ramadan, r.Date, r.Weekday, r.Sehri, r.Iftar)
	}
	return nil
}
