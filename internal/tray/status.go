package tray

import (
	"fmt"
	"time"

	"github.com/cpuguy83/ramadanbar/internal/labels"
	"github.com/cpuguy83/ramadanbar/internal/session"
)

// StateFor derives the icon state from a session snapshot.
func StateFor(snap session.Snapshot, now time.Time, imminent time.Duration) State {
	switch {
	case snap.Err != nil:
		return StateStale
	case !snap.Loaded:
		return StateNormal
	case snap.Result.Ended():
		return StateEnded
	}

	until := snap.Result.Next.Target.Sub(now)
	if until > 0 && until <= imminent {
		return StateImminent
	}
	return StateNormal
}

// Tooltip renders the tooltip title and body for a snapshot.
func Tooltip(snap session.Snapshot, l labels.Set) (title, body string) {
	title = l.Title
	if snap.District.ID != "" {
		title = fmt.Sprintf("%s · %s", l.Title, snap.District.DisplayName(l.Lang))
	}

	switch {
	case snap.Err != nil && !snap.Loaded:
		return title, fmt.Sprintf("%s: %v", l.LoadFailed, snap.Err)
	case snap.Err != nil:
		return title, fmt.Sprintf("%s: %v", l.InvalidRecord, snap.Err)
	case !snap.Loaded:
		return title, l.Loading
	case snap.Result.Ended():
		return title, fmt.Sprintf("%s\n%s", l.Ended, l.EidMubarak)
	}

	next := snap.Result.Next
	return title, fmt.Sprintf("%s\n%s\n%s %s",
		l.Countdown(next.Type),
		snap.Countdown,
		l.TargetTime, labels.FormatTime(next.Target))
}
