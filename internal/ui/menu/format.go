package menu

import (
	"fmt"
	"strings"

	"github.com/cpuguy83/ramadanbar/internal/labels"
	"github.com/cpuguy83/ramadanbar/internal/schedule"
	"github.com/cpuguy83/ramadanbar/internal/ui"
)

const (
	separatorPrefix = "━━━━"
	backAction      = "← Back"
)

// summaryActions returns the selectable lines at the bottom of the summary.
func summaryActions(l labels.Set) (district, table string) {
	return "📍 " + l.SelectPrompt, "📅 " + l.FullSchedule
}

// formatSummary formats the main menu: countdown, today's times and actions.
func formatSummary(state ui.ViewState, l labels.Set, today string) []string {
	var lines []string

	title := l.Title
	if state.District.ID != "" {
		title = state.District.DisplayName(l.Lang)
	}
	lines = append(lines, separator(title))

	if status := ui.StatusText(state, l); status != "" {
		lines = append(lines, "  "+status)
	}

	if !state.Loading && state.Err == nil {
		if state.Result.Ended() {
			lines = append(lines, "  "+l.Ended, "  "+l.EidMubarak)
		} else {
			next := state.Result.Next
			lines = append(lines,
				fmt.Sprintf("  ⏳ %s: %s", l.Countdown(next.Type), state.Countdown),
				fmt.Sprintf("  %s %s", l.TargetTime, labels.FormatTime(next.Target)),
			)
		}

		dayTitle, date := ui.TodayHeading(state.Result, l, today)
		lines = append(lines, separator(dayTitle+" · "+date))
		if day := state.Result.CurrentDay; day != nil {
			lines = append(lines,
				fmt.Sprintf("  %s: %s", l.SehriEnds, day.Sehri),
				fmt.Sprintf("  %s: %s", l.IftarStarts, day.Iftar),
			)
		}
	}

	district, table := summaryActions(l)
	lines = append(lines, "", district)
	if len(state.Days) > 0 {
		lines = append(lines, table)
	}
	return lines
}

// formatDistrictList formats districts for the picker. Returns lines to
// display and a map of trimmed line -> district ID.
func formatDistrictList(districts []schedule.District, selected string, l labels.Set) ([]string, map[string]string) {
	lines := []string{separator(l.SelectPrompt)}
	ids := make(map[string]string, len(districts))

	for _, d := range districts {
		prefix := "  "
		if d.ID == selected {
			prefix = "✓ "
		}
		line := prefix + d.DisplayName(l.Lang)
		lines = append(lines, line)
		// dmenu programs may strip leading whitespace
		ids[strings.TrimSpace(line)] = d.ID
	}

	if len(districts) == 0 {
		lines = append(lines, "  "+l.NoDistricts)
	}

	lines = append(lines, "", backAction)
	return lines, ids
}

// formatScheduleTable formats the month table, marking the current day.
func formatScheduleTable(state ui.ViewState, l labels.Set) []string {
	lines := []string{
		separator(l.FullSchedule),
		fmt.Sprintf("  %-4s %-12s %-10s %-9s %s", l.Fast, l.Date, "", l.SehriEnds, l.IftarStarts),
	}

	for _, r := range ui.Rows(state.Days, state.Result.CurrentDay) {
		prefix := "  "
		if r.Current {
			prefix = "▶ "
		}
		lines = append(lines, fmt.Sprintf("%s%-4d %-12s %-10s %-9s %s", prefix, r.Ramadan, r.Date, r.Weekday, r.Sehri, r.Iftar))
	}

	lines = append(lines, "", backAction)
	return lines
}

func separator(title string) string {
	return fmt.Sprintf("%s %s %s", separatorPrefix, title, separatorPrefix)
}

// isSeparator returns true if the line is a visual separator (not selectable).
func isSeparator(line string) bool {
	return strings.HasPrefix(line, separatorPrefix) || line == ""
}

// isBackAction returns true if the line is the "Back" action.
func isBackAction(line string) bool {
	return line == backAction
}
