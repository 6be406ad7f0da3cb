//go:build !nogtk && cgo

package ui

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cpuguy83/ramadanbar/internal/labels"
	"github.com/cpuguy83/ramadanbar/internal/schedule"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

// Popup is the main popup window showing the countdown and the month's
// schedule for the selected district.
type Popup struct {
	*View

	labels labels.Set

	window    *gtk.Window
	content   *gtk.Box
	title     *gtk.Label
	statusBar *gtk.Label

	districtButton *gtk.MenuButton
	districtSearch *gtk.SearchEntry
	districtList   *gtk.ListBox
	listed         []schedule.District // districts in districtList order

	countdownCard    *gtk.Box
	countdownHeading *gtk.Label
	countdownValue   *gtk.Label
	countdownTarget  *gtk.Label

	todayTitle *gtk.Label
	todayDate  *gtk.Label
	todaySehri *gtk.Label
	todayIftar *gtk.Label

	table *gtk.ListBox

	dismissTimer glib.SourceHandle

	onSelect   func(id string)
	onSearch   func(query string)
	onDropdown func(open bool)
}

// NewPopup creates a new popup window.
func NewPopup(cfg Config) *Popup {
	return &Popup{
		View:   NewView(),
		labels: labels.For(cfg.Language),
	}
}

// Init initializes the GTK widgets. Must be called from GTK main thread.
func (p *Popup) Init() {
	// Initialize libadwaita for automatic dark/light mode support
	adw.Init()

	p.window = gtk.NewWindow()
	p.window.SetTitle(p.labels.Title)
	p.window.SetDefaultSize(420, 640)

	// Layer shell setup for Wayland compositors
	if gtk4layershell.IsSupported() {
		slog.Debug("layer shell supported")
		gtk4layershell.InitForWindow(p.window)
		gtk4layershell.SetLayer(p.window, gtk4layershell.LayerShellLayerTop)
		gtk4layershell.SetAnchor(p.window, gtk4layershell.LayerShellEdgeTop, true)
		gtk4layershell.SetAnchor(p.window, gtk4layershell.LayerShellEdgeRight, true)
		gtk4layershell.SetMargin(p.window, gtk4layershell.LayerShellEdgeTop, 8)
		gtk4layershell.SetMargin(p.window, gtk4layershell.LayerShellEdgeRight, 8)
		gtk4layershell.SetKeyboardMode(p.window, gtk4layershell.LayerShellKeyboardModeOnDemand)
		gtk4layershell.SetNamespace(p.window, "ramadanbar-popup")
		p.window.SetDecorated(false)

		// Auto-dismiss on focus loss, unless the district picker has focus
		p.window.NotifyProperty("is-active", func() {
			if !p.window.IsVisible() {
				return
			}
			if p.window.IsActive() {
				if p.dismissTimer != 0 {
					glib.SourceRemove(p.dismissTimer)
					p.dismissTimer = 0
				}
				return
			}
			if p.dismissTimer == 0 {
				p.dismissTimer = glib.TimeoutAdd(300, func() bool {
					if p.window.IsVisible() && !p.window.IsActive() && !p.districtButton.Active() {
						p.hideAll()
					}
					p.dismissTimer = 0
					return false
				})
			}
		})
	}

	// Hide on close request
	p.window.ConnectCloseRequest(func() bool {
		p.window.SetVisible(false)
		return true
	})

	// Escape to close
	keyController := gtk.NewEventControllerKey()
	keyController.ConnectKeyPressed(func(keyval, keycode uint, state gdk.ModifierType) bool {
		if keyval == gdk.KEY_Escape {
			p.hideAll()
			return true
		}
		return false
	})
	p.window.AddController(keyController)

	p.buildUI()
	p.applyCSS()
	p.refresh()
}

// buildUI constructs the widget hierarchy.
func (p *Popup) buildUI() {
	p.content = gtk.NewBox(gtk.OrientationVertical, 0)
	p.content.AddCSSClass("popup-container")
	p.window.SetChild(p.content)

	p.content.Append(p.buildHeader())
	p.content.Append(p.buildCountdownCard())
	p.content.Append(p.buildTodayCard())

	section := gtk.NewLabel(p.labels.FullSchedule)
	section.AddCSSClass("section-title")
	section.SetXAlign(0)
	p.content.Append(section)

	scrolled := gtk.NewScrolledWindow()
	scrolled.SetVExpand(true)
	scrolled.SetPolicy(gtk.PolicyNever, gtk.PolicyAutomatic)
	scrolled.AddCSSClass("table-scroll")
	p.content.Append(scrolled)

	p.table = gtk.NewListBox()
	p.table.SetSelectionMode(gtk.SelectionNone)
	p.table.AddCSSClass("schedule-table")
	scrolled.SetChild(p.table)

	p.statusBar = gtk.NewLabel("")
	p.statusBar.AddCSSClass("status-bar")
	p.statusBar.SetXAlign(0)
	p.content.Append(p.statusBar)
}

// buildHeader creates the header with the title and the district picker.
func (p *Popup) buildHeader() *gtk.Box {
	header := gtk.NewBox(gtk.OrientationHorizontal, 0)
	header.AddCSSClass("popup-header")

	icon := gtk.NewImageFromIconName("weather-clear-night-symbolic")
	icon.AddCSSClass("header-icon")
	icon.SetPixelSize(20)
	header.Append(icon)

	titles := gtk.NewBox(gtk.OrientationVertical, 0)
	titles.SetHExpand(true)
	header.Append(titles)

	p.title = gtk.NewLabel(p.labels.Title)
	p.title.AddCSSClass("header-title")
	p.title.SetXAlign(0)
	titles.Append(p.title)

	subtitle := gtk.NewLabel(p.labels.Subtitle)
	subtitle.AddCSSClass("header-subtitle")
	subtitle.SetXAlign(0)
	titles.Append(subtitle)

	header.Append(p.buildDistrictPicker())
	return header
}

// buildDistrictPicker creates the searchable district dropdown.
func (p *Popup) buildDistrictPicker() *gtk.MenuButton {
	p.districtButton = gtk.NewMenuButton()
	p.districtButton.AddCSSClass("district-button")
	p.districtButton.SetLabel(p.labels.SelectPrompt)

	popover := gtk.NewPopover()
	popover.AddCSSClass("district-popover")

	box := gtk.NewBox(gtk.OrientationVertical, 6)
	popover.SetChild(box)

	p.districtSearch = gtk.NewSearchEntry()
	p.districtSearch.SetPlaceholderText(p.labels.SearchPrompt)
	p.districtSearch.ConnectSearchChanged(func() {
		if p.onSearch != nil {
			p.onSearch(p.districtSearch.Text())
		}
	})
	box.Append(p.districtSearch)

	scrolled := gtk.NewScrolledWindow()
	scrolled.SetPolicy(gtk.PolicyNever, gtk.PolicyAutomatic)
	scrolled.SetMinContentHeight(240)
	box.Append(scrolled)

	p.districtList = gtk.NewListBox()
	p.districtList.SetSelectionMode(gtk.SelectionNone)
	p.districtList.AddCSSClass("district-list")
	p.districtList.ConnectRowActivated(func(row *gtk.ListBoxRow) {
		i := row.Index()
		if i < 0 || i >= len(p.listed) {
			return
		}
		id := p.listed[i].ID
		slog.Debug("district picked", "district", id)
		popover.Popdown()
		if p.onSelect != nil {
			p.onSelect(id)
		}
	})
	scrolled.SetChild(p.districtList)

	popover.ConnectShow(func() {
		p.districtSearch.GrabFocus()
		if p.onDropdown != nil {
			p.onDropdown(true)
		}
	})
	popover.ConnectClosed(func() {
		p.districtSearch.SetText("")
		if p.onDropdown != nil {
			p.onDropdown(false)
		}
	})

	p.districtButton.SetPopover(popover)
	return p.districtButton
}

// buildCountdownCard creates the card showing time left until the next event.
func (p *Popup) buildCountdownCard() *gtk.Box {
	p.countdownCard = gtk.NewBox(gtk.OrientationVertical, 4)
	p.countdownCard.AddCSSClass("countdown-card")

	p.countdownHeading = gtk.NewLabel("")
	p.countdownHeading.AddCSSClass("countdown-heading")
	p.countdownCard.Append(p.countdownHeading)

	p.countdownValue = gtk.NewLabel("")
	p.countdownValue.AddCSSClass("countdown-value")
	p.countdownCard.Append(p.countdownValue)

	p.countdownTarget = gtk.NewLabel("")
	p.countdownTarget.AddCSSClass("countdown-target")
	p.countdownCard.Append(p.countdownTarget)

	return p.countdownCard
}

// buildTodayCard creates the card with the current day's times.
func (p *Popup) buildTodayCard() *gtk.Box {
	card := gtk.NewBox(gtk.OrientationHorizontal, 12)
	card.AddCSSClass("today-card")
	card.SetHomogeneous(true)

	day := gtk.NewBox(gtk.OrientationVertical, 2)
	p.todayTitle = gtk.NewLabel("")
	p.todayTitle.AddCSSClass("today-title")
	day.Append(p.todayTitle)
	p.todayDate = gtk.NewLabel("")
	p.todayDate.AddCSSClass("today-date")
	day.Append(p.todayDate)
	card.Append(day)

	var sehri, iftar *gtk.Box
	sehri, p.todaySehri = p.timeBox(p.labels.SehriEnds, "sehri")
	iftar, p.todayIftar = p.timeBox(p.labels.IftarStarts, "iftar")
	card.Append(sehri)
	card.Append(iftar)

	return card
}

func (p *Popup) timeBox(caption, class string) (*gtk.Box, *gtk.Label) {
	box := gtk.NewBox(gtk.OrientationVertical, 2)
	box.AddCSSClass(class)

	label := gtk.NewLabel(caption)
	label.AddCSSClass("time-caption")
	box.Append(label)

	value := gtk.NewLabel("--:--")
	value.AddCSSClass("time-value")
	box.Append(value)

	return box, value
}

// applyCSS applies custom styling with libadwaita color variables.
func (p *Popup) applyCSS() {
	css := `
		.popup-container {
			background: @window_bg_color;
			border-radius: 12px;
			border: 1px solid alpha(@borders, 0.5);
		}

		.popup-header {
			padding: 16px 16px 12px 16px;
			border-bottom: 1px solid alpha(@borders, 0.3);
		}

		.header-icon {
			margin-right: 10px;
			color: @success_color;
		}

		.header-title {
			font-size: 15px;
			font-weight: 600;
			letter-spacing: 0.3px;
		}

		.header-subtitle {
			font-size: 10px;
			color: alpha(@view_fg_color, 0.6);
			text-transform: uppercase;
		}

		.district-button {
			border-radius: 8px;
		}

		.countdown-card {
			margin: 12px 16px 0 16px;
			padding: 16px;
			border-radius: 12px;
			background: alpha(@success_color, 0.08);
			border: 1px solid alpha(@success_color, 0.2);
		}

		.countdown-card.ended {
			background: alpha(@view_fg_color, 0.04);
			border-color: alpha(@borders, 0.3);
		}

		.countdown-heading {
			font-size: 12px;
			color: alpha(@view_fg_color, 0.7);
		}

		.countdown-value {
			font-family: monospace;
			font-size: 32px;
			font-weight: 700;
			color: @view_fg_color;
		}

		.countdown-target {
			font-size: 12px;
			color: alpha(@view_fg_color, 0.6);
		}

		.today-card {
			margin: 12px 16px;
			padding: 12px;
			border-radius: 12px;
			background: alpha(@view_bg_color, 0.5);
			border: 1px solid alpha(@borders, 0.3);
		}

		.today-title {
			font-size: 16px;
			font-weight: 600;
		}

		.today-date, .time-caption {
			font-size: 11px;
			color: alpha(@view_fg_color, 0.6);
		}

		.time-value {
			font-family: monospace;
			font-size: 15px;
			font-weight: 600;
		}

		.sehri .time-caption {
			color: @accent_color;
		}

		.iftar .time-caption {
			color: @warning_color;
		}

		.section-title {
			padding: 4px 16px 6px 16px;
			font-size: 11px;
			font-weight: 600;
			color: alpha(@view_fg_color, 0.5);
			text-transform: uppercase;
			letter-spacing: 0.5px;
		}

		.table-scroll, .schedule-table {
			background: transparent;
		}

		.schedule-row {
			padding: 8px 16px;
			border-bottom: 1px solid alpha(@borders, 0.15);
			border-left: 4px solid transparent;
		}

		.schedule-row.current {
			background: alpha(@success_color, 0.1);
			border-left-color: @success_color;
		}

		.row-day {
			font-weight: 700;
			min-width: 28px;
		}

		.row-weekday {
			font-size: 11px;
			color: alpha(@view_fg_color, 0.5);
		}

		.row-time {
			font-family: monospace;
		}

		.status-bar {
			padding: 8px 16px;
			font-size: 11px;
			color: alpha(@view_fg_color, 0.5);
			border-top: 1px solid alpha(@borders, 0.2);
			background: alpha(@view_bg_color, 0.5);
			border-radius: 0 0 12px 12px;
		}

		.status-bar.stale {
			color: @warning_color;
		}

		.empty-districts {
			padding: 16px;
			font-size: 12px;
			color: alpha(@view_fg_color, 0.5);
		}
	`

	provider := gtk.NewCSSProvider()
	provider.LoadFromData(css)

	if display := gdk.DisplayGetDefault(); display != nil {
		gtk.StyleContextAddProviderForDisplay(display, provider, gtk.STYLE_PROVIDER_PRIORITY_APPLICATION)
	}
}

// Show shows the popup window.
func (p *Popup) Show() {
	if p.window == nil {
		return
	}
	glib.IdleAdd(func() {
		p.refresh()
		p.window.SetVisible(true)
		p.window.Present()
	})
}

// Hide hides the popup window.
func (p *Popup) Hide() {
	if p.window == nil {
		return
	}
	glib.IdleAdd(p.hideAll)
}

func (p *Popup) hideAll() {
	p.window.SetVisible(false)
	if p.dismissTimer != 0 {
		glib.SourceRemove(p.dismissTimer)
		p.dismissTimer = 0
	}
}

// Toggle shows or hides the popup.
func (p *Popup) Toggle() {
	if p.window == nil {
		return
	}
	glib.IdleAdd(func() {
		if p.window.IsVisible() {
			p.hideAll()
		} else {
			p.refresh()
			p.window.SetVisible(true)
			p.window.Present()
		}
	})
}

// SetLoading marks the schedule as loading.
func (p *Popup) SetLoading(loading bool) {
	p.View.SetLoading(loading)
	p.idle(p.updateStatusBar)
}

// SetError shows err in the status bar.
func (p *Popup) SetError(err error) {
	p.View.SetError(err)
	p.idle(p.updateStatusBar)
}

// SetDistricts updates the district picker.
func (p *Popup) SetDistricts(districts []schedule.District, selected string) {
	p.View.SetDistricts(districts, selected)
	p.idle(p.updateDistricts)
}

// SetSchedule updates everything derived from the resolution.
func (p *Popup) SetSchedule(district schedule.District, days []schedule.DayRecord, res schedule.Result) {
	p.View.SetSchedule(district, days, res)
	p.idle(p.refresh)
}

// SetCountdown updates the countdown label only.
func (p *Popup) SetCountdown(text string) {
	p.View.SetCountdown(text)
	p.idle(p.updateCountdownValue)
}

// OnSelect sets the callback for district selection.
func (p *Popup) OnSelect(fn func(id string)) {
	p.onSelect = fn
}

// OnSearch sets the callback for search text changes.
func (p *Popup) OnSearch(fn func(query string)) {
	p.onSearch = fn
}

// OnDropdown sets the callback for the district picker opening or closing.
func (p *Popup) OnDropdown(fn func(open bool)) {
	p.onDropdown = fn
}

// idle runs fn on the GTK main loop once widgets exist.
func (p *Popup) idle(fn func()) {
	if p.window == nil {
		return
	}
	glib.IdleAdd(fn)
}

// refresh redraws every section from the view state.
func (p *Popup) refresh() {
	if p.content == nil {
		return
	}

	state := p.State()

	p.updateTitle(state)
	p.updateDistricts()
	p.updateCountdown(state)
	p.updateToday(state)
	p.updateTable(state)
	p.updateStatusBar()
}

func (p *Popup) updateTitle(state ViewState) {
	title := p.labels.Title
	if len(state.Days) > 0 && len(state.Days[0].Date) >= 4 {
		title = fmt.Sprintf("%s %s", p.labels.Title, state.Days[0].Date[:4])
	}
	p.title.SetText(title)
}

// updateDistricts rebuilds the district list from the latest search result.
func (p *Popup) updateDistricts() {
	if p.districtList == nil {
		return
	}

	state := p.State()

	label := p.labels.SelectPrompt
	if state.District.ID != "" {
		label = state.District.DisplayName(p.labels.Lang)
	}
	p.districtButton.SetLabel(label)

	for child := p.districtList.FirstChild(); child != nil; child = p.districtList.FirstChild() {
		p.districtList.Remove(child)
	}

	p.listed = state.Districts
	if len(p.listed) == 0 {
		empty := gtk.NewLabel(p.labels.NoDistricts)
		empty.AddCSSClass("empty-districts")
		p.districtList.Append(empty)
		return
	}

	for _, d := range p.listed {
		row := gtk.NewBox(gtk.OrientationHorizontal, 8)
		row.AddCSSClass("district-row")

		name := gtk.NewLabel(d.DisplayName(p.labels.Lang))
		name.SetXAlign(0)
		name.SetHExpand(true)
		row.Append(name)

		if d.ID == state.Selected {
			check := gtk.NewImageFromIconName("object-select-symbolic")
			row.Append(check)
		}

		p.districtList.Append(row)
	}
}

func (p *Popup) updateCountdown(state ViewState) {
	res := state.Result
	if res.Ended() {
		p.countdownCard.AddCSSClass("ended")
		p.countdownHeading.SetText(p.labels.Ended)
		p.countdownValue.SetText(p.labels.EidMubarak)
		p.countdownTarget.SetText("")
		return
	}

	p.countdownCard.RemoveCSSClass("ended")
	p.countdownHeading.SetText(p.labels.Countdown(res.Next.Type))
	p.countdownValue.SetText(state.Countdown)
	p.countdownTarget.SetText(fmt.Sprintf("%s %s", p.labels.TargetTime, labels.FormatTime(res.Next.Target)))
}

// updateCountdownValue is the per-tick update.
func (p *Popup) updateCountdownValue() {
	if p.countdownValue == nil {
		return
	}
	state := p.State()
	if state.Result.Ended() {
		return
	}
	p.countdownValue.SetText(state.Countdown)
}

func (p *Popup) updateToday(state ViewState) {
	title, date := TodayHeading(state.Result, p.labels, time.Now().Format(schedule.DateLayout))
	p.todayTitle.SetText(title)
	p.todayDate.SetText(date)

	sehri, iftar := "--:--", "--:--"
	if day := state.Result.CurrentDay; day != nil {
		sehri, iftar = day.Sehri, day.Iftar
	}
	p.todaySehri.SetText(sehri)
	p.todayIftar.SetText(iftar)
}

// updateTable rebuilds the month table.
func (p *Popup) updateTable(state ViewState) {
	for child := p.table.FirstChild(); child != nil; child = p.table.FirstChild() {
		p.table.Remove(child)
	}

	header := p.tableRow(p.labels.Fast, p.labels.Date, "", p.labels.SehriEnds, p.labels.IftarStarts)
	header.AddCSSClass("table-header")
	p.table.Append(header)

	for _, r := range Rows(state.Days, state.Result.CurrentDay) {
		row := p.tableRow(fmt.Sprint(r.Ramadan), r.Date, r.Weekday, r.Sehri, r.Iftar)
		if r.Current {
			row.AddCSSClass("current")
		}
		p.table.Append(row)
	}
}

func (p *Popup) tableRow(day, date, weekday, sehri, iftar string) *gtk.Box {
	row := gtk.NewBox(gtk.OrientationHorizontal, 12)
	row.AddCSSClass("schedule-row")

	dayLabel := gtk.NewLabel(day)
	dayLabel.AddCSSClass("row-day")
	row.Append(dayLabel)

	dateBox := gtk.NewBox(gtk.OrientationVertical, 0)
	dateBox.SetHExpand(true)
	dateLabel := gtk.NewLabel(date)
	dateLabel.SetXAlign(0)
	dateBox.Append(dateLabel)
	if weekday != "" {
		wd := gtk.NewLabel(weekday)
		wd.AddCSSClass("row-weekday")
		wd.SetXAlign(0)
		dateBox.Append(wd)
	}
	row.Append(dateBox)

	for _, t := range []string{sehri, iftar} {
		l := gtk.NewLabel(t)
		l.AddCSSClass("row-time")
		l.SetWidthChars(9)
		row.Append(l)
	}

	return row
}

// updateStatusBar updates the status bar text.
func (p *Popup) updateStatusBar() {
	if p.statusBar == nil {
		return
	}

	state := p.State()
	text := StatusText(state, p.labels)

	p.statusBar.RemoveCSSClass("stale")
	if state.Err != nil {
		p.statusBar.AddCSSClass("stale")
	}
	if text == "" {
		text = fmt.Sprintf("%s • %s", state.District.DisplayName(p.labels.Lang), p.labels.Subtitle)
	}
	p.statusBar.SetText(text)
}
