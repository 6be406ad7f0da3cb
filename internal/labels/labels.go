// Package labels holds the user-facing text in English and Bengali.
package labels

import (
	"fmt"
	"time"

	"github.com/cpuguy83/ramadanbar/internal/schedule"
)

// Display layouts.
const (
	DateLayout = "02 Jan 2006"
	TimeLayout = "03:04 PM"
)

// Set is one language's label set.
type Set struct {
	Lang string

	Title         string
	Subtitle      string
	SehriLeft     string
	IftarLeft     string
	SehriEnds     string
	IftarStarts   string
	TargetTime    string
	Ended         string
	EidMubarak    string
	Ramadan       string
	Fast          string
	Date          string
	FullSchedule  string
	SelectPrompt  string
	SearchPrompt  string
	NoDistricts   string
	Loading       string
	LoadFailed    string
	InvalidRecord string
}

var english = Set{
	Lang:          "en",
	Title:         "Ramadan",
	Subtitle:      "Sehri & Iftar Time",
	SehriLeft:     "Time left until Sehri ends",
	IftarLeft:     "Time left until Iftar",
	SehriEnds:     "Sehri ends",
	IftarStarts:   "Iftar starts",
	TargetTime:    "Time:",
	Ended:         "Ramadan is over!",
	EidMubarak:    "Eid Mubarak",
	Ramadan:       "Ramadan",
	Fast:          "Fast",
	Date:          "Date",
	FullSchedule:  "Full month schedule",
	SelectPrompt:  "Select a district",
	SearchPrompt:  "Search districts...",
	NoDistricts:   "No district found",
	Loading:       "Loading schedule...",
	LoadFailed:    "Schedule unavailable",
	InvalidRecord: "Invalid schedule record",
}

var bengali = Set{
	Lang:          "bn",
	Title:         "রমজান",
	Subtitle:      "সেহরি ও ইফতারের সময়",
	SehriLeft:     "সেহরির শেষ সময় বাকি",
	IftarLeft:     "ইফতারের সময় বাকি",
	SehriEnds:     "সেহরি শেষ",
	IftarStarts:   "ইফতার শুরু",
	TargetTime:    "সময়:",
	Ended:         "রমজান শেষ!",
	EidMubarak:    "ঈদ মোবারক",
	Ramadan:       "রমজান",
	Fast:          "রোজা",
	Date:          "তারিখ",
	FullSchedule:  "পুরো মাসের সময়সূচি",
	SelectPrompt:  "জেলা সিলেক্ট করুন",
	SearchPrompt:  "জেলা খুঁজুন...",
	NoDistricts:   "কোনো জেলা পাওয়া যায়নি",
	Loading:       "সময়সূচি লোড হচ্ছে...",
	LoadFailed:    "সময়সূচি পাওয়া যায়নি",
	InvalidRecord: "সময়সূচিতে ভুল তথ্য",
}

// For returns the label set for lang, falling back to English.
func For(lang string) Set {
	if lang == "bn" {
		return bengali
	}
	return english
}

// Countdown returns the heading shown above the countdown for an event.
func (s Set) Countdown(t schedule.EventType) string {
	if t == schedule.Sehri {
		return s.SehriLeft
	}
	return s.IftarLeft
}

// Event returns the short name of an event.
func (s Set) Event(t schedule.EventType) string {
	if t == schedule.Sehri {
		return s.SehriEnds
	}
	return s.IftarStarts
}

// RamadanDay returns "12 Ramadan", or just "Ramadan" when n is zero.
func (s Set) RamadanDay(n int) string {
	if n == 0 {
		return s.Ramadan
	}
	return fmt.Sprintf("%d %s", n, s.Ramadan)
}

// FormatDate formats a record's date as "02 Jan 2006". Unparseable dates are
// returned unchanged.
func FormatDate(date string) string {
	t, err := time.Parse(schedule.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format(DateLayout)
}

// FormatTime formats an instant as "03:04 PM".
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}
