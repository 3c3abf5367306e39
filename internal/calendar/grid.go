package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/clinic-portal/internal/appointments"
)

// ViewMode selects the calendar layout.
type ViewMode string

const (
	ViewDay   ViewMode = "day"
	ViewWeek  ViewMode = "week"
	ViewMonth ViewMode = "month"
)

const (
	// FirstHour and LastHour bound the hourly slots shown in day and week views.
	FirstHour = 8
	LastHour  = 18
	// SlotsPerDay is the number of hourly slots, 08:00 through 18:00.
	SlotsPerDay = LastHour - FirstHour + 1
	// MonthDayLimit caps the appointments listed in a month cell.
	MonthDayLimit = 3
)

// ParseViewMode accepts day, week or month. An empty value means week.
func ParseViewMode(raw string) (ViewMode, error) {
	switch mode := ViewMode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case "":
		return ViewWeek, nil
	case ViewDay, ViewWeek, ViewMonth:
		return mode, nil
	default:
		return "", fmt.Errorf("calendar: unknown view mode %q", raw)
	}
}

// Slot is one hour of one day.
type Slot struct {
	Start        time.Time                  `json:"start"`
	Hour         int                        `json:"hour"`
	Appointments []appointments.Appointment `json:"appointments"`
}

// Day is a column in day/week views or a cell in month view.
type Day struct {
	Date    time.Time `json:"date"`
	InMonth bool      `json:"inMonth"`
	Slots   []Slot    `json:"slots,omitempty"`
	// Appointments holds at most MonthDayLimit entries in month view.
	Appointments []appointments.Appointment `json:"appointments,omitempty"`
	Overflow     int                        `json:"overflow,omitempty"`
	Total        int                        `json:"total,omitempty"`

	all []appointments.Appointment
}

// Grid is the rendered calendar for a reference date and view mode.
type Grid struct {
	Mode      ViewMode  `json:"mode"`
	Reference time.Time `json:"reference"`
	Title     string    `json:"title"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
	Days      []Day     `json:"days"`

	loc   *time.Location
	index map[string]int
}

// Build produces the empty grid for ref in mode, using loc as the viewer's zone.
func Build(ref time.Time, mode ViewMode, loc *time.Location) *Grid {
	if loc == nil {
		loc = ref.Location()
	}
	local := ref.In(loc)
	// Grid arithmetic runs on civil dates held in UTC; only the emitted
	// instants are resolved in loc.
	today := civilDate(local)

	var start time.Time
	var count int
	switch mode {
	case ViewDay:
		start, count = today, 1
	case ViewMonth:
		first := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, time.UTC)
		last := first.AddDate(0, 1, -1)
		start = first.AddDate(0, 0, -mondayOffset(first))
		end := last.AddDate(0, 0, 6-mondayOffset(last))
		count = daysBetween(start, end) + 1
	default:
		mode = ViewWeek
		start, count = today.AddDate(0, 0, -mondayOffset(today)), 7
	}

	g := &Grid{
		Mode:      mode,
		Reference: local,
		Days:      make([]Day, 0, count),
		loc:       loc,
		index:     make(map[string]int, count),
	}
	for i := 0; i < count; i++ {
		civil := start.AddDate(0, 0, i)
		day := Day{Date: startOfDay(civil, loc), InMonth: civil.Month() == local.Month()}
		if mode != ViewMonth {
			day.Slots = hourSlots(civil, loc)
		}
		g.index[dateKey(civil)] = len(g.Days)
		g.Days = append(g.Days, day)
	}
	g.From = startOfDay(start, loc)
	g.To = startOfDay(start.AddDate(0, 0, count), loc)
	g.Title = title(mode, local, g.Days)
	return g
}

// Place buckets appts into the grid by their local start date and hour,
// preserving the order of the input list within each bucket.
func (g *Grid) Place(appts []appointments.Appointment) *Grid {
	for _, appt := range appts {
		start := appt.StartTime.In(g.loc)
		idx, ok := g.index[dateKey(start)]
		if !ok {
			continue
		}
		day := &g.Days[idx]
		if g.Mode == ViewMonth {
			day.all = append(day.all, appt)
			continue
		}
		hour := start.Hour()
		if hour < FirstHour || hour > LastHour {
			continue
		}
		slot := &day.Slots[hour-FirstHour]
		slot.Appointments = append(slot.Appointments, appt)
	}
	if g.Mode == ViewMonth {
		for i := range g.Days {
			capMonthDay(&g.Days[i])
		}
	}
	return g
}

// Location is the zone the grid was built in.
func (g *Grid) Location() *time.Location {
	return g.loc
}

// DayAt returns the grid day matching t's local date.
func (g *Grid) DayAt(t time.Time) (Day, bool) {
	idx, ok := g.index[dateKey(t.In(g.loc))]
	if !ok {
		return Day{}, false
	}
	return g.Days[idx], true
}

func capMonthDay(day *Day) {
	day.Total = len(day.all)
	if day.Total > MonthDayLimit {
		day.Appointments = day.all[:MonthDayLimit]
		day.Overflow = day.Total - MonthDayLimit
		return
	}
	day.Appointments = day.all
	day.Overflow = 0
}

func hourSlots(civil time.Time, loc *time.Location) []Slot {
	y, m, d := civil.Date()
	slots := make([]Slot, 0, SlotsPerDay)
	for h := FirstHour; h <= LastHour; h++ {
		slots = append(slots, Slot{
			Start:        time.Date(y, m, d, h, 0, 0, 0, loc),
			Hour:         h,
			Appointments: []appointments.Appointment{},
		})
	}
	return slots
}

func title(mode ViewMode, ref time.Time, days []Day) string {
	switch mode {
	case ViewDay:
		return ref.Format("Monday, January 2, 2006")
	case ViewMonth:
		return ref.Format("January 2006")
	default:
		first, last := days[0].Date, days[len(days)-1].Date
		return first.Format("Jan 2") + " - " + last.Format("Jan 2, 2006")
	}
}

// civilDate is t's wall-clock date as midnight UTC.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// startOfDay is the first instant of the civil date in loc. Zones that
// spring forward at midnight begin the day at the end of the gap.
func startOfDay(civil time.Time, loc *time.Location) time.Time {
	y, m, d := civil.Date()
	t := time.Date(y, m, d, 0, 0, 0, 0, loc)
	for h := 1; h <= 3 && t.Day() != d; h++ {
		t = time.Date(y, m, d, h, 0, 0, 0, loc)
	}
	return t
}

// mondayOffset is the number of days since the most recent Monday.
func mondayOffset(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
