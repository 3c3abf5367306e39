package calendar

import (
	"fmt"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/wolfman30/clinic-portal/internal/appointments"
)

func appt(id string, start time.Time) appointments.Appointment {
	return appointments.Appointment{ID: id, StartTime: start, EndTime: start.Add(30 * time.Minute)}
}

func TestWeekGridStartsMondayWithSevenConsecutiveDays(t *testing.T) {
	loc, _ := time.LoadLocation("America/New_York")
	ref := time.Date(2024, 1, 1, 12, 0, 0, 0, loc)
	for i := 0; i < 800; i++ {
		day := ref.AddDate(0, 0, i)
		g := Build(day, ViewWeek, loc)
		if len(g.Days) != 7 {
			t.Fatalf("%s: expected 7 days, got %d", day, len(g.Days))
		}
		if g.Days[0].Date.Weekday() != time.Monday {
			t.Fatalf("%s: expected monday start, got %s", day, g.Days[0].Date.Weekday())
		}
		for j := 1; j < 7; j++ {
			if !g.Days[j].Date.Equal(g.Days[j-1].Date.AddDate(0, 0, 1)) {
				t.Fatalf("%s: days not consecutive at %d", day, j)
			}
		}
		if _, ok := g.DayAt(day); !ok {
			t.Fatalf("%s: reference day missing from its week", day)
		}
		for _, d := range g.Days {
			if len(d.Slots) != SlotsPerDay {
				t.Fatalf("expected %d slots, got %d", SlotsPerDay, len(d.Slots))
			}
		}
	}
}

func TestMonthGridCoversFocalMonth(t *testing.T) {
	for year := 2023; year <= 2026; year++ {
		for month := time.January; month <= time.December; month++ {
			ref := time.Date(year, month, 15, 10, 0, 0, 0, time.UTC)
			g := Build(ref, ViewMonth, time.UTC)
			if len(g.Days)%7 != 0 {
				t.Fatalf("%s: %d days is not a multiple of 7", ref.Format("2006-01"), len(g.Days))
			}
			if g.Days[0].Date.Weekday() != time.Monday || g.Days[len(g.Days)-1].Date.Weekday() != time.Sunday {
				t.Fatalf("%s: grid must run monday to sunday", ref.Format("2006-01"))
			}
			inMonth := 0
			for _, d := range g.Days {
				if d.InMonth {
					inMonth++
				}
				if len(d.Slots) != 0 {
					t.Fatalf("month cells carry no hourly slots")
				}
			}
			daysInMonth := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
			if inMonth != daysInMonth {
				t.Fatalf("%s: expected %d in-month days, got %d", ref.Format("2006-01"), daysInMonth, inMonth)
			}
			for d := 1; d <= daysInMonth; d++ {
				if _, ok := g.DayAt(time.Date(year, month, d, 0, 0, 0, 0, time.UTC)); !ok {
					t.Fatalf("%s: day %d missing", ref.Format("2006-01"), d)
				}
			}
		}
	}
}

func TestDayGridHasElevenHourlySlots(t *testing.T) {
	ref := time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)
	g := Build(ref, ViewDay, time.UTC)
	if len(g.Days) != 1 {
		t.Fatalf("expected single day, got %d", len(g.Days))
	}
	slots := g.Days[0].Slots
	if len(slots) != 11 || slots[0].Hour != 8 || slots[10].Hour != 18 {
		t.Fatalf("unexpected slots: %d first=%d last=%d", len(slots), slots[0].Hour, slots[len(slots)-1].Hour)
	}
	if !slots[1].Start.Equal(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected slot start %s", slots[1].Start)
	}
	if g.Title != "Monday, March 10, 2025" {
		t.Fatalf("unexpected title %q", g.Title)
	}
}

func TestPlaceBucketsByDateAndHour(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	for hour := FirstHour; hour <= LastHour; hour++ {
		a := appt("a", day.Add(time.Duration(hour)*time.Hour+15*time.Minute))
		for _, mode := range []ViewMode{ViewDay, ViewWeek} {
			g := Build(day, mode, time.UTC).Place([]appointments.Appointment{a})
			found := 0
			for _, d := range g.Days {
				for _, s := range d.Slots {
					for range s.Appointments {
						found++
						if s.Hour != hour || !d.Date.Equal(day) {
							t.Fatalf("%s: appointment at %d:15 placed in %s hour %d", mode, hour, d.Date, s.Hour)
						}
					}
				}
			}
			if found != 1 {
				t.Fatalf("%s: expected exactly one placement, got %d", mode, found)
			}
		}

		g := Build(day, ViewMonth, time.UTC).Place([]appointments.Appointment{a})
		for _, d := range g.Days {
			want := 0
			if d.Date.Equal(day) {
				want = 1
			}
			if len(d.Appointments) != want {
				t.Fatalf("month: day %s has %d appointments, want %d", d.Date, len(d.Appointments), want)
			}
		}
	}
}

func TestPlaceUsesViewerTimezone(t *testing.T) {
	loc, _ := time.LoadLocation("America/Los_Angeles")
	// 2025-03-11 01:00 UTC is 2025-03-10 18:00 in Los Angeles.
	a := appt("late", time.Date(2025, 3, 11, 1, 0, 0, 0, time.UTC))
	g := Build(time.Date(2025, 3, 10, 12, 0, 0, 0, loc), ViewDay, loc).Place([]appointments.Appointment{a})
	last := g.Days[0].Slots[SlotsPerDay-1]
	if last.Hour != 18 || len(last.Appointments) != 1 {
		t.Fatalf("expected appointment in 18:00 local slot, got %+v", last)
	}
}

func TestPlaceSkipsOutsideVisibleHours(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	g := Build(day, ViewDay, time.UTC).Place([]appointments.Appointment{
		appt("early", day.Add(7*time.Hour)),
		appt("late", day.Add(19*time.Hour)),
	})
	for _, s := range g.Days[0].Slots {
		if len(s.Appointments) != 0 {
			t.Fatalf("expected no placements, slot %d has %d", s.Hour, len(s.Appointments))
		}
	}
}

func TestPlaceKeepsListOrderWithinSlot(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	g := Build(day, ViewDay, time.UTC).Place([]appointments.Appointment{
		appt("second", day.Add(10*time.Hour+45*time.Minute)),
		appt("first", day.Add(10*time.Hour)),
	})
	got := g.Days[0].Slots[10-FirstHour].Appointments
	if len(got) != 2 || got[0].ID != "second" || got[1].ID != "first" {
		t.Fatalf("expected list order preserved, got %+v", got)
	}
}

func TestMonthCapsAtThreeWithOverflow(t *testing.T) {
	day := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	var list []appointments.Appointment
	for i := 0; i < 5; i++ {
		list = append(list, appt(fmt.Sprintf("a%d", i), day.Add(time.Duration(9+i)*time.Hour)))
	}
	list = append(list, appt("other", day.AddDate(0, 0, 1).Add(9*time.Hour)))

	g := Build(day, ViewMonth, time.UTC).Place(list)
	cell, _ := g.DayAt(day)
	if len(cell.Appointments) != 3 || cell.Overflow != 2 || cell.Total != 5 {
		t.Fatalf("expected 3 shown with overflow 2, got %d shown overflow %d", len(cell.Appointments), cell.Overflow)
	}
	if cell.Appointments[0].ID != "a0" || cell.Appointments[2].ID != "a2" {
		t.Fatalf("expected first three in list order, got %+v", cell.Appointments)
	}
	next, _ := g.DayAt(day.AddDate(0, 0, 1))
	if len(next.Appointments) != 1 || next.Overflow != 0 {
		t.Fatalf("unexpected next-day cell: %+v", next)
	}
}

func TestEmptyListYieldsEmptySlots(t *testing.T) {
	g := Build(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), ViewWeek, time.UTC).Place(nil)
	for _, d := range g.Days {
		for _, s := range d.Slots {
			if len(s.Appointments) != 0 {
				t.Fatalf("expected empty slot")
			}
		}
	}
}

func TestParseViewMode(t *testing.T) {
	mode, err := ParseViewMode("")
	if err != nil || mode != ViewWeek {
		t.Fatalf("expected week default, got %q %v", mode, err)
	}
	mode, err = ParseViewMode("Month")
	if err != nil || mode != ViewMonth {
		t.Fatalf("expected month, got %q %v", mode, err)
	}
	if _, err := ParseViewMode("year"); err == nil {
		t.Fatalf("expected error for unknown view")
	}
}

// Chile and Cuba spring forward at 00:00, so the first instant of the
// transition date is 01:00.
func TestGridSurvivesMidnightDSTTransitions(t *testing.T) {
	cases := []struct {
		zone  string
		year  int
		month time.Month
		day   int
	}{
		{"America/Santiago", 2025, time.September, 7},
		{"America/Havana", 2025, time.March, 9},
		{"America/Sao_Paulo", 2018, time.November, 4},
	}
	for _, tc := range cases {
		t.Run(tc.zone, func(t *testing.T) {
			loc, err := time.LoadLocation(tc.zone)
			if err != nil {
				t.Fatalf("load %s: %v", tc.zone, err)
			}
			at10 := time.Date(tc.year, tc.month, tc.day, 10, 0, 0, 0, loc)
			a := appt("dst", at10)

			month := Build(at10, ViewMonth, loc).Place([]appointments.Appointment{a})
			for i := 1; i < len(month.Days); i++ {
				py, pm, pd := month.Days[i-1].Date.Date()
				want := time.Date(py, pm, pd+1, 0, 0, 0, 0, time.UTC)
				y, m, d := month.Days[i].Date.Date()
				if got := time.Date(y, m, d, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
					t.Fatalf("day %d: expected %s, got %s", i, want.Format("2006-01-02"), got.Format("2006-01-02"))
				}
			}
			cell, ok := month.DayAt(at10)
			if !ok {
				t.Fatalf("transition date missing from month grid")
			}
			if cell.Date.Day() != tc.day || cell.Date.Hour() != 1 {
				t.Fatalf("expected day to start at 01:00 on the %d, got %s", tc.day, cell.Date)
			}
			if len(cell.Appointments) != 1 {
				t.Fatalf("expected appointment placed on transition date, got %d", len(cell.Appointments))
			}

			for _, mode := range []ViewMode{ViewDay, ViewWeek} {
				g := Build(at10, mode, loc).Place([]appointments.Appointment{a})
				d, ok := g.DayAt(at10)
				if !ok {
					t.Fatalf("%s: transition date missing", mode)
				}
				if n := len(d.Slots[10-FirstHour].Appointments); n != 1 {
					t.Fatalf("%s: expected appointment in 10:00 slot, got %d", mode, n)
				}
			}

			from, to := VisibleRange(at10, ViewDay, loc)
			if from.Day() != tc.day || !to.Equal(time.Date(tc.year, tc.month, tc.day+1, 0, 0, 0, 0, loc)) {
				t.Fatalf("unexpected day range %s - %s", from, to)
			}
		})
	}
}

func TestMonthGridCoversFocalMonthInEveryZone(t *testing.T) {
	for _, zone := range []string{"America/Santiago", "America/Havana", "America/Sao_Paulo", "Asia/Beirut", "America/New_York"} {
		loc, err := time.LoadLocation(zone)
		if err != nil {
			t.Fatalf("load %s: %v", zone, err)
		}
		for year := 2010; year <= 2025; year++ {
			for month := time.January; month <= time.December; month++ {
				daysInMonth := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
				for day := 1; day <= daysInMonth; day++ {
					ref := time.Date(year, month, day, 12, 0, 0, 0, loc)
					g := Build(ref, ViewMonth, loc)
					for d := 1; d <= daysInMonth; d++ {
						if _, ok := g.DayAt(time.Date(year, month, d, 12, 0, 0, 0, loc)); !ok {
							t.Fatalf("%s %s: day %d missing", zone, ref.Format("2006-01-02"), d)
						}
					}
				}
			}
		}
	}
}
