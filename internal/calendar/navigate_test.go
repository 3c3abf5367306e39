package calendar

import (
	"testing"
	"time"
)

func TestNavigate(t *testing.T) {
	ref := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		mode ViewMode
		step int
		want time.Time
	}{
		{"next day", ViewDay, 1, time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)},
		{"previous day", ViewDay, -1, time.Date(2025, 3, 9, 9, 0, 0, 0, time.UTC)},
		{"next week", ViewWeek, 1, time.Date(2025, 3, 17, 9, 0, 0, 0, time.UTC)},
		{"previous week", ViewWeek, -1, time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)},
		{"next month", ViewMonth, 1, time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC)},
		{"previous month across year", ViewMonth, -3, time.Date(2024, 12, 10, 9, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Navigate(ref, tt.mode, tt.step); !got.Equal(tt.want) {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestNavigateMonthClampsToLastDay(t *testing.T) {
	got := Next(time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), ViewMonth)
	if !got.Equal(time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected Feb 28, got %s", got)
	}
	got = Previous(time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), ViewMonth)
	if !got.Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected Feb 29, got %s", got)
	}
}

func TestVisibleRangeMatchesGrid(t *testing.T) {
	ref := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)

	from, to := VisibleRange(ref, ViewWeek, time.UTC)
	if !from.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)) || !to.Equal(time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected week range %s - %s", from, to)
	}

	from, to = VisibleRange(ref, ViewMonth, time.UTC)
	if !from.Equal(time.Date(2025, 2, 24, 0, 0, 0, 0, time.UTC)) || !to.Equal(time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected month range %s - %s", from, to)
	}
}

func TestDayAnchorIsNineAM(t *testing.T) {
	loc, _ := time.LoadLocation("America/New_York")
	got := DayAnchor(time.Date(2025, 3, 10, 0, 0, 0, 0, loc), loc)
	if got.Hour() != 9 || got.Minute() != 0 || got.Day() != 10 {
		t.Fatalf("unexpected anchor %s", got)
	}
}

func TestNavigateAcrossMidnightDSTGap(t *testing.T) {
	loc, err := time.LoadLocation("America/Santiago")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	got := Next(time.Date(2025, 9, 6, 0, 0, 0, 0, loc), ViewDay)
	if y, m, d := got.Date(); y != 2025 || m != time.September || d != 7 {
		t.Fatalf("expected Sep 7, got %s", got)
	}
	got = Next(time.Date(2025, 8, 7, 0, 0, 0, 0, loc), ViewMonth)
	if got.Day() != 7 || got.Month() != time.September {
		t.Fatalf("expected Sep 7, got %s", got)
	}
	got = Next(time.Date(2025, 9, 7, 9, 0, 0, 0, loc), ViewDay)
	if got.Day() != 8 || got.Hour() != 9 {
		t.Fatalf("expected Sep 8 09:00, got %s", got)
	}
}
