package calendar

import "time"

// Navigate shifts ref by step days, weeks or months depending on mode.
// Month steps clamp to the last day of the target month.
func Navigate(ref time.Time, mode ViewMode, step int) time.Time {
	switch mode {
	case ViewDay:
		return shiftDays(ref, step)
	case ViewMonth:
		return addMonths(ref, step)
	default:
		return shiftDays(ref, 7*step)
	}
}

// Previous is Navigate with step -1.
func Previous(ref time.Time, mode ViewMode) time.Time {
	return Navigate(ref, mode, -1)
}

// Next is Navigate with step 1.
func Next(ref time.Time, mode ViewMode) time.Time {
	return Navigate(ref, mode, 1)
}

// VisibleRange is the half-open instant range covered by the grid for ref.
func VisibleRange(ref time.Time, mode ViewMode, loc *time.Location) (time.Time, time.Time) {
	g := Build(ref, mode, loc)
	return g.From, g.To
}

// DayAnchor is the default appointment start when a whole day is picked in month view.
func DayAnchor(date time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = date.Location()
	}
	d := date.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), 9, 0, 0, 0, loc)
}

func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return atWallClock(first.AddDate(0, 0, d-1), t)
}

func shiftDays(t time.Time, n int) time.Time {
	return atWallClock(civilDate(t).AddDate(0, 0, n), t)
}

// atWallClock puts clock's time of day on the civil date, falling back to
// the start of that date when the time does not exist there.
func atWallClock(civil time.Time, clock time.Time) time.Time {
	y, m, d := civil.Date()
	loc := clock.Location()
	out := time.Date(y, m, d, clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(), loc)
	if !civilDate(out).Equal(civil) {
		return startOfDay(civil, loc)
	}
	return out
}
