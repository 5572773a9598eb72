package analytics

import (
	"fmt"
	"sync"
	"time"

	"github.com/profitlens/analytics/internal/entity"
)

const dateLayout = "2006-01-02"

var locations sync.Map

// Location memoizes timezone lookups per name. Unknown names fall back
// to UTC.
func Location(name string) *time.Location {
	if name == "" || name == "UTC" {
		return time.UTC
	}
	if loc, ok := locations.Load(name); ok {
		return loc.(*time.Location)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		loc = time.UTC
	}
	locations.Store(name, loc)
	return loc
}

func parseDate(s string) (time.Time, bool) {
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ValidateRange rejects unparsable dates and ranges whose start falls after
// the end.
func ValidateRange(r entity.DateRange) error {
	start, ok := parseDate(r.Start)
	if !ok {
		return fmt.Errorf("invalid start date %q", r.Start)
	}
	end, ok := parseDate(r.End)
	if !ok {
		return fmt.Errorf("invalid end date %q", r.End)
	}
	if start.After(end) {
		return fmt.Errorf("start date %s is after end date %s", r.Start, r.End)
	}
	return nil
}

// InclusiveDaySpan counts the whole days covered by the inclusive range,
// minimum 1 for a valid single-day range, 0 when either bound is invalid.
func InclusiveDaySpan(r entity.DateRange) int {
	start, ok := parseDate(r.Start)
	if !ok {
		return 0
	}
	end, ok := parseDate(r.End)
	if !ok {
		return 0
	}
	days := int(end.Sub(start).Hours()/24) + 1
	if days < 1 {
		return 0
	}
	return days
}

// PreviousRange returns the immediately preceding range of identical span,
// ending the day before r starts. The second return is false when r is
// degenerate.
func PreviousRange(r entity.DateRange) (entity.DateRange, bool) {
	span := InclusiveDaySpan(r)
	if span == 0 {
		return entity.DateRange{}, false
	}
	start, _ := parseDate(r.Start)
	prevEnd := start.AddDate(0, 0, -1)
	prevStart := prevEnd.AddDate(0, 0, -(span - 1))
	return entity.DateRange{
		Start: prevStart.Format(dateLayout),
		End:   prevEnd.Format(dateLayout),
	}, true
}

// ShiftDateString moves a calendar date by deltaDays in UTC. Unparsable
// input is returned unchanged.
func ShiftDateString(date string, deltaDays int) string {
	t, ok := parseDate(date)
	if !ok {
		return date
	}
	return t.AddDate(0, 0, deltaDays).Format(dateLayout)
}

// IsCalendarMonth reports whether r covers exactly one calendar month.
func IsCalendarMonth(r entity.DateRange) bool {
	start, ok := parseDate(r.Start)
	if !ok {
		return false
	}
	end, ok := parseDate(r.End)
	if !ok {
		return false
	}
	if start.Day() != 1 {
		return false
	}
	lastDay := time.Date(start.Year(), start.Month()+1, 0, 0, 0, 0, 0, time.UTC)
	return end.Equal(lastDay)
}

// PreviousCalendarMonth returns the full calendar month preceding the month
// that contains r.Start.
func PreviousCalendarMonth(r entity.DateRange) (entity.DateRange, bool) {
	start, ok := parseDate(r.Start)
	if !ok {
		return entity.DateRange{}, false
	}
	firstOfMonth := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	prevFirst := firstOfMonth.AddDate(0, -1, 0)
	prevLast := firstOfMonth.AddDate(0, 0, -1)
	return entity.DateRange{
		Start: prevFirst.Format(dateLayout),
		End:   prevLast.Format(dateLayout),
	}, true
}

// rangeWindowMs returns the inclusive millisecond window of a date range,
// [00:00:00.000 of start, 23:59:59.999 of end] in UTC.
func rangeWindowMs(r entity.DateRange) (int64, int64, bool) {
	start, ok := parseDate(r.Start)
	if !ok {
		return 0, 0, false
	}
	end, ok := parseDate(r.End)
	if !ok {
		return 0, 0, false
	}
	startMs := start.UnixMilli()
	endMs := end.AddDate(0, 0, 1).UnixMilli() - 1
	if endMs < startMs {
		return 0, 0, false
	}
	return startMs, endMs, true
}

// overlapMs computes the overlap in milliseconds between two inclusive
// millisecond windows, never negative.
func overlapMs(aStart, aEnd, bStart, bEnd int64) int64 {
	start := aStart
	if bStart > start {
		start = bStart
	}
	end := aEnd
	if bEnd < end {
		end = bEnd
	}
	if end <= start {
		return 0
	}
	return end - start
}

// enumerateDays yields every calendar day of the inclusive range.
func enumerateDays(r entity.DateRange) []string {
	span := InclusiveDaySpan(r)
	if span == 0 {
		return nil
	}
	start, _ := parseDate(r.Start)
	days := make([]string, 0, span)
	for i := 0; i < span; i++ {
		days = append(days, start.AddDate(0, 0, i).Format(dateLayout))
	}
	return days
}
