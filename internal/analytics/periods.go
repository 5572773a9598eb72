package analytics

import (
	"fmt"
	"time"

	"github.com/profitlens/analytics/internal/entity"
)

// PeriodDefinition is one daily/weekly/monthly slice of a table range.
type PeriodDefinition struct {
	Key     string
	Label   string
	Date    string
	StartMs int64
	EndMs   int64
	Range   entity.DateRange
}

// DeriveTableRangeForGranularity expands a requested range so that bucket
// boundaries are never partial: weekly ranges snap to Monday weeks, monthly
// ranges to full calendar months. Daily ranges pass through unchanged.
func DeriveTableRangeForGranularity(r entity.DateRange, g entity.Granularity) entity.DateRange {
	start, okS := parseDate(r.Start)
	end, okE := parseDate(r.End)
	if !okS || !okE {
		return r
	}
	switch g {
	case entity.GranularityWeekly:
		start = rollBackToMonday(start)
		end = rollBackToMonday(end).AddDate(0, 0, 6)
	case entity.GranularityMonthly:
		start = time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = time.Date(end.Year(), end.Month()+1, 0, 0, 0, 0, 0, time.UTC)
	default:
		return r
	}
	return entity.DateRange{Start: start.Format(dateLayout), End: end.Format(dateLayout)}
}

func rollBackToMonday(t time.Time) time.Time {
	daysBack := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -daysBack)
}

// BuildPeriods enumerates the canonical buckets covering a range at the
// given granularity, each with a label, anchor date and millisecond window.
// The range should already be bucket-aligned via
// DeriveTableRangeForGranularity.
func BuildPeriods(r entity.DateRange, g entity.Granularity) []PeriodDefinition {
	start, okS := parseDate(r.Start)
	end, okE := parseDate(r.End)
	if !okS || !okE || end.Before(start) {
		return nil
	}

	var periods []PeriodDefinition
	switch g {
	case entity.GranularityWeekly:
		for cur := rollBackToMonday(start); !cur.After(end); cur = cur.AddDate(0, 0, 7) {
			last := cur.AddDate(0, 0, 6)
			periods = append(periods, newPeriod(cur, last,
				fmt.Sprintf("%s - %s", cur.Format("Jan 2"), last.Format("Jan 2"))))
		}
	case entity.GranularityMonthly:
		cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
		for !cur.After(end) {
			last := cur.AddDate(0, 1, -1)
			periods = append(periods, newPeriod(cur, last, cur.Format("January 2006")))
			cur = cur.AddDate(0, 1, 0)
		}
	default:
		for cur := start; !cur.After(end); cur = cur.AddDate(0, 0, 1) {
			periods = append(periods, newPeriod(cur, cur, cur.Format("Jan 2, 2006")))
		}
	}
	return periods
}

func newPeriod(first, last time.Time, label string) PeriodDefinition {
	return PeriodDefinition{
		Key:     first.Format(dateLayout),
		Label:   label,
		Date:    first.Format(dateLayout),
		StartMs: first.UnixMilli(),
		EndMs:   last.AddDate(0, 0, 1).UnixMilli() - 1,
		Range: entity.DateRange{
			Start: first.Format(dateLayout),
			End:   last.Format(dateLayout),
		},
	}
}
