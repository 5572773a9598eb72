package analytics

import (
	"time"

	"github.com/profitlens/analytics/internal/entity"
)

// AccrualMode is the resolved way a policy's value turns into an amount.
type AccrualMode string

const (
	AccrualFixed      AccrualMode = "fixed"
	AccrualPerOrder   AccrualMode = "per_order"
	AccrualPerUnit    AccrualMode = "per_unit"
	AccrualPercentage AccrualMode = "percentage_of_revenue"
	AccrualTimeBound  AccrualMode = "time_bound"
)

// CostContext carries the activity totals and window a policy is evaluated
// against.
type CostContext struct {
	OrdersCount float64
	UnitsSold   float64
	Revenue     float64
	Range       entity.DateRange
}

var frequencyDurations = map[entity.CostFrequency]time.Duration{
	entity.FrequencyDaily:      24 * time.Hour,
	entity.FrequencyWeekly:     7 * 24 * time.Hour,
	entity.FrequencyBiweekly:   14 * 24 * time.Hour,
	entity.FrequencyMonthly:    30 * 24 * time.Hour,
	entity.FrequencyBimonthly:  60 * 24 * time.Hour,
	entity.FrequencyQuarterly:  90 * 24 * time.Hour,
	entity.FrequencyHalfYearly: 182 * 24 * time.Hour,
	entity.FrequencyAnnual:     365 * 24 * time.Hour,
}

// ClassifyAccrual resolves the accrual mode of a policy from its frequency
// and calculation.
func ClassifyAccrual(p entity.CostPolicy) AccrualMode {
	switch p.Frequency {
	case entity.FrequencyPerOrder:
		return AccrualPerOrder
	case entity.FrequencyPerItem:
		return AccrualPerUnit
	}
	if p.Calculation == entity.CalculationPercentage {
		return AccrualPercentage
	}
	if p.EffectiveFrom != nil && p.EffectiveTo != nil {
		return AccrualTimeBound
	}
	return AccrualFixed
}

// policyWindowMs resolves the policy's effective window in milliseconds,
// defaulting open ends to the context window bounds. EffectiveFrom starts
// at 00:00 of its day and EffectiveTo ends at 00:00 of its day (exclusive),
// so a [Jan 10, Jan 20] policy spans exactly 10 days.
func policyWindowMs(p entity.CostPolicy, ctxStart, ctxEnd int64) (int64, int64) {
	start, end := ctxStart, ctxEnd
	if p.EffectiveFrom != nil {
		if t, ok := parseDate(*p.EffectiveFrom); ok {
			start = t.UnixMilli()
		}
	}
	if p.EffectiveTo != nil {
		if t, ok := parseDate(*p.EffectiveTo); ok {
			end = t.UnixMilli()
		}
	}
	return start, end
}

// EvaluatePolicy computes the monetary amount a cost policy contributes to
// the context window under its accrual mode. Pure and deterministic for
// identical inputs.
func EvaluatePolicy(p entity.CostPolicy, ctx CostContext) float64 {
	value, _ := p.Value.Float64()
	if value == 0 {
		return 0
	}

	ctxStart, ctxEnd, ok := rangeWindowMs(ctx.Range)
	if !ok {
		return 0
	}
	polStart, polEnd := policyWindowMs(p, ctxStart, ctxEnd)
	overlap := overlapMs(polStart, polEnd, ctxStart, ctxEnd)
	if overlap <= 0 {
		return 0
	}

	switch ClassifyAccrual(p) {
	case AccrualPerOrder:
		return value * ctx.OrdersCount
	case AccrualPerUnit:
		return value * ctx.UnitsSold
	case AccrualPercentage:
		if ctx.Revenue <= 0 {
			return 0
		}
		return value / 100 * ctx.Revenue
	case AccrualTimeBound:
		total := polEnd - polStart
		if total <= 0 {
			return value
		}
		return value * float64(overlap) / float64(total)
	default:
		if dur, known := frequencyDurations[p.Frequency]; known {
			return value * float64(overlap) / float64(dur.Milliseconds())
		}
		return value
	}
}
