package analytics

import (
	"github.com/profitlens/analytics/internal/entity"
)

// RetentionInput carries the figures the return-loss model works from.
type RetentionInput struct {
	Revenue                 float64
	Refunds                 float64
	RTORevenueLost          float64
	ManualReturnRatePercent float64
}

// DeriveRTOLoss estimates revenue lost to returned/undelivered orders from
// the manual return rate, capped at total revenue.
func DeriveRTOLoss(revenue, manualReturnRatePercent float64) float64 {
	if revenue <= 0 {
		return 0
	}
	loss := revenue * manualReturnRatePercent / 100
	if loss > revenue {
		return revenue
	}
	if loss < 0 {
		return 0
	}
	return loss
}

// RetentionFactor converts refund and RTO figures into the fraction of
// return-sensitive costs still incurred after returns, clamped to [0, 1].
// When revenue is zero the manual rate itself stands in for the RTO ratio so
// an override still suppresses dependent costs.
func RetentionFactor(in RetentionInput) float64 {
	var refundRatio, rtoRatio float64
	if in.Revenue > 0 {
		refundRatio = Clamp(in.Refunds/in.Revenue, 0, 1)
		rtoRatio = Clamp(in.RTORevenueLost/in.Revenue, 0, 1)
	} else {
		rtoRatio = Clamp(in.ManualReturnRatePercent/100, 0, 1)
	}
	combined := Clamp(refundRatio+rtoRatio, 0, 1)
	return Clamp(1-combined, 0, 1)
}

// ResolveManualReturnRate scans entries overlapping the window and returns
// the rate of the most recently updated match. Without a window filter only
// active entries are considered; with one, inactive entries still apply to
// the historical windows they covered.
func ResolveManualReturnRate(entries []entity.ManualReturnRateEntry, window *entity.DateRange) float64 {
	var best *entity.ManualReturnRateEntry
	for i := range entries {
		e := &entries[i]
		if window == nil {
			if !e.IsActive {
				continue
			}
		} else if !entryOverlaps(e, *window) {
			continue
		}
		if best == nil || e.UpdatedAt.After(best.UpdatedAt) {
			best = e
		}
	}
	if best == nil {
		return 0
	}
	return Clamp(best.RatePercent, 0, 100)
}

func entryOverlaps(e *entity.ManualReturnRateEntry, window entity.DateRange) bool {
	wStart, wEnd, ok := rangeWindowMs(window)
	if !ok {
		return false
	}
	start, end := wStart, wEnd
	if e.EffectiveFrom != nil {
		if t, parsed := parseDate(*e.EffectiveFrom); parsed {
			start = t.UnixMilli()
		}
	}
	if e.EffectiveTo != nil {
		if t, parsed := parseDate(*e.EffectiveTo); parsed {
			end = t.AddDate(0, 0, 1).UnixMilli() - 1
		}
	}
	return overlapMs(start, end, wStart, wEnd) > 0
}

// ApplyRetention scales the return-sensitive cost lines of an aggregate in
// place and records the derived RTO loss and manual rate. Shipping,
// transaction fees, marketing and custom costs pass through unscaled.
func ApplyRetention(agg *entity.AggregatedMetrics, manualRatePercent float64) float64 {
	agg.ManualReturnRatePercent = manualRatePercent
	if agg.RTORevenueLost == 0 {
		agg.RTORevenueLost = DeriveRTOLoss(agg.Revenue, manualRatePercent)
	}
	factor := RetentionFactor(RetentionInput{
		Revenue:                 agg.Revenue,
		Refunds:                 agg.Refunds,
		RTORevenueLost:          agg.RTORevenueLost,
		ManualReturnRatePercent: manualRatePercent,
	})
	agg.COGS *= factor
	agg.HandlingFees *= factor
	agg.Taxes *= factor
	return factor
}
