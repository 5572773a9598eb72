package analytics

import (
	"github.com/profitlens/analytics/internal/entity"
)

// Merge folds per-day metric snapshots into one additive aggregate. The
// fold is commutative over row order; click-through rate is averaged over
// non-zero samples and gross sales falls back to revenue plus discounts for
// rows written before the explicit gross-sales column existed.
func Merge(records []entity.DailyMetricRecord) entity.AggregatedMetrics {
	var agg entity.AggregatedMetrics
	agg.ChannelRevenue = make(map[string]float64)

	var ctrSum float64
	var ctrSamples int

	for _, rec := range records {
		revenue := ToNumber(rec.Revenue)
		discounts := ToNumber(rec.Discounts)
		gross := ToNumber(rec.GrossSales)
		if gross == 0 {
			gross = revenue + discounts
		}

		agg.Revenue += revenue
		agg.Discounts += discounts
		agg.GrossSales += gross
		agg.Orders += ToNumber(rec.Orders)
		agg.UnitsSold += ToNumber(rec.UnitsSold)
		agg.COGS += ToNumber(rec.COGS)
		agg.ShippingCost += ToNumber(rec.ShippingCost)
		agg.TransactionFees += ToNumber(rec.TransactionFees)
		agg.HandlingFees += ToNumber(rec.HandlingFees)
		agg.Taxes += ToNumber(rec.Taxes)
		agg.MarketingCost += ToNumber(rec.MarketingCost)
		agg.Refunds += ToNumber(rec.Refunds)
		agg.CancelledOrders += ToNumber(rec.CancelledOrders)
		agg.ReturnedOrders += ToNumber(rec.ReturnedOrders)
		agg.FulfilledOrders += ToNumber(rec.FulfilledOrders)
		agg.Sessions += ToNumber(rec.Sessions)
		agg.Visitors += ToNumber(rec.Visitors)
		agg.Conversions += ToNumber(rec.Conversions)

		if ctr := ToNumber(rec.CTR); ctr != 0 {
			ctrSum += ctr
			ctrSamples++
		}

		agg.Customers.NewCustomers += ToNumber(rec.Customers.NewCustomers)
		agg.Customers.ReturningCustomers += ToNumber(rec.Customers.ReturningCustomers)
		agg.Customers.RepeatCustomers += ToNumber(rec.Customers.RepeatCustomers)

		agg.Payments.PrepaidOrders += ToNumber(rec.Payments.PrepaidOrders)
		agg.Payments.CODOrders += ToNumber(rec.Payments.CODOrders)
		agg.Payments.OtherOrders += ToNumber(rec.Payments.OtherOrders)

		for _, ch := range rec.ChannelRevenues {
			if ch.Channel == "" {
				continue
			}
			agg.ChannelRevenue[ch.Channel] += ToNumber(ch.Revenue)
		}

		agg.Days++
	}

	agg.CTR = SafeDiv(ctrSum, float64(ctrSamples))
	return agg
}

// CoverageFor compares the days present in records against the requested
// range and reports gaps. Rows with unparsable dates count toward totals
// but not toward day coverage.
func CoverageFor(r entity.DateRange, records []entity.DailyMetricRecord) entity.Coverage {
	cov := entity.Coverage{ExpectedDays: InclusiveDaySpan(r)}
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if _, ok := parseDate(rec.Date); !ok {
			continue
		}
		if _, dup := seen[rec.Date]; dup {
			continue
		}
		seen[rec.Date] = struct{}{}
		if cov.FirstAvailable == "" || rec.Date < cov.FirstAvailable {
			cov.FirstAvailable = rec.Date
		}
		if rec.Date > cov.LastAvailable {
			cov.LastAvailable = rec.Date
		}
	}
	cov.AvailableDays = len(seen)
	cov.HasData = len(records) > 0
	cov.HasFullCoverage = cov.ExpectedDays > 0 && cov.AvailableDays >= cov.ExpectedDays
	return cov
}
