package analytics

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/profitlens/analytics/internal/entity"
)

// LoadPnLTable builds the time-bucketed P&L table for a range. Buckets are
// aligned to the granularity, which may widen the displayed table range
// beyond the requested range; the KPI bundle still reflects the requested
// sub-range only.
func (s *Service) LoadPnLTable(ctx context.Context, orgID uuid.UUID, r entity.DateRange, g entity.Granularity) (*entity.PnLResult, error) {
	if err := ValidateRange(r); err != nil {
		return nil, fmt.Errorf("invalid date range: %w", err)
	}
	if !g.Valid() {
		return nil, fmt.Errorf("unsupported granularity %q", g)
	}

	tableRange := DeriveTableRangeForGranularity(r, g)
	periods := BuildPeriods(tableRange, g)
	prevRange, hasPrev := PreviousRange(r)

	var (
		tableRows, prevRows []entity.DailyMetricRecord
		policies            []entity.CostPolicy
		rateEntries         []entity.ManualReturnRateEntry
	)
	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		tableRows, err = s.rep.Metrics().GetDailyMetrics(gctx, orgID, tableRange)
		return err
	})
	eg.Go(func() error {
		var err error
		policies, err = s.rep.Costs().GetActiveCostPolicies(gctx, orgID)
		return err
	})
	eg.Go(func() error {
		var err error
		rateEntries, err = s.rep.Costs().GetManualReturnRateEntries(gctx, orgID)
		return err
	})
	if hasPrev {
		eg.Go(func() error {
			var err error
			prevRows, err = s.rep.Metrics().GetDailyMetrics(gctx, orgID, prevRange)
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("fetch pnl inputs: %w", err)
	}

	selRows := rowsWithin(tableRows, r)
	coverage := CoverageFor(r, selRows)

	if len(tableRows) == 0 {
		return &entity.PnLResult{TableRange: tableRange, Coverage: coverage}, nil
	}

	// Bucket assignment. Rows with unparsable dates stay out of every
	// bucket but still count toward the whole-range totals.
	bucketRows := make([][]entity.DailyMetricRecord, len(periods))
	for _, rec := range tableRows {
		t, ok := parseDate(rec.Date)
		if !ok {
			continue
		}
		ms := t.UnixMilli()
		for i := range periods {
			if ms >= periods[i].StartMs && ms <= periods[i].EndMs {
				bucketRows[i] = append(bucketRows[i], rec)
				break
			}
		}
	}

	bucketAggs := make([]entity.AggregatedMetrics, len(periods))
	bucketCtxs := make([]BucketContext, len(periods))
	for i, p := range periods {
		bucketAggs[i] = Merge(bucketRows[i])
		bucketCtxs[i] = BucketContext{
			Key:     p.Key,
			StartMs: p.StartMs,
			EndMs:   p.EndMs,
			Orders:  bucketAggs[i].Orders,
			Units:   bucketAggs[i].UnitsSold,
			Revenue: bucketAggs[i].Revenue,
		}
	}

	tableAgg := Merge(tableRows)
	tableCtx := contextFor(tableAgg, tableRange)
	allocations := CategoryAllocations(policies, tableCtx, bucketCtxs)

	rows := make([]entity.PeriodRow, 0, len(periods)+1)
	// Growth compares unrounded figures on both sides so presentation
	// rounding cannot skew small deltas.
	var prevPnL entity.PnLMetrics
	for i, p := range periods {
		agg := bucketAggs[i]
		manualRate := ResolveManualReturnRate(rateEntries, &p.Range)
		ApplyRetention(&agg, manualRate)
		pnl := s.computePnL(agg, linesFromCategories(allocations[p.Key]))

		row := entity.PeriodRow{
			Key:       p.Key,
			Label:     p.Label,
			Date:      p.Date,
			StartMs:   p.StartMs,
			EndMs:     p.EndMs,
			Metrics:   roundPnL(pnl),
			Orders:    agg.Orders,
			UnitsSold: agg.UnitsSold,
		}
		if i > 0 {
			row.Growth = entity.PeriodGrowth{
				Revenue:   Round2(PercentageChange(pnl.Revenue, prevPnL.Revenue)),
				NetProfit: Round2(PercentageChange(pnl.NetProfit, prevPnL.NetProfit)),
			}
		}
		prevPnL = pnl
		rows = append(rows, row)
	}

	// The Total row is the independently aggregated table range, not the
	// naive sum of the bucket rows.
	tableManual := ResolveManualReturnRate(rateEntries, &tableRange)
	ApplyRetention(&tableAgg, tableManual)
	totals := s.computePnL(tableAgg, linesFromCategories(TotalPolicyCosts(policies, tableCtx)))
	if len(rows) > 0 {
		rows = append(rows, entity.PeriodRow{
			Key:       "total",
			Label:     "Total",
			Date:      tableRange.Start,
			StartMs:   bucketCtxs[0].StartMs,
			EndMs:     bucketCtxs[len(bucketCtxs)-1].EndMs,
			Metrics:   roundPnL(totals),
			Orders:    tableAgg.Orders,
			UnitsSold: tableAgg.UnitsSold,
			IsTotal:   true,
		})
	}

	result := &entity.PnLResult{
		Periods:    rows,
		Totals:     roundPnL(totals),
		TableRange: tableRange,
		Coverage:   coverage,
	}

	if len(selRows) > 0 {
		result.Metrics = s.buildKPIBundle(selRows, prevRows, policies, rateEntries, r, prevRange, hasPrev)
	}
	return result, nil
}

// buildKPIBundle computes the selected-range totals with changes against the
// previous comparable range.
func (s *Service) buildKPIBundle(selRows, prevRows []entity.DailyMetricRecord, policies []entity.CostPolicy, rateEntries []entity.ManualReturnRateEntry, r, prevRange entity.DateRange, hasPrev bool) *entity.KPIBundle {
	selAgg := Merge(selRows)
	selCtx := contextFor(selAgg, r)
	selManual := ResolveManualReturnRate(rateEntries, &r)
	ApplyRetention(&selAgg, selManual)
	selPnL := s.computePnL(selAgg, linesFromCategories(TotalPolicyCosts(policies, selCtx)))

	var prevPnL entity.PnLMetrics
	if hasPrev {
		prevAgg := Merge(prevRows)
		prevCtx := contextFor(prevAgg, prevRange)
		prevManual := ResolveManualReturnRate(rateEntries, &prevRange)
		ApplyRetention(&prevAgg, prevManual)
		prevPnL = s.computePnL(prevAgg, linesFromCategories(TotalPolicyCosts(policies, prevCtx)))
	}

	return &entity.KPIBundle{
		Metrics:   roundPnL(selPnL),
		Changes:   roundChanges(pnlChanges(selPnL, prevPnL)),
		Orders:    selAgg.Orders,
		UnitsSold: selAgg.UnitsSold,
	}
}

// rowsWithin filters records to the inclusive range. Calendar-date strings
// compare lexicographically.
func rowsWithin(rows []entity.DailyMetricRecord, r entity.DateRange) []entity.DailyMetricRecord {
	out := make([]entity.DailyMetricRecord, 0, len(rows))
	for _, rec := range rows {
		if _, ok := parseDate(rec.Date); !ok {
			continue
		}
		if rec.Date >= r.Start && rec.Date <= r.End {
			out = append(out, rec)
		}
	}
	return out
}

func roundPnL(m entity.PnLMetrics) entity.PnLMetrics {
	m.GrossSales = Round2(m.GrossSales)
	m.Discounts = Round2(m.Discounts)
	m.Refunds = Round2(m.Refunds)
	m.RTORevenueLost = Round2(m.RTORevenueLost)
	m.Revenue = Round2(m.Revenue)
	m.COGS = Round2(m.COGS)
	m.ShippingCost = Round2(m.ShippingCost)
	m.TransactionFees = Round2(m.TransactionFees)
	m.HandlingFees = Round2(m.HandlingFees)
	m.Taxes = Round2(m.Taxes)
	m.MarketingSpend = Round2(m.MarketingSpend)
	m.CustomCosts = Round2(m.CustomCosts)
	m.GrossProfit = Round2(m.GrossProfit)
	m.GrossMargin = Round2(m.GrossMargin)
	m.NetProfit = Round2(m.NetProfit)
	m.NetProfitMargin = Round2(m.NetProfitMargin)
	return m
}

func roundChanges(c entity.PnLChanges) entity.PnLChanges {
	c.GrossSales = Round2(c.GrossSales)
	c.Discounts = Round2(c.Discounts)
	c.Refunds = Round2(c.Refunds)
	c.RTORevenueLost = Round2(c.RTORevenueLost)
	c.Revenue = Round2(c.Revenue)
	c.COGS = Round2(c.COGS)
	c.ShippingCost = Round2(c.ShippingCost)
	c.TransactionFees = Round2(c.TransactionFees)
	c.HandlingFees = Round2(c.HandlingFees)
	c.Taxes = Round2(c.Taxes)
	c.MarketingSpend = Round2(c.MarketingSpend)
	c.CustomCosts = Round2(c.CustomCosts)
	c.GrossProfit = Round2(c.GrossProfit)
	c.GrossMargin = Round2(c.GrossMargin)
	c.NetProfit = Round2(c.NetProfit)
	c.NetProfitMargin = Round2(c.NetProfitMargin)
	return c
}
