package analytics

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/profitlens/analytics/internal/entity"
)

// kpiSet is every derived KPI for one window, computed identically for the
// current and previous periods so changes can be paired off.
type kpiSet struct {
	PnL entity.PnLMetrics

	Orders          float64
	UnitsSold       float64
	AvgOrderValue   float64
	CancelledOrders float64
	ReturnedOrders  float64
	FulfilledOrders float64

	NewCustomers       float64
	ReturningCustomers float64
	RepeatCustomers    float64
	PrepaidOrders      float64
	CODOrders          float64

	Sessions       float64
	Visitors       float64
	Conversions    float64
	ConversionRate float64
	CTR            float64

	AdSpend            float64
	ROAS               float64
	POAS               float64
	CAC                float64
	LTVToCACRatio      float64
	ContributionMargin float64
	OperatingMargin    float64
}

// LoadOverview produces the range-level KPI summary with period-over-period
// changes. Current and previous window data are fetched concurrently; the
// merge itself stays synchronous.
func (s *Service) LoadOverview(ctx context.Context, orgID uuid.UUID, r entity.DateRange) (*entity.Overview, error) {
	if err := ValidateRange(r); err != nil {
		return nil, fmt.Errorf("invalid date range: %w", err)
	}
	prevRange, hasPrev := PreviousRange(r)

	var (
		curRows, prevRows, prevMonthRows []entity.DailyMetricRecord
		policies                         []entity.CostPolicy
		rateEntries                      []entity.ManualReturnRateEntry
		curAds, prevAds                  entity.AdInsightTotals
	)
	isMonth := IsCalendarMonth(r)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		curRows, err = s.rep.Metrics().GetDailyMetrics(gctx, orgID, r)
		return err
	})
	g.Go(func() error {
		var err error
		policies, err = s.rep.Costs().GetActiveCostPolicies(gctx, orgID)
		return err
	})
	g.Go(func() error {
		var err error
		rateEntries, err = s.rep.Costs().GetManualReturnRateEntries(gctx, orgID)
		return err
	})
	g.Go(func() error {
		var err error
		curAds, err = s.rep.Ads().GetAdInsightTotals(gctx, orgID, r)
		return err
	})
	if hasPrev {
		g.Go(func() error {
			var err error
			prevRows, err = s.rep.Metrics().GetDailyMetrics(gctx, orgID, prevRange)
			return err
		})
		g.Go(func() error {
			var err error
			prevAds, err = s.rep.Ads().GetAdInsightTotals(gctx, orgID, prevRange)
			return err
		})
	}
	if isMonth {
		if pm, ok := PreviousCalendarMonth(r); ok {
			g.Go(func() error {
				var err error
				prevMonthRows, err = s.rep.Metrics().GetDailyMetrics(gctx, orgID, pm)
				return err
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch overview inputs: %w", err)
	}

	coverage := CoverageFor(r, curRows)

	cur := s.buildKPIs(curRows, policies, rateEntries, curAds, r)
	var prev kpiSet
	if hasPrev {
		prev = s.buildKPIs(prevRows, policies, rateEntries, prevAds, prevRange)
	}

	ov := &entity.Overview{
		Range:    r,
		Summary:  buildSummary(cur, prev),
		Metrics:  buildMetricMap(cur, prev),
		Coverage: coverage,
		Extras: entity.OverviewExtras{
			BlendedSessionConversionRate: Round2(SafeDiv(cur.Orders, cur.Sessions) * 100),
			UniqueVisitors:               cur.Visitors,
		},
	}
	if hasPrev {
		pr := prevRange
		ov.PreviousRange = &pr
	}

	if isMonth && len(prevMonthRows) > 0 {
		prevMonthAgg := Merge(prevMonthRows)
		growth := PercentageChange(cur.PnL.Revenue, prevMonthAgg.Revenue)
		ov.Summary.MonthOverMonthRevenueGrowth = &growth
	}
	return ov, nil
}

// buildKPIs runs the full pipeline for one window: merge, policy costs,
// retention, derived KPIs.
func (s *Service) buildKPIs(rows []entity.DailyMetricRecord, policies []entity.CostPolicy, rateEntries []entity.ManualReturnRateEntry, ads entity.AdInsightTotals, r entity.DateRange) kpiSet {
	agg := Merge(rows)
	byCategory := TotalPolicyCosts(policies, contextFor(agg, r))
	manualRate := ResolveManualReturnRate(rateEntries, &r)
	ApplyRetention(&agg, manualRate)

	pnl := s.computePnL(agg, linesFromCategories(byCategory))
	if pnl.MarketingSpend == 0 {
		pnl.MarketingSpend = ads.Spend
		pnl.NetProfit -= ads.Spend
		if pnl.Revenue > 0 {
			pnl.NetProfitMargin = finite(pnl.NetProfit / pnl.Revenue * 100)
		}
	}

	k := kpiSet{
		PnL:             pnl,
		Orders:          agg.Orders,
		UnitsSold:       agg.UnitsSold,
		AvgOrderValue:   SafeDiv(agg.Revenue, agg.Orders),
		CancelledOrders: agg.CancelledOrders,
		ReturnedOrders:  agg.ReturnedOrders,
		FulfilledOrders: agg.FulfilledOrders,

		NewCustomers:       agg.Customers.NewCustomers,
		ReturningCustomers: agg.Customers.ReturningCustomers,
		RepeatCustomers:    agg.Customers.RepeatCustomers,
		PrepaidOrders:      agg.Payments.PrepaidOrders,
		CODOrders:          agg.Payments.CODOrders,

		Sessions:       agg.Sessions,
		Visitors:       agg.Visitors,
		Conversions:    agg.Conversions,
		ConversionRate: SafeDiv(agg.Conversions, agg.Sessions) * 100,
		CTR:            agg.CTR,

		AdSpend: ads.Spend,
	}

	k.ROAS = SafeDiv(pnl.Revenue, k.AdSpend)
	k.POAS = SafeDiv(pnl.NetProfit, k.AdSpend)
	k.CAC = SafeDiv(k.AdSpend, k.NewCustomers)
	ltv := SafeDiv(pnl.Revenue, k.NewCustomers+k.ReturningCustomers)
	k.LTVToCACRatio = SafeDiv(ltv, k.CAC)

	if pnl.Revenue > 0 {
		contribution := pnl.Revenue - pnl.COGS - pnl.ShippingCost - pnl.TransactionFees - pnl.HandlingFees - pnl.MarketingSpend
		k.ContributionMargin = finite(contribution / pnl.Revenue * 100)
		k.OperatingMargin = finite((pnl.NetProfit + pnl.Taxes) / pnl.Revenue * 100)
	}
	return k
}

func buildSummary(cur, prev kpiSet) entity.OverviewSummary {
	return entity.OverviewSummary{
		GrossSales:            Round2(cur.PnL.GrossSales),
		GrossSalesChange:      Round2(PercentageChange(cur.PnL.GrossSales, prev.PnL.GrossSales)),
		Discounts:             Round2(cur.PnL.Discounts),
		DiscountsChange:       Round2(PercentageChange(cur.PnL.Discounts, prev.PnL.Discounts)),
		Refunds:               Round2(cur.PnL.Refunds),
		RefundsChange:         Round2(PercentageChange(cur.PnL.Refunds, prev.PnL.Refunds)),
		RTORevenueLost:        Round2(cur.PnL.RTORevenueLost),
		RTORevenueLostChange:  Round2(PercentageChange(cur.PnL.RTORevenueLost, prev.PnL.RTORevenueLost)),
		Revenue:               Round2(cur.PnL.Revenue),
		RevenueChange:         Round2(PercentageChange(cur.PnL.Revenue, prev.PnL.Revenue)),
		COGS:                  Round2(cur.PnL.COGS),
		COGSChange:            Round2(PercentageChange(cur.PnL.COGS, prev.PnL.COGS)),
		ShippingCost:          Round2(cur.PnL.ShippingCost),
		ShippingCostChange:    Round2(PercentageChange(cur.PnL.ShippingCost, prev.PnL.ShippingCost)),
		TransactionFees:       Round2(cur.PnL.TransactionFees),
		TransactionFeesChange: Round2(PercentageChange(cur.PnL.TransactionFees, prev.PnL.TransactionFees)),
		HandlingFees:          Round2(cur.PnL.HandlingFees),
		HandlingFeesChange:    Round2(PercentageChange(cur.PnL.HandlingFees, prev.PnL.HandlingFees)),
		Taxes:                 Round2(cur.PnL.Taxes),
		TaxesChange:           Round2(PercentageChange(cur.PnL.Taxes, prev.PnL.Taxes)),
		MarketingSpend:        Round2(cur.PnL.MarketingSpend),
		MarketingSpendChange:  Round2(PercentageChange(cur.PnL.MarketingSpend, prev.PnL.MarketingSpend)),
		AdSpend:               Round2(cur.AdSpend),
		AdSpendChange:         Round2(PercentageChange(cur.AdSpend, prev.AdSpend)),
		CustomCosts:           Round2(cur.PnL.CustomCosts),
		CustomCostsChange:     Round2(PercentageChange(cur.PnL.CustomCosts, prev.PnL.CustomCosts)),

		GrossProfit:              Round2(cur.PnL.GrossProfit),
		GrossProfitChange:        Round2(PercentageChange(cur.PnL.GrossProfit, prev.PnL.GrossProfit)),
		GrossMargin:              Round2(cur.PnL.GrossMargin),
		GrossMarginChange:        Round2(PercentageChange(cur.PnL.GrossMargin, prev.PnL.GrossMargin)),
		NetProfit:                Round2(cur.PnL.NetProfit),
		NetProfitChange:          Round2(PercentageChange(cur.PnL.NetProfit, prev.PnL.NetProfit)),
		NetProfitMargin:          Round2(cur.PnL.NetProfitMargin),
		NetProfitMarginChange:    Round2(PercentageChange(cur.PnL.NetProfitMargin, prev.PnL.NetProfitMargin)),
		ContributionMargin:       Round2(cur.ContributionMargin),
		ContributionMarginChange: Round2(PercentageChange(cur.ContributionMargin, prev.ContributionMargin)),
		OperatingMargin:          Round2(cur.OperatingMargin),
		OperatingMarginChange:    Round2(PercentageChange(cur.OperatingMargin, prev.OperatingMargin)),

		Orders:                Round2(cur.Orders),
		OrdersChange:          Round2(PercentageChange(cur.Orders, prev.Orders)),
		UnitsSold:             Round2(cur.UnitsSold),
		UnitsSoldChange:       Round2(PercentageChange(cur.UnitsSold, prev.UnitsSold)),
		AvgOrderValue:         Round2(cur.AvgOrderValue),
		AvgOrderValueChange:   Round2(PercentageChange(cur.AvgOrderValue, prev.AvgOrderValue)),
		CancelledOrders:       Round2(cur.CancelledOrders),
		CancelledOrdersChange: Round2(PercentageChange(cur.CancelledOrders, prev.CancelledOrders)),
		ReturnedOrders:        Round2(cur.ReturnedOrders),
		ReturnedOrdersChange:  Round2(PercentageChange(cur.ReturnedOrders, prev.ReturnedOrders)),
		FulfilledOrders:       Round2(cur.FulfilledOrders),
		FulfilledOrdersChange: Round2(PercentageChange(cur.FulfilledOrders, prev.FulfilledOrders)),

		NewCustomers:             Round2(cur.NewCustomers),
		NewCustomersChange:       Round2(PercentageChange(cur.NewCustomers, prev.NewCustomers)),
		ReturningCustomers:       Round2(cur.ReturningCustomers),
		ReturningCustomersChange: Round2(PercentageChange(cur.ReturningCustomers, prev.ReturningCustomers)),
		RepeatCustomers:          Round2(cur.RepeatCustomers),
		RepeatCustomersChange:    Round2(PercentageChange(cur.RepeatCustomers, prev.RepeatCustomers)),
		PrepaidOrders:            Round2(cur.PrepaidOrders),
		PrepaidOrdersChange:      Round2(PercentageChange(cur.PrepaidOrders, prev.PrepaidOrders)),
		CODOrders:                Round2(cur.CODOrders),
		CODOrdersChange:          Round2(PercentageChange(cur.CODOrders, prev.CODOrders)),

		Sessions:             Round2(cur.Sessions),
		SessionsChange:       Round2(PercentageChange(cur.Sessions, prev.Sessions)),
		Visitors:             Round2(cur.Visitors),
		VisitorsChange:       Round2(PercentageChange(cur.Visitors, prev.Visitors)),
		Conversions:          Round2(cur.Conversions),
		ConversionsChange:    Round2(PercentageChange(cur.Conversions, prev.Conversions)),
		ConversionRate:       Round2(cur.ConversionRate),
		ConversionRateChange: Round2(PercentageChange(cur.ConversionRate, prev.ConversionRate)),
		CTR:                  Round2(cur.CTR),
		CTRChange:            Round2(PercentageChange(cur.CTR, prev.CTR)),

		ROAS:                Round2(cur.ROAS),
		ROASChange:          Round2(PercentageChange(cur.ROAS, prev.ROAS)),
		POAS:                Round2(cur.POAS),
		POASChange:          Round2(PercentageChange(cur.POAS, prev.POAS)),
		CAC:                 Round2(cur.CAC),
		CACChange:           Round2(PercentageChange(cur.CAC, prev.CAC)),
		LTVToCACRatio:       Round2(cur.LTVToCACRatio),
		LTVToCACRatioChange: Round2(PercentageChange(cur.LTVToCACRatio, prev.LTVToCACRatio)),
	}
}

func buildMetricMap(cur, prev kpiSet) map[string]entity.MetricValue {
	m := make(map[string]entity.MetricValue, 24)
	put := func(name string, c, p float64) {
		pv := Round2(p)
		m[name] = entity.MetricValue{
			Value:         Round2(c),
			Change:        Round2(PercentageChange(c, p)),
			PreviousValue: &pv,
		}
	}
	put("revenue", cur.PnL.Revenue, prev.PnL.Revenue)
	put("grossSales", cur.PnL.GrossSales, prev.PnL.GrossSales)
	put("netProfit", cur.PnL.NetProfit, prev.PnL.NetProfit)
	put("grossProfit", cur.PnL.GrossProfit, prev.PnL.GrossProfit)
	put("orders", cur.Orders, prev.Orders)
	put("unitsSold", cur.UnitsSold, prev.UnitsSold)
	put("avgOrderValue", cur.AvgOrderValue, prev.AvgOrderValue)
	put("adSpend", cur.AdSpend, prev.AdSpend)
	put("roas", cur.ROAS, prev.ROAS)
	put("poas", cur.POAS, prev.POAS)
	put("cac", cur.CAC, prev.CAC)
	put("sessions", cur.Sessions, prev.Sessions)
	put("conversionRate", cur.ConversionRate, prev.ConversionRate)
	put("newCustomers", cur.NewCustomers, prev.NewCustomers)
	return m
}
