package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profitlens/analytics/internal/dependency"
	"github.com/profitlens/analytics/internal/entity"
)

// stubRepo serves canned rows filtered by the requested range.
type stubRepo struct {
	rows        []entity.DailyMetricRecord
	policies    []entity.CostPolicy
	rateEntries []entity.ManualReturnRateEntry
	adTotals    map[entity.DateRange]entity.AdInsightTotals
}

func (s *stubRepo) Metrics() dependency.Metrics { return s }
func (s *stubRepo) Costs() dependency.Costs     { return s }
func (s *stubRepo) Ads() dependency.Ads         { return s }
func (s *stubRepo) Close()                      {}
func (s *stubRepo) IsErrUniqueViolation(error) bool {
	return false
}
func (s *stubRepo) IsErrorRepeat(error) bool { return false }
func (s *stubRepo) InTx() bool               { return false }
func (s *stubRepo) Now() time.Time           { return time.Now() }
func (s *stubRepo) DB() dependency.DB        { return nil }
func (s *stubRepo) Tx(ctx context.Context, f func(context.Context, dependency.Repository) error) error {
	return f(ctx, s)
}
func (s *stubRepo) TxBegin(context.Context) (dependency.Repository, error) { return s, nil }
func (s *stubRepo) TxCommit(context.Context) error                         { return nil }
func (s *stubRepo) TxRollback(context.Context) error                       { return nil }

func (s *stubRepo) GetDailyMetrics(_ context.Context, _ uuid.UUID, r entity.DateRange) ([]entity.DailyMetricRecord, error) {
	var out []entity.DailyMetricRecord
	for _, row := range s.rows {
		if row.Date >= r.Start && row.Date <= r.End {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *stubRepo) UpsertDailyMetric(context.Context, uuid.UUID, entity.DailyMetricRecord) error {
	return nil
}

func (s *stubRepo) UpdateDailyTraffic(context.Context, uuid.UUID, []entity.TrafficDay) error {
	return nil
}

func (s *stubRepo) GetActiveCostPolicies(context.Context, uuid.UUID) ([]entity.CostPolicy, error) {
	return s.policies, nil
}

func (s *stubRepo) AddCostPolicy(context.Context, uuid.UUID, entity.CostPolicy) (int, error) {
	return 0, nil
}

func (s *stubRepo) DeactivateCostPolicy(context.Context, uuid.UUID, int) error { return nil }

func (s *stubRepo) SetManualReturnRate(context.Context, uuid.UUID, decimal.Decimal, *string, *string) error {
	return nil
}

func (s *stubRepo) GetManualReturnRateEntries(context.Context, uuid.UUID) ([]entity.ManualReturnRateEntry, error) {
	return s.rateEntries, nil
}

func (s *stubRepo) GetAdInsightTotals(_ context.Context, _ uuid.UUID, r entity.DateRange) (entity.AdInsightTotals, error) {
	return s.adTotals[r], nil
}

func (s *stubRepo) UpsertAdInsights(context.Context, uuid.UUID, []entity.AdDailyInsight) (int, error) {
	return 0, nil
}

func (s *stubRepo) GetAdSyncStatus(context.Context, uuid.UUID, string) (*entity.AdSyncStatus, error) {
	return nil, nil
}

func (s *stubRepo) SetAdSyncStatus(context.Context, uuid.UUID, entity.AdSyncStatus) error {
	return nil
}

func flatDays(r entity.DateRange, revenue, orders, units, cogs float64) []entity.DailyMetricRecord {
	var out []entity.DailyMetricRecord
	for _, d := range enumerateDays(r) {
		out = append(out, entity.DailyMetricRecord{
			Date:      d,
			Revenue:   revenue,
			Orders:    orders,
			UnitsSold: units,
			COGS:      cogs,
		})
	}
	return out
}

func TestLoadOverviewInvalidRange(t *testing.T) {
	svc := New(nil, &stubRepo{})
	_, err := svc.LoadOverview(context.Background(), uuid.New(), entity.DateRange{Start: "2026-02-01", End: "2026-01-01"})
	assert.Error(t, err)
}

func TestLoadOverviewNoData(t *testing.T) {
	svc := New(nil, &stubRepo{})
	ov, err := svc.LoadOverview(context.Background(), uuid.New(), entity.DateRange{Start: "2026-01-01", End: "2026-01-07"})
	require.NoError(t, err)

	assert.False(t, ov.Coverage.HasData)
	assert.False(t, ov.Coverage.HasFullCoverage)
	assert.Zero(t, ov.Summary.Revenue)
	assert.Zero(t, ov.Summary.NetProfit)
}

func TestLoadOverviewComputesChanges(t *testing.T) {
	cur := entity.DateRange{Start: "2026-01-08", End: "2026-01-14"}
	prev := entity.DateRange{Start: "2026-01-01", End: "2026-01-07"}

	rows := append(
		flatDays(prev, 100, 2, 4, 40),
		flatDays(cur, 200, 4, 8, 80)...,
	)
	repo := &stubRepo{
		rows: rows,
		adTotals: map[entity.DateRange]entity.AdInsightTotals{
			cur:  {Spend: 140, Clicks: 70},
			prev: {Spend: 70, Clicks: 35},
		},
	}
	svc := New(nil, repo)

	ov, err := svc.LoadOverview(context.Background(), uuid.New(), cur)
	require.NoError(t, err)

	assert.Equal(t, 1400.0, ov.Summary.Revenue)
	assert.Equal(t, 100.0, ov.Summary.RevenueChange)
	assert.Equal(t, 28.0, ov.Summary.Orders)
	assert.Equal(t, 100.0, ov.Summary.OrdersChange)
	assert.Equal(t, 140.0, ov.Summary.AdSpend)
	assert.Equal(t, 10.0, ov.Summary.ROAS)
	assert.True(t, ov.Coverage.HasFullCoverage)
	require.NotNil(t, ov.PreviousRange)
	assert.Equal(t, prev, *ov.PreviousRange)
	assert.Nil(t, ov.Summary.MonthOverMonthRevenueGrowth)

	rev, ok := ov.Metrics["revenue"]
	require.True(t, ok)
	assert.Equal(t, 1400.0, rev.Value)
	assert.Equal(t, 100.0, rev.Change)
	require.NotNil(t, rev.PreviousValue)
	assert.Equal(t, 700.0, *rev.PreviousValue)
}

func TestLoadOverviewCalendarMonthGrowth(t *testing.T) {
	feb := entity.DateRange{Start: "2026-02-01", End: "2026-02-28"}
	jan := entity.DateRange{Start: "2026-01-01", End: "2026-01-31"}

	rows := append(
		flatDays(jan, 100, 1, 1, 0),
		flatDays(feb, 200, 1, 1, 0)...,
	)
	svc := New(nil, &stubRepo{rows: rows})

	ov, err := svc.LoadOverview(context.Background(), uuid.New(), feb)
	require.NoError(t, err)

	// Feb revenue 5600 vs full-January revenue 3100
	require.NotNil(t, ov.Summary.MonthOverMonthRevenueGrowth)
	assert.InDelta(t, (5600.0-3100.0)/3100.0*100, *ov.Summary.MonthOverMonthRevenueGrowth, 1e-9)
}

func TestLoadOverviewAppliesRetentionAndPolicies(t *testing.T) {
	r := entity.DateRange{Start: "2026-01-01", End: "2026-01-10"}
	rows := flatDays(r, 100, 2, 4, 40)

	perOrder := policy(3, entity.FrequencyPerOrder, entity.CalculationFixed)
	perOrder.Category = entity.CostCategoryPayment

	repo := &stubRepo{
		rows:     rows,
		policies: []entity.CostPolicy{perOrder},
		rateEntries: []entity.ManualReturnRateEntry{
			entry(10, "2026-01-01", "2026-01-31", true, time.Now()),
		},
	}
	svc := New(nil, repo)

	ov, err := svc.LoadOverview(context.Background(), uuid.New(), r)
	require.NoError(t, err)

	// 400 COGS scaled by the 0.9 retention factor
	assert.InDelta(t, 360.0, ov.Summary.COGS, 0.01)
	assert.InDelta(t, 100.0, ov.Summary.RTORevenueLost, 0.01)
	// 20 orders at 3 per order
	assert.InDelta(t, 60.0, ov.Summary.TransactionFees, 0.01)
}

func TestLoadPnLTableInvalidInput(t *testing.T) {
	svc := New(nil, &stubRepo{})
	_, err := svc.LoadPnLTable(context.Background(), uuid.New(), entity.DateRange{Start: "x", End: "y"}, entity.GranularityDaily)
	assert.Error(t, err)

	_, err = svc.LoadPnLTable(context.Background(), uuid.New(),
		entity.DateRange{Start: "2026-01-01", End: "2026-01-07"}, entity.Granularity("hourly"))
	assert.Error(t, err)
}

func TestLoadPnLTableNoData(t *testing.T) {
	svc := New(nil, &stubRepo{})
	res, err := svc.LoadPnLTable(context.Background(), uuid.New(),
		entity.DateRange{Start: "2026-01-01", End: "2026-01-07"}, entity.GranularityDaily)
	require.NoError(t, err)

	assert.Nil(t, res.Metrics)
	assert.Empty(t, res.Periods)
	assert.False(t, res.Coverage.HasData)
}

func TestLoadPnLTableDaily(t *testing.T) {
	r := entity.DateRange{Start: "2026-01-01", End: "2026-01-03"}
	svc := New(nil, &stubRepo{rows: flatDays(r, 100, 2, 4, 40)})

	res, err := svc.LoadPnLTable(context.Background(), uuid.New(), r, entity.GranularityDaily)
	require.NoError(t, err)

	// three day buckets plus the total row
	require.Len(t, res.Periods, 4)
	total := res.Periods[3]
	assert.True(t, total.IsTotal)
	assert.Equal(t, 300.0, total.Metrics.Revenue)

	// growth is flat day over day
	assert.Equal(t, 0.0, res.Periods[1].Growth.Revenue)
	require.NotNil(t, res.Metrics)
	assert.Equal(t, 300.0, res.Metrics.Metrics.Revenue)
}

func TestLoadPnLTableGrowthUsesUnroundedFigures(t *testing.T) {
	// day one revenue rounds to 0.00 in the displayed metrics; growth
	// must still be computed from the exact figure, not the rounded one
	rows := []entity.DailyMetricRecord{
		{Date: "2026-01-01", Revenue: 0.004, Orders: 1, UnitsSold: 1},
		{Date: "2026-01-02", Revenue: 1, Orders: 1, UnitsSold: 1},
	}
	svc := New(nil, &stubRepo{rows: rows})

	res, err := svc.LoadPnLTable(context.Background(), uuid.New(),
		entity.DateRange{Start: "2026-01-01", End: "2026-01-02"}, entity.GranularityDaily)
	require.NoError(t, err)

	require.Len(t, res.Periods, 3)
	assert.Equal(t, 0.0, res.Periods[0].Metrics.Revenue)
	assert.InDelta(t, (1.0-0.004)/0.004*100, res.Periods[1].Growth.Revenue, 0.01)
}

func TestLoadPnLTableMonthlyTotalReconciliation(t *testing.T) {
	// 35 days spanning two calendar months with one per-order policy
	sel := entity.DateRange{Start: "2026-01-10", End: "2026-02-13"}
	table := DeriveTableRangeForGranularity(sel, entity.GranularityMonthly)

	perOrder := policy(5, entity.FrequencyPerOrder, entity.CalculationFixed)
	perOrder.Category = entity.CostCategoryOperational

	repo := &stubRepo{
		rows:     flatDays(table, 100, 2, 4, 40),
		policies: []entity.CostPolicy{perOrder},
	}
	svc := New(nil, repo)

	res, err := svc.LoadPnLTable(context.Background(), uuid.New(), sel, entity.GranularityMonthly)
	require.NoError(t, err)

	require.Len(t, res.Periods, 3)
	total := res.Periods[2]
	require.True(t, total.IsTotal)

	// the synthetic total row equals the whole-table-range aggregate
	assert.InDelta(t, res.Totals.NetProfit, total.Metrics.NetProfit, 1e-9)
	assert.InDelta(t, res.Totals.Revenue, total.Metrics.Revenue, 1e-9)

	// bucket cost allocations sum back to the whole-range amount
	var allocated float64
	for _, p := range res.Periods[:2] {
		allocated += p.Metrics.CustomCosts
	}
	assert.InDelta(t, total.Metrics.CustomCosts, allocated, 0.011)
}

func TestLoadPnLTableSelectedVsTableRange(t *testing.T) {
	sel := entity.DateRange{Start: "2026-01-10", End: "2026-01-20"}
	table := DeriveTableRangeForGranularity(sel, entity.GranularityMonthly)
	svc := New(nil, &stubRepo{rows: flatDays(table, 100, 2, 4, 40)})

	res, err := svc.LoadPnLTable(context.Background(), uuid.New(), sel, entity.GranularityMonthly)
	require.NoError(t, err)

	assert.Equal(t, entity.DateRange{Start: "2026-01-01", End: "2026-01-31"}, res.TableRange)

	// table totals cover the whole month, KPI bundle only the selection
	assert.Equal(t, 3100.0, res.Totals.Revenue)
	require.NotNil(t, res.Metrics)
	assert.Equal(t, 1100.0, res.Metrics.Metrics.Revenue)
	assert.Equal(t, 11, res.Coverage.ExpectedDays)
}

func TestShippingDedup(t *testing.T) {
	svc := New(&Config{ShippingDedup: ShippingDedupConfig{Enabled: true, TolerancePct: 5, ToleranceAbs: 1}}, nil)

	// within 5 percent of the recorded cost: treated as a duplicate
	assert.Equal(t, 0.0, svc.dedupShipping(100, 103))
	// within the absolute tolerance
	assert.Equal(t, 0.0, svc.dedupShipping(10, 10.8))
	// clearly different: both are kept
	assert.Equal(t, 150.0, svc.dedupShipping(100, 150))

	// disabled: always added
	off := New(nil, nil)
	assert.Equal(t, 103.0, off.dedupShipping(100, 103))
}
