package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/profitlens/analytics/internal/entity"
)

func day(date string, revenue, orders float64) entity.DailyMetricRecord {
	return entity.DailyMetricRecord{Date: date, Revenue: revenue, Orders: orders}
}

func TestMergeAdditive(t *testing.T) {
	rows := []entity.DailyMetricRecord{
		{Date: "2026-01-01", Revenue: 100, Discounts: 10, Orders: 2, UnitsSold: 3, COGS: 40},
		{Date: "2026-01-02", Revenue: 200, Discounts: 20, Orders: 4, UnitsSold: 6, COGS: 80},
		{Date: "2026-01-03", Revenue: 300, Discounts: 30, Orders: 6, UnitsSold: 9, COGS: 120},
	}

	whole := Merge(rows)
	first := Merge(rows[:1])
	rest := Merge(rows[1:])

	assert.InDelta(t, whole.Revenue, first.Revenue+rest.Revenue, 1e-9)
	assert.InDelta(t, whole.Discounts, first.Discounts+rest.Discounts, 1e-9)
	assert.InDelta(t, whole.Orders, first.Orders+rest.Orders, 1e-9)
	assert.InDelta(t, whole.UnitsSold, first.UnitsSold+rest.UnitsSold, 1e-9)
	assert.InDelta(t, whole.COGS, first.COGS+rest.COGS, 1e-9)
	assert.Equal(t, whole.Days, first.Days+rest.Days)
}

func TestMergeCommutative(t *testing.T) {
	rows := []entity.DailyMetricRecord{
		day("2026-01-01", 100, 2),
		day("2026-01-02", 200, 4),
		day("2026-01-03", 50, 1),
	}
	reversed := []entity.DailyMetricRecord{rows[2], rows[1], rows[0]}

	assert.Equal(t, Merge(rows).Revenue, Merge(reversed).Revenue)
	assert.Equal(t, Merge(rows).Orders, Merge(reversed).Orders)
}

func TestMergeCTRAveragedOverNonZeroSamples(t *testing.T) {
	rows := []entity.DailyMetricRecord{
		{Date: "2026-01-01", CTR: 2},
		{Date: "2026-01-02", CTR: 0},
		{Date: "2026-01-03", CTR: 4},
	}
	agg := Merge(rows)
	assert.Equal(t, 3.0, agg.CTR)
}

func TestMergeGrossSalesFallback(t *testing.T) {
	rows := []entity.DailyMetricRecord{
		{Date: "2026-01-01", Revenue: 90, Discounts: 10},
		{Date: "2026-01-02", Revenue: 100, Discounts: 5, GrossSales: 120},
	}
	agg := Merge(rows)
	assert.Equal(t, 220.0, agg.GrossSales)
}

func TestMergeBreakdownsAndChannels(t *testing.T) {
	rows := []entity.DailyMetricRecord{
		{
			Date:      "2026-01-01",
			Customers: entity.CustomerBreakdown{NewCustomers: 3, ReturningCustomers: 2},
			Payments:  entity.PaymentBreakdown{PrepaidOrders: 4, CODOrders: 1},
			ChannelRevenues: []entity.ChannelRevenue{
				{Channel: "online", Revenue: 80},
				{Channel: "pos", Revenue: 20},
			},
		},
		{
			Date:      "2026-01-02",
			Customers: entity.CustomerBreakdown{NewCustomers: 1, RepeatCustomers: 5},
			Payments:  entity.PaymentBreakdown{CODOrders: 2, OtherOrders: 1},
			ChannelRevenues: []entity.ChannelRevenue{
				{Channel: "online", Revenue: 40},
			},
		},
	}
	agg := Merge(rows)
	assert.Equal(t, 4.0, agg.Customers.NewCustomers)
	assert.Equal(t, 2.0, agg.Customers.ReturningCustomers)
	assert.Equal(t, 5.0, agg.Customers.RepeatCustomers)
	assert.Equal(t, 4.0, agg.Payments.PrepaidOrders)
	assert.Equal(t, 3.0, agg.Payments.CODOrders)
	assert.Equal(t, 120.0, agg.ChannelRevenue["online"])
	assert.Equal(t, 20.0, agg.ChannelRevenue["pos"])
}

func TestMergeEmpty(t *testing.T) {
	agg := Merge(nil)
	assert.Equal(t, 0.0, agg.Revenue)
	assert.Equal(t, 0.0, agg.CTR)
	assert.Equal(t, 0, agg.Days)
}

func TestCoverageFor(t *testing.T) {
	r := entity.DateRange{Start: "2026-01-01", End: "2026-01-05"}

	cov := CoverageFor(r, nil)
	assert.False(t, cov.HasData)
	assert.False(t, cov.HasFullCoverage)
	assert.Equal(t, 5, cov.ExpectedDays)
	assert.Equal(t, 0, cov.AvailableDays)

	cov = CoverageFor(r, []entity.DailyMetricRecord{
		day("2026-01-02", 10, 1),
		day("2026-01-04", 10, 1),
	})
	assert.True(t, cov.HasData)
	assert.False(t, cov.HasFullCoverage)
	assert.Equal(t, 2, cov.AvailableDays)
	assert.Equal(t, "2026-01-02", cov.FirstAvailable)
	assert.Equal(t, "2026-01-04", cov.LastAvailable)

	full := make([]entity.DailyMetricRecord, 0, 5)
	for i := 1; i <= 5; i++ {
		full = append(full, day(ShiftDateString("2026-01-01", i-1), 10, 1))
	}
	cov = CoverageFor(r, full)
	assert.True(t, cov.HasFullCoverage)
}
