package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profitlens/analytics/internal/entity"
)

func weekBuckets(t *testing.T, r entity.DateRange) []BucketContext {
	t.Helper()
	periods := BuildPeriods(DeriveTableRangeForGranularity(r, entity.GranularityWeekly), entity.GranularityWeekly)
	require.NotEmpty(t, periods)
	out := make([]BucketContext, len(periods))
	for i, p := range periods {
		out[i] = BucketContext{Key: p.Key, StartMs: p.StartMs, EndMs: p.EndMs}
	}
	return out
}

func TestAllocateConservation(t *testing.T) {
	r := entity.DateRange{Start: "2026-01-01", End: "2026-02-04"}
	ctx := CostContext{OrdersCount: 70, UnitsSold: 140, Revenue: 7000, Range: r}

	buckets := weekBuckets(t, r)
	for i := range buckets {
		buckets[i].Orders = float64(10 * (i + 1))
		buckets[i].Units = float64(20 * (i + 1))
		buckets[i].Revenue = float64(1000 * (i + 1))
	}

	cases := []entity.CostPolicy{
		policy(3, entity.FrequencyPerOrder, entity.CalculationFixed),
		policy(2, entity.FrequencyPerItem, entity.CalculationFixed),
		policy(1.5, entity.FrequencyMonthly, entity.CalculationPercentage),
		policy(400, entity.FrequencyMonthly, entity.CalculationFixed),
	}
	for _, p := range cases {
		total := EvaluatePolicy(p, ctx)
		require.NotZero(t, total)

		alloc := AllocatePolicy(p, ctx, buckets)
		var sum float64
		for _, v := range alloc {
			sum += v
		}
		assert.InDelta(t, total, sum, 1e-9, "policy %s", p.Frequency)
	}
}

func TestAllocateWeightsByOrders(t *testing.T) {
	r := entity.DateRange{Start: "2026-01-05", End: "2026-01-18"}
	ctx := CostContext{OrdersCount: 30, Range: r}
	buckets := weekBuckets(t, r)
	require.Len(t, buckets, 2)
	buckets[0].Orders = 10
	buckets[1].Orders = 20

	p := policy(1, entity.FrequencyPerOrder, entity.CalculationFixed)
	alloc := AllocatePolicy(p, ctx, buckets)
	assert.InDelta(t, 10.0, alloc[buckets[0].Key], 1e-9)
	assert.InDelta(t, 20.0, alloc[buckets[1].Key], 1e-9)
}

func TestAllocateOverlapFallbackWeight(t *testing.T) {
	r := entity.DateRange{Start: "2026-01-05", End: "2026-01-18"}
	ctx := CostContext{OrdersCount: 10, Range: r}
	buckets := weekBuckets(t, r)
	require.Len(t, buckets, 2)
	buckets[0].Orders = 10
	// second week overlaps the policy window but saw no orders

	p := policy(1, entity.FrequencyPerOrder, entity.CalculationFixed)
	alloc := AllocatePolicy(p, ctx, buckets)

	assert.Greater(t, alloc[buckets[1].Key], 0.0)
	assert.InDelta(t, 10.0, alloc[buckets[0].Key]+alloc[buckets[1].Key], 1e-9)
}

func TestAllocateRespectsPolicyWindow(t *testing.T) {
	r := entity.DateRange{Start: "2026-01-05", End: "2026-01-18"}
	ctx := CostContext{Range: r}
	buckets := weekBuckets(t, r)
	require.Len(t, buckets, 2)

	p := policy(100, entity.FrequencyMonthly, entity.CalculationFixed)
	p.EffectiveFrom = strptr("2026-01-05")
	p.EffectiveTo = strptr("2026-01-12")

	alloc := AllocatePolicy(p, ctx, buckets)
	assert.NotZero(t, alloc[buckets[0].Key])
	assert.Zero(t, alloc[buckets[1].Key])
}

func TestAllocateZeroTotal(t *testing.T) {
	p := policy(0, entity.FrequencyPerOrder, entity.CalculationFixed)
	r := entity.DateRange{Start: "2026-01-05", End: "2026-01-18"}
	alloc := AllocatePolicy(p, CostContext{Range: r}, weekBuckets(t, r))
	assert.Empty(t, alloc)
}

func TestCategoryAllocationsSkipInactive(t *testing.T) {
	r := entity.DateRange{Start: "2026-01-05", End: "2026-01-11"}
	ctx := CostContext{OrdersCount: 10, Range: r}
	buckets := weekBuckets(t, r)

	active := policy(2, entity.FrequencyPerOrder, entity.CalculationFixed)
	active.Category = entity.CostCategoryShipping
	inactive := policy(5, entity.FrequencyPerOrder, entity.CalculationFixed)
	inactive.IsActive = false

	byBucket := CategoryAllocations([]entity.CostPolicy{active, inactive}, ctx, buckets)
	require.Len(t, buckets, 1)
	assert.InDelta(t, 20.0, byBucket[buckets[0].Key][entity.CostCategoryShipping], 1e-9)
	assert.Zero(t, byBucket[buckets[0].Key][entity.CostCategoryOperational])
}

func TestTotalPolicyCosts(t *testing.T) {
	ctx := janContext()
	shipping := policy(1, entity.FrequencyPerOrder, entity.CalculationFixed)
	shipping.Category = entity.CostCategoryShipping
	fees := policy(2, entity.FrequencyMonthly, entity.CalculationPercentage)
	fees.Category = entity.CostCategoryPayment

	totals := TotalPolicyCosts([]entity.CostPolicy{shipping, fees}, ctx)
	assert.InDelta(t, 100.0, totals[entity.CostCategoryShipping], 1e-9)
	assert.InDelta(t, 200.0, totals[entity.CostCategoryPayment], 1e-9)
}
