package analytics

import (
	"github.com/profitlens/analytics/internal/entity"
)

// BucketContext is the per-bucket activity used to weight cost allocation.
type BucketContext struct {
	Key     string
	StartMs int64
	EndMs   int64
	Orders  float64
	Units   float64
	Revenue float64
}

// AllocatePolicy spreads a policy's whole-range amount across buckets by
// weighted proration. Natural weights (orders, units, revenue) apply per
// accrual mode; any bucket whose natural weight is zero but still overlaps
// the policy window falls back to its overlap milliseconds. The rounding
// remainder is folded into the last bucket with a non-zero share so the
// allocations always sum back to the evaluated total.
func AllocatePolicy(p entity.CostPolicy, ctx CostContext, buckets []BucketContext) map[string]float64 {
	out := make(map[string]float64, len(buckets))
	total := EvaluatePolicy(p, ctx)
	if total == 0 || len(buckets) == 0 {
		return out
	}

	ctxStart, ctxEnd, ok := rangeWindowMs(ctx.Range)
	if !ok {
		return out
	}
	polStart, polEnd := policyWindowMs(p, ctxStart, ctxEnd)
	mode := ClassifyAccrual(p)

	weights := make([]float64, len(buckets))
	var weightSum float64
	for i, b := range buckets {
		overlap := overlapMs(polStart, polEnd, b.StartMs, b.EndMs)
		if overlap <= 0 {
			continue
		}
		var w float64
		switch mode {
		case AccrualPerOrder:
			w = b.Orders
		case AccrualPerUnit:
			w = b.Units
		case AccrualPercentage:
			w = b.Revenue
		default:
			w = float64(overlap)
		}
		if w <= 0 {
			w = float64(overlap)
		}
		weights[i] = w
		weightSum += w
	}
	if weightSum <= 0 {
		return out
	}

	var allocated float64
	lastNonZero := -1
	for i, b := range buckets {
		if weights[i] == 0 {
			continue
		}
		share := total * weights[i] / weightSum
		out[b.Key] = share
		allocated += share
		lastNonZero = i
	}
	if lastNonZero >= 0 {
		out[buckets[lastNonZero].Key] += total - allocated
	}
	return out
}

// CategoryAllocations sums per-bucket allocations for every active policy,
// keyed by bucket then cost category.
func CategoryAllocations(policies []entity.CostPolicy, ctx CostContext, buckets []BucketContext) map[string]map[entity.CostCategory]float64 {
	out := make(map[string]map[entity.CostCategory]float64, len(buckets))
	for _, b := range buckets {
		out[b.Key] = make(map[entity.CostCategory]float64)
	}
	for _, p := range policies {
		if !p.IsActive {
			continue
		}
		for key, amount := range AllocatePolicy(p, ctx, buckets) {
			out[key][p.Category] += amount
		}
	}
	return out
}

// TotalPolicyCosts evaluates every active policy against one context and
// sums the amounts per category.
func TotalPolicyCosts(policies []entity.CostPolicy, ctx CostContext) map[entity.CostCategory]float64 {
	out := make(map[entity.CostCategory]float64)
	for _, p := range policies {
		if !p.IsActive {
			continue
		}
		out[p.Category] += EvaluatePolicy(p, ctx)
	}
	return out
}
