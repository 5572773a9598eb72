package analytics

import (
	"github.com/profitlens/analytics/internal/entity"
)

// costLines are the per-category policy amounts to merge into an aggregate.
type costLines struct {
	Shipping float64
	Payment  float64
	Custom   float64
}

func linesFromCategories(byCategory map[entity.CostCategory]float64) costLines {
	return costLines{
		Shipping: byCategory[entity.CostCategoryShipping],
		Payment:  byCategory[entity.CostCategoryPayment],
		Custom:   byCategory[entity.CostCategoryOperational],
	}
}

// computePnL turns a retention-adjusted aggregate plus allocated policy
// costs into final P&L figures. The aggregate's COGS, handling fees and
// taxes must already be retention scaled.
func (s *Service) computePnL(agg entity.AggregatedMetrics, lines costLines) entity.PnLMetrics {
	shipping := agg.ShippingCost + s.dedupShipping(agg.ShippingCost, lines.Shipping)
	transactionFees := agg.TransactionFees + lines.Payment
	marketing := agg.MarketingCost

	effectiveRevenue := agg.Revenue - agg.Refunds - agg.RTORevenueLost
	grossProfit := effectiveRevenue - agg.COGS
	netProfit := grossProfit - shipping - transactionFees - agg.HandlingFees - agg.Taxes - marketing - lines.Custom

	m := entity.PnLMetrics{
		GrossSales:      agg.GrossSales,
		Discounts:       agg.Discounts,
		Refunds:         agg.Refunds,
		RTORevenueLost:  agg.RTORevenueLost,
		Revenue:         agg.Revenue,
		COGS:            agg.COGS,
		ShippingCost:    shipping,
		TransactionFees: transactionFees,
		HandlingFees:    agg.HandlingFees,
		Taxes:           agg.Taxes,
		MarketingSpend:  marketing,
		CustomCosts:     lines.Custom,
		GrossProfit:     grossProfit,
		NetProfit:       netProfit,
	}
	if agg.Revenue > 0 {
		m.GrossMargin = finite(grossProfit / agg.Revenue * 100)
		m.NetProfitMargin = finite(netProfit / agg.Revenue * 100)
	}
	return m
}

func pnlChanges(current, previous entity.PnLMetrics) entity.PnLChanges {
	return entity.PnLChanges{
		GrossSales:      PercentageChange(current.GrossSales, previous.GrossSales),
		Discounts:       PercentageChange(current.Discounts, previous.Discounts),
		Refunds:         PercentageChange(current.Refunds, previous.Refunds),
		RTORevenueLost:  PercentageChange(current.RTORevenueLost, previous.RTORevenueLost),
		Revenue:         PercentageChange(current.Revenue, previous.Revenue),
		COGS:            PercentageChange(current.COGS, previous.COGS),
		ShippingCost:    PercentageChange(current.ShippingCost, previous.ShippingCost),
		TransactionFees: PercentageChange(current.TransactionFees, previous.TransactionFees),
		HandlingFees:    PercentageChange(current.HandlingFees, previous.HandlingFees),
		Taxes:           PercentageChange(current.Taxes, previous.Taxes),
		MarketingSpend:  PercentageChange(current.MarketingSpend, previous.MarketingSpend),
		CustomCosts:     PercentageChange(current.CustomCosts, previous.CustomCosts),
		GrossProfit:     PercentageChange(current.GrossProfit, previous.GrossProfit),
		GrossMargin:     PercentageChange(current.GrossMargin, previous.GrossMargin),
		NetProfit:       PercentageChange(current.NetProfit, previous.NetProfit),
		NetProfitMargin: PercentageChange(current.NetProfitMargin, previous.NetProfitMargin),
	}
}

func contextFor(agg entity.AggregatedMetrics, r entity.DateRange) CostContext {
	return CostContext{
		OrdersCount: agg.Orders,
		UnitsSold:   agg.UnitsSold,
		Revenue:     agg.Revenue,
		Range:       r,
	}
}
