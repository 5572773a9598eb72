package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/profitlens/analytics/internal/dependency"
	"github.com/profitlens/analytics/internal/entity"
)

type metricsStore struct {
	*MYSQLStore
}

// Metrics returns an object implementing Metrics interface
func (ms *MYSQLStore) Metrics() dependency.Metrics {
	return &metricsStore{
		MYSQLStore: ms,
	}
}

// dailyMetricRow is the flat DB shape of a daily snapshot. Breakdown
// sub-objects live in dedicated columns, channel revenue as JSON.
type dailyMetricRow struct {
	Date            time.Time `db:"date"`
	Revenue         float64   `db:"revenue"`
	Discounts       float64   `db:"discounts"`
	GrossSales      float64   `db:"gross_sales"`
	Orders          float64   `db:"orders"`
	UnitsSold       float64   `db:"units_sold"`
	COGS            float64   `db:"cogs"`
	ShippingCost    float64   `db:"shipping_cost"`
	TransactionFees float64   `db:"transaction_fees"`
	HandlingFees    float64   `db:"handling_fees"`
	Taxes           float64   `db:"taxes"`
	MarketingCost   float64   `db:"marketing_cost"`
	Refunds         float64   `db:"refunds"`
	CTR             float64   `db:"ctr"`

	NewCustomers       float64 `db:"new_customers"`
	ReturningCustomers float64 `db:"returning_customers"`
	RepeatCustomers    float64 `db:"repeat_customers"`
	PrepaidOrders      float64 `db:"prepaid_orders"`
	CODOrders          float64 `db:"cod_orders"`
	OtherOrders        float64 `db:"other_orders"`

	CancelledOrders float64         `db:"cancelled_orders"`
	ReturnedOrders  float64         `db:"returned_orders"`
	FulfilledOrders sql.NullFloat64 `db:"fulfilled_orders"`
	ChannelRevenue  []byte          `db:"channel_revenue"`

	Sessions    float64 `db:"sessions"`
	Visitors    float64 `db:"visitors"`
	Conversions float64 `db:"conversions"`
}

func (r dailyMetricRow) toEntity() (entity.DailyMetricRecord, error) {
	rec := entity.DailyMetricRecord{
		Date:            r.Date.Format("2006-01-02"),
		Revenue:         r.Revenue,
		Discounts:       r.Discounts,
		GrossSales:      r.GrossSales,
		Orders:          r.Orders,
		UnitsSold:       r.UnitsSold,
		COGS:            r.COGS,
		ShippingCost:    r.ShippingCost,
		TransactionFees: r.TransactionFees,
		HandlingFees:    r.HandlingFees,
		Taxes:           r.Taxes,
		MarketingCost:   r.MarketingCost,
		Refunds:         r.Refunds,
		CTR:             r.CTR,
		Customers: entity.CustomerBreakdown{
			NewCustomers:       r.NewCustomers,
			ReturningCustomers: r.ReturningCustomers,
			RepeatCustomers:    r.RepeatCustomers,
		},
		Payments: entity.PaymentBreakdown{
			PrepaidOrders: r.PrepaidOrders,
			CODOrders:     r.CODOrders,
			OtherOrders:   r.OtherOrders,
		},
		CancelledOrders: r.CancelledOrders,
		ReturnedOrders:  r.ReturnedOrders,
		Sessions:        r.Sessions,
		Visitors:        r.Visitors,
		Conversions:     r.Conversions,
	}
	if r.FulfilledOrders.Valid {
		v := r.FulfilledOrders.Float64
		rec.FulfilledOrders = &v
	}
	if len(r.ChannelRevenue) > 0 {
		if err := json.Unmarshal(r.ChannelRevenue, &rec.ChannelRevenues); err != nil {
			return rec, fmt.Errorf("unmarshal channel revenue for %s: %w", r.Date, err)
		}
	}
	return rec, nil
}

// GetDailyMetrics retrieves the snapshots for the inclusive date range
// ordered ascending by date.
func (ms *MYSQLStore) GetDailyMetrics(ctx context.Context, orgID uuid.UUID, r entity.DateRange) ([]entity.DailyMetricRecord, error) {
	query := `
	SELECT date, revenue, discounts, gross_sales, orders, units_sold, cogs,
		shipping_cost, transaction_fees, handling_fees, taxes, marketing_cost,
		refunds, ctr, new_customers, returning_customers, repeat_customers,
		prepaid_orders, cod_orders, other_orders, cancelled_orders,
		returned_orders, fulfilled_orders, channel_revenue, sessions,
		visitors, conversions
	FROM daily_metric
	WHERE org_id = :orgId AND date BETWEEN :start AND :end
	ORDER BY date ASC`

	rows, err := QueryListNamed[dailyMetricRow](ctx, ms.DB(), query, map[string]any{
		"orgId": orgID.String(),
		"start": r.Start,
		"end":   r.End,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []entity.DailyMetricRecord{}, nil
		}
		return nil, fmt.Errorf("failed to get daily metrics: %w", err)
	}

	out := make([]entity.DailyMetricRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// UpsertDailyMetric writes or replaces one day's snapshot. Used by the
// ingestion path and tests.
func (ms *MYSQLStore) UpsertDailyMetric(ctx context.Context, orgID uuid.UUID, rec entity.DailyMetricRecord) error {
	var channelJSON any
	if len(rec.ChannelRevenues) > 0 {
		b, err := json.Marshal(rec.ChannelRevenues)
		if err != nil {
			return fmt.Errorf("marshal channel revenue: %w", err)
		}
		channelJSON = string(b)
	}

	query := `
	INSERT INTO daily_metric (
		org_id, date, revenue, discounts, gross_sales, orders, units_sold,
		cogs, shipping_cost, transaction_fees, handling_fees, taxes,
		marketing_cost, refunds, ctr, new_customers, returning_customers,
		repeat_customers, prepaid_orders, cod_orders, other_orders,
		cancelled_orders, returned_orders, fulfilled_orders, channel_revenue,
		sessions, visitors, conversions
	) VALUES (
		:orgId, :date, :revenue, :discounts, :grossSales, :orders, :unitsSold,
		:cogs, :shippingCost, :transactionFees, :handlingFees, :taxes,
		:marketingCost, :refunds, :ctr, :newCustomers, :returningCustomers,
		:repeatCustomers, :prepaidOrders, :codOrders, :otherOrders,
		:cancelledOrders, :returnedOrders, :fulfilledOrders, :channelRevenue,
		:sessions, :visitors, :conversions
	) ON DUPLICATE KEY UPDATE
		revenue = VALUES(revenue), discounts = VALUES(discounts),
		gross_sales = VALUES(gross_sales), orders = VALUES(orders),
		units_sold = VALUES(units_sold), cogs = VALUES(cogs),
		shipping_cost = VALUES(shipping_cost),
		transaction_fees = VALUES(transaction_fees),
		handling_fees = VALUES(handling_fees), taxes = VALUES(taxes),
		marketing_cost = VALUES(marketing_cost), refunds = VALUES(refunds),
		ctr = VALUES(ctr), new_customers = VALUES(new_customers),
		returning_customers = VALUES(returning_customers),
		repeat_customers = VALUES(repeat_customers),
		prepaid_orders = VALUES(prepaid_orders),
		cod_orders = VALUES(cod_orders), other_orders = VALUES(other_orders),
		cancelled_orders = VALUES(cancelled_orders),
		returned_orders = VALUES(returned_orders),
		fulfilled_orders = VALUES(fulfilled_orders),
		channel_revenue = VALUES(channel_revenue),
		sessions = VALUES(sessions), visitors = VALUES(visitors),
		conversions = VALUES(conversions)`

	params := map[string]any{
		"orgId": orgID.String(), "date": rec.Date,
		"revenue": rec.Revenue, "discounts": rec.Discounts,
		"grossSales": rec.GrossSales, "orders": rec.Orders,
		"unitsSold": rec.UnitsSold, "cogs": rec.COGS,
		"shippingCost": rec.ShippingCost, "transactionFees": rec.TransactionFees,
		"handlingFees": rec.HandlingFees, "taxes": rec.Taxes,
		"marketingCost": rec.MarketingCost, "refunds": rec.Refunds,
		"ctr":          rec.CTR,
		"newCustomers": rec.Customers.NewCustomers,
		"returningCustomers": rec.Customers.ReturningCustomers,
		"repeatCustomers":    rec.Customers.RepeatCustomers,
		"prepaidOrders":      rec.Payments.PrepaidOrders,
		"codOrders":          rec.Payments.CODOrders,
		"otherOrders":        rec.Payments.OtherOrders,
		"cancelledOrders":    rec.CancelledOrders,
		"returnedOrders":     rec.ReturnedOrders,
		"fulfilledOrders":    rec.FulfilledOrders,
		"channelRevenue":     channelJSON,
		"sessions":           rec.Sessions,
		"visitors":           rec.Visitors,
		"conversions":        rec.Conversions,
	}
	if err := ExecNamed(ctx, ms.DB(), query, params); err != nil {
		return fmt.Errorf("failed to upsert daily metric: %w", err)
	}
	return nil
}

// UpdateDailyTraffic writes per-day traffic counts, creating a bare
// snapshot row when the day has no commerce data yet.
func (ms *MYSQLStore) UpdateDailyTraffic(ctx context.Context, orgID uuid.UUID, days []entity.TrafficDay) error {
	if len(days) == 0 {
		return nil
	}
	return ms.Tx(ctx, func(ctx context.Context, rep dependency.Repository) error {
		query := `
		INSERT INTO daily_metric (org_id, date, sessions, visitors, conversions)
		VALUES (:orgId, :date, :sessions, :visitors, :conversions)
		ON DUPLICATE KEY UPDATE
			sessions = VALUES(sessions), visitors = VALUES(visitors),
			conversions = VALUES(conversions)`

		for _, d := range days {
			if err := ExecNamed(ctx, rep.DB(), query, map[string]any{
				"orgId":       orgID.String(),
				"date":        d.Date,
				"sessions":    d.Sessions,
				"visitors":    d.Visitors,
				"conversions": d.Conversions,
			}); err != nil {
				return fmt.Errorf("failed to update traffic for %s: %w", d.Date, err)
			}
		}
		return nil
	})
}
