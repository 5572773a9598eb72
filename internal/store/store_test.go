package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profitlens/analytics/internal/entity"
)

func newTestDB(t *testing.T) *MYSQLStore {
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TEST_MYSQL_DSN not set")
	}
	db, err := NewForTest(context.Background(), Config{
		DSN:         dsn,
		Automigrate: true,
	})
	require.NoError(t, err)

	for _, table := range []string{
		"daily_metric", "cost_policy", "manual_return_rate",
		"ad_insight_daily", "ad_sync_status",
	} {
		_, err = db.db.ExecContext(context.Background(), "DELETE FROM "+table)
		require.NoError(t, err)
	}
	return db
}

func TestDailyMetricsRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	orgID := uuid.New()

	rec := entity.DailyMetricRecord{
		Date:            "2026-01-05",
		Revenue:         1200.50,
		Discounts:       100,
		GrossSales:      1300.50,
		Orders:          12,
		UnitsSold:       20,
		COGS:            400,
		ShippingCost:    60,
		TransactionFees: 24,
		Refunds:         30,
		CTR:             1.8,
		Customers:       entity.CustomerBreakdown{NewCustomers: 5, ReturningCustomers: 3},
		Payments:        entity.PaymentBreakdown{PrepaidOrders: 8, CODOrders: 4},
		ChannelRevenues: []entity.ChannelRevenue{{Channel: "online", Revenue: 1000}},
		Sessions:        300,
		Visitors:        250,
		Conversions:     12,
	}
	require.NoError(t, db.UpsertDailyMetric(ctx, orgID, rec))

	got, err := db.GetDailyMetrics(ctx, orgID, entity.DateRange{Start: "2026-01-01", End: "2026-01-31"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2026-01-05", got[0].Date)
	assert.InDelta(t, 1200.50, got[0].Revenue, 1e-6)
	assert.Equal(t, 5.0, got[0].Customers.NewCustomers)
	require.Len(t, got[0].ChannelRevenues, 1)
	assert.Equal(t, "online", got[0].ChannelRevenues[0].Channel)

	// upsert replaces the same day
	rec.Revenue = 1500
	require.NoError(t, db.UpsertDailyMetric(ctx, orgID, rec))
	got, err = db.GetDailyMetrics(ctx, orgID, entity.DateRange{Start: "2026-01-05", End: "2026-01-05"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 1500.0, got[0].Revenue, 1e-6)

	// ranges are org scoped
	got, err = db.GetDailyMetrics(ctx, uuid.New(), entity.DateRange{Start: "2026-01-01", End: "2026-01-31"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUpdateDailyTraffic(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	orgID := uuid.New()

	require.NoError(t, db.UpsertDailyMetric(ctx, orgID, entity.DailyMetricRecord{
		Date: "2026-01-05", Revenue: 100, Orders: 1,
	}))

	require.NoError(t, db.UpdateDailyTraffic(ctx, orgID, []entity.TrafficDay{
		{Date: "2026-01-05", Sessions: 120, Visitors: 100, Conversions: 4},
		{Date: "2026-01-06", Sessions: 80, Visitors: 70, Conversions: 2},
	}))

	got, err := db.GetDailyMetrics(ctx, orgID, entity.DateRange{Start: "2026-01-05", End: "2026-01-06"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	// commerce figures survive a traffic update
	assert.Equal(t, 100.0, got[0].Revenue)
	assert.Equal(t, 120.0, got[0].Sessions)
	// the second day is a bare traffic-only row
	assert.Equal(t, 0.0, got[1].Revenue)
	assert.Equal(t, 80.0, got[1].Sessions)
}

func TestCostPolicies(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	orgID := uuid.New()

	from := "2026-01-10"
	to := "2026-01-20"
	id, err := db.AddCostPolicy(ctx, orgID, entity.CostPolicy{
		Name:          "warehouse rent",
		Value:         decimal.NewFromInt(500),
		Frequency:     entity.FrequencyMonthly,
		Calculation:   entity.CalculationFixed,
		Category:      entity.CostCategoryOperational,
		EffectiveFrom: &from,
		EffectiveTo:   &to,
		IsActive:      true,
	})
	require.NoError(t, err)
	require.NotZero(t, id)

	policies, err := db.GetActiveCostPolicies(ctx, orgID)
	require.NoError(t, err)
	require.Len(t, policies, 1)
	assert.Equal(t, "warehouse rent", policies[0].Name)
	assert.True(t, policies[0].Value.Equal(decimal.NewFromInt(500)))
	require.NotNil(t, policies[0].EffectiveFrom)
	assert.Equal(t, "2026-01-10", *policies[0].EffectiveFrom)

	require.NoError(t, db.DeactivateCostPolicy(ctx, orgID, id))
	policies, err = db.GetActiveCostPolicies(ctx, orgID)
	require.NoError(t, err)
	assert.Empty(t, policies)
}

func TestManualReturnRates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	orgID := uuid.New()

	require.NoError(t, db.SetManualReturnRate(ctx, orgID, decimal.NewFromInt(10), nil, nil))
	require.NoError(t, db.SetManualReturnRate(ctx, orgID, decimal.NewFromInt(15), nil, nil))

	entries, err := db.GetManualReturnRateEntries(ctx, orgID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var active int
	for _, e := range entries {
		if e.IsActive {
			active++
			assert.Equal(t, 15.0, e.RatePercent)
		}
	}
	assert.Equal(t, 1, active)
}

func TestAdInsights(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	orgID := uuid.New()

	rows := []entity.AdDailyInsight{
		{Date: "2026-01-05", Platform: "meta", EntityLevel: entity.AdLevelAccount, EntityID: "acct-1", Spend: 100, Clicks: 50},
		{Date: "2026-01-05", Platform: "meta", EntityLevel: entity.AdLevelCampaign, EntityID: "camp-1", Spend: 60, Clicks: 30},
		{Date: "2026-01-06", Platform: "meta", EntityLevel: entity.AdLevelCampaign, EntityID: "camp-1", Spend: 40, Clicks: 20},
	}
	n, err := db.UpsertAdInsights(ctx, orgID, rows)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// account rows shadow campaign rows on the same day
	totals, err := db.GetAdInsightTotals(ctx, orgID, entity.DateRange{Start: "2026-01-01", End: "2026-01-31"})
	require.NoError(t, err)
	assert.InDelta(t, 140.0, totals.Spend, 1e-6)
	assert.InDelta(t, 70.0, totals.Clicks, 1e-6)

	// writing the same (platform, entity, day) again replaces the values
	n, err = db.UpsertAdInsights(ctx, orgID, []entity.AdDailyInsight{
		{Date: "2026-01-05", Platform: "meta", EntityLevel: entity.AdLevelAccount, EntityID: "acct-1", Spend: 120, Clicks: 55},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	totals, err = db.GetAdInsightTotals(ctx, orgID, entity.DateRange{Start: "2026-01-01", End: "2026-01-31"})
	require.NoError(t, err)
	assert.InDelta(t, 160.0, totals.Spend, 1e-6)
	assert.InDelta(t, 75.0, totals.Clicks, 1e-6)
}

func TestAdSyncStatus(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	orgID := uuid.New()

	got, err := db.GetAdSyncStatus(ctx, orgID, "meta_insights")
	require.NoError(t, err)
	assert.Nil(t, got)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, db.SetAdSyncStatus(ctx, orgID, entity.AdSyncStatus{
		SyncType:      "meta_insights",
		LastSyncDate:  "2026-01-06",
		LastSyncAt:    now,
		Status:        "ok",
		RecordsSynced: 3,
	}))

	got, err = db.GetAdSyncStatus(ctx, orgID, "meta_insights")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2026-01-06", got.LastSyncDate)
	assert.Equal(t, "ok", got.Status)
	assert.Equal(t, 3, got.RecordsSynced)
}
