package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profitlens/analytics/internal/analytics"
	"github.com/profitlens/analytics/internal/dependency"
	"github.com/profitlens/analytics/internal/entity"
)

type fakeRepo struct {
	rows     []entity.DailyMetricRecord
	policies []entity.CostPolicy
	added    []entity.CostPolicy
}

func (f *fakeRepo) Metrics() dependency.Metrics { return f }
func (f *fakeRepo) Costs() dependency.Costs     { return f }
func (f *fakeRepo) Ads() dependency.Ads         { return f }
func (f *fakeRepo) Close()                      {}
func (f *fakeRepo) IsErrUniqueViolation(error) bool {
	return false
}
func (f *fakeRepo) IsErrorRepeat(error) bool { return false }
func (f *fakeRepo) InTx() bool               { return false }
func (f *fakeRepo) Now() time.Time           { return time.Now() }
func (f *fakeRepo) DB() dependency.DB        { return nil }
func (f *fakeRepo) Tx(ctx context.Context, fn func(context.Context, dependency.Repository) error) error {
	return fn(ctx, f)
}
func (f *fakeRepo) TxBegin(context.Context) (dependency.Repository, error) { return f, nil }
func (f *fakeRepo) TxCommit(context.Context) error                         { return nil }
func (f *fakeRepo) TxRollback(context.Context) error                       { return nil }

func (f *fakeRepo) GetDailyMetrics(_ context.Context, _ uuid.UUID, r entity.DateRange) ([]entity.DailyMetricRecord, error) {
	var out []entity.DailyMetricRecord
	for _, rec := range f.rows {
		if rec.Date >= r.Start && rec.Date <= r.End {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpsertDailyMetric(context.Context, uuid.UUID, entity.DailyMetricRecord) error {
	return nil
}

func (f *fakeRepo) UpdateDailyTraffic(context.Context, uuid.UUID, []entity.TrafficDay) error {
	return nil
}

func (f *fakeRepo) GetActiveCostPolicies(context.Context, uuid.UUID) ([]entity.CostPolicy, error) {
	return f.policies, nil
}

func (f *fakeRepo) AddCostPolicy(_ context.Context, _ uuid.UUID, p entity.CostPolicy) (int, error) {
	f.added = append(f.added, p)
	return len(f.added), nil
}

func (f *fakeRepo) DeactivateCostPolicy(context.Context, uuid.UUID, int) error { return nil }

func (f *fakeRepo) SetManualReturnRate(context.Context, uuid.UUID, decimal.Decimal, *string, *string) error {
	return nil
}

func (f *fakeRepo) GetManualReturnRateEntries(context.Context, uuid.UUID) ([]entity.ManualReturnRateEntry, error) {
	return nil, nil
}

func (f *fakeRepo) GetAdInsightTotals(context.Context, uuid.UUID, entity.DateRange) (entity.AdInsightTotals, error) {
	return entity.AdInsightTotals{}, nil
}

func (f *fakeRepo) UpsertAdInsights(context.Context, uuid.UUID, []entity.AdDailyInsight) (int, error) {
	return 0, nil
}

func (f *fakeRepo) GetAdSyncStatus(context.Context, uuid.UUID, string) (*entity.AdSyncStatus, error) {
	return nil, nil
}

func (f *fakeRepo) SetAdSyncStatus(context.Context, uuid.UUID, entity.AdSyncStatus) error {
	return nil
}

func newTestServer(rep *fakeRepo) *Server {
	s := New(&Config{
		Port:           "8080",
		AllowedOrigins: []string{"*"},
		JWTSecret:      "test-secret",
	})
	s.svc = analytics.New(nil, rep)
	s.rep = rep
	return s
}

func testToken(t *testing.T, s *Server, orgID uuid.UUID) string {
	t.Helper()
	_, ts, err := s.jwtAuth.Encode(map[string]interface{}{
		"org_id": orgID.String(),
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)
	return ts
}

func doRequest(s *Server, method, target, token string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router().ServeHTTP(w, req)
	return w
}

func TestOverviewRequiresToken(t *testing.T) {
	s := newTestServer(&fakeRepo{})
	w := doRequest(s, http.MethodGet, "/api/analytics/overview?start=2026-01-01&end=2026-01-07", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOverviewBadRange(t *testing.T) {
	s := newTestServer(&fakeRepo{})
	token := testToken(t, s, uuid.New())

	w := doRequest(s, http.MethodGet, "/api/analytics/overview?start=2026-01-07", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(s, http.MethodGet, "/api/analytics/overview?start=2026-01-07&end=2026-01-01", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOverview(t *testing.T) {
	rep := &fakeRepo{rows: []entity.DailyMetricRecord{
		{Date: "2026-01-05", Revenue: 500, Orders: 5, UnitsSold: 8},
		{Date: "2026-01-06", Revenue: 300, Orders: 3, UnitsSold: 4},
	}}
	s := newTestServer(rep)
	token := testToken(t, s, uuid.New())

	w := doRequest(s, http.MethodGet, "/api/analytics/overview?start=2026-01-05&end=2026-01-06", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var overview entity.Overview
	require.NoError(t, json.NewDecoder(w.Body).Decode(&overview))
	assert.Equal(t, 800.0, overview.Summary.Revenue)
	assert.Equal(t, 8.0, overview.Summary.Orders)
}

func TestPnLBadGranularity(t *testing.T) {
	s := newTestServer(&fakeRepo{})
	token := testToken(t, s, uuid.New())

	w := doRequest(s, http.MethodGet, "/api/analytics/pnl?start=2026-01-01&end=2026-01-07&granularity=hourly", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPnLTable(t *testing.T) {
	rep := &fakeRepo{rows: []entity.DailyMetricRecord{
		{Date: "2026-01-05", Revenue: 500, Orders: 5},
		{Date: "2026-01-06", Revenue: 300, Orders: 3},
	}}
	s := newTestServer(rep)
	token := testToken(t, s, uuid.New())

	w := doRequest(s, http.MethodGet, "/api/analytics/pnl?start=2026-01-05&end=2026-01-06&granularity=daily", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var result entity.PnLResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	// two day rows plus the total row
	require.Len(t, result.Periods, 3)
	assert.True(t, result.Periods[2].IsTotal)
}

func TestAddCostPolicy(t *testing.T) {
	rep := &fakeRepo{}
	s := newTestServer(rep)
	token := testToken(t, s, uuid.New())

	body := []byte(`{"name":"Warehouse rent","value":"1200","frequency":"monthly","category":"operational"}`)
	w := doRequest(s, http.MethodPost, "/api/analytics/costs/", token, body)
	require.Equal(t, http.StatusCreated, w.Code)

	require.Len(t, rep.added, 1)
	assert.Equal(t, "Warehouse rent", rep.added[0].Name)
	assert.Equal(t, entity.FrequencyMonthly, rep.added[0].Frequency)
	assert.True(t, rep.added[0].IsActive)

	// name is required
	w = doRequest(s, http.MethodPost, "/api/analytics/costs/", token, []byte(`{"value":"10"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(&fakeRepo{})
	w := doRequest(s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
