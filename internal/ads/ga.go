package ads

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	analyticsdata "google.golang.org/api/analyticsdata/v1beta"
	"google.golang.org/api/option"

	"github.com/profitlens/analytics/internal/entity"
)

// GAConfig holds the analytics property client configuration.
type GAConfig struct {
	PropertyID      string `mapstructure:"property_id"`
	CredentialsJSON string `mapstructure:"credentials_json"` // path to service account JSON file, or raw JSON (for env vars)
	Enabled         bool   `mapstructure:"enabled"`
}

// TrafficClient reads daily session and conversion counts from the
// analytics property via the Data API.
type TrafficClient struct {
	service    *analyticsdata.Service
	propertyID string
	enabled    bool
}

// NewTrafficClient creates a traffic client.
func NewTrafficClient(ctx context.Context, cfg *GAConfig) (*TrafficClient, error) {
	if cfg == nil || !cfg.Enabled {
		slog.Default().InfoContext(ctx, "traffic analytics disabled")
		return &TrafficClient{enabled: false}, nil
	}
	if cfg.PropertyID == "" {
		return nil, fmt.Errorf("analytics property_id is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsJSON != "" {
		jsonBytes := []byte(cfg.CredentialsJSON)
		if len(jsonBytes) > 0 && jsonBytes[0] == '{' {
			opts = append(opts, option.WithCredentialsJSON(jsonBytes))
		} else {
			opts = append(opts, option.WithCredentialsFile(cfg.CredentialsJSON))
		}
	}

	service, err := analyticsdata.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create analytics data service: %w", err)
	}

	slog.Default().InfoContext(ctx, "traffic analytics client initialized",
		slog.String("property_id", cfg.PropertyID))

	return &TrafficClient{
		service:    service,
		propertyID: cfg.PropertyID,
		enabled:    true,
	}, nil
}

// GetDailyTraffic fetches per-day sessions, visitors and conversions for
// the inclusive date range.
func (c *TrafficClient) GetDailyTraffic(ctx context.Context, startDate, endDate string) ([]entity.TrafficDay, error) {
	if !c.enabled {
		return nil, nil
	}

	req := &analyticsdata.RunReportRequest{
		DateRanges: []*analyticsdata.DateRange{
			{StartDate: startDate, EndDate: endDate},
		},
		Dimensions: []*analyticsdata.Dimension{
			{Name: "date"},
		},
		Metrics: []*analyticsdata.Metric{
			{Name: "sessions"},
			{Name: "totalUsers"},
			{Name: "conversions"},
		},
		OrderBys: []*analyticsdata.OrderBy{
			{Dimension: &analyticsdata.DimensionOrderBy{DimensionName: "date"}},
		},
	}

	resp, err := c.service.Properties.RunReport("properties/"+c.propertyID, req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to run traffic report: %w", err)
	}

	out := make([]entity.TrafficDay, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		if len(row.DimensionValues) < 1 || len(row.MetricValues) < 3 {
			continue
		}
		// the API reports dates as YYYYMMDD
		raw := row.DimensionValues[0].Value
		if len(raw) != 8 {
			continue
		}
		out = append(out, entity.TrafficDay{
			Date:        raw[:4] + "-" + raw[4:6] + "-" + raw[6:],
			Sessions:    metricValue(row.MetricValues, 0),
			Visitors:    metricValue(row.MetricValues, 1),
			Conversions: metricValue(row.MetricValues, 2),
		})
	}
	return out, nil
}

func metricValue(values []*analyticsdata.MetricValue, i int) float64 {
	if i >= len(values) {
		return 0
	}
	f, err := strconv.ParseFloat(values[i].Value, 64)
	if err != nil {
		return 0
	}
	return f
}
