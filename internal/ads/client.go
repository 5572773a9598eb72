package ads

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/profitlens/analytics/internal/entity"
)

// Config holds the ad-platform insights client configuration.
type Config struct {
	BaseURL     string        `mapstructure:"base_url"`
	AccessToken string        `mapstructure:"access_token"`
	AccountID   string        `mapstructure:"account_id"`
	Platform    string        `mapstructure:"platform"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Enabled     bool          `mapstructure:"enabled"`
}

// Client fetches daily spend and performance insights from an ad platform's
// reporting API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	accountID  string
	platform   string
	enabled    bool
}

// New creates an insights client. A disabled client returns empty results
// instead of calling out.
func New(cfg *Config) *Client {
	if cfg == nil || !cfg.Enabled {
		slog.Default().Info("ad insights client disabled")
		return &Client{enabled: false}
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	platform := cfg.Platform
	if platform == "" {
		platform = "meta"
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		token:      cfg.AccessToken,
		accountID:  cfg.AccountID,
		platform:   platform,
		enabled:    true,
	}
}

// insightRow matches the reporting API response shape. Numeric fields come
// back as strings.
type insightRow struct {
	DateStart       string `json:"date_start"`
	Level           string `json:"level"`
	EntityID        string `json:"entity_id"`
	Spend           string `json:"spend"`
	Impressions     string `json:"impressions"`
	Clicks          string `json:"clicks"`
	UniqueClicks    string `json:"unique_clicks"`
	Conversions     string `json:"conversions"`
	ConversionValue string `json:"conversion_value"`
}

type insightsResponse struct {
	Data   []insightRow `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
}

func parseNum(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// FetchDailyInsights returns account-level daily insight rows for the
// inclusive date range, following response paging.
func (c *Client) FetchDailyInsights(ctx context.Context, startDate, endDate string) ([]entity.AdDailyInsight, error) {
	if !c.enabled {
		return nil, nil
	}

	q := url.Values{}
	q.Set("level", "account")
	q.Set("time_increment", "1")
	q.Set("time_range[since]", startDate)
	q.Set("time_range[until]", endDate)
	q.Set("fields", "spend,impressions,clicks,unique_clicks,conversions,conversion_value")

	next := fmt.Sprintf("%s/%s/insights?%s", c.baseURL, c.accountID, q.Encode())

	var out []entity.AdDailyInsight
	for next != "" {
		resp, err := c.fetchPage(ctx, next)
		if err != nil {
			return nil, err
		}
		for _, row := range resp.Data {
			level := entity.AdEntityLevel(row.Level)
			if level == "" {
				level = entity.AdLevelAccount
			}
			entityID := row.EntityID
			if entityID == "" {
				entityID = c.accountID
			}
			out = append(out, entity.AdDailyInsight{
				Date:            row.DateStart,
				Platform:        c.platform,
				EntityLevel:     level,
				EntityID:        entityID,
				Spend:           parseNum(row.Spend),
				Impressions:     parseNum(row.Impressions),
				Clicks:          parseNum(row.Clicks),
				UniqueClicks:    parseNum(row.UniqueClicks),
				Conversions:     parseNum(row.Conversions),
				ConversionValue: parseNum(row.ConversionValue),
			})
		}
		next = resp.Paging.Next
	}
	return out, nil
}

func (c *Client) fetchPage(ctx context.Context, rawURL string) (*insightsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create insights request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch insights: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("insights request failed with status %d: %s", resp.StatusCode, body)
	}

	var parsed insightsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode insights response: %w", err)
	}
	return &parsed, nil
}
