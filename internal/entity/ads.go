package entity

import "time"

// AdEntityLevel tells whether an insight row was reported at the ad account
// level or for a sub-entity (campaign, ad set). Account rows are preferred
// when both exist for the same day.
type AdEntityLevel string

const (
	AdLevelAccount  AdEntityLevel = "account"
	AdLevelCampaign AdEntityLevel = "campaign"
	AdLevelAdset    AdEntityLevel = "adset"
)

// AdDailyInsight is one day of ad-platform spend/performance for one entity.
type AdDailyInsight struct {
	Date            string        `db:"date" json:"date"`
	Platform        string        `db:"platform" json:"platform"`
	EntityLevel     AdEntityLevel `db:"entity_level" json:"entityLevel"`
	EntityID        string        `db:"entity_id" json:"entityId"`
	Spend           float64       `db:"spend" json:"spend"`
	Impressions     float64       `db:"impressions" json:"impressions"`
	Clicks          float64       `db:"clicks" json:"clicks"`
	UniqueClicks    float64       `db:"unique_clicks" json:"uniqueClicks"`
	Conversions     float64       `db:"conversions" json:"conversions"`
	ConversionValue float64       `db:"conversion_value" json:"conversionValue"`
}

// AdInsightTotals is the range aggregate of AdDailyInsight rows.
type AdInsightTotals struct {
	Spend           float64 `json:"spend"`
	Impressions     float64 `json:"impressions"`
	Clicks          float64 `json:"clicks"`
	UniqueClicks    float64 `json:"uniqueClicks"`
	Conversions     float64 `json:"conversions"`
	ConversionValue float64 `json:"conversionValue"`
}

// TrafficDay is one day of site traffic reported by the analytics property.
type TrafficDay struct {
	Date        string  `json:"date"`
	Sessions    float64 `json:"sessions"`
	Visitors    float64 `json:"visitors"`
	Conversions float64 `json:"conversions"`
}

// AdSyncStatus records the outcome of the last insight sync per sync type.
type AdSyncStatus struct {
	SyncType      string    `db:"sync_type" json:"syncType"`
	LastSyncDate  string    `db:"last_sync_date" json:"lastSyncDate"`
	LastSyncAt    time.Time `db:"last_sync_at" json:"lastSyncAt"`
	Status        string    `db:"status" json:"status"`
	ErrorMessage  string    `db:"error_message" json:"errorMessage"`
	RecordsSynced int       `db:"records_synced" json:"recordsSynced"`
}
