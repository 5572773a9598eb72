package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CostCategory groups cost policies for per-bucket category sums.
type CostCategory string

const (
	CostCategoryShipping    CostCategory = "shipping"
	CostCategoryPayment     CostCategory = "payment"
	CostCategoryOperational CostCategory = "operational"
)

// CostFrequency is the recurrence of a cost policy, used to derive the
// proration denominator when the policy has no explicit window.
type CostFrequency string

const (
	FrequencyDaily      CostFrequency = "daily"
	FrequencyWeekly     CostFrequency = "weekly"
	FrequencyBiweekly   CostFrequency = "biweekly"
	FrequencyMonthly    CostFrequency = "monthly"
	FrequencyBimonthly  CostFrequency = "bimonthly"
	FrequencyQuarterly  CostFrequency = "quarterly"
	FrequencyHalfYearly CostFrequency = "half_yearly"
	FrequencyAnnual     CostFrequency = "annual"
	FrequencyPerOrder   CostFrequency = "per_order"
	FrequencyPerItem    CostFrequency = "per_item"
)

// CostCalculation distinguishes flat monetary values from percentage-of-revenue.
type CostCalculation string

const (
	CalculationFixed      CostCalculation = "fixed"
	CalculationPercentage CostCalculation = "percentage"
)

// CostPolicy is a merchant-defined cost line. Value is monetary for fixed,
// per-order and per-unit modes, and a percent for percentage calculation.
// EffectiveFrom/EffectiveTo bound the policy's validity window; absent ends
// are open-ended.
type CostPolicy struct {
	ID            int             `db:"id" json:"id"`
	Name          string          `db:"name" json:"name"`
	Value         decimal.Decimal `db:"value" json:"value"`
	Frequency     CostFrequency   `db:"frequency" json:"frequency"`
	Calculation   CostCalculation `db:"calculation" json:"calculation"`
	Category      CostCategory    `db:"category" json:"category"`
	EffectiveFrom *string         `db:"effective_from" json:"effectiveFrom,omitempty"`
	EffectiveTo   *string         `db:"effective_to" json:"effectiveTo,omitempty"`
	IsActive      bool            `db:"is_active" json:"isActive"`
}

// ManualReturnRateEntry is a time-windowed override of the return-rate
// percentage. When entries overlap a query window the most recently updated
// one wins.
type ManualReturnRateEntry struct {
	ID            int       `db:"id" json:"id"`
	RatePercent   float64   `db:"rate_percent" json:"ratePercent"`
	EffectiveFrom *string   `db:"effective_from" json:"effectiveFrom,omitempty"`
	EffectiveTo   *string   `db:"effective_to" json:"effectiveTo,omitempty"`
	IsActive      bool      `db:"is_active" json:"isActive"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}
