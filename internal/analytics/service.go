package analytics

import (
	"github.com/profitlens/analytics/internal/dependency"
)

// ShippingDedupConfig controls whether shipping cost policies are suppressed
// when the daily snapshots already carry a matching shipping cost. A policy
// total within TolerancePct percent or ToleranceAbs currency units of the
// recorded shipping cost is treated as a duplicate of it.
type ShippingDedupConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	TolerancePct float64 `mapstructure:"tolerance_pct"`
	ToleranceAbs float64 `mapstructure:"tolerance_abs"`
}

type Config struct {
	Timezone      string              `mapstructure:"timezone"`
	ShippingDedup ShippingDedupConfig `mapstructure:"shipping_dedup"`
}

// Service is the aggregation engine. It owns no state beyond configuration;
// every request allocates its aggregates fresh.
type Service struct {
	c   *Config
	rep dependency.Repository
}

func New(c *Config, rep dependency.Repository) *Service {
	cfg := Config{Timezone: "UTC", ShippingDedup: ShippingDedupConfig{TolerancePct: 5, ToleranceAbs: 1}}
	if c != nil {
		cfg = *c
		if cfg.Timezone == "" {
			cfg.Timezone = "UTC"
		}
	}
	return &Service{c: &cfg, rep: rep}
}

// dedupShipping returns the shipping policy amount to add on top of the
// recorded shipping cost, zero when the policy amount duplicates it within
// tolerance.
func (s *Service) dedupShipping(recorded, policyAmount float64) float64 {
	if !s.c.ShippingDedup.Enabled || recorded <= 0 || policyAmount <= 0 {
		return policyAmount
	}
	diff := policyAmount - recorded
	if diff < 0 {
		diff = -diff
	}
	tolerance := recorded * s.c.ShippingDedup.TolerancePct / 100
	if s.c.ShippingDedup.ToleranceAbs > tolerance {
		tolerance = s.c.ShippingDedup.ToleranceAbs
	}
	if diff <= tolerance {
		return 0
	}
	return policyAmount
}
