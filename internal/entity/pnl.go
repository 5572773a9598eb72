package entity

// PnLMetrics are the computed P&L figures for one bucket or range.
type PnLMetrics struct {
	GrossSales      float64 `json:"grossSales"`
	Discounts       float64 `json:"discounts"`
	Refunds         float64 `json:"refunds"`
	RTORevenueLost  float64 `json:"rtoRevenueLost"`
	Revenue         float64 `json:"revenue"`
	COGS            float64 `json:"cogs"`
	ShippingCost    float64 `json:"shippingCost"`
	TransactionFees float64 `json:"transactionFees"`
	HandlingFees    float64 `json:"handlingFees"`
	Taxes           float64 `json:"taxes"`
	MarketingSpend  float64 `json:"marketingSpend"`
	CustomCosts     float64 `json:"customCosts"`
	GrossProfit     float64 `json:"grossProfit"`
	GrossMargin     float64 `json:"grossMargin"`
	NetProfit       float64 `json:"netProfit"`
	NetProfitMargin float64 `json:"netProfitMargin"`
}

// PnLChanges mirrors PnLMetrics with percentage deltas against the previous
// comparable period.
type PnLChanges struct {
	GrossSales      float64 `json:"grossSales"`
	Discounts       float64 `json:"discounts"`
	Refunds         float64 `json:"refunds"`
	RTORevenueLost  float64 `json:"rtoRevenueLost"`
	Revenue         float64 `json:"revenue"`
	COGS            float64 `json:"cogs"`
	ShippingCost    float64 `json:"shippingCost"`
	TransactionFees float64 `json:"transactionFees"`
	HandlingFees    float64 `json:"handlingFees"`
	Taxes           float64 `json:"taxes"`
	MarketingSpend  float64 `json:"marketingSpend"`
	CustomCosts     float64 `json:"customCosts"`
	GrossProfit     float64 `json:"grossProfit"`
	GrossMargin     float64 `json:"grossMargin"`
	NetProfit       float64 `json:"netProfit"`
	NetProfitMargin float64 `json:"netProfitMargin"`
}

// KPIBundle carries the selected-range P&L totals together with their
// period-over-period changes.
type KPIBundle struct {
	Metrics   PnLMetrics `json:"metrics"`
	Changes   PnLChanges `json:"changes"`
	Orders    float64    `json:"orders"`
	UnitsSold float64    `json:"unitsSold"`
}

// PeriodGrowth is bucket-over-bucket growth vs the immediately preceding bucket.
type PeriodGrowth struct {
	Revenue   float64 `json:"revenue"`
	NetProfit float64 `json:"netProfit"`
}

// PeriodRow is one bucket of a time-bucketed P&L table.
type PeriodRow struct {
	Key       string       `json:"key"`
	Label     string       `json:"label"`
	Date      string       `json:"date"`
	StartMs   int64        `json:"startMs"`
	EndMs     int64        `json:"endMs"`
	Metrics   PnLMetrics   `json:"metrics"`
	Orders    float64      `json:"orders"`
	UnitsSold float64      `json:"unitsSold"`
	Growth    PeriodGrowth `json:"growth"`
	IsTotal   bool         `json:"isTotal,omitempty"`
}

// PnLResult is the full bucketed P&L table for a range and granularity.
// Metrics is nil when the selected range had no source rows.
type PnLResult struct {
	Metrics    *KPIBundle  `json:"metrics"`
	Periods    []PeriodRow `json:"periods"`
	Totals     PnLMetrics  `json:"totals"`
	TableRange DateRange   `json:"tableRange"`
	Coverage   Coverage    `json:"coverage"`
}

// OverviewSummary holds every headline KPI with its paired percentage change.
type OverviewSummary struct {
	GrossSales            float64 `json:"grossSales"`
	GrossSalesChange      float64 `json:"grossSalesChange"`
	Discounts             float64 `json:"discounts"`
	DiscountsChange       float64 `json:"discountsChange"`
	Refunds               float64 `json:"refunds"`
	RefundsChange         float64 `json:"refundsChange"`
	RTORevenueLost        float64 `json:"rtoRevenueLost"`
	RTORevenueLostChange  float64 `json:"rtoRevenueLostChange"`
	Revenue               float64 `json:"revenue"`
	RevenueChange         float64 `json:"revenueChange"`
	COGS                  float64 `json:"cogs"`
	COGSChange            float64 `json:"cogsChange"`
	ShippingCost          float64 `json:"shippingCost"`
	ShippingCostChange    float64 `json:"shippingCostChange"`
	TransactionFees       float64 `json:"transactionFees"`
	TransactionFeesChange float64 `json:"transactionFeesChange"`
	HandlingFees          float64 `json:"handlingFees"`
	HandlingFeesChange    float64 `json:"handlingFeesChange"`
	Taxes                 float64 `json:"taxes"`
	TaxesChange           float64 `json:"taxesChange"`
	MarketingSpend        float64 `json:"marketingSpend"`
	MarketingSpendChange  float64 `json:"marketingSpendChange"`
	AdSpend               float64 `json:"adSpend"`
	AdSpendChange         float64 `json:"adSpendChange"`
	CustomCosts           float64 `json:"customCosts"`
	CustomCostsChange     float64 `json:"customCostsChange"`

	GrossProfit              float64 `json:"grossProfit"`
	GrossProfitChange        float64 `json:"grossProfitChange"`
	GrossMargin              float64 `json:"grossMargin"`
	GrossMarginChange        float64 `json:"grossMarginChange"`
	NetProfit                float64 `json:"netProfit"`
	NetProfitChange          float64 `json:"netProfitChange"`
	NetProfitMargin          float64 `json:"netProfitMargin"`
	NetProfitMarginChange    float64 `json:"netProfitMarginChange"`
	ContributionMargin       float64 `json:"contributionMargin"`
	ContributionMarginChange float64 `json:"contributionMarginChange"`
	OperatingMargin          float64 `json:"operatingMargin"`
	OperatingMarginChange    float64 `json:"operatingMarginChange"`

	Orders               float64 `json:"orders"`
	OrdersChange         float64 `json:"ordersChange"`
	UnitsSold            float64 `json:"unitsSold"`
	UnitsSoldChange      float64 `json:"unitsSoldChange"`
	AvgOrderValue        float64 `json:"avgOrderValue"`
	AvgOrderValueChange  float64 `json:"avgOrderValueChange"`
	CancelledOrders      float64 `json:"cancelledOrders"`
	CancelledOrdersChange float64 `json:"cancelledOrdersChange"`
	ReturnedOrders       float64 `json:"returnedOrders"`
	ReturnedOrdersChange float64 `json:"returnedOrdersChange"`
	FulfilledOrders      float64 `json:"fulfilledOrders"`
	FulfilledOrdersChange float64 `json:"fulfilledOrdersChange"`

	NewCustomers            float64 `json:"newCustomers"`
	NewCustomersChange      float64 `json:"newCustomersChange"`
	ReturningCustomers      float64 `json:"returningCustomers"`
	ReturningCustomersChange float64 `json:"returningCustomersChange"`
	RepeatCustomers         float64 `json:"repeatCustomers"`
	RepeatCustomersChange   float64 `json:"repeatCustomersChange"`
	PrepaidOrders           float64 `json:"prepaidOrders"`
	PrepaidOrdersChange     float64 `json:"prepaidOrdersChange"`
	CODOrders               float64 `json:"codOrders"`
	CODOrdersChange         float64 `json:"codOrdersChange"`

	Sessions             float64 `json:"sessions"`
	SessionsChange       float64 `json:"sessionsChange"`
	Visitors             float64 `json:"visitors"`
	VisitorsChange       float64 `json:"visitorsChange"`
	Conversions          float64 `json:"conversions"`
	ConversionsChange    float64 `json:"conversionsChange"`
	ConversionRate       float64 `json:"conversionRate"`
	ConversionRateChange float64 `json:"conversionRateChange"`
	CTR                  float64 `json:"ctr"`
	CTRChange            float64 `json:"ctrChange"`

	ROAS              float64 `json:"roas"`
	ROASChange        float64 `json:"roasChange"`
	POAS              float64 `json:"poas"`
	POASChange        float64 `json:"poasChange"`
	CAC               float64 `json:"cac"`
	CACChange         float64 `json:"cacChange"`
	LTVToCACRatio     float64 `json:"ltvToCacRatio"`
	LTVToCACRatioChange float64 `json:"ltvToCacRatioChange"`

	// Populated only when the requested range is exactly one calendar month.
	MonthOverMonthRevenueGrowth *float64 `json:"monthOverMonthRevenueGrowth,omitempty"`
}

// OverviewExtras are derived figures outside the headline summary.
type OverviewExtras struct {
	BlendedSessionConversionRate float64 `json:"blendedSessionConversionRate"`
	UniqueVisitors               float64 `json:"uniqueVisitors"`
}

// Overview is the range-level analytics summary returned to the dashboard.
type Overview struct {
	Range         DateRange              `json:"range"`
	PreviousRange *DateRange             `json:"previousRange,omitempty"`
	Summary       OverviewSummary        `json:"summary"`
	Metrics       map[string]MetricValue `json:"metrics"`
	Extras        OverviewExtras         `json:"extras"`
	Coverage      Coverage               `json:"coverage"`
}
