package entity

// Granularity controls the period bucket size for P&L tables (day, week, month).
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
)

// Valid reports whether g is one of the supported granularities.
func (g Granularity) Valid() bool {
	switch g {
	case GranularityDaily, GranularityWeekly, GranularityMonthly:
		return true
	}
	return false
}

// DateRange is an inclusive calendar-date window on YYYY-MM-DD strings.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// CustomerBreakdown counts customers by relationship to the store for one day.
type CustomerBreakdown struct {
	NewCustomers       float64 `db:"new_customers" json:"newCustomers"`
	ReturningCustomers float64 `db:"returning_customers" json:"returningCustomers"`
	RepeatCustomers    float64 `db:"repeat_customers" json:"repeatCustomers"`
}

// PaymentBreakdown counts orders by payment mode for one day.
type PaymentBreakdown struct {
	PrepaidOrders float64 `db:"prepaid_orders" json:"prepaidOrders"`
	CODOrders     float64 `db:"cod_orders" json:"codOrders"`
	OtherOrders   float64 `db:"other_orders" json:"otherOrders"`
}

// ChannelRevenue is per-sales-channel revenue attribution for one day.
type ChannelRevenue struct {
	Channel string  `json:"channel"`
	Revenue float64 `json:"revenue"`
}

// DailyMetricRecord is one pre-aggregated snapshot per (organization, calendar
// day), written by the ingestion pipeline and read-only to the engine.
type DailyMetricRecord struct {
	Date            string  `db:"date" json:"date"`
	Revenue         float64 `db:"revenue" json:"revenue"`
	Discounts       float64 `db:"discounts" json:"discounts"`
	GrossSales      float64 `db:"gross_sales" json:"grossSales"`
	Orders          float64 `db:"orders" json:"orders"`
	UnitsSold       float64 `db:"units_sold" json:"unitsSold"`
	COGS            float64 `db:"cogs" json:"cogs"`
	ShippingCost    float64 `db:"shipping_cost" json:"shippingCost"`
	TransactionFees float64 `db:"transaction_fees" json:"transactionFees"`
	HandlingFees    float64 `db:"handling_fees" json:"handlingFees"`
	Taxes           float64 `db:"taxes" json:"taxes"`
	MarketingCost   float64 `db:"marketing_cost" json:"marketingCost"`
	Refunds         float64 `db:"refunds" json:"refunds"`
	CTR             float64 `db:"ctr" json:"ctr"`

	Customers CustomerBreakdown `json:"customers"`
	Payments  PaymentBreakdown  `json:"payments"`

	CancelledOrders float64  `db:"cancelled_orders" json:"cancelledOrders"`
	ReturnedOrders  float64  `db:"returned_orders" json:"returnedOrders"`
	FulfilledOrders *float64 `db:"fulfilled_orders" json:"fulfilledOrders,omitempty"`

	ChannelRevenues []ChannelRevenue `json:"channelRevenues,omitempty"`

	Sessions    float64 `db:"sessions" json:"sessions"`
	Visitors    float64 `db:"visitors" json:"visitors"`
	Conversions float64 `db:"conversions" json:"conversions"`
}

// AggregatedMetrics is the additive sum of DailyMetricRecord fields over a
// date range. Created fresh per request and never persisted. The two trailing
// fields are derived post-hoc by the retention model, not by the merger.
type AggregatedMetrics struct {
	Revenue         float64 `json:"revenue"`
	Discounts       float64 `json:"discounts"`
	GrossSales      float64 `json:"grossSales"`
	Orders          float64 `json:"orders"`
	UnitsSold       float64 `json:"unitsSold"`
	COGS            float64 `json:"cogs"`
	ShippingCost    float64 `json:"shippingCost"`
	TransactionFees float64 `json:"transactionFees"`
	HandlingFees    float64 `json:"handlingFees"`
	Taxes           float64 `json:"taxes"`
	MarketingCost   float64 `json:"marketingCost"`
	Refunds         float64 `json:"refunds"`
	CTR             float64 `json:"ctr"`

	Customers CustomerBreakdown `json:"customers"`
	Payments  PaymentBreakdown  `json:"payments"`

	CancelledOrders float64 `json:"cancelledOrders"`
	ReturnedOrders  float64 `json:"returnedOrders"`
	FulfilledOrders float64 `json:"fulfilledOrders"`

	ChannelRevenue map[string]float64 `json:"channelRevenue,omitempty"`

	Sessions    float64 `json:"sessions"`
	Visitors    float64 `json:"visitors"`
	Conversions float64 `json:"conversions"`

	Days int `json:"days"`

	ManualReturnRatePercent float64 `json:"manualReturnRatePercent"`
	RTORevenueLost          float64 `json:"rtoRevenueLost"`
}

// MetricValue is one named KPI with its change vs the previous comparable period.
type MetricValue struct {
	Value         float64  `json:"value"`
	Change        float64  `json:"change"`
	PreviousValue *float64 `json:"previousValue,omitempty"`
}

// Coverage describes how much of a requested range had source records.
type Coverage struct {
	ExpectedDays    int    `json:"expectedDays"`
	AvailableDays   int    `json:"availableDays"`
	FirstAvailable  string `json:"firstAvailable,omitempty"`
	LastAvailable   string `json:"lastAvailable,omitempty"`
	HasFullCoverage bool   `json:"hasFullCoverage"`
	HasData         bool   `json:"hasData"`
}
