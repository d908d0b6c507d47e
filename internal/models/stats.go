package models

import "github.com/shopspring/decimal"

// Stats is the platform-wide aggregate exposed to administrators.
// Monetary fields stay exact decimals; rounding happens at the display boundary.
type Stats struct {
	TotalUsers      int             `json:"total_users"`
	TotalVendors    int             `json:"total_vendors"`
	PendingVendors  int             `json:"pending_vendors"`
	TotalBookings   int             `json:"total_bookings"`
	CompletedCount  int             `json:"completed_count"`
	ActiveCount     int             `json:"active_count"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	PlatformRevenue decimal.Decimal `json:"platform_revenue"`
}

// Earnings is the per-vendor aggregate over completed bookings.
type Earnings struct {
	TotalBookings      int             `json:"total_bookings"`
	TotalEarnings      decimal.Decimal `json:"total_earnings"`
	PlatformCommission decimal.Decimal `json:"platform_commission"`
	NetEarnings        decimal.Decimal `json:"net_earnings"`
	CommissionRate     decimal.Decimal `json:"commission_rate"`
}
