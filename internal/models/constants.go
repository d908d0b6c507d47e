package models

import "github.com/shopspring/decimal"

const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

const (
	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
)

const (
	PricingFixed      = "fixed"
	PricingHourly     = "hourly"
	PricingInspection = "inspection"
)

const (
	RoleCustomer = "customer"
	RoleVendor   = "vendor"
	RoleAdmin    = "admin"
)

const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// CommissionRate is the fixed platform cut applied to completed-booking revenue.
var CommissionRate = decimal.RequireFromString("0.15")

const (
	// DateLayout is the wire and storage format for booking dates.
	DateLayout = "2006-01-02"

	// DefaultSessionTTL lifetime of an issued token, in seconds
	DefaultSessionTTL = 7 * 24 * 60 * 60

	// WorkerQueueSize size of the in-memory worker queue
	WorkerQueueSize = 1000

	// RateLimitRequests requests allowed per window
	RateLimitRequests = 60

	// RateLimitWindow rate-limit window in seconds
	RateLimitWindow = 60
)

// IsTerminalStatus reports whether a booking status admits no further transitions.
func IsTerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusCancelled
}
