package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type VendorProfile struct {
	ID              string              `json:"id"`
	UserID          string              `json:"user_id"`
	Services        []string            `json:"services"`
	ExperienceYears int                 `json:"experience_years"`
	Bio             string              `json:"bio"`
	HourlyRate      decimal.NullDecimal `json:"hourly_rate,omitempty"`
	FixedRate       decimal.NullDecimal `json:"fixed_rate,omitempty"`
	ApprovalStatus  string              `json:"approval_status"`
	Rating          decimal.Decimal     `json:"rating"`
	TotalReviews    int                 `json:"total_reviews"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// OffersService reports whether the vendor lists the given service.
func (p *VendorProfile) OffersService(service string) bool {
	for _, s := range p.Services {
		if s == service {
			return true
		}
	}
	return false
}

// CanAcceptBookings is true only for admin-approved profiles.
func (p *VendorProfile) CanAcceptBookings() bool {
	return p.ApprovalStatus == ApprovalApproved
}
