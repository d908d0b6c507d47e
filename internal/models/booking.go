package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Booking struct {
	ID              string              `json:"id"`
	CustomerID      string              `json:"customer_id"`
	VendorID        string              `json:"vendor_id,omitempty"` // empty until a vendor accepts
	ServiceName     string              `json:"service_name"`
	ServiceCategory string              `json:"service_category"`
	BookingDate     time.Time           `json:"booking_date"`
	TimeSlot        string              `json:"time_slot"`
	Location        string              `json:"location"`
	Pincode         string              `json:"pincode"`
	Description     string              `json:"description"`
	Status          string              `json:"status"`
	PaymentStatus   string              `json:"payment_status"`
	PricingType     string              `json:"pricing_type"`
	EstimatedPrice  decimal.Decimal     `json:"estimated_price"`
	FinalPrice      decimal.NullDecimal `json:"final_price,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	Version         int64               `json:"version"`
}

// Assigned reports whether a vendor has taken the booking.
func (b *Booking) Assigned() bool {
	return b.VendorID != ""
}

// BillablePrice is the amount a completed booking contributes to revenue:
// final price once set, estimated price otherwise.
func (b *Booking) BillablePrice() decimal.Decimal {
	if b.FinalPrice.Valid {
		return b.FinalPrice.Decimal
	}
	return b.EstimatedPrice
}
