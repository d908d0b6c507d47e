package models

import "time"

type Review struct {
	ID         string    `json:"id"`
	BookingID  string    `json:"booking_id"`
	CustomerID string    `json:"customer_id"`
	VendorID   string    `json:"vendor_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

// ServiceCategory groups the service names customers can book.
// Categories are seeded from a YAML file at startup.
type ServiceCategory struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Slug        string   `yaml:"slug" json:"slug"`
	Description string   `yaml:"description" json:"description"`
	Icon        string   `yaml:"icon" json:"icon"`
	Services    []string `yaml:"services" json:"services"`
}
