package models

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Actor is the authenticated identity passed into every core operation.
// It is resolved from the bearer token once per request; nothing in the
// core reads ambient session state.
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) IsAdmin() bool    { return a.Role == RoleAdmin }
func (a Actor) IsVendor() bool   { return a.Role == RoleVendor }
func (a Actor) IsCustomer() bool { return a.Role == RoleCustomer }
