// Package models defines the server-side domain records for the marketplace
// account service.
package models

import "time"

// Roles assignable to a user account.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a registered account. PasswordHash is a bcrypt hash and never
// leaves the service layer.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Address is the canonical structured postal address. It is stored as JSONB
// in user_details and rendered verbatim on the wire.
type Address struct {
	Line       string `json:"line"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// UserDetails holds the personal profile sub-record of a user.
// DateOfBirth is date-only; a zero value means unset.
type UserDetails struct {
	UserID        string
	FirstName     string
	LastName      string
	DateOfBirth   time.Time
	Phone         string
	Address       *Address
	PhotoPath     string
	ThumbnailPath string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Profile is a user together with its details sub-record, the unit the API
// returns from every profile read.
type Profile struct {
	User    User
	Details UserDetails
}
