package domain

import "time"

// Agency is a brokerage agency record. Clients holds weak references to
// client IDs; the list is stored as-is with no referential validation.
type Agency struct {
	ID          string
	Name        string
	PhoneNumber string // unique
	Email       string // unique
	// PasswordHash is never populated from API input (see Client).
	PasswordHash string
	Address      string
	Logo         string
	Clients      []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
