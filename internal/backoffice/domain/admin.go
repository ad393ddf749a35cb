package domain

import "time"

// Admin is a back-office user attached to a client organisation. ClientID is
// a weak reference: the client's existence is checked when the admin is
// created, but deleting the client later leaves the reference dangling.
type Admin struct {
	ID          string
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	ClientID    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
