package domain

import "time"

// Client is a real-estate client organisation managed through the back office.
type Client struct {
	ID          string
	Name        string
	PhoneNumber string // unique
	Email       string // unique
	// PasswordHash is never populated from API input; form payloads carrying
	// a password field are stripped at the request boundary.
	PasswordHash string
	City         string
	State        string
	Address      string
	Logo         string // URL on the media host
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
