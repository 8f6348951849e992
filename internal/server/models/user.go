package models

import "time"

// User is a registered account. ExternalID is the durable opaque identifier
// exposed outside the service; ID is the internal row key and never leaves
// the store layer.
type User struct {
	ID           int64
	ExternalID   string
	Name         string
	PasswordHash string
	Email        string
	CreatedAt    time.Time
}
