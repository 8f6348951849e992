package models

import "time"

// Admin is an administrator account. Admins are a disjoint identity class
// from users: they never share credentials or claims with User rows.
type Admin struct {
	ID           int64
	AdminName    string
	PasswordHash string
	CreatedAt    time.Time
}
