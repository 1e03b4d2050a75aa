// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is the identity principal. Rows are created by the identity provider
// (registration) and are never mutated by the storage core.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
}
