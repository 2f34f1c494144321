// Package models holds the server-side persistent records.
package models

import "time"

// User is an account. Email is the natural key; PasswordHash is a bcrypt
// digest and must never leave the server or reach a log line.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
