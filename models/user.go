// models/user.go
package models

import "time"

// User is an account that owns bounding boxes and data orders.
type User struct {
	ID             int64     `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	Username       string    `db:"username" json:"username"`
	FullName       string    `db:"full_name" json:"full_name,omitempty"`
	Active         bool      `db:"active" json:"active"`
	HashedPassword string    `db:"hashed_password" json:"-"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
