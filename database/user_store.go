// database/user_store.go
package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/bathywatch/backend/models"
)

// ErrNotFound is returned by the stores when a row does not exist.
var ErrNotFound = errors.New("not found")

// CreateUser inserts a new user and returns it with its assigned id.
func CreateUser(user models.User) (models.User, error) {
	if DB == nil {
		return models.User{}, fmt.Errorf("database connection is not initialized")
	}

	res, err := DB.Exec(`
		INSERT INTO users (email, username, full_name, active, hashed_password)
		VALUES (?, ?, ?, ?, ?)
	`, user.Email, user.Username, user.FullName, user.Active, user.HashedPassword)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to insert user %s: %w", user.Username, err)
	}

	user.ID, err = res.LastInsertId()
	if err != nil {
		return models.User{}, fmt.Errorf("failed to get inserted user id: %w", err)
	}
	return user, nil
}

func scanUser(row *sql.Row) (models.User, error) {
	var u models.User
	var fullName sql.NullString
	err := row.Scan(&u.ID, &u.Email, &u.Username, &fullName, &u.Active,
		&u.HashedPassword, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to scan user row: %w", err)
	}
	if fullName.Valid {
		u.FullName = fullName.String
	}
	return u, nil
}

const userSelect = `
	SELECT id, email, username, full_name, active, hashed_password, created_at
	FROM users
`

// GetUserByID fetches a single user by primary key.
func GetUserByID(id int64) (models.User, error) {
	if DB == nil {
		return models.User{}, fmt.Errorf("database connection is not initialized")
	}
	return scanUser(DB.QueryRow(userSelect+"WHERE id = ?", id))
}

// GetUserByUsername fetches a single user by username.
func GetUserByUsername(username string) (models.User, error) {
	if DB == nil {
		return models.User{}, fmt.Errorf("database connection is not initialized")
	}
	return scanUser(DB.QueryRow(userSelect+"WHERE username = ?", username))
}

// GetUserByEmail fetches a single user by email address.
func GetUserByEmail(email string) (models.User, error) {
	if DB == nil {
		return models.User{}, fmt.Errorf("database connection is not initialized")
	}
	return scanUser(DB.QueryRow(userSelect+"WHERE email = ?", email))
}
