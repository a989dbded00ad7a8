// services/auth_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bathywatch/backend/config"
	"github.com/bathywatch/backend/database"
	"github.com/bathywatch/backend/models"
)

var (
	// ErrInvalidCredentials covers bad logins and bad/expired tokens.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserExists means the email or username is already registered.
	ErrUserExists = errors.New("email or username already registered")
)

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword reports whether the plaintext matches the stored hash.
func VerifyPassword(plain, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

// RegisterUser validates a registration request and creates the account.
func RegisterUser(req models.RegisterRequest) (models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if req.Username == "" || req.Email == "" {
		return models.User{}, fmt.Errorf("%w: username and email are required", ErrValidation)
	}
	if req.Password != req.PasswordConfirm {
		return models.User{}, fmt.Errorf("%w: passwords do not match", ErrValidation)
	}
	if len(req.Password) < 8 {
		return models.User{}, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}

	if _, err := database.GetUserByEmail(req.Email); err == nil {
		return models.User{}, ErrUserExists
	} else if !errors.Is(err, database.ErrNotFound) {
		return models.User{}, err
	}
	if _, err := database.GetUserByUsername(req.Username); err == nil {
		return models.User{}, ErrUserExists
	} else if !errors.Is(err, database.ErrNotFound) {
		return models.User{}, err
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		return models.User{}, err
	}

	user, err := database.CreateUser(models.User{
		Email:          req.Email,
		Username:       req.Username,
		FullName:       req.FullName,
		Active:         true,
		HashedPassword: hashed,
	})
	if err != nil {
		return models.User{}, err
	}
	log.Printf("Service: Registered new user %s.\n", user.Username)
	return user, nil
}

// AuthenticateUser checks a username/password pair and returns the user.
func AuthenticateUser(username, password string) (models.User, error) {
	user, err := database.GetUserByUsername(username)
	if errors.Is(err, database.ErrNotFound) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}
	if !user.Active || !VerifyPassword(password, user.HashedPassword) {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// CreateAccessToken issues a signed JWT for the user.
func CreateAccessToken(user models.User) (string, error) {
	expiry := time.Duration(config.AppConfig.Auth.TokenExpiryMinutes) * time.Minute
	claims := jwt.RegisteredClaims{
		Subject:   user.Username,
		ID:        uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(config.AppConfig.Auth.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken validates a JWT and returns the username it was issued to.
func ParseAccessToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(config.AppConfig.Auth.SecretKey), nil
		})
	if err != nil || !token.Valid {
		return "", ErrInvalidCredentials
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidCredentials
	}
	return claims.Subject, nil
}
