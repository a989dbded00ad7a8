// handlers/auth_handler.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/bathywatch/backend/models"
	"github.com/bathywatch/backend/services"
)

// RegisterUserHandler creates a new account.
// Expects POST /api/users with a JSON RegisterRequest body.
func RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	defer r.Body.Close()

	user, err := services.RegisterUser(req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, user)
}

// LoginHandler exchanges a username/password pair for a bearer token.
// Expects POST /api/token with a JSON LoginRequest body.
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	defer r.Body.Close()

	user, err := services.AuthenticateUser(req.Username, req.Password)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	token, err := services.CreateAccessToken(user)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	respondWithJSON(w, http.StatusOK, models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// CurrentUserHandler returns the authenticated user's info.
func CurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}
