// models/api_models.go
package models

// RegisterRequest is the expected JSON body for POST /api/users.
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	FullName        string `json:"full_name"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// LoginRequest is the expected JSON body for POST /api/token.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is returned from a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// CreateBBoxRequest is the expected JSON body for POST /api/bboxes. The two
// corners may arrive in any drag direction; the server normalizes them.
type CreateBBoxRequest struct {
	TopLeftLat     float64      `json:"top_left_lat"`
	TopLeftLon     float64      `json:"top_left_lon"`
	BottomRightLat float64      `json:"bottom_right_lat"`
	BottomRightLon float64      `json:"bottom_right_lon"`
	DataTypes      []SourceType `json:"data_types"`
	Channel        Channel      `json:"channel,omitempty"`
	WebhookURL     string       `json:"webhook_url,omitempty"`
}

// DataTypeInfo describes one available data source for the UI.
type DataTypeInfo struct {
	Name        SourceType `json:"name"`
	Description string     `json:"description"`
}
