package model

type AuthResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	User    UserSummary `json:"user"`
	Token   string      `json:"token"`
}

type ProfileResponse struct {
	Success bool       `json:"success"`
	User    PublicUser `json:"user"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
