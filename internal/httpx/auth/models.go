package auth

// RegisterRequest represents the registration request body
// swagger:model RegisterRequest
type RegisterRequest struct {
	Username string `json:"username" example:"alice"`
	Password string `json:"password" example:"CorrectHorse42"`
}

// DeleteAccountRequest represents the account deletion request body
// swagger:model DeleteAccountRequest
type DeleteAccountRequest struct {
	Password string `json:"password" example:"CorrectHorse42"`
}

// LoginError is the body of a failed form login
// swagger:model LoginError
type LoginError struct {
	LoginError string `json:"login_error" example:"Invalid username or password."`
	Code       string `json:"code" example:"E_UNAUTHORIZED"`
	RequestID  string `json:"request_id"`
}
