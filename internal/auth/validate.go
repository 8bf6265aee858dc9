package auth

import (
	"net/mail"
	"strings"
)

const MinPasswordLen = 6

type SignupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// ValidateSignup rejects malformed input before anything touches the
// backend. Returns an empty string when the request is acceptable.
func ValidateSignup(req SignupRequest) string {
	if strings.TrimSpace(req.Name) == "" {
		return "name is required"
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return "a valid email is required"
	}
	if len(req.Password) < MinPasswordLen {
		return "password must be at least 6 characters"
	}
	if req.Password != req.ConfirmPassword {
		return "passwords do not match"
	}
	return ""
}
