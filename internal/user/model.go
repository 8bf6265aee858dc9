package user

import "time"

type User struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Password         string    `json:"-"` // never return
	Role             string    `json:"role"`
	Bio              string    `json:"bio,omitempty"`
	Location         string    `json:"location,omitempty"`
	Skills           string    `json:"skills,omitempty"`
	TimeCredits      int64     `json:"time_credits"`
	ServicesOffered  int       `json:"services_offered"`
	ServicesReceived int       `json:"services_received"`
	AverageRating    float64   `json:"average_rating"`
	EmailVerified    bool      `json:"email_verified"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
}

// Claims is the identity the middleware extracts from a session token.
// It is enough to synthesize a usable default record when the backend
// cannot be read.
type Claims struct {
	UserID string
	Name   string
	Email  string
	Role   string
}
