package auth

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	PurposeSession     = "session"
	PurposeEmailVerify = "email_verify"
	PurposeReset       = "password_reset"
)

func signSession(userID, name, email, role string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"name":    name,
		"email":   email,
		"role":    role,
		"purpose": PurposeSession,
		"exp":     time.Now().Add(72 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

func signPurpose(userID, purpose string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"purpose": purpose,
		"exp":     time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

// parsePurpose validates a purpose-scoped token and returns the user
// id it was minted for.
func parsePurpose(tokenStr, wantPurpose string) (string, error) {
	parsed, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("invalid or expired token")
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}
	purpose, _ := claims["purpose"].(string)
	if purpose != wantPurpose {
		return "", fmt.Errorf("invalid token purpose")
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return "", fmt.Errorf("invalid token subject")
	}
	return userID, nil
}
