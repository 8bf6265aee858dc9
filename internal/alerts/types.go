package alerts

import "time"

// Task type constants
const (
	TaskVerificationEmail = "email:verify"
	TaskPasswordReset     = "email:password_reset"
	TaskRequestReceived   = "email:request_received"
	TaskRequestAccepted   = "email:request_accepted"
	TaskRequestCompleted  = "email:request_completed"
)

// Common envelope for email-like notifications
type EmailEnvelope struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Verification email payload
type VerificationEmailPayload struct {
	UserID    string        `json:"user_id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	VerifyURL string        `json:"verify_url"`
	Envelope  EmailEnvelope `json:"envelope"`
	SentAt    time.Time     `json:"sent_at"`
}

// Password reset payload
type PasswordResetPayload struct {
	UserID    string        `json:"user_id"`
	Email     string        `json:"email"`
	ResetURL  string        `json:"reset_url"`
	Envelope  EmailEnvelope `json:"envelope"`
	Requested time.Time     `json:"requested"`
}

// Request received payload (sent to provider)
type RequestReceivedPayload struct {
	RequestID   string        `json:"request_id"`
	RequesterID string        `json:"requester_id"`
	ProviderID  string        `json:"provider_id"`
	Email       string        `json:"email"`
	Envelope    EmailEnvelope `json:"envelope"`
	SentAt      time.Time     `json:"sent_at"`
}

// Request accepted payload (sent to requester)
type RequestAcceptedPayload struct {
	RequestID   string        `json:"request_id"`
	RequesterID string        `json:"requester_id"`
	ProviderID  string        `json:"provider_id"`
	Email       string        `json:"email"`
	Envelope    EmailEnvelope `json:"envelope"`
	SentAt      time.Time     `json:"sent_at"`
}

// Request completed payload (sent to requester, credits moved)
type RequestCompletedPayload struct {
	RequestID   string        `json:"request_id"`
	RequesterID string        `json:"requester_id"`
	ProviderID  string        `json:"provider_id"`
	Email       string        `json:"email"`
	Hours       int64         `json:"hours"`
	Envelope    EmailEnvelope `json:"envelope"`
	SentAt      time.Time     `json:"sent_at"`
}
