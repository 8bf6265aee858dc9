package requests

import "time"

const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusRejected  = "rejected"
	StatusCompleted = "completed"
)

// ServiceRequest links a requester to a service and its provider.
type ServiceRequest struct {
	ID            string     `json:"id"`
	ServiceID     string     `json:"service_id"`
	RequesterID   string     `json:"requester_id"`
	RequesterName string     `json:"requester_name"`
	ProviderID    string     `json:"provider_id"`
	Status        string     `json:"status"`
	Message       string     `json:"message,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// RequestWithRole annotates a request with the side the viewing user
// is on.
type RequestWithRole struct {
	ServiceRequest
	Role string `json:"role"` // requester | provider
}

// CanTransition encodes the request lifecycle: a pending request can
// be accepted or rejected, an accepted one completed. Everything else
// is a conflict, including re-completing, which would settle credits
// twice.
func CanTransition(from, to string) bool {
	switch from {
	case StatusPending:
		return to == StatusAccepted || to == StatusRejected
	case StatusAccepted:
		return to == StatusCompleted
	}
	return false
}

// ServiceStatusFor maps a request status to the service status that
// keeps the two consistent: a booked service always has a live
// request, a rejected request frees the listing again.
func ServiceStatusFor(requestStatus string) string {
	switch requestStatus {
	case StatusPending, StatusAccepted:
		return "booked"
	case StatusRejected:
		return "available"
	case StatusCompleted:
		return "completed"
	}
	return "available"
}
