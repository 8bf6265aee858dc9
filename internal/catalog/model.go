package catalog

import "time"

// Service statuses. A booked service always has a live request
// attached; the requests package owns the transitions.
const (
	StatusAvailable = "available"
	StatusBooked    = "booked"
	StatusCompleted = "completed"
)

// OfflineIDPrefix marks ids of records synthesized while the backend
// was unreachable.
const OfflineIDPrefix = "offline_"

// Service is a listing a member offers in exchange for time credits.
// HoursRequired doubles as the credit price paid at completion.
type Service struct {
	ID             string    `json:"id"`
	ProviderID     string    `json:"provider_id"`
	ProviderName   string    `json:"provider_name"`
	ProviderRating float64   `json:"provider_rating"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Category       string    `json:"category"`
	HoursRequired  int64     `json:"hours_required"`
	Location       string    `json:"location,omitempty"`
	Status         string    `json:"status"`
	CreatedOffline bool      `json:"created_offline,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Categories is the fixed set a listing may use.
var Categories = []string{
	"education",
	"handyman",
	"technology",
	"health",
	"cooking",
	"transportation",
	"cleaning",
	"gardening",
	"creative",
	"other",
}

func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// IsOffline reports whether an id identifies a locally-originated
// record that never reached the backend.
func IsOffline(id string) bool {
	return len(id) > len(OfflineIDPrefix) && id[:len(OfflineIDPrefix)] == OfflineIDPrefix
}
