package catalog

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/hourbank-app/hourbank/internal/config"
	"github.com/hourbank-app/hourbank/internal/db"
	"github.com/hourbank-app/hourbank/internal/faults"
	"github.com/hourbank-app/hourbank/internal/offline"
)

// Handlers owns the catalog HTTP surface and the fallback machinery
// around it.
type Handlers struct {
	Listings *Listings
	Queue    *offline.Queue[Service]
	Budgets  config.Timeouts
}

func NewHandlers(listings *Listings, queue *offline.Queue[Service], cfg config.Config) *Handlers {
	return &Handlers{Listings: listings, Queue: queue, Budgets: cfg.Timeouts}
}

type CreateServiceRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Category      string `json:"category"`
	HoursRequired int64  `json:"hours_required"`
	Location      string `json:"location"`
}

// Create lists a new service. When the backend fails for a
// connectivity-shaped reason the record is synthesized locally,
// appended to the offline slot, and returned as a success. The caller
// only learns it is degraded by inspecting created_offline.
func (h *Handlers) Create(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	claimName, _ := c.Get("name").(string)

	var req CreateServiceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	if !ValidCategory(req.Category) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown category"})
	}
	if req.HoursRequired <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "hours_required must be positive"})
	}

	ctx := c.Request().Context()

	// Snapshot the provider under the short ping budget. This doubles
	// as the existence ping: if it fails connectivity-wise we go
	// straight to the offline path without paying the write budget.
	snap, snapErr := h.providerSnapshot(ctx, uid)
	if snapErr != nil {
		if faults.Connectivity(snapErr) {
			log.Printf("[offline] provider ping failed (%v), storing service locally", snapErr)
			return h.createOffline(c, req, uid, claimName)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load provider"})
	}
	if !snap.emailVerified {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "your email must be verified before creating a service"})
	}

	svc := Service{
		ID:             uuid.New().String(),
		ProviderID:     uid,
		ProviderName:   snap.name,
		ProviderRating: snap.rating,
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		HoursRequired:  req.HoursRequired,
		Location:       req.Location,
		Status:         StatusAvailable,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	wctx, cancel := context.WithTimeout(ctx, h.Budgets.Write)
	defer cancel()
	_, err := db.Conn.Exec(wctx, `
        INSERT INTO services (id, provider_id, provider_name, provider_rating, title,
                              description, category, hours_required, location, status,
                              created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		svc.ID, svc.ProviderID, svc.ProviderName, svc.ProviderRating, svc.Title,
		svc.Description, svc.Category, svc.HoursRequired, svc.Location, svc.Status,
		svc.CreatedAt, svc.UpdatedAt,
	)
	if err != nil {
		err = faults.Wrap("catalog.create", err)
		if faults.Connectivity(err) {
			log.Printf("[offline] insert failed (%v), storing service locally", err)
			return h.createOffline(c, req, uid, claimName)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create service"})
	}

	// The offered counter is advisory; bump it without holding the
	// request open.
	go func() {
		bctx, bcancel := context.WithTimeout(context.Background(), h.Budgets.Write)
		defer bcancel()
		if _, err := db.Conn.Exec(bctx,
			`UPDATE users SET services_offered = services_offered + 1 WHERE id = $1`, uid); err != nil {
			log.Printf("[catalog] could not update offered counter for %s: %v", uid, err)
		}
	}()

	return c.JSON(http.StatusCreated, svc)
}

func (h *Handlers) createOffline(c echo.Context, req CreateServiceRequest, uid, name string) error {
	svc := NewOfflineService(req, uid, name, time.Now())
	if err := h.Queue.Append(svc); err != nil {
		log.Printf("[offline] could not store service locally: %v", err)
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"error": "could not save service offline, please try again when online",
		})
	}
	return c.JSON(http.StatusCreated, svc)
}

// NewOfflineService synthesizes the local stand-in record for a
// service that could not reach the backend.
func NewOfflineService(req CreateServiceRequest, uid, name string, now time.Time) Service {
	return Service{
		ID:             OfflineIDPrefix + uuid.New().String(),
		ProviderID:     uid,
		ProviderName:   name,
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		HoursRequired:  req.HoursRequired,
		Location:       req.Location,
		Status:         StatusAvailable,
		CreatedOffline: true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

type providerSnap struct {
	name          string
	rating        float64
	emailVerified bool
}

func (h *Handlers) providerSnapshot(ctx context.Context, uid string) (providerSnap, error) {
	pctx, cancel := context.WithTimeout(ctx, h.Budgets.Ping)
	defer cancel()

	var s providerSnap
	err := db.Conn.QueryRow(pctx,
		`SELECT name, average_rating, email_verified FROM users WHERE id = $1`, uid).
		Scan(&s.name, &s.rating, &s.emailVerified)
	if err != nil {
		return s, faults.Wrap("catalog.provider", err)
	}
	return s, nil
}

// Browse returns available listings, optionally filtered by category.
func (h *Handlers) Browse(c echo.Context) error {
	category := c.QueryParam("category")
	if category != "" && !ValidCategory(category) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown category"})
	}

	services, err := h.Listings.Available(c.Request().Context(), category)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch services"})
	}
	return c.JSON(http.StatusOK, echo.Map{"services": services})
}

// Get returns a single listing by id. Offline-created records never
// reached the backend and are not individually addressable.
func (h *Handlers) Get(c echo.Context) error {
	id := c.Param("id")
	if IsOffline(id) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
	}
	if _, err := uuid.Parse(id); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}

	qctx, cancel := context.WithTimeout(c.Request().Context(), h.Budgets.Ping)
	defer cancel()

	var s Service
	err := db.Conn.QueryRow(qctx, `
        SELECT id, provider_id, provider_name, provider_rating, title, description,
               category, hours_required, location, status, created_at, updated_at
        FROM services WHERE id = $1`, id).
		Scan(&s.ID, &s.ProviderID, &s.ProviderName, &s.ProviderRating, &s.Title,
			&s.Description, &s.Category, &s.HoursRequired, &s.Location, &s.Status,
			&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch service"})
	}
	return c.JSON(http.StatusOK, s)
}

type UpdateServiceRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Hours       int64  `json:"hours_required"`
}

// Update edits an available listing owned by the caller.
func (h *Handlers) Update(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := c.Param("id")

	var req UpdateServiceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Hours < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "hours_required must be positive"})
	}

	wctx, cancel := context.WithTimeout(c.Request().Context(), h.Budgets.Write)
	defer cancel()

	ct, err := db.Conn.Exec(wctx, `
        UPDATE services
        SET title = COALESCE(NULLIF($1, ''), title),
            description = COALESCE(NULLIF($2, ''), description),
            location = COALESCE(NULLIF($3, ''), location),
            hours_required = CASE WHEN $4 > 0 THEN $4 ELSE hours_required END,
            updated_at = NOW()
        WHERE id = $5 AND provider_id = $6 AND status = 'available'`,
		req.Title, req.Description, req.Location, req.Hours, id, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update service"})
	}
	if ct.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found, not yours, or not available"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "service updated successfully"})
}

// Delete removes an available listing owned by the caller.
func (h *Handlers) Delete(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := c.Param("id")

	wctx, cancel := context.WithTimeout(c.Request().Context(), h.Budgets.Write)
	defer cancel()

	ct, err := db.Conn.Exec(wctx,
		`DELETE FROM services WHERE id = $1 AND provider_id = $2 AND status = 'available'`, id, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete service"})
	}
	if ct.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found, not yours, or not available"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "service deleted successfully"})
}

// Mine returns the caller's own listings. Offline-created records are
// not merged in; see Pending.
func (h *Handlers) Mine(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	qctx, cancel := context.WithTimeout(c.Request().Context(), h.Budgets.Query)
	defer cancel()

	rows, err := db.Conn.Query(qctx, `
        SELECT id, provider_id, provider_name, provider_rating, title, description,
               category, hours_required, location, status, created_at, updated_at
        FROM services WHERE provider_id = $1 ORDER BY created_at DESC`, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch your services"})
	}
	defer rows.Close()

	services := []Service{}
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.ProviderID, &s.ProviderName, &s.ProviderRating,
			&s.Title, &s.Description, &s.Category, &s.HoursRequired, &s.Location,
			&s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse service record"})
		}
		services = append(services, s)
	}

	return c.JSON(http.StatusOK, echo.Map{"services": services})
}

// ByProvider returns another member's available listings.
func (h *Handlers) ByProvider(c echo.Context) error {
	providerID := c.Param("id")
	if _, err := uuid.Parse(providerID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid provider id"})
	}

	qctx, cancel := context.WithTimeout(c.Request().Context(), h.Budgets.Query)
	defer cancel()

	rows, err := db.Conn.Query(qctx, `
        SELECT id, provider_id, provider_name, provider_rating, title, description,
               category, hours_required, location, status, created_at, updated_at
        FROM services WHERE provider_id = $1 AND status = 'available'
        ORDER BY created_at DESC`, providerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch services"})
	}
	defer rows.Close()

	services := []Service{}
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.ProviderID, &s.ProviderName, &s.ProviderRating,
			&s.Title, &s.Description, &s.Category, &s.HoursRequired, &s.Location,
			&s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse service record"})
		}
		services = append(services, s)
	}

	return c.JSON(http.StatusOK, echo.Map{"services": services})
}

// Pending returns the caller's offline-created records still sitting
// in the local slot. They are absent from every listing query until a
// reconciliation pass exists.
func (h *Handlers) Pending(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	all, err := h.Queue.Pending()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not read offline slot"})
	}
	mine := []Service{}
	for _, s := range all {
		if s.ProviderID == uid {
			mine = append(mine, s)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"services": mine})
}
