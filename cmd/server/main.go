package main

import (
	"context"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hourbank-app/hourbank/internal/admin"
	"github.com/hourbank-app/hourbank/internal/alerts"
	"github.com/hourbank-app/hourbank/internal/auth"
	"github.com/hourbank-app/hourbank/internal/cache"
	"github.com/hourbank-app/hourbank/internal/catalog"
	"github.com/hourbank-app/hourbank/internal/config"
	"github.com/hourbank-app/hourbank/internal/credits"
	"github.com/hourbank-app/hourbank/internal/db"
	mware "github.com/hourbank-app/hourbank/internal/middleware"
	"github.com/hourbank-app/hourbank/internal/offline"
	"github.com/hourbank-app/hourbank/internal/requests"
	"github.com/hourbank-app/hourbank/internal/reviews"
	"github.com/hourbank-app/hourbank/internal/user"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Database connection and schema bootstrap
	db.Init(cfg)

	// Background email pipeline
	alerts.Init(cfg)
	defer alerts.Close()

	// Shared read-through caches and the offline write slot
	listingCache := cache.New[[]catalog.Service](cfg.CacheTTL, nil)
	recordCache := cache.New[user.User](cfg.CacheTTL, nil)
	offlineSlot := offline.NewQueue[catalog.Service](cfg.OfflinePath)

	records := user.NewRecords(recordCache, cfg)
	listings := catalog.NewListings(listingCache, cfg)

	authH := auth.NewHandlers(records, cfg)
	userH := user.NewHandlers(records)
	catalogH := catalog.NewHandlers(listings, offlineSlot, cfg)
	requestH := requests.NewHandlers(records, cfg)
	reviewH := reviews.NewHandlers(records, cfg)
	creditH := credits.NewHandlers(records, cfg)

	e := echo.New()

	// Basic middleware
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	// Health and root routes
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "hourbank"})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/ready", func(c echo.Context) error {
		if db.Conn == nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db not initialized"})
		}
		if !db.Probe(context.Background(), cfg.Timeouts.Probe) {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})

	// Auth routes with per-IP rate limiting to protect signup/login from abuse
	authGroup := e.Group("/auth")
	authGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))
	authGroup.POST("/signup", authH.Signup)
	authGroup.POST("/login", authH.Login)
	authGroup.GET("/verify-email", authH.VerifyEmail)
	authGroup.POST("/resend-verification", authH.ResendVerification)
	authGroup.POST("/password-reset/request", authH.RequestPasswordReset)
	authGroup.POST("/password-reset/confirm", authH.ResetPassword)

	// Public catalog and profiles
	e.GET("/user/:id/profile", userH.GetPublicProfile)
	e.GET("/services", catalogH.Browse)
	e.GET("/services/:id", catalogH.Get)
	e.GET("/services/:id/reviews", reviewH.ByService)
	e.GET("/providers/:id/reviews", reviewH.ByProvider)
	e.GET("/providers/:id/services", catalogH.ByProvider)

	// Protected routes
	api := e.Group("")
	api.Use(mware.JWTMiddleware)

	api.GET("/auth/me", authH.Me)
	api.DELETE("/auth/account", authH.DeleteAccount)

	api.GET("/user/record", userH.GetRecord)
	api.PATCH("/user/profile", userH.UpdateProfile)

	api.POST("/services", catalogH.Create, mware.RequireRoles("member", "admin"))
	api.GET("/services/mine", catalogH.Mine)
	api.GET("/services/pending", catalogH.Pending)
	api.PATCH("/services/:id", catalogH.Update)
	api.DELETE("/services/:id", catalogH.Delete)

	api.POST("/requests", requestH.Create)
	api.GET("/requests", requestH.ListForUser)
	api.POST("/requests/:id/accept", requestH.Accept)
	api.POST("/requests/:id/reject", requestH.Reject)
	api.POST("/requests/:id/complete", requestH.Complete)
	api.POST("/requests/:id/review", reviewH.Create)

	api.GET("/credits/balance", creditH.Balance)
	api.GET("/credits/transactions", creditH.History)

	// Admin routes
	adminGroup := e.Group("/admin")
	adminGroup.Use(mware.JWTMiddleware)
	adminGroup.Use(mware.AdminGuard)

	adminGroup.GET("/stats", admin.Stats)
	adminGroup.GET("/users", admin.ListUsers)
	adminGroup.POST("/users/:id/suspend", admin.SuspendUser)
	adminGroup.POST("/users/:id/activate", admin.ActivateUser)
	adminGroup.GET("/transactions", creditH.AdminListAll)

	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
