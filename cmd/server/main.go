package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/tradepost-dev/tradepost/internal/auth"
	"github.com/tradepost-dev/tradepost/internal/db"
	market "github.com/tradepost-dev/tradepost/internal/marketplace"
	mware "github.com/tradepost-dev/tradepost/internal/middleware"
	"github.com/tradepost-dev/tradepost/internal/user"
)

func main() {
	// Local development reads .env; in deployment the environment is set
	// by the platform and the file is simply absent.
	_ = godotenv.Load()

	// Initialize the store and ledger
	db.Init()

	e := echo.New()
	e.HideBanner = true

	// Basic middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Health and root routes
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "tradepost"})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/ready", func(c echo.Context) error {
		if db.Ledger == nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "store not initialized"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})

	// Public routes
	// Auth routes with per-IP rate limiting to protect signup/login from abuse
	authGroup := e.Group("/auth")
	authGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))
	authGroup.POST("/signup", auth.Signup)
	authGroup.POST("/login", auth.Login)

	e.GET("/user/:id/profile", user.GetPublicProfile)

	// Protected routes
	api := e.Group("")
	api.Use(mware.JWTMiddleware)

	api.GET("/auth/me", auth.Me)

	// Marketplace listings
	api.POST("/marketplace/listings", market.CreateListing)
	api.GET("/marketplace/listings", market.GetAllListings)
	api.GET("/marketplace/listings/me", market.GetMyListings)

	// Marketplace orders
	api.POST("/marketplace/orders", market.CreateOrder)
	api.GET("/marketplace/orders", market.GetAllOrders)
	api.GET("/marketplace/orders/me", market.GetMyOrders)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := e.Start(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
