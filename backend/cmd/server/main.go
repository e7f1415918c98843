package main

import (
	"context"
	"log"
	"os"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/user/cryptodesk/backend/internal/database"
	"github.com/user/cryptodesk/backend/internal/handlers"
	"github.com/user/cryptodesk/backend/internal/metrics"
	"github.com/user/cryptodesk/backend/internal/middleware"
	"github.com/user/cryptodesk/backend/internal/onboarding"
	"github.com/user/cryptodesk/backend/internal/security"
	"github.com/user/cryptodesk/backend/internal/ticker"
	"github.com/user/cryptodesk/backend/internal/trading"
	internalws "github.com/user/cryptodesk/backend/internal/websocket"
)

func main() {
	// Load .env for local development; env vars win if both are set.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	ctx := context.Background()

	pool, err := database.Connect(ctx)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	store := database.NewStore(pool)
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("Schema migration failed: %v", err)
	}

	// Initialize WebSocket hub and the simulated price ticker feeding it
	internalws.InitializeGlobalHub()
	ticker.InitTicker()

	// Metrics registry
	registry := prometheus.NewRegistry()
	metrics.Register(registry)

	// Services
	onboardingSvc := onboarding.NewService(store, onboarding.NewRandomVerifier())
	tradingSvc := trading.NewService(store)
	securitySvc := security.NewService(store)

	// Handlers
	authHandler := handlers.NewAuthHandler(store)
	onboardingHandler := handlers.NewOnboardingHandler(onboardingSvc)
	tradingHandler := handlers.NewTradingHandler(tradingSvc)
	securityHandler := handlers.NewSecurityHandler(securitySvc)

	app := fiber.New()
	app.Use(metrics.Middleware())

	// --- WebSocket Routes ---
	// Defined before the /api group so they don't inherit its middleware
	wsGroup := app.Group("/ws")
	wsGroup.Use("/", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	wsGroup.Get("/prices", websocket.New(handlers.PriceWSEndpoint))

	// Prometheus scrape endpoint
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(registry)))

	// --- API Routes ---
	api := app.Group("/api")

	// Health check (Public)
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("Cryptodesk API is healthy!")
	})

	// Market prices snapshot (Public)
	api.Get("/prices", handlers.GetPrices)

	// Auth routes (Public)
	authGroup := api.Group("/auth")
	authGroup.Post("/signup", authHandler.Signup)
	authGroup.Post("/login", authHandler.Login)

	// --- Query Routes ---
	// Queries resolve identity when present but never reject anonymous
	// callers; they return null instead.
	api.Get("/onboarding/step", middleware.OptionalAuth(), onboardingHandler.GetCurrentStep)
	api.Get("/wallet", middleware.OptionalAuth(), tradingHandler.GetWalletBalance)
	api.Get("/transactions", middleware.OptionalAuth(), tradingHandler.GetTransactionHistory)
	api.Get("/security", middleware.OptionalAuth(), securityHandler.GetSettings)

	// --- Protected Routes ---
	// All mutations require a valid session token.
	api.Use(middleware.Protected())

	api.Get("/me", func(c *fiber.Ctx) error {
		userID := c.Locals("userID")
		username := c.Locals("username")
		return c.JSON(fiber.Map{
			"user_id":  userID,
			"username": username,
		})
	})

	onboardingGroup := api.Group("/onboarding")
	onboardingGroup.Post("/initialize", onboardingHandler.Initialize)
	onboardingGroup.Post("/kyc", onboardingHandler.SubmitKYC)
	onboardingGroup.Post("/verify", onboardingHandler.VerifyDocuments)
	onboardingGroup.Post("/wallet", onboardingHandler.ConnectWallet)

	api.Post("/trade", tradingHandler.SimulateTrade)
	api.Post("/wallet/initialize", tradingHandler.InitializeWallet)

	api.Put("/security", securityHandler.UpdateSettings)

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	log.Println("Starting server on", addr)
	log.Fatal(app.Listen(addr))
}
