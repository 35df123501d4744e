package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/creation-fund/internal/auth"        // QR signature verification service
	"github.com/iliyamo/creation-fund/internal/config"      // Internal config loader
	"github.com/iliyamo/creation-fund/internal/database"    // MySQL connection helper
	"github.com/iliyamo/creation-fund/internal/handler"     // HTTP handlers
	"github.com/iliyamo/creation-fund/internal/middleware"  // Rate limiting and response cache
	"github.com/iliyamo/creation-fund/internal/queue"       // Ticket activity consumer
	"github.com/iliyamo/creation-fund/internal/repository"  // Data access layer
	"github.com/iliyamo/creation-fund/internal/reservation" // Admission control engine
	"github.com/iliyamo/creation-fund/internal/router"      // Route registration
	"github.com/iliyamo/creation-fund/internal/session"     // In-memory QR handshake sessions
)

func main() {
	// Load .env when present; real environments set variables directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Repositories over the shared pool.
	users := repository.NewUserRepo(db)
	events := repository.NewEventRepo(db)
	tickets := repository.NewTicketRepo(db)
	cycles := repository.NewCycleRepo(db)

	// QR handshake sessions are in-memory on purpose: they are short
	// lived and losing them on restart only forces a fresh QR code.
	sessions := session.New(session.DefaultTTL, nil)
	authSvc := auth.NewService(sessions, users)
	engine := reservation.NewEngine(events, tickets, nil)

	qrHandler := handler.NewQRAuthHandler(cfg, sessions, authSvc)
	ticketHandler := handler.NewTicketHandler(engine, tickets, events)
	publicHandler := handler.NewPublicHandler(cycles, events, tickets, cfg.JWTSecret)

	e := echo.New() // Create Echo instance

	// Redis-backed rate limiting and response caching.  A nil client
	// disables both middlewares and the server keeps working.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and caching disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	router.RegisterRoutes(e) // Health check
	router.RegisterAuth(e, qrHandler, cfg.JWTSecret)
	router.RegisterPublic(e, publicHandler)
	router.RegisterTickets(e, ticketHandler, cfg.JWTSecret)

	// Background consumer logging ticket activity from the broker.
	go func() {
		if err := queue.StartTicketConsumer(); err != nil {
			log.Printf("ticket consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
