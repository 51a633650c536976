package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/coworking-space-booking/internal/config"
	"github.com/iliyamo/coworking-space-booking/internal/database"
	"github.com/iliyamo/coworking-space-booking/internal/engine"
	"github.com/iliyamo/coworking-space-booking/internal/handler"
	"github.com/iliyamo/coworking-space-booking/internal/middleware"
	"github.com/iliyamo/coworking-space-booking/internal/pricing"
	"github.com/iliyamo/coworking-space-booking/internal/queue"
	"github.com/iliyamo/coworking-space-booking/internal/repository"
	"github.com/iliyamo/coworking-space-booking/internal/router"
	queue_publisher "github.com/iliyamo/coworking-space-booking/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	// Redis is optional: a nil client disables rate limiting and caching.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	workspaces := repository.NewWorkspaceRepo(db)
	bookings := repository.NewBookingRepo(db)
	credits := repository.NewCreditRepo(db)
	store := repository.NewStore(db)

	// The booking engine and its per-slot coordinator.  Without a
	// broker URL the engine gets a nil publisher and drops lifecycle
	// events instead of dialing a broker that is not there.
	var publisher engine.Publisher
	if cfg.QueueURL != "" {
		publisher = queue_publisher.New(cfg.QueueURL)
	} else {
		log.Println("no broker URL configured; lifecycle events disabled")
	}
	eng := engine.New(store, pricing.NewCalculator(), publisher)
	coordinator := engine.NewCoordinator(eng)

	// Handlers.
	authHandler := handler.NewAuthHandler(cfg, users, tokens)
	bookingHandler := handler.NewBookingHandler(coordinator, eng, workspaces, bookings, credits)
	adminWorkspace := handler.NewAdminWorkspaceHandler(workspaces)
	adminBooking := handler.NewAdminBookingHandler(eng, bookings)
	adminCredit := handler.NewAdminCreditHandler(store, users)

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterPublic(e, bookingHandler, config.LoadCacheConfig(), rdb)
	router.RegisterMember(e, bookingHandler, cfg.JWTSecret)
	router.RegisterAdmin(e, adminWorkspace, adminBooking, adminCredit, cfg.JWTSecret)

	// Lifecycle event consumer writes logs/booking.log; runs for the
	// life of the process with its own reconnect loop.
	if cfg.QueueURL != "" {
		go func() {
			if err := queue.StartLifecycleConsumer(cfg.QueueURL); err != nil {
				log.Printf("lifecycle consumer stopped: %v", err)
			}
		}()
	}

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
