package main // Entry point package

import (
    "log" // Logging library

    "github.com/joho/godotenv"    // loads .env files in development
    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/iliyamo/parking-management/internal/config"     // Internal config loader
    "github.com/iliyamo/parking-management/internal/database"   // MySQL connection helper
    "github.com/iliyamo/parking-management/internal/handler"    // HTTP handlers
    "github.com/iliyamo/parking-management/internal/middleware" // cache and rate limit middleware
    "github.com/iliyamo/parking-management/internal/queue"      // RabbitMQ publisher and receipt consumer
    "github.com/iliyamo/parking-management/internal/repository" // DB repositories
    "github.com/iliyamo/parking-management/internal/router"     // Internal router setup
    "github.com/iliyamo/parking-management/internal/service"    // parking coordinator
)

func main() {
    // Load .env if present; in production configuration comes from the
    // real environment and a missing file is not an error.
    _ = godotenv.Load()

    cfg := config.Load() // Load environment config

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database connection failed: %v", err)
    }
    defer db.Close()

    // Redis backs the response cache and the rate limiter.  A nil
    // client disables both middlewares rather than failing startup.
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Println("redis unavailable; response cache and rate limiting disabled")
    }
    rateLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
    respCache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

    users := repository.NewUserRepo(db)
    tokens := repository.NewTokenRepo(db)
    lots := repository.NewParkingLotRepo(db)
    entries := repository.NewCarEntryRepo(db)
    vehicles := repository.NewVehicleRepo(db)

    parking := service.NewParkingService(db, lots, entries, queue.PublishEntryCompleted)

    authH := handler.NewAuthHandler(cfg, users, tokens)
    lotH := handler.NewLotHandler(lots)
    entryH := handler.NewEntryHandler(parking)
    vehicleH := handler.NewVehicleHandler(vehicles)

    e := echo.New() // Create Echo instance
    e.Use(rateLimit)

    router.RegisterRoutes(e)
    router.RegisterAuth(e, authH, cfg.JWTSecret)
    router.RegisterAdmin(e, lotH, entryH, vehicleH, cfg.JWTSecret, respCache)
    router.RegisterClient(e, vehicleH, entryH, cfg.JWTSecret)

    // Consume completed-entry events and append receipts in the
    // background; the consumer reconnects on broker failures.
    go func() {
        if err := queue.StartReceiptConsumer(); err != nil {
            log.Printf("receipt consumer stopped: %v", err)
        }
    }()

    addr := ":" + cfg.Port                                // Address string with port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

    if err := e.Start(addr); err != nil { // Start HTTP server
        log.Fatal(err) // Log and exit if server fails
    }
}
