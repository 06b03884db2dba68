package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"train-reservation/config"
	"train-reservation/database"
	"train-reservation/handlers"
	"train-reservation/services"
	"train-reservation/sharedcache"
)

func main() {
	configureLogging(os.Getenv("LOG_FORMAT"), os.Getenv("DEBUG") == "YES")

	app := &cli.App{
		Name:        "train-reservation",
		Description: "Train reservation API with a single source of truth for fares and timings",

		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the reservation API",
				Action: func(c *cli.Context) error {
					return serve()
				},
			},
			{
				Name:  "migrate",
				Usage: "Create the database schema and exit",
				Action: func(c *cli.Context) error {
					cfg := config.Load()
					if err := database.Connect(cfg); err != nil {
						return err
					}
					defer database.Close()

					return database.RunMigrations(database.GetDB())
				},
			},
			quoteCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Send()
	}
}

func configureLogging(format string, debug bool) {
	if format != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	if debug {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}
}

func serve() error {
	// Load configuration
	cfg := config.Load()
	configureLogging(cfg.LogFormat, cfg.Debug)
	log.Info().Msg("Starting Train Reservation System")

	// An invalid fare policy must stop the service before it quotes anything
	policy, err := config.LoadFarePolicy(cfg.FarePolicyFile)
	if err != nil {
		return err
	}
	engine, err := policy.Build()
	if err != nil {
		return err
	}
	log.Info().Str("fares_per_100km", sampleFares(engine)).Msg("Fare policy loaded")

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		return err
	}
	defer database.Close()

	// Run migrations check
	if err := database.RunMigrations(database.GetDB()); err != nil {
		log.Warn().Err(err).Msg("Migration check warning")
	}

	var mirror services.RecordMirror
	if cfg.RedisAddress != "" {
		client, err := sharedcache.Connect(context.Background(), cfg.RedisAddress, cfg.RedisPassword, cfg.RedisDatabase)
		if err != nil {
			return err
		}
		defer client.Close()
		mirror = sharedcache.NewRedisMirror(client, sharedcache.DefaultExpiration)
	}

	db := database.GetDB()
	trains := services.NewTrainService(db)
	quotes := services.NewQuoteService(engine.Cache, trains, trains, mirror)
	search := services.NewSearchService(trains, quotes, engine.ConvenienceFee)
	bookings := services.NewBookingService(db, trains, quotes, engine.ConvenienceFee)
	payments := services.NewPaymentService(db, bookings)

	h := handlers.NewHandler(trains, search, trains, quotes, bookings, payments)

	// Setup Gin router
	router := setupRouter(h)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return err
	}

	log.Info().Msg("Server exited")
	return nil
}

func setupRouter(h *handlers.Handler) *gin.Engine {
	// Set Gin to release mode in production
	if os.Getenv("GIN_MODE") != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), handlers.RequestLogger())

	// CORS configuration
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// API routes
	h.RegisterRoutes(router.Group("/api"))

	// 404 handler
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})

	return router
}
