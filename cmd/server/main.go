package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"tripgen-service/internal/infrastructure/config"
	"tripgen-service/internal/infrastructure/credential"
	"tripgen-service/internal/infrastructure/persistence"
	"tripgen-service/internal/interface/httpapi"
	"tripgen-service/internal/interface/llm"
	tableRepo "tripgen-service/internal/interface/repository"
	"tripgen-service/internal/interface/routing"
	"tripgen-service/internal/interface/weather"
	"tripgen-service/internal/usecase"
	"tripgen-service/pkg/logger"
	"tripgen-service/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	// Create logger
	log := logger.NewLogger(cfg.LogLevel)
	defer log.Sync()
	log.Info("Starting Tripgen Service", "version", cfg.AppVersion)

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up MongoDB connection for the run journal
	log.Info("Connecting to MongoDB")
	mongoClient, db, err := persistence.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoDB, cfg.MongoUser, cfg.MongoPassword)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err)
	}

	// Set up PostgreSQL for the city coordinate table
	gormDB, err := gorm.Open(postgres.Open(cfg.PostgresURI), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", "error", err)
	}
	if err := tableRepo.SeedCities(gormDB); err != nil {
		log.Fatal("Failed to seed city coordinate table", "error", err)
	}

	// Outbound HTTP clients, one per provider base URL
	newClient := func(baseURL string) *resty.Client {
		return resty.New().SetBaseURL(baseURL).SetTimeout(cfg.OutboundTimeout)
	}
	tableClient := newClient(cfg.TableBaseURL)
	geoClient := newClient(cfg.WeatherGeoURL)
	weatherClient := newClient(cfg.WeatherBaseURL)
	routingClient := newClient(cfg.RoutingBaseURL)
	aiClient := newClient(cfg.AIBaseURL)

	// Table service credentials and gateway
	creds := credential.NewCache(tableClient, credential.Options{
		AppID:        cfg.TableAppID,
		AppSecret:    cfg.TableAppSecret,
		TTLFallback:  cfg.TokenTTLFallback,
		SafetyMargin: cfg.TokenSafetyMargin,
	}, log)
	gateway := tableRepo.NewBitableGateway(tableClient, creds, cfg, log)

	// Set up repositories
	guideRepository := tableRepo.NewBitableGuideRepository(gateway, cfg, log)
	userRepository := tableRepo.NewBitableUserRepository(gateway, cfg, log)
	cityRepository := tableRepo.NewGormCityRepository(gormDB)
	runRepository := tableRepo.NewMongoRunRepository(db)

	// Set up providers
	weatherProvider := weather.NewClient(geoClient, weatherClient, cfg.WeatherAPIKey, log)
	routingProvider := routing.NewClient(routingClient, cfg.RoutingAPIKey, log)
	generationProvider := llm.NewClient(aiClient, cfg.AIAPIKey, cfg.AIModel, log)

	// Set up usecases
	m := metrics.NewMetrics("tripgen")
	factGatherer := usecase.NewFactGatherer(weatherProvider, routingProvider, cityRepository, log)
	preferenceService := usecase.NewPreferenceService(userRepository, generationProvider, log)
	authService := usecase.NewAuthService(userRepository, cfg.JWTSecret, cfg.JWTTTL, log)
	pipeline := usecase.NewGuidePipeline(
		factGatherer,
		preferenceService,
		usecase.NewBookingAdvisor(),
		generationProvider,
		guideRepository,
		runRepository,
		m,
		cfg,
		log,
	)

	// Set up HTTP server
	api := httpapi.NewServer(authService, pipeline, preferenceService, guideRepository, cfg, log)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal", "signal", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	cancel()

	// Disconnect from MongoDB
	if err := mongoClient.Disconnect(context.Background()); err != nil {
		log.Error("MongoDB disconnect error", "error", err)
	}

	log.Info("Tripgen Service stopped")
}
