package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"strings"
	"time"

	"github.com/paulcha3/group4-BDM-case/src/config"
	"github.com/paulcha3/group4-BDM-case/src/database"
	"github.com/paulcha3/group4-BDM-case/src/handlers"
	"github.com/paulcha3/group4-BDM-case/src/logger"
	"github.com/paulcha3/group4-BDM-case/src/metrics"
	"github.com/paulcha3/group4-BDM-case/src/processors"
	"github.com/paulcha3/group4-BDM-case/src/security"
	"github.com/paulcha3/group4-BDM-case/src/services"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// newRateProvider builds the historical provider selected by HISTORICAL_RATES_SOURCE.
// A nil provider means every conversion goes through the fallback table.
func newRateProvider(cfg *config.AppConfig, reg *metrics.Registry) processors.HistoricalRateProvider {
	ecb := func() *services.ECBRateService {
		return services.NewECBRateService(services.ECBRateServiceOptions{
			BaseURL:           cfg.ECBAPIBaseURL,
			Timeout:           cfg.ECBRequestTimeout,
			RequestsPerSecond: cfg.ECBRequestsPerSecond,
			CacheTTL:          cfg.RateCacheTTL,
			LookbackDays:      cfg.HistoricalLookbackDays,
			Metrics:           reg,
		})
	}
	file := func() *processors.HistoricalRateStore {
		store, err := processors.LoadHistoricalRates(cfg.HistoricalDataPath, cfg.HistoricalLookbackDays)
		if err != nil {
			logger.L.Error("Failed to load historical rates, fallback rates only", "path", cfg.HistoricalDataPath, "error", err)
			return nil
		}
		logger.L.Info("Historical rates loaded", "path", cfg.HistoricalDataPath, "currencies", store.Currencies())
		return store
	}

	switch cfg.HistoricalRatesSource {
	case config.RateSourceFile:
		if store := file(); store != nil {
			return store
		}
		return nil
	case config.RateSourceECB:
		return ecb()
	case config.RateSourceChain:
		if store := file(); store != nil {
			return processors.ProviderChain{store, ecb()}
		}
		return ecb()
	default:
		return nil
	}
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel, config.Cfg.LogFormat)
	logger.L.Info("BDM product cleaning server starting...")

	reg := metrics.NewRegistry()
	provider := newRateProvider(config.Cfg, reg)
	converter := processors.NewPriceConverter(provider, processors.DefaultFallbackRates())
	cleaner := processors.NewDatasetCleaner(converter)

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	reportCache := cache.New(config.Cfg.ReportCacheTTL, 2*config.Cfg.ReportCacheTTL)

	logger.L.Info("Initializing services and handlers...")
	authService := security.NewAuthService(config.Cfg.JWTSecret, config.Cfg.AccessTokenExpiry)
	cleaningService := services.NewCleaningService(database.DB, cleaner, reportCache, reg)
	cleanHandler := handlers.NewCleanHandler(cleaningService, config.Cfg.MaxUploadSizeBytes)
	ratesHandler := handlers.NewRatesHandler(converter)
	withAuth := handlers.AuthMiddleware(authService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("POST /api/clean", withAuth(cleanHandler.HandleClean))
	apiRouter.HandleFunc("GET /api/runs", withAuth(cleanHandler.HandleListRuns))
	apiRouter.HandleFunc("GET /api/runs/{id}", withAuth(cleanHandler.HandleGetRun))
	apiRouter.HandleFunc("GET /api/runs/{id}/records.csv", withAuth(cleanHandler.HandleGetRunRecords))
	apiRouter.HandleFunc("GET /api/rates/fallback", ratesHandler.HandleGetFallbackRates)
	apiRouter.HandleFunc("GET /api/convert", ratesHandler.HandleConvert)

	rootMux.Handle("/api/", apiRouter)
	rootMux.Handle("GET /metrics", reg.Handler())

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "BDM product cleaning backend is running"})
		} else if !strings.HasPrefix(r.URL.Path, "/api/") {
			logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
			http.NotFound(w, r)
		}
	})

	logger.L.Info("Applying global middleware...")
	limiter := rate.NewLimiter(rate.Every(100*time.Millisecond), 30)
	finalHandler := handlers.EnableCORS(config.Cfg.AllowedOrigins)(handlers.RateLimitMiddleware(limiter)(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
