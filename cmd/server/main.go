package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/mdp/qrterminal/v3"
	"go.uber.org/zap"

	"pocketdrop/internal/archive"
	"pocketdrop/internal/catalog"
	"pocketdrop/internal/circuitbreaker"
	"pocketdrop/internal/config"
	"pocketdrop/internal/handlers"
	"pocketdrop/internal/history"
	"pocketdrop/internal/metrics"
	"pocketdrop/internal/mirror"
	"pocketdrop/internal/netinfo"
	"pocketdrop/internal/observer"
	"pocketdrop/internal/server"
	"pocketdrop/internal/upload"
)

func main() {
	// Parse command-line flags
	configFile := flag.String("config", "", "Path to config file (overrides CONFIG_FILE env var)")
	flag.Parse()

	// Load environment variables from file
	loadEnvFile(*configFile)

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("failed to init logger:", err)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx := context.Background()

	// Initialize metrics
	m := metrics.New()
	m.StartRuntimeMetricsCollector()

	// Initialize circuit breakers
	historyBreaker := circuitbreaker.New("history", cfg, m)
	mirrorBreaker := circuitbreaker.New("mirror", cfg, m)

	// Initialize transfer log store
	hist, err := history.New(ctx, cfg, m)
	if err != nil {
		logger.Fatal("failed to initialize transfer log", zap.Error(err))
	}
	if cfg.HistoryEnabled() {
		hist = history.WithBreaker(hist, historyBreaker)
		logger.Info("initialized transfer log", zap.String("engine", cfg.HistoryEngine))
	}
	defer hist.Close()

	// Initialize upload mirror
	mir, err := mirror.New(ctx, cfg, m, mirrorBreaker)
	if err != nil {
		logger.Fatal("failed to initialize upload mirror", zap.Error(err))
	}
	if cfg.MirrorEnabled() {
		logger.Info("initialized upload mirror", zap.String("type", mir.Type()))
	}

	// Initialize the activity recorder, optionally fanning events out to a
	// configured webhook
	var listener observer.Listener
	if cfg.EventWebhookURL != "" {
		listener = observer.NewWebhookListener(logger, m, cfg.EventWebhookURL, cfg.WebhookMaxRetries, cfg.WebhookRetryDelay)
		logger.Info("initialized event webhook", zap.String("url", cfg.EventWebhookURL))
	}
	recorder := observer.NewRecorder(logger, m, listener)

	// Make sure both transfer roots exist before any handler touches them
	for _, dir := range []string{cfg.UploadDir, cfg.DownloadDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Fatal("failed to create transfer directory", zap.String("dir", dir), zap.Error(err))
		}
	}

	// Initialize transfer components
	cat := catalog.New(cfg.DownloadDir, logger, m)
	builder := archive.NewBuilder(cfg.DownloadDir, logger, m, cfg.MaxConcurrentArchives)
	saver := upload.NewSaver(cfg.UploadDir)

	// Initialize transfer handler
	transferHandler := handlers.NewHandler(
		logger,
		m,
		recorder,
		cat,
		builder,
		saver,
		hist,
		mir,
		cfg.DownloadDir,
		cfg.Theme,
		cfg.MaxUploadBytes,
		cfg.HistoryRecentLimit,
	)

	// Initialize health handler
	healthHandler := handlers.NewHealthHandler(logger, m, hist, mir, cfg.UploadDir, cfg.DownloadDir)

	// Initialize and start server
	srv := server.New(logger, cfg, m, recorder, transferHandler, healthHandler)
	if err := srv.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	serviceURL := netinfo.ServiceURL(netinfo.LocalIP(), cfg.Port)
	recorder.Logf("Server started on %s", serviceURL)
	recorder.Logf("Mode: %s", modeText(cfg.Theme))
	if cfg.ShowQR {
		go printQR(serviceURL)
	}

	// Wait for shutdown signal
	if err := srv.WaitForShutdown(); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}

// modeText is the mode label shown in the startup log, matching the badge on
// the served page.
func modeText(theme string) string {
	if theme == "hotspot" {
		return "📶 Hotspot"
	}
	return "🌐 WiFi"
}

// printQR renders the service URL as a terminal QR code so a phone can join
// without typing the address.
func printQR(url string) {
	fmt.Printf("\nScan to connect:\n")
	qrterminal.GenerateWithConfig(url, qrterminal.Config{
		Level:      qrterminal.M,
		Writer:     os.Stdout,
		HalfBlocks: true,
		QuietZone:  1,
	})
	fmt.Printf("%s\n\n", url)
}

// loadEnvFile loads environment variables from a file
// Priority: --config flag > CONFIG_FILE env var > .env file
// Silently continues if file doesn't exist (falls back to OS env vars)
func loadEnvFile(flagConfigFile string) {
	var configFile string

	// 1. Check --config flag
	if flagConfigFile != "" {
		configFile = flagConfigFile
	} else {
		// 2. Check CONFIG_FILE env var
		configFile = os.Getenv("CONFIG_FILE")
	}

	// 3. Try specified file or default to .env
	if configFile != "" {
		// User specified a file - fail if it doesn't exist
		if err := godotenv.Load(configFile); err != nil {
			log.Fatalf("failed to load config file %s: %v", configFile, err)
		}
		log.Printf("loaded config from: %s", configFile)
	} else {
		// Try .env but don't error if it doesn't exist
		if err := godotenv.Load(); err == nil {
			log.Println("loaded config from: .env")
		}
		// Silently continue if .env doesn't exist - will use OS env vars
	}
}
