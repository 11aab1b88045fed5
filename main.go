package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/sykell/phishguard/internal/api"
	"github.com/sykell/phishguard/internal/classifier"
	"github.com/sykell/phishguard/internal/db"
	"github.com/sykell/phishguard/internal/history"
	"github.com/sykell/phishguard/internal/middleware"
	"github.com/sykell/phishguard/internal/whoisage"
)

// Config holds application configuration
type Config struct {
	Port            string
	ModelPath       string
	HistoryFile     string
	WhoisTimeout    time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// NewConfig creates a new configuration from environment variables
func NewConfig() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	modelPath := os.Getenv("MODEL_PATH")
	if modelPath == "" {
		modelPath = "phishing_model.json"
	}

	historyFile := os.Getenv("HISTORY_FILE")
	if historyFile == "" {
		historyFile = "scan_history.json"
	}

	whoisTimeout := 10 * time.Second
	if timeoutStr := os.Getenv("WHOIS_TIMEOUT"); timeoutStr != "" {
		if parsed, err := time.ParseDuration(timeoutStr); err == nil {
			whoisTimeout = parsed
		}
	}

	return &Config{
		Port:            port,
		ModelPath:       modelPath,
		HistoryFile:     historyFile,
		WhoisTimeout:    whoisTimeout,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

func main() {
	_ = godotenv.Load()

	// Initialize configuration
	config := NewConfig()

	// Load the trained classifier; the service must not start without it
	log.Printf("Loading classifier model from %s...", config.ModelPath)
	model, err := classifier.Load(config.ModelPath)
	if err != nil {
		log.Fatalf("Failed to load classifier model: %v", err)
	}
	log.Println("Classifier model loaded successfully")

	// Initialize database
	log.Println("Initializing database...")
	dbConn, err := db.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	log.Println("Database initialized successfully")

	// Scan history and WHOIS age resolver
	store := history.NewStore(config.HistoryFile)
	ages := whoisage.NewResolver(config.WhoisTimeout)

	// Initialize Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Add middleware
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC(),
			"service":   "phishguard",
		})
	})

	// Public scan surface
	r.GET("/", api.IndexHandler())
	r.GET("/logs", api.LogsHandler(store))
	r.POST("/analyze", api.AnalyzeHandler(model, ages, store))

	// Authentication endpoint
	r.POST("/auth/login", api.LoginHandler(dbConn))

	// Protected admin routes
	admin := r.Group("/")
	admin.Use(middleware.JWTRequired())
	{
		admin.DELETE("/logs", api.ClearLogsHandler(store))
		admin.GET("/stats", api.StatsHandler(store))
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      r,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on port %s", config.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Create shutdown context
	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()

	// Shutdown server gracefully
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
