package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/coreybb/ikizamini/api"
	"github.com/coreybb/ikizamini/auth"
	"github.com/coreybb/ikizamini/datastore"
	"github.com/coreybb/ikizamini/delivery"
	"github.com/coreybb/ikizamini/render"
	rh "github.com/coreybb/ikizamini/route-handlers"
)

const (
	defaultSessionSecret = "yoursecretkey"
	shutdownTimeout      = 15 * time.Second
)

type config struct {
	Port              string `env:"PORT" envDefault:"8080"`
	StorageDriver     string `env:"STORAGE_DRIVER" envDefault:"sqlite"`
	DatabaseURL       string `env:"DB_CONNECTION_STRING" envDefault:"ikizamini.db"`
	SessionSecret     string `env:"SESSION_SECRET"`
	SendGridAPIKey    string `env:"SENDGRID_API_KEY"`
	SendGridFromEmail string `env:"SENDGRID_FROM_EMAIL" envDefault:"deliver@lakonic.dev"`
	SendGridFromName  string `env:"SENDGRID_FROM_NAME" envDefault:"Ikizamini"`
}

func main() {
	cfg := loadConfig()

	ctx := context.Background()
	store, err := datastore.Open(ctx, cfg.StorageDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Storage setup failed: %v", err)
	}
	defer store.Close(context.Background())
	log.Printf("Storage ready (driver: %s)", cfg.StorageDriver)

	renderer, err := render.New()
	if err != nil {
		log.Fatalf("Template setup failed: %v", err)
	}

	sessions := auth.NewSessionManager(cfg.SessionSecret)

	var mailer delivery.Mailer
	if cfg.SendGridAPIKey != "" {
		mailer = delivery.NewSendGridMailer(cfg.SendGridAPIKey, cfg.SendGridFromEmail, cfg.SendGridFromName)
	} else {
		mailer = delivery.LogMailer{}
	}

	pageHandler := rh.NewPageHandler(sessions, renderer)
	authHandler := rh.NewAuthHandler(store, sessions, mailer, renderer)
	scoreHandler := rh.NewScoreHandler(store, renderer)
	contactHandler := rh.NewContactHandler(store)

	router := api.SetupRoutes(
		sessions,
		pageHandler,
		authHandler,
		scoreHandler,
		contactHandler,
		render.StaticFS(),
	)

	startServer(cfg.Port, router)
}

func loadConfig() config {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("Config parse failed: %v", err)
	}

	if cfg.SessionSecret == "" {
		cfg.SessionSecret = defaultSessionSecret
		log.Println("WARNING: SESSION_SECRET not set, using an insecure default. Do not run this in production.")
	}
	if cfg.SendGridAPIKey == "" {
		log.Println("WARNING: SENDGRID_API_KEY not set. OTP codes will be logged instead of emailed.")
	}

	return cfg
}

func startServer(port string, router http.Handler) {
	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownSignal // Block until signal received
	log.Println("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}

	log.Println("Server gracefully stopped")
}
