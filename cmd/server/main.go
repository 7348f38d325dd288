package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"social-link/gatekeeper/internal/api"
	"social-link/gatekeeper/internal/db"
	"social-link/gatekeeper/internal/discord"
	"social-link/gatekeeper/internal/jobs"
	"social-link/gatekeeper/internal/logging"
	"social-link/gatekeeper/internal/metrics"
	"social-link/gatekeeper/internal/routes"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "development"
	}

	if err := logging.Init(appEnv); err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer logging.Close()

	logging.Info("Gatekeeper starting up",
		"environment", appEnv,
		"timestamp", time.Now().Format(time.RFC3339),
	)

	// Connect to DB with sqlx
	if err := db.InitPostgres(); err != nil {
		logging.Error("Failed to connect to Postgres (sqlx)", "error", err.Error())
		log.Fatalf("❌ Failed to connect to Postgres (sqlx): %v", err)
	}
	logging.Info("Connected to Postgres (sqlx)")

	// Connect to DB with GORM
	host := os.Getenv("PG_HOST")
	port := os.Getenv("PG_PORT")
	user := os.Getenv("PG_USER")
	dbname := os.Getenv("PG_DB")
	password := os.Getenv("PG_PASSWORD")
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, dbname)

	if _, err := db.InitPostgresORM(dsn); err != nil {
		logging.Error("Failed to connect to Postgres (GORM)", "error", err.Error())
		log.Fatalf("❌ Failed to connect to Postgres (GORM): %v", err)
	}
	logging.Info("Connected to Postgres (GORM)")

	token := os.Getenv("DISCORD_TOKEN")
	if token == "" {
		log.Fatal("❌ DISCORD_TOKEN is not set")
	}

	session, err := discord.NewSession(token)
	if err != nil {
		log.Fatalf("❌ Failed to create Discord session: %v", err)
	}

	metricsReg := metrics.NewMetricsRegistry()
	discord.BindLifecycleHandlers(session, metricsReg)

	gateway := discord.NewSessionGateway(session)

	deps, err := api.InitDependencies(metricsReg, gateway)
	if err != nil {
		log.Fatalf("❌ Failed to initialize dependencies: %v", err)
	}

	commandHandler := discord.NewCommandHandler(
		deps.Services.Reconciler,
		deps.Services.Settings,
		deps.Repo.Links,
		deps.Services.LinkSigner,
		os.Getenv("DEVELOPER_ID"),
	)
	commandHandler.Bind(session)

	if err := session.Open(); err != nil {
		log.Fatalf("❌ Failed to open Discord session: %v", err)
	}
	defer session.Close()
	logging.Info("Discord session opened")

	// Bulk replace on every startup, safe to repeat
	appID := os.Getenv("DISCORD_CLIENT_ID")
	if err := discord.RegisterCommands(session, appID); err != nil {
		logging.Error("Failed to register application commands", "error", err.Error())
	} else {
		logging.Info("Application commands registered")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweepJob := jobs.InitializeJobs(
		ctx,
		deps.Repo.Sweep,
		deps.Services.Verification,
		deps.Services.Reconciler,
		metricsReg,
	)

	upSince := time.Now()
	router := routes.RegisterRoutes(deps, sweepJob, upSince)

	// Setup metrics endpoint outside of chi router
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", router)
	logging.Info("Prometheus metrics endpoint registered at /metrics")

	webhookPort := os.Getenv("WEBHOOK_PORT")
	if webhookPort == "" {
		webhookPort = "8080"
	}

	go func() {
		logging.Info("Webhook listener starting", "port", webhookPort)
		if err := http.ListenAndServe(":"+webhookPort, mux); err != nil {
			logging.Error("Webhook listener stopped", "error", err.Error())
		}
	}()

	// Block until interrupted; the Discord session runs on its own goroutines
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logging.Info("Shutting down")
}
