package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emergent/storyboard-agent/internal/api"
	"github.com/emergent/storyboard-agent/internal/backend"
	"github.com/emergent/storyboard-agent/internal/config"
	"github.com/emergent/storyboard-agent/internal/db"
	"github.com/emergent/storyboard-agent/internal/jobs"
	"github.com/emergent/storyboard-agent/internal/logging"
	"github.com/emergent/storyboard-agent/internal/move"
	"github.com/emergent/storyboard-agent/internal/store"
	"github.com/emergent/storyboard-agent/internal/ui"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting storyboard agent", "version", config.Version, "data_dir", cfg.DataDir())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := store.NewRepository(database.Conn())

	deviceID, err := ensureDeviceID(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║                  STORYBOARD AGENT v0.1.0                  ║")
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Printf("║  Device ID:  %-45s ║\n", deviceID[:16]+"...")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	var client backend.Client
	if cfg.BackendEnabled() {
		httpClient := backend.NewHTTPClient(cfg.BackendURL(), cfg.BackendToken(), logger)
		httpClient.SetDeviceID(deviceID)
		client = httpClient
		logger.Info("backend sync enabled", "base_url", cfg.BackendURL(), "project_id", cfg.ProjectID())
	} else {
		client = backend.NewStubClient(logger)
		logger.Info("no backend configured, running against the built-in demo data")
	}

	tracker := jobs.NewTracker(client, logger)
	tracker.SetStore(repo)
	if err := tracker.Restore(context.Background()); err != nil {
		logger.Warn("failed to restore queue snapshot", "error", err)
	}

	dispatcher := jobs.NewDispatcher(client, tracker, logger)
	mover := move.NewController(client, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poller := jobs.NewPoller(tracker, cfg.PollInterval(), logger)

	apiServer := api.NewServer(api.ServerConfig{
		Port:       cfg.Port(),
		ProjectID:  cfg.ProjectID(),
		Backend:    client,
		Repository: repo,
		Mover:      mover,
		Tracker:    tracker,
		Dispatcher: dispatcher,
		Poller:     poller,
		Logger:     logger,
		StartTime:  startTime,
		DeviceID:   deviceID,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			close(quitCh)
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Tracker: tracker,
			Poller:  poller,
			Logger:  logger,
			OnQuit: func() {
				close(quitCh)
			},
		})
		poller.OnSnapshot = tray.OnSnapshot
		go tray.Run()
	}

	go poller.Start(ctx)

	<-quitCh

	logger.Info("initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func ensureDeviceID(repo *store.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "device_id")
	if err == nil && existing != "" {
		return existing, nil
	}

	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return "", err
	}
	deviceID := hex.EncodeToString(idBytes)

	if err := repo.SetConfig(ctx, "device_id", deviceID); err != nil {
		return "", err
	}

	return deviceID, nil
}

func ensureAuthToken(repo *store.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "auth_token")
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, "auth_token", token); err != nil {
		return "", err
	}

	return token, nil
}
