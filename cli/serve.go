// ABOUTME: Serve command wiring storage, service, push hub, and REST API
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/coldreach/coldreach/activity"
	"github.com/coldreach/coldreach/api"
	"github.com/coldreach/coldreach/config"
	"github.com/coldreach/coldreach/crm"
	"github.com/coldreach/coldreach/db"
	"github.com/coldreach/coldreach/realtime"
)

// ServeCommand runs the API server until it fails.
func ServeCommand(cfg *config.Config, logger *log.Logger) error {
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	database, err := db.OpenDatabase(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	feed, err := activity.Open(cfg.Storage.ActivityPath)
	if err != nil {
		return fmt.Errorf("failed to open activity log: %w", err)
	}
	defer feed.Close()

	generated, err := cfg.EnsureServerToken()
	if err != nil {
		return fmt.Errorf("failed to generate api token: %w", err)
	}
	if generated {
		logger.Info("no api token configured, generated one for this run", "token", cfg.Server.Token)
	}

	hub := realtime.NewHub(logger)
	bus := realtime.NewBus(logger)
	bus.Attach(hub)

	svc := crm.NewService(database, feed, bus, logger)
	server := api.NewServer(svc, hub, logger, cfg.Server.Token)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("database ready", "path", cfg.Storage.DatabasePath)
	return server.Start(addr)
}
