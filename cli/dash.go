// ABOUTME: Dash command launching the terminal dashboard
package cli

import (
	"flag"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/coldreach/coldreach/client"
	"github.com/coldreach/coldreach/config"
	"github.com/coldreach/coldreach/tui"
)

// DashCommand opens the terminal dashboard against a running server.
func DashCommand(cfg *config.Config, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("dash", flag.ExitOnError)
	server := fs.String("server", "", "API server address (default from config)")
	_ = fs.Parse(args)

	host := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	if *server != "" {
		host = *server
	}

	apiURL := "http://" + host
	socketURL := "ws://" + host + "/api/socket"

	handleCfg := client.HandleConfig{
		ReconnectEvery: cfg.Client.ReconnectEvery,
		DialTimeout:    cfg.Client.DialTimeout,
		MaxRetries:     cfg.Client.MaxRetries,
	}
	return tui.Run(apiURL, socketURL, cfg.Server.Token, handleCfg, logger)
}
