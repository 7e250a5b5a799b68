// ABOUTME: Entry point for the coldreach server and CLI
// ABOUTME: Routes to serve, dash, or management commands based on arguments
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/coldreach/coldreach/activity"
	"github.com/coldreach/coldreach/cli"
	"github.com/coldreach/coldreach/config"
	"github.com/coldreach/coldreach/crm"
	"github.com/coldreach/coldreach/db"
	"github.com/coldreach/coldreach/realtime"
)

const version = "0.2.0"

func main() {
	_ = godotenv.Load()

	showVersion := flag.Bool("version", false, "Show version and exit")
	configPath := flag.String("config", "", "Config file path (default: ~/.config/coldreach/config.yaml)")
	dbPath := flag.String("db-path", "", "Database path override")
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("coldreach version %s\n", version)
		os.Exit(0)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "coldreach",
	})

	cfgFile := *configPath
	if cfgFile == "" {
		cfgFile = config.DefaultPath()
	}
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		logger.Fatal("failed to load config", "path", cfgFile, "err", err)
	}
	if *dbPath != "" {
		cfg.Storage.DatabasePath = *dbPath
	}
	if tok := os.Getenv("COLDREACH_TOKEN"); tok != "" {
		cfg.Server.Token = tok
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	command := args[0]
	commandArgs := args[1:]

	switch command {
	case "serve":
		if err := cli.ServeCommand(cfg, logger); err != nil {
			logger.Fatal("server failed", "err", err)
		}

	case "dash":
		if err := cli.DashCommand(cfg, logger, commandArgs); err != nil {
			logger.Fatal("dashboard failed", "err", err)
		}

	case "add-lead", "list-leads", "update-lead", "delete-lead",
		"add-campaign", "list-campaigns", "update-campaign",
		"add-step", "list-steps", "activity", "stats":
		svc, cleanup, err := buildService(cfg, logger)
		if err != nil {
			logger.Fatal("startup failed", "err", err)
		}
		defer cleanup()

		if err := runManagementCommand(svc, command, commandArgs); err != nil {
			logger.Fatal("command failed", "err", err)
		}

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// buildService opens local storage for the management commands. No push hub
// is attached here; emitted events are dropped, which is fine for a one-shot
// process.
func buildService(cfg *config.Config, logger *log.Logger) (*crm.Service, func(), error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0o755); err != nil {
		return nil, nil, err
	}

	database, err := db.OpenDatabase(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, nil, err
	}

	feed, err := activity.Open(cfg.Storage.ActivityPath)
	if err != nil {
		database.Close()
		return nil, nil, err
	}

	bus := realtime.NewBus(logger)
	svc := crm.NewService(database, feed, bus, logger)
	cleanup := func() {
		_ = feed.Close()
		_ = database.Close()
	}
	return svc, cleanup, nil
}

func runManagementCommand(svc *crm.Service, command string, args []string) error {
	switch command {
	case "add-lead":
		return cli.AddLeadCommand(svc, args)
	case "list-leads":
		return cli.ListLeadsCommand(svc, args)
	case "update-lead":
		return cli.UpdateLeadCommand(svc, args)
	case "delete-lead":
		return cli.DeleteLeadCommand(svc, args)
	case "add-campaign":
		return cli.AddCampaignCommand(svc, args)
	case "list-campaigns":
		return cli.ListCampaignsCommand(svc, args)
	case "update-campaign":
		return cli.UpdateCampaignCommand(svc, args)
	case "add-step":
		return cli.AddStepCommand(svc, args)
	case "list-steps":
		return cli.ListStepsCommand(svc, args)
	case "activity":
		return cli.ActivityCommand(svc, args)
	case "stats":
		return cli.StatsCommand(svc, args)
	}
	return fmt.Errorf("unknown command %q", command)
}

func printUsage() {
	fmt.Printf(`coldreach v%s - LinkedIn outreach campaign manager

USAGE:
  coldreach [global flags] <command> [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --config <path>        Config file path (default: ~/.config/coldreach/config.yaml)
  --db-path <path>       Database path override

COMMANDS:
  serve                  Start the API server with live push updates
  dash                   Open the terminal dashboard
    --server <host:port>   Connect to a non-default server

LEAD COMMANDS:
  coldreach add-lead        Add a new lead
    --name <name>             Lead name (required)
    --linkedin <url>          LinkedIn profile URL
    --headline <text>         Profile headline
    --company <company>       Company name
    --campaign <id>           Campaign to assign
    --notes <notes>           Notes about the lead

  coldreach list-leads      List leads
    --query <text>            Search by name or company
    --status <status>         Filter by status
    --campaign <id>           Filter by campaign
    --limit <n>               Max results (default: 50)

  coldreach update-lead [flags] <id>  Update a lead
    --status <status>         Set status
    --advance                 Advance to the next pipeline status
    Note: flags must come before the lead ID

  coldreach delete-lead <id>   Delete a lead

CAMPAIGN COMMANDS:
  coldreach add-campaign    Add a new campaign
    --name <name>             Campaign name (required)
    --daily-limit <n>         Daily outreach limit
    --notes <notes>           Notes

  coldreach list-campaigns  List campaigns
  coldreach update-campaign [flags] <id>  Update a campaign

  coldreach add-step        Append a sequence step
    --campaign <id>           Campaign ID (required)
    --kind <kind>             connect, message, or followup
    --body <text>             Message template body
    --wait-days <n>           Days to wait after the previous step

  coldreach list-steps <campaign-id>  Print a campaign's sequence

OTHER:
  coldreach activity        Show the recent activity feed
  coldreach stats           Show dashboard aggregates

EXAMPLES:
  # Start the server
  coldreach serve

  # Add a lead and assign it later
  coldreach add-lead --name "Ada Lovelace" --company "Analytical Engines"

  # Advance a lead through the pipeline
  coldreach update-lead --advance 4f8a...

  # Watch everything live
  coldreach dash

`, version)
}
