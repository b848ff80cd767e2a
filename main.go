package main

import (
	"fmt"
	"os"

	"github.com/mrlokans/khelo/internal/cli"
	"github.com/mrlokans/khelo/internal/config"
	"github.com/mrlokans/khelo/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

// Command is a CLI subcommand.
type Command interface {
	ParseFlags(args []string) error
	Run() error
}

func main() {
	// If no arguments or "serve" command, run the HTTP server
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		cfg := config.NewConfig()
		entrypoint.Run(cfg, Version)
		return
	}

	command := os.Args[1]
	args := os.Args[2:]

	var cmd Command
	switch command {
	case "queue-list":
		cmd = cli.NewQueueListCommand()
	case "queue-add":
		cmd = cli.NewQueueAddCommand()
	case "sync-now":
		cmd = cli.NewSyncNowCommand()
	case "analyze":
		cmd = cli.NewAnalyzeCommand()
	case "settings":
		cmd = cli.NewSettingsCommand()

	case "version":
		fmt.Printf("khelo %s (%s)\n", Version, Commit)
		return

	case "-h", "--help", "help":
		printUsage()
		return

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err := cmd.ParseFlags(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve        Start the HTTP server (default if no command given)\n")
	fmt.Fprintf(os.Stderr, "  queue-list   List queued captures\n")
	fmt.Fprintf(os.Stderr, "  queue-add    Add an item to the offline queue\n")
	fmt.Fprintf(os.Stderr, "  sync-now     Upload every queued item once\n")
	fmt.Fprintf(os.Stderr, "  analyze      Print the mock analysis for a test\n")
	fmt.Fprintf(os.Stderr, "  settings     Show or change settings\n")
	fmt.Fprintf(os.Stderr, "  version      Print the version\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}
