package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"
)

var ErrOfflineMode = errors.New("offline mode is on (use -force to sync anyway)")

// SyncNowCommand drains the offline queue once, in the foreground.
type SyncNowCommand struct {
	DatabasePath string
	Force        bool
	JSON         bool
	Out          io.Writer
}

func NewSyncNowCommand() *SyncNowCommand {
	return &SyncNowCommand{}
}

// ParseFlags parses command line flags
func (cmd *SyncNowCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("sync-now", flag.ContinueOnError)
	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the database file (default: DATABASE_PATH)")
	fs.BoolVar(&cmd.Force, "force", false, "Sync even when offline mode is on")
	fs.BoolVar(&cmd.JSON, "json", false, "Print the summary as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s sync-now [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Upload every queued item once. Ctrl-C stops after the current item.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

// Run executes the command
func (cmd *SyncNowCommand) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := openComponents(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer c.Close()

	settings, err := c.Settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}
	if settings.OfflineMode && !cmd.Force {
		return ErrOfflineMode
	}

	summary, err := c.Engine.Drain(ctx)
	if err != nil {
		return fmt.Errorf("sync aborted: %w", err)
	}

	out := outOrStdout(cmd.Out)
	if cmd.JSON {
		return writeJSON(out, summary)
	}

	fmt.Fprintf(out, "Uploaded %d of %d items in %v\n",
		summary.Succeeded, summary.Total, summary.Duration.Round(time.Millisecond))
	for _, failure := range summary.Failures {
		fmt.Fprintf(out, "  failed: %s\n", failure.Error())
	}
	if summary.Dropped > 0 {
		fmt.Fprintf(out, "%d items were removed while syncing\n", summary.Dropped)
	}
	if summary.Interrupted {
		fmt.Fprintln(out, "Interrupted")
	}
	fmt.Fprintf(out, "%d items remaining\n", summary.Remaining)
	return nil
}
