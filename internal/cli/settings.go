package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mrlokans/khelo/internal/entities"
)

// assignments collects repeated -set key=value flags.
type assignments []string

func (a *assignments) String() string {
	return strings.Join(*a, ",")
}

func (a *assignments) Set(v string) error {
	*a = append(*a, v)
	return nil
}

// SettingsCommand shows or changes the persisted settings.
type SettingsCommand struct {
	DatabasePath string
	Sets         assignments
	Out          io.Writer
}

func NewSettingsCommand() *SettingsCommand {
	return &SettingsCommand{}
}

// ParseFlags parses command line flags
func (cmd *SettingsCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("settings", flag.ContinueOnError)
	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the database file (default: DATABASE_PATH)")
	fs.Var(&cmd.Sets, "set", "Change a setting, key=value (repeatable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s settings [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Print the settings, after applying any -set changes.\n")
		fmt.Fprintf(os.Stderr, "Keys: offlineMode, autoAnalyze, highContrast, voiceGuidance.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s settings\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s settings -set offlineMode=true -set autoAnalyze=false\n", os.Args[0])
	}

	return fs.Parse(args)
}

// Run executes the command
func (cmd *SettingsCommand) Run() error {
	patch, err := parsePatch(cmd.Sets)
	if err != nil {
		return err
	}

	c, err := openComponents(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx := context.Background()
	var settings entities.Settings
	if patch.IsEmpty() {
		settings, err = c.Settings.Get(ctx)
	} else {
		settings, err = c.Settings.Update(ctx, patch)
		if err == nil {
			c.Audit.LogSettings("update", "Changed "+cmd.Sets.String())
		}
	}
	if err != nil {
		return fmt.Errorf("failed to access settings: %w", err)
	}

	return writeJSON(outOrStdout(cmd.Out), settings)
}

func parsePatch(sets []string) (entities.SettingsPatch, error) {
	var patch entities.SettingsPatch
	for _, kv := range sets {
		key, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return patch, fmt.Errorf("invalid -set %q, want key=value", kv)
		}
		value, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return patch, fmt.Errorf("invalid value for %s: %w", key, err)
		}

		switch strings.ToLower(strings.TrimSpace(key)) {
		case "offlinemode":
			patch.OfflineMode = &value
		case "autoanalyze":
			patch.AutoAnalyze = &value
		case "highcontrast":
			patch.HighContrast = &value
		case "voiceguidance":
			patch.VoiceGuidance = &value
		default:
			return patch, fmt.Errorf("unknown setting %q", key)
		}
	}
	return patch, nil
}
