package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/khelo/internal/analysis"
	"github.com/mrlokans/khelo/internal/entities"
)

// AnalyzeCommand prints the mock analysis for a test.
type AnalyzeCommand struct {
	AthleteID string
	TestID    string
	TestName  string
	FaceMatch bool
	Simulate  bool
	Out       io.Writer

	config analysis.Config
}

func NewAnalyzeCommand() *AnalyzeCommand {
	return &AnalyzeCommand{config: analysis.DefaultConfig()}
}

// ParseFlags parses command line flags
func (cmd *AnalyzeCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.StringVar(&cmd.AthleteID, "athlete", analysis.DefaultAthleteID, "Athlete id")
	fs.StringVar(&cmd.TestID, "test-id", "", "Test id (required)")
	fs.StringVar(&cmd.TestName, "test-name", "", "Test name, e.g. \"Vertical Jump\"")
	fs.BoolVar(&cmd.FaceMatch, "face-match", true, "Whether the athlete's face was matched")
	fs.BoolVar(&cmd.Simulate, "simulate", false, "Wait the simulated inference delay first")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s analyze [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Print the deterministic analysis for a test. The same inputs always give the same result.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s analyze -test-id t4 -test-name \"Vertical Jump\"\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s analyze -athlete A2002 -test-id t7 -test-name \"Shuttle Run\" -simulate\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.TestID == "" {
		return fmt.Errorf("-test-id is required")
	}
	return nil
}

// Run executes the command
func (cmd *AnalyzeCommand) Run() error {
	meta := entities.CaptureMetadata{
		TestID:    cmd.TestID,
		TestName:  cmd.TestName,
		AthleteID: cmd.AthleteID,
		FaceMatch: cmd.FaceMatch,
	}

	var result entities.AnalysisResult
	if cmd.Simulate {
		var err error
		result, err = analysis.NewAnalyzer(cmd.config).Run(context.Background(), analysis.Request{
			AthleteID: cmd.AthleteID,
			TestID:    cmd.TestID,
			TestName:  cmd.TestName,
			Metadata:  meta,
		})
		if err != nil {
			return fmt.Errorf("analysis failed: %w", err)
		}
	} else {
		result = analysis.Generate(cmd.AthleteID, cmd.TestID, cmd.TestName, meta)
	}

	return writeJSON(outOrStdout(cmd.Out), result)
}
