package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/mrlokans/khelo/internal/entities"
)

// QueueListCommand prints the offline queue.
type QueueListCommand struct {
	DatabasePath string
	JSON         bool
	Out          io.Writer
}

func NewQueueListCommand() *QueueListCommand {
	return &QueueListCommand{}
}

// ParseFlags parses command line flags
func (cmd *QueueListCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("queue-list", flag.ContinueOnError)
	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the database file (default: DATABASE_PATH)")
	fs.BoolVar(&cmd.JSON, "json", false, "Print the queue as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s queue-list [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "List captured work waiting to be uploaded, oldest first.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

// Run executes the command
func (cmd *QueueListCommand) Run() error {
	c, err := openComponents(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer c.Close()

	items, err := c.Queue.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to read queue: %w", err)
	}

	out := outOrStdout(cmd.Out)
	if cmd.JSON {
		return writeJSON(out, items)
	}

	if len(items) == 0 {
		fmt.Fprintln(out, "Queue is empty")
		return nil
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Type", "Test", "Size", "Queued at"})

	var total int64
	for _, item := range items {
		total += item.SizeBytes
		tw.AppendRow(table.Row{item.ID, item.Kind, item.TestID, item.SizeBytes,
			item.EnqueuedAt.Local().Format(time.DateTime)})
	}
	tw.AppendFooter(table.Row{"", "", "Total", total, fmt.Sprintf("%d items", len(items))})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	tw.Render()
	return nil
}

// QueueAddCommand enqueues an item by hand.
type QueueAddCommand struct {
	DatabasePath string
	ID           string
	Kind         string
	TestID       string
	Data         string
	Size         int64
	Encrypted    bool
	Out          io.Writer
}

func NewQueueAddCommand() *QueueAddCommand {
	return &QueueAddCommand{}
}

// ParseFlags parses command line flags
func (cmd *QueueAddCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("queue-add", flag.ContinueOnError)
	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the database file (default: DATABASE_PATH)")
	fs.StringVar(&cmd.ID, "id", "", "Item id (generated when empty)")
	fs.StringVar(&cmd.Kind, "type", string(entities.ItemKindTest), "Item type: test or analysis")
	fs.StringVar(&cmd.TestID, "test-id", "", "Test the item belongs to")
	fs.StringVar(&cmd.Data, "data", "", "JSON payload")
	fs.Int64Var(&cmd.Size, "size", 0, "Payload size in bytes")
	fs.BoolVar(&cmd.Encrypted, "encrypted", false, "Mark the payload as already encrypted")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s queue-add [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Add an item to the offline queue.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s queue-add -id r1 -test-id t4 -size 2048\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s queue-add -type analysis -data '{\"variant\":\"jump\"}'\n", os.Args[0])
	}

	return fs.Parse(args)
}

// Run executes the command
func (cmd *QueueAddCommand) Run() error {
	var payload json.RawMessage
	if cmd.Data != "" {
		payload = json.RawMessage(cmd.Data)
	}

	c, err := openComponents(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer c.Close()

	item, err := c.Queue.Enqueue(context.Background(), entities.NewQueuedItem{
		ID:        cmd.ID,
		Kind:      entities.ItemKind(cmd.Kind),
		TestID:    cmd.TestID,
		Payload:   payload,
		Encrypted: cmd.Encrypted,
		SizeBytes: cmd.Size,
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue: %w", err)
	}
	c.Audit.LogQueue("enqueue", item.ID)

	fmt.Fprintf(outOrStdout(cmd.Out), "Queued %s\n", item.ID)
	return nil
}
