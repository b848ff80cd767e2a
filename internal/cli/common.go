package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/khelo/internal/config"
	"github.com/mrlokans/khelo/internal/entrypoint"
)

// openComponents loads the environment configuration, lets dbPath override
// the database location, and builds the shared stores.
func openComponents(dbPath string) (*entrypoint.Components, error) {
	cfg := config.NewConfig()
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	c, err := entrypoint.Build(cfg, entrypoint.BuildOptions{QuietSQL: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open local state: %w", err)
	}
	return c, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func outOrStdout(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
