// Package cli implements tablectl, a terminal client for a tablekit server.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/tablekit/internal/column"
	"github.com/JonMunkholm/tablekit/internal/logging"
)

const (
	defaultURL     = "http://localhost:8080"
	defaultTimeout = 15 * time.Second

	// APIKeyEnv is read when --api-key is not given.
	APIKeyEnv = "TABLEKIT_API_KEY"
)

// globals are the persistent flags shared by every command.
type globals struct {
	url      string
	apiKey   string
	logLevel string
	timeout  time.Duration
}

func (g *globals) logger(cmd *cobra.Command) *slog.Logger {
	return logging.New(cmd.ErrOrStderr(), g.logLevel, "text")
}

func (g *globals) header() http.Header {
	h := http.Header{}
	key := g.apiKey
	if key == "" {
		key = os.Getenv(APIKeyEnv)
	}
	if key != "" {
		h.Set("X-API-Key", key)
	}
	return h
}

func (g *globals) endpoint(path string) string {
	return strings.TrimRight(g.url, "/") + path
}

// NewRootCommand builds the tablectl command tree.
func NewRootCommand() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "tablectl",
		Short:         "Browse tablekit datasets from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&g.url, "url", defaultURL, "tablekit server base URL")
	pf.StringVar(&g.apiKey, "api-key", "", "API key sent as X-API-Key (default $"+APIKeyEnv+")")
	pf.StringVar(&g.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	pf.DurationVar(&g.timeout, "timeout", defaultTimeout, "overall request timeout")

	root.AddCommand(newListCommand(g), newRowsCommand(g), newSeedCommand(g))
	return root
}

// Execute runs tablectl and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

// tableInfo mirrors the entries of GET /api/tables.
type tableInfo struct {
	Key     string              `json:"key"`
	Group   string              `json:"group"`
	Label   string              `json:"label"`
	RowKey  string              `json:"rowKey"`
	Columns column.ConfigSource `json:"columns"`
}

func fetchTables(ctx context.Context, g *globals) ([]tableInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint("/api/tables"), nil)
	if err != nil {
		return nil, err
	}
	req.Header = g.header()
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list tables: %s", resp.Status)
	}

	var out []tableInfo
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode tables: %w", err)
	}
	return out, nil
}
