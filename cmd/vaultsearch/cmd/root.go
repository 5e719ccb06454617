// Package cmd provides the CLI commands for vaultsearch.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/session"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/vault"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vaultsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/pkg/metrics"
)

// rootOptions is shared by every subcommand.
type rootOptions struct {
	configPath string
	corpusPath string
	format     string

	cfg      *config.Config
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

// Execute runs the root command with SIGINT/SIGTERM cancelling its context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd creates the root command for the vaultsearch CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "vaultsearch",
		Short: "Search a decrypted credential vault export",
		Long: `vaultsearch indexes the entries of an unlocked vault in memory and
answers free-text searches, live filters and autofill lookups.

Entries are read from a plaintext YAML export. Nothing is written to disk.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.corpusPath, "corpus", "", "Path to the plaintext export (overrides corpus.path)")
	cmd.PersistentFlags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newFilterCmd(opts))
	cmd.AddCommand(newAutofillCmd(opts))
	cmd.AddCommand(newStatsCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newNotifyCmd(opts))

	return cmd
}

func (o *rootOptions) load(logOut io.Writer) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.corpusPath != "" {
		cfg.Corpus.Path = o.corpusPath
	}
	if o.format != "text" && o.format != "json" {
		return apperrors.Newf(apperrors.ErrInvalidInput, "unknown format %q", o.format)
	}
	logger.SetupWriter(logOut, cfg.Logging.Level, cfg.Logging.Format)

	o.cfg = cfg
	o.registry = prometheus.NewRegistry()
	o.metrics = metrics.New(o.registry)
	return nil
}

func (o *rootOptions) provider() (*corpus.FileProvider, error) {
	if o.cfg.Corpus.Path == "" {
		return nil, apperrors.New(apperrors.ErrInvalidInput, "no corpus: set --corpus or corpus.path")
	}
	return corpus.NewFileProvider(o.cfg.Corpus.Path), nil
}

// openSession loads the export and returns an unlocked session.
func (o *rootOptions) openSession(ctx context.Context) (*session.Session, *corpus.FileProvider, error) {
	p, err := o.provider()
	if err != nil {
		return nil, nil, err
	}
	s, err := session.New(o.cfg, session.WithMetrics(o.metrics))
	if err != nil {
		return nil, nil, err
	}
	if err := s.UnlockFrom(ctx, p); err != nil {
		s.Close()
		return nil, nil, err
	}
	return s, p, nil
}

// entryView is what the CLI prints for an entry. Secrets never reach it.
type entryView struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Username string   `json:"username,omitempty"`
	Host     string   `json:"host,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

func viewOf(e vault.Entry) entryView {
	return entryView{
		ID:       e.ID.String(),
		Title:    e.Title,
		Username: e.Username,
		Host:     e.Hostname(),
		Tags:     e.Tags,
	}
}

func printEntries(w io.Writer, format string, entries []vault.Entry) error {
	if format == "json" {
		views := make([]entryView, len(entries))
		for i, e := range entries {
			views[i] = viewOf(e)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "no matching entries")
		return err
	}
	for i, e := range entries {
		v := viewOf(e)
		line := fmt.Sprintf("%2d. %s", i+1, v.Title)
		if v.Username != "" {
			line += "  [" + v.Username + "]"
		}
		if v.Host != "" {
			line += "  " + v.Host
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
