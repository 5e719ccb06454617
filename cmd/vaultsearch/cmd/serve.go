package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/autofill"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/session"
	apperrors "github.com/Adithya-Monish-Kumar-K/vaultsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/pkg/resilience"
)

var errQuit = errors.New("quit")

// refreshRetry covers an export caught half-written. A locked session is
// not worth retrying.
var refreshRetry = resilience.RetryConfig{
	MaxAttempts:  4,
	InitialDelay: 200 * time.Millisecond,
	Retryable: func(err error) bool {
		return !errors.Is(err, apperrors.ErrVaultLocked) && !errors.Is(err, context.Canceled)
	},
}

// newChecker reports ready only while the vault is unlocked and its export
// is readable.
func newChecker(s *session.Session, p *corpus.FileProvider) *health.Checker {
	checker := health.NewChecker()
	checker.Register("session", func(context.Context) health.ComponentHealth {
		if !s.Unlocked() {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "locked"}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d entries", len(s.Entries()))}
	})
	checker.Register("corpus", func(context.Context) health.ComponentHealth {
		if _, err := os.Stat(p.Path()); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: "export unreadable"}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	return checker
}

func newServeCmd(root *rootOptions) *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Keep the vault unlocked and answer queries from stdin",
		Long: `Serve unlocks the export once and keeps the index in memory. It
rebuilds when the export changes (corpus.watch) or when a vault event
arrives on Kafka (kafka.enabled), and serves Prometheus metrics when
metrics.enabled is set.

Each stdin line is a search query, or one of:
  /filter <keywords>   live filter
  /autofill <domain>   autofill candidates for a domain
  /refresh             reload the export
  /lock, /unlock       drop or rebuild the index
  /stats               index statistics
  /quit                exit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd, root, interactive)
		},
	}

	cmd.Flags().BoolVar(&interactive, "interactive", true, "Read queries from stdin; when false, run until interrupted")
	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, root *rootOptions, interactive bool) error {
	s, p, err := root.openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	cfg := root.cfg

	if cfg.Metrics.Enabled {
		checker := newChecker(s, p)
		shutdown := metrics.StartServer(cfg.Metrics.Port, root.registry,
			metrics.Route{Pattern: "GET /health/live", Handler: checker.LiveHandler()},
			metrics.Route{Pattern: "GET /health/ready", Handler: checker.ReadyHandler()},
		)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Warn("metrics server shutdown", "error", err)
			}
		}()
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Corpus.Watch {
		w := corpus.NewWatcher(p.Path(), cfg.Corpus.Debounce, func(ctx context.Context) {
			err := resilience.Retry(ctx, "refresh", refreshRetry, func() error {
				return s.RefreshFrom(ctx, p)
			})
			if err != nil {
				slog.Warn("refresh after export change failed", "error", err)
			}
		})
		g.Go(func() error { return w.Run(gctx) })
	}

	if cfg.Kafka.Enabled {
		consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.VaultEvents, s.MessageHandler(p))
		g.Go(func() error { return consumer.Start(gctx) })
	}

	if interactive {
		lines := readLines(cmd.InOrStdin())
		g.Go(func() error {
			err := repl(gctx, cmd.OutOrStdout(), root.format, s, p, lines)
			if errors.Is(err, errQuit) {
				return errQuit
			}
			return err
		})
	} else {
		g.Go(func() error {
			<-gctx.Done()
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, errQuit) {
		return err
	}
	return nil
}

// readLines feeds r line by line into the returned channel, closing it at
// EOF. The reader goroutine cannot be interrupted; it ends with r.
func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()
	return lines
}

func repl(ctx context.Context, out io.Writer, format string, s *session.Session, p corpus.Provider, lines <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return errQuit
			}
			if err := dispatch(ctx, out, format, s, p, strings.TrimSpace(line)); err != nil {
				if errors.Is(err, errQuit) {
					return err
				}
				fmt.Fprintln(out, "error:", err)
			}
		}
	}
}

func dispatch(ctx context.Context, out io.Writer, format string, s *session.Session, p corpus.Provider, line string) error {
	if line == "" {
		return nil
	}
	verb, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch verb {
	case "/quit", "/exit":
		return errQuit
	case "/lock":
		s.Lock()
		_, err := fmt.Fprintln(out, "locked")
		return err
	case "/unlock":
		if err := s.UnlockFrom(ctx, p); err != nil {
			return err
		}
		_, err := fmt.Fprintln(out, "unlocked")
		return err
	case "/refresh":
		if err := s.RefreshFrom(ctx, p); err != nil {
			return err
		}
		_, err := fmt.Fprintln(out, "refreshed")
		return err
	case "/filter":
		return printEntries(out, format, s.Filter(arg))
	case "/autofill":
		return printEntries(out, format, s.Autofill(autofill.Form{WebDomains: strings.Fields(arg)}))
	case "/stats":
		ix := s.Index()
		if ix == nil {
			_, err := fmt.Fprintln(out, "locked")
			return err
		}
		_, err := fmt.Fprintf(out, "entries: %d terms: %d postings: %d\n",
			ix.Index().TotalEntry(), ix.Index().Terms(), ix.Index().TotalToken())
		return err
	default:
		return printEntries(out, format, s.SearchEntries(line, 0))
	}
}
