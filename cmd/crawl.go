package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/review-crawler/internal/app"
)

func init() {
	overriders["crawl"] = crawlOverrides
}

// newCrawlCmd creates the 'crawl' subcommand, which runs one crawl to
// completion or until interrupted.
func newCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Runs the review crawl",
		Long: `Discovers categories from the site root and crawls every object,
resuming from the last checkpoint. SIGINT or SIGTERM stops the crawl after
pending text log writes are flushed.`,
		RunE: runCrawlCommand,
	}
	cmd.Flags().Int("concurrency", 0, "maximum in-flight requests (overrides crawler.max_concurrency)")
	cmd.Flags().String("base-url", "", "site root (overrides site.base_url)")
	cmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address (overrides metrics.addr)")
	return cmd
}

func crawlOverrides(cmd *cobra.Command) map[string]any {
	out := map[string]any{}
	if f := cmd.Flags().Lookup("concurrency"); f != nil && f.Changed {
		if n, err := cmd.Flags().GetInt("concurrency"); err == nil {
			out["crawler.max_concurrency"] = n
		}
	}
	if f := cmd.Flags().Lookup("base-url"); f != nil && f.Changed {
		out["site.base_url"] = f.Value.String()
	}
	if f := cmd.Flags().Lookup("metrics-addr"); f != nil && f.Changed {
		out["metrics.addr"] = f.Value.String()
	}
	return out
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	e, err := resolveEnv(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, e.cfg, e.logger)
	if err != nil {
		return fmt.Errorf("initialize application services: %w", err)
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			e.logger.Warn("failed to close services", zap.Error(cerr))
		}
	}()

	if err := a.Run(ctx); err != nil {
		return err
	}
	e.logger.Info("crawl command finished", zap.String("run_id", a.RunID()))
	return nil
}
