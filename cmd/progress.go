package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/review-crawler/internal/app"
)

// newProgressCmd groups commands that inspect or clear the crawl checkpoint.
func newProgressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Inspects or clears the crawl checkpoint",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Prints the position the next crawl resumes from",
		RunE:  runProgressShow,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Clears the checkpoint so the next crawl starts over",
		RunE:  runProgressReset,
	})
	return cmd
}

func runProgressShow(cmd *cobra.Command, _ []string) error {
	e, err := resolveEnv(cmd.Context())
	if err != nil {
		return err
	}
	store, release, err := app.OpenProgress(cmd.Context(), e.cfg)
	if err != nil {
		return fmt.Errorf("open progress: %w", err)
	}
	defer release()

	cp, err := store.Load(cmd.Context())
	if err != nil {
		e.logger.Warn("checkpoint unreadable, a crawl would start over", zap.Error(err))
	}
	// same numbering as the checkpoint file: 1-based category, 0-based next object
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "category %d, next object %d\n", cp.Category+1, cp.Object)
	return err
}

func runProgressReset(cmd *cobra.Command, _ []string) error {
	e, err := resolveEnv(cmd.Context())
	if err != nil {
		return err
	}
	store, release, err := app.OpenProgress(cmd.Context(), e.cfg)
	if err != nil {
		return fmt.Errorf("open progress: %w", err)
	}
	defer release()

	if err := store.Reset(cmd.Context()); err != nil {
		return fmt.Errorf("reset progress: %w", err)
	}
	e.logger.Info("checkpoint cleared", zap.String("backend", e.cfg.Checkpoint.Backend))
	return nil
}
