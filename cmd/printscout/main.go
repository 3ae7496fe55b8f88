package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"PrintScout/internal/app"
	"PrintScout/internal/config"
	"PrintScout/internal/logging"
	"PrintScout/internal/processing"
	"PrintScout/internal/usecase"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "printscout",
		Short:         "Acquire, score, and publish print-worthy photos",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(batchCmd(), cleanupCmd(), statsCmd(), publishCmd())
	return root
}

func newApp(cmd *cobra.Command, cfg config.Config) (*app.Application, error) {
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	return app.New(cmd.Context(), cfg, logger)
}

func batchCmd() *cobra.Command {
	var (
		target        int
		maxIterations int
		profiles      []string
		categories    []string
		landscapeOnly bool
		nearDupGuard  bool
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run one batch acquisition until the target count is met",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if target > 0 {
				cfg.Batch.TargetCount = target
			}
			if maxIterations > 0 {
				cfg.Batch.MaxIterations = maxIterations
			}
			if len(profiles) > 0 {
				cfg.Batch.Profiles = profiles
			}
			if len(categories) > 0 {
				cfg.Batch.Categories = categories
			}
			cfg.Batch.LandscapeOnly = cfg.Batch.LandscapeOnly || landscapeOnly
			cfg.Batch.NearDuplicateGuard = cfg.Batch.NearDuplicateGuard || nearDupGuard

			application, err := newApp(cmd, cfg)
			if err != nil {
				return err
			}
			defer application.Close()

			result, err := application.RunBatch(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("run %s: accepted %d/%d (%d new) across %d iterations, scraped %d, processed %d\n",
				result.RunID, result.AcceptedCount, result.TargetCount, result.NewAccepted,
				len(result.Iterations), result.TotalScraped, result.TotalProcessed)
			if !result.Success {
				fmt.Println("target not reached; rerun or widen profiles")
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&target, "target", 0, "number of accepted images to acquire")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "scrape round budget")
	cmd.Flags().StringSliceVar(&profiles, "profiles", nil, "profile handles or URLs to scrape")
	cmd.Flags().StringSliceVar(&categories, "categories", nil, "wanted content categories")
	cmd.Flags().BoolVar(&landscapeOnly, "landscape-only", false, "reject portrait frames before analysis")
	cmd.Flags().BoolVar(&nearDupGuard, "near-dup-guard", false, "reject perceptually identical frames within the run")
	return cmd
}

func cleanupCmd() *cobra.Command {
	var olderThanDays int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove ledger entries older than the retention window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			application, err := newApp(cmd, cfg)
			if err != nil {
				return err
			}
			defer application.Close()

			removed := application.Cleanup(olderThanDays)
			fmt.Printf("removed %d ledger entries older than %d days\n", removed, olderThanDays)
			return nil
		},
	}

	cmd.Flags().IntVar(&olderThanDays, "older-than-days", 90, "retention window in days")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print ledger statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			application, err := newApp(cmd, cfg)
			if err != nil {
				return err
			}
			defer application.Close()

			stats := application.Stats()
			fmt.Printf("total: %d\naccepted: %d\nrejected: %d\nerrors: %d\nacceptance rate: %.1f%%\n",
				stats.Total, stats.Accepted, stats.Rejected, stats.Errors, stats.AcceptanceRate*100)
			return nil
		},
	}
}

func publishCmd() *cobra.Command {
	var (
		size        string
		material    string
		fit         string
		titlePrefix string
		tags        []string
	)

	cmd := &cobra.Command{
		Use:   "publish [files...]",
		Short: "Prepare print renders and create listings for image files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			application, err := newApp(cmd, cfg)
			if err != nil {
				return err
			}
			defer application.Close()

			report, err := application.Publish(cmd.Context(), args, usecase.PublishOptions{
				SizeName:     size,
				MaterialName: material,
				Fit:          processing.FitMode(strings.ToLower(fit)),
				TitlePrefix:  titlePrefix,
				Tags:         tags,
			})
			if err != nil {
				return err
			}

			fmt.Printf("published %d, failed %d\n", report.Succeeded, report.Failed)
			if report.Failed > 0 {
				return fmt.Errorf("%d of %d files failed", report.Failed, len(report.Items))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&size, "size", "18x24", "print size preset")
	cmd.Flags().StringVar(&material, "material", "matte", "print material preset")
	cmd.Flags().StringVar(&fit, "fit", "contain", "fit mode: contain, cover, or stretch")
	cmd.Flags().StringVar(&titlePrefix, "title-prefix", "", "listing title prefix")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "listing tags")
	return cmd
}
