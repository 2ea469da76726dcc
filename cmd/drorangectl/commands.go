package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/atanuroy911/drorange-webapp/internal/auth"
	"github.com/atanuroy911/drorange-webapp/internal/core"
	"github.com/atanuroy911/drorange-webapp/internal/core/report"
)

var (
	outPath     string
	outDir      string
	chartKind   string
	concurrency int
	password    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all predictions as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDashboard(func(ctx context.Context, d *core.Dashboard) error {
			art, ok, err := d.ExportCSV(ctx, d.ViewState(localeCode, ""))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.ErrOrStderr(), "no predictions to export")
				return nil
			}
			return writeArtifact(cmd, art, outPath)
		})
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate PDF reports",
}

var reportAggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Generate the garden aggregate report",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDashboard(func(ctx context.Context, d *core.Dashboard) error {
			if chartKind != "" {
				r, err := core.NewRasterizer(cfg.Report, chartKind)
				if err != nil {
					return err
				}
				if c, ok := r.(interface{ Close() error }); ok {
					defer c.Close()
				}
				d.Rasterizer = r
			}

			art, err := d.AggregateReport(ctx, d.ViewState(localeCode, ""), nil)
			if errors.Is(err, report.ErrNoData) {
				return fmt.Errorf("no data to generate report")
			}
			if err != nil {
				return err
			}
			return writeArtifact(cmd, art, outPath)
		})
	},
}

var reportRecordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Generate one PDF per prediction",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDashboard(func(ctx context.Context, d *core.Dashboard) error {
			if concurrency > 0 {
				d.BulkConcurrency = concurrency
			}
			paths, err := d.BulkRecordReports(ctx, d.ViewState(localeCode, ""), outDir)
			if errors.Is(err, report.ErrNoData) {
				return fmt.Errorf("no data to generate report")
			}
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		})
	},
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the class catalog",
}

var catalogLookupCmd = &cobra.Command{
	Use:   "lookup <class>",
	Short: "Print the catalog entry for a class",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDashboard(func(ctx context.Context, d *core.Dashboard) error {
			state := d.ViewState(localeCode, "")
			entry, ok, err := d.LookupClass(state, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("class %q not found in %s catalog", args[0], state.Locale)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(entry)
		})
	},
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage dashboard users",
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create a dashboard user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if password == "" {
			password = os.Getenv("DRORANGE_PASSWORD")
		}
		return withDashboard(func(ctx context.Context, d *core.Dashboard) error {
			gate := auth.NewGate(d.Store, cfg.Auth.JWTSecret, cfg.Auth.SecureCookie)
			user, err := gate.Register(ctx, args[0], password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", user.Username, user.ID)
			return nil
		})
	},
}

func init() {
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default: generated name in the current directory)")

	reportAggregateCmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default: generated name in the current directory)")
	reportAggregateCmd.Flags().StringVar(&chartKind, "chart", "", "Chart rasterizer: native or browser (default from config)")
	reportRecordsCmd.Flags().StringVarP(&outDir, "dir", "d", "reports", "Output directory")
	reportRecordsCmd.Flags().IntVar(&concurrency, "concurrency", 0, "Parallel report workers (default from config)")
	reportCmd.AddCommand(reportAggregateCmd)
	reportCmd.AddCommand(reportRecordsCmd)

	catalogCmd.AddCommand(catalogLookupCmd)

	userAddCmd.Flags().StringVarP(&password, "password", "p", "", "Password (or set DRORANGE_PASSWORD)")
	userCmd.AddCommand(userAddCmd)
}

func writeArtifact(cmd *cobra.Command, art core.Artifact, path string) error {
	if path == "" {
		path = art.Filename
	}
	if err := os.WriteFile(path, art.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
