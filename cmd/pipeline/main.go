package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/TDFSupplyChain/SC-Backend/internal/chronopost"
	"github.com/TDFSupplyChain/SC-Backend/internal/config"
	"github.com/TDFSupplyChain/SC-Backend/internal/geocoding"
	"github.com/TDFSupplyChain/SC-Backend/internal/pudo"
	"github.com/TDFSupplyChain/SC-Backend/internal/web"
)

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}

	rootCmd := &cobra.Command{
		Use:   "pipeline",
		Short: "PUDO directory pipeline",
		Long:  `Runs the pickup-point directory pipeline: export transformation, C9/C13 fusion, GPS backfill and the unified directory build.`,
	}

	rootCmd.AddCommand(createTransformCmd(cfg))
	rootCmd.AddCommand(createMergeCmd(cfg))
	rootCmd.AddCommand(createBackfillCmd(cfg))
	rootCmd.AddCommand(createDirectoryCmd(cfg))
	rootCmd.AddCommand(createAllCmd(cfg))
	rootCmd.AddCommand(createServeCmd(cfg))

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func createTransformCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "transform",
		Short: "Transform raw Chronopost export CSVs to parquet",
		RunE: func(cmd *cobra.Command, args []string) error {
			return chronopost.TransformDir(cfg.Paths.ChronopostCSVDir, cfg.Paths.ChronopostExcelDir)
		},
	}
}

func createMergeCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "merge",
		Short: "Fuse C9/C13 export pairs into per-date tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return chronopost.MergeDir(cfg.Paths.ChronopostExcelDir, cfg.Paths.ChronopostFusionDir, cfg.Paths.EligibilityFile)
		},
	}
}

func createBackfillCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "backfill",
		Short: "Geocode missing coordinates in the latest fusion table",
		RunE: func(cmd *cobra.Command, args []string) error {
			geocoding.SetupProxyFromEnv()
			client := geocoding.NewClient(cfg.GeocodeBaseURL)
			return pudo.BackfillLatestFusion(cmd.Context(), cfg.Paths.ChronopostFusionDir, cfg.Paths.GPSCacheFile, client)
		},
	}
}

func createDirectoryCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "directory",
		Short: "Build the unified PUDO directory from every source",
		RunE: func(cmd *cobra.Command, args []string) error {
			return buildDirectory(cmd.Context(), cfg)
		},
	}
}

func buildDirectory(ctx context.Context, cfg config.Config) error {
	sources := []pudo.Source{
		{Name: "chronopost", Load: func() ([]pudo.PointRelais, error) {
			return pudo.LoadChronopost(cfg.Paths.ChronopostFusionDir)
		}},
		{Name: "lm2s", Load: func() ([]pudo.PointRelais, error) {
			return pudo.LoadLM2S(cfg.Paths.LM2SDir)
		}},
		{Name: "speed", Load: func() ([]pudo.PointRelais, error) {
			return pudo.LoadSpeed(pudo.SpeedConfig{
				QuotidienDir: cfg.Paths.SpeedQuotidienDir,
				FileName:     cfg.Paths.SpeedFileName,
				SheetName:    cfg.Paths.SpeedSheetName,
			})
		}},
	}

	geocoding.SetupProxyFromEnv()
	client := geocoding.NewClient(cfg.GeocodeBaseURL)

	rows, err := pudo.Merge(ctx, sources, cfg.Paths.GPSCacheFile, client)
	if err != nil {
		return err
	}

	dst := filepath.Join(cfg.DataDir, "pudo_directory.parquet")
	if err := pudo.WriteDirectory(dst, rows); err != nil {
		return err
	}
	log.Printf("[pipeline] directory written: %d point(s)", len(rows))
	return nil
}

// createAllCmd chains every pipeline step. A failing step is logged and the
// next one still runs; only the directory build failing makes the run fail.
func createAllCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Run transform, merge, backfill and the directory build",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := chronopost.TransformDir(cfg.Paths.ChronopostCSVDir, cfg.Paths.ChronopostExcelDir); err != nil {
				log.Printf("[pipeline] transform failed: %v", err)
			}
			if err := chronopost.MergeDir(cfg.Paths.ChronopostExcelDir, cfg.Paths.ChronopostFusionDir, cfg.Paths.EligibilityFile); err != nil {
				log.Printf("[pipeline] merge failed: %v", err)
			}

			geocoding.SetupProxyFromEnv()
			client := geocoding.NewClient(cfg.GeocodeBaseURL)
			if err := pudo.BackfillLatestFusion(cmd.Context(), cfg.Paths.ChronopostFusionDir, cfg.Paths.GPSCacheFile, client); err != nil {
				log.Printf("[pipeline] backfill failed: %v", err)
			}

			return buildDirectory(cmd.Context(), cfg)
		},
	}
}

func createServeCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only query API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return web.Serve(cmd.Context(), cfg)
		},
	}
}
