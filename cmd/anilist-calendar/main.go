package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ItsAbdiOk/anilist-calendar/internal/anilist"
	"github.com/ItsAbdiOk/anilist-calendar/internal/config"
	"github.com/ItsAbdiOk/anilist-calendar/internal/database"
	"github.com/ItsAbdiOk/anilist-calendar/internal/history"
	"github.com/ItsAbdiOk/anilist-calendar/internal/pipeline"
	"github.com/ItsAbdiOk/anilist-calendar/internal/report"
	"github.com/ItsAbdiOk/anilist-calendar/internal/server"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "anilist-calendar",
	Short:   "Export AniList manga history as a calendar",
	Long:    "anilist-calendar fetches a user's manga reading history from AniList and reconstructs it into calendar events with inferred session times and durations.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("anilist-calendar", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/anilist-calendar/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to set your AniList username and output path.")
		return nil
	},
}

// --- fetch command ---

var fetchFull bool

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch activity history from AniList into the local cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe := pipeline.New(cfg, db)
		step := pipe.Fetch(context.Background(), cfg.AniList.Username, fetchFull)
		if step.Err != nil {
			return step.Err
		}
		fmt.Println(step.Summary)
		return nil
	},
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchFull, "full", false, "Refetch the entire history instead of syncing incrementally")
}

// --- export command ---

var (
	exportUsername string
	exportOutput   string
	exportMinutes  int
	exportOffline  bool
	exportFull     bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Run the full export: fetch -> reconstruct -> write calendar",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe := pipeline.New(cfg, db)
		result := pipe.Run(context.Background(), pipeline.Options{
			Username:          exportUsername,
			OutputPath:        exportOutput,
			MinutesPerChapter: exportMinutes,
			Offline:           exportOffline,
			Full:              exportFull,
		})

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/3: %s\n", i+1, step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
				return fmt.Errorf("export failed at %s step", step.Name)
			}
			fmt.Printf("  %s\n", step.Summary)
		}

		fmt.Printf("\nDone! Import %s into your calendar app.\n", result.OutputPath)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportUsername, "username", "u", "", "AniList username (overrides config)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output .ics path (overrides config)")
	exportCmd.Flags().IntVarP(&exportMinutes, "minutes-per-chapter", "m", 0, "Assumed minutes per chapter (overrides config)")
	exportCmd.Flags().BoolVar(&exportOffline, "offline", false, "Skip fetching and export from the cache alone")
	exportCmd.Flags().BoolVar(&exportFull, "full", false, "Refetch the entire history instead of syncing incrementally")
}

// --- status command ---

var statusReport bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache and export status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Println("Activity cache:")
		fmt.Printf("  Activities: %d\n", stats.TotalActivities)
		fmt.Printf("  Titles: %d\n", stats.DistinctTitles)
		fmt.Printf("  Completions: %d\n", stats.Completed)
		fmt.Printf("  Newest activity ID: %d\n", stats.MaxActivityID)
		fmt.Println("\nExports:")
		fmt.Printf("  Runs recorded: %d\n", stats.ExportRuns)

		if statusReport {
			rows, err := db.Activities()
			if err != nil {
				return err
			}
			activities := make([]anilist.Activity, len(rows))
			for i, row := range rows {
				activities[i] = row.ToAniList()
			}
			rec := history.NewReconstructor(cfg.Export.MinutesPerChapter)
			events := rec.Reconstruct(activities)

			fmt.Println()
			fmt.Println(report.Build(events, cfg.AniList.Username))
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusReport, "report", false, "Print the Markdown reading report")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web preview",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, cfg, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "anilist-calendar.db")
	return database.Open(dbPath)
}
