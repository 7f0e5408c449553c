package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/reliefboard/internal/config"
	"github.com/TobiSchelling/reliefboard/internal/database"
	"github.com/TobiSchelling/reliefboard/internal/extract"
	"github.com/TobiSchelling/reliefboard/internal/llm"
	"github.com/TobiSchelling/reliefboard/internal/seed"
	"github.com/TobiSchelling/reliefboard/internal/store"
	"github.com/TobiSchelling/reliefboard/internal/term"
	"github.com/TobiSchelling/reliefboard/internal/views"
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
	Use:     "reliefboard",
	Short:   "Disaster-relief coordination board",
	Long:    "reliefboard turns chat messages into structured relief needs and offers, tracks relief site status, and exports shareable snapshots.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			setLogFlags(verbose)
			return nil
		}

		var (
			path string
			err  error
		)
		cfg, path, err = config.Resolve(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		setLogFlags(verbose || strings.EqualFold(cfg.Logging.Level, "DEBUG"))
		if path == "" {
			log.Println("No config file found, using built-in defaults")
		}
		return nil
	},
}

func setLogFlags(debug bool) {
	if debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(entriesCmd)
	rootCmd.AddCommand(locationsCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(intakeCmd)
	rootCmd.AddCommand(telegramCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("reliefboard", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/reliefboard/",
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
		fmt.Println("Edit it to configure the LLM provider, export settings and intake feeds.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show board and database status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, st, err := openBoard()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Database: %s (schema v%d)\n", db.Path(), stats.SchemaVersion)
		keys, err := db.Keys()
		if err != nil {
			return fmt.Errorf("listing stored collections: %w", err)
		}
		fmt.Printf("  Stored collections: %d (%d bytes)\n", stats.Keys, stats.StoredBytes)
		for _, k := range keys {
			fmt.Printf("    %s\n", k)
		}
		fmt.Println("\nBoard:")
		fmt.Println("  " + term.StatsLine(views.ComputeStats(st.Entries())))
		fmt.Printf("  Entries: %d\n", len(st.Entries()))
		fmt.Printf("  Relief sites: %d\n", len(st.Locations()))
		fmt.Println("\nIntake:")
		fmt.Printf("  Feeds configured: %d\n", len(cfg.Intake.Feeds))
		fmt.Printf("  Items processed: %d (%d entries)\n", stats.IntakeItems, stats.IntakeEntries)
		fmt.Println("\nExtraction:")
		if p := llm.CreateProvider(cfg.Extraction); p != nil {
			fmt.Printf("  Provider: %s\n", p.Name())
		} else {
			fmt.Println("  Provider: none available")
		}
		return nil
	},
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return database.Open(cfg.DBPath())
}

// openBoard opens the database and the board store on top of it, seeding a
// fresh board when configured to.
func openBoard() (*database.DB, *store.Store, error) {
	db, err := openDB()
	if err != nil {
		return nil, nil, err
	}

	var opts []store.Option
	if cfg.Storage.SeedDemoData {
		locations, err := seed.Locations()
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		opts = append(opts, store.WithSeed(seed.Entries, locations))
	}

	st, err := store.Open(db, opts...)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("opening board: %w", err)
	}
	return db, st, nil
}

func newRunner(st *store.Store) *extract.Runner {
	x := extract.NewExtractor(llm.CreateProvider(cfg.Extraction), extract.OptionsFromConfig(cfg.Extraction))
	return extract.NewRunner(x, st)
}
