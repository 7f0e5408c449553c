package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/reliefboard/internal/intake"
)

var intakeList int

var intakeCmd = &cobra.Command{
	Use:   "intake",
	Short: "Extract entries from the configured RSS/Atom feeds",
	Long: `Intake reads every configured feed and runs each new item through
extraction once. Items are remembered in the board database, so repeated
runs only process what is new. Items skipped because no provider was
available are retried on the next run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, st, err := openBoard()
		if err != nil {
			return err
		}
		defer db.Close()

		if intakeList > 0 {
			items, err := db.GetRecentIntakeItems(intakeList)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Println("No intake items processed yet.")
				return nil
			}
			for _, it := range items {
				title := it.GUID
				if it.Title != nil && *it.Title != "" {
					title = *it.Title
				}
				line := fmt.Sprintf("  [%s] %s: %d entries", it.Source, title, it.EntryCount)
				if it.Error != nil {
					line += " (error: " + *it.Error + ")"
				}
				fmt.Println(line)
			}
			return nil
		}

		if len(cfg.Intake.Feeds) == 0 {
			fmt.Println("No feeds configured. Add some under intake.feeds in the config file.")
			return nil
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		fmt.Printf("Reading %d feeds...\n", len(cfg.Intake.Feeds))
		collector := intake.NewCollector(cfg.Intake, db, newRunner(st))
		result, err := collector.Collect(ctx)
		if result != nil {
			fmt.Println("\nIntake complete:")
			fmt.Printf("  Feeds: %d (%d failed)\n", result.Feeds, result.FeedErrors)
			fmt.Printf("  Items: %d (%d already seen)\n", result.Items, result.AlreadySeen)
			fmt.Printf("  Extracted: %d items, %d entries\n", result.Extracted, result.Entries)
			fmt.Printf("  Failed: %d\n", result.Failed)
		}
		return err
	},
}

func init() {
	intakeCmd.Flags().IntVar(&intakeList, "list", 0, "Show the N most recently processed items instead of running")
}
