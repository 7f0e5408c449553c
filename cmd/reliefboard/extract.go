package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/reliefboard/internal/intake"
	"github.com/TobiSchelling/reliefboard/internal/store"
	"github.com/TobiSchelling/reliefboard/internal/term"
)

var (
	extractFile string
	extractURL  string
)

var extractCmd = &cobra.Command{
	Use:   "extract [message...]",
	Short: "Extract needs and offers from a message and add them to the board",
	Long: `Extract sends a free-form message to the configured LLM and adds the
needs and offers it finds to the board. The message is read from the
arguments, --file, --url, or standard input ("-" or no arguments).
Press Ctrl+C to abandon a running extraction; its result is discarded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		text, err := readMessage(ctx, cmd, args)
		if err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			fmt.Println("Nothing to extract.")
			return nil
		}

		db, st, err := openBoard()
		if err != nil {
			return err
		}
		defer db.Close()

		fmt.Println("Extracting...")
		entries, err := newRunner(st).Submit(ctx, text)
		if err != nil && !errors.Is(err, store.ErrPersist) {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No needs or offers found.")
			return nil
		}
		fmt.Println(term.EntryTable(entries, cfg.Export.Location()))
		fmt.Printf("\nAdded %d entries.\n", len(entries))
		return err
	},
}

func init() {
	extractCmd.Flags().StringVarP(&extractFile, "file", "f", "", "Read the message from a file")
	extractCmd.Flags().StringVarP(&extractURL, "url", "u", "", "Read the message from a web page")
}

func readMessage(ctx context.Context, cmd *cobra.Command, args []string) (string, error) {
	switch {
	case extractFile != "":
		data, err := os.ReadFile(extractFile)
		if err != nil {
			return "", fmt.Errorf("reading message: %w", err)
		}
		return string(data), nil
	case extractURL != "":
		fetcher := intake.NewPageFetcher(time.Duration(cfg.Intake.FetchTimeoutSeconds) * time.Second)
		text, err := fetcher.PageText(ctx, extractURL)
		if err != nil {
			return "", fmt.Errorf("fetching %s: %w", extractURL, err)
		}
		return text + "\n" + extractURL, nil
	case len(args) == 0 || (len(args) == 1 && args[0] == "-"):
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	default:
		return strings.Join(args, " "), nil
	}
}
