package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/reliefboard/internal/relief"
	"github.com/TobiSchelling/reliefboard/internal/store"
)

var importReplace bool

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import entries or relief sites from a JSON file",
	Long: `Import reads a collection written by 'export json' or saved by the
browser board (a bare JSON array). By default records are added to the
board; --replace swaps out the whole collection.`,
}

var importEntriesCmd = &cobra.Command{
	Use:   "entries <file>",
	Short: "Import entries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := readCollection[relief.Entry](args[0])
		if err != nil {
			return err
		}
		db, st, err := openBoard()
		if err != nil {
			return err
		}
		defer db.Close()

		if importReplace {
			err = st.ReplaceEntries(entries)
		} else {
			err = st.AddEntries(entries...)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d entries\n", len(entries))
		return nil
	},
}

var importLocationsCmd = &cobra.Command{
	Use:   "locations <file>",
	Short: "Import relief sites",
	Long:  "Import relief sites. Without --replace, sites whose id is already on the board are skipped.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		locations, err := readCollection[relief.Location](args[0])
		if err != nil {
			return err
		}
		db, st, err := openBoard()
		if err != nil {
			return err
		}
		defer db.Close()

		if importReplace {
			if err := st.ReplaceLocations(locations); err != nil {
				return err
			}
			fmt.Printf("Imported %d locations\n", len(locations))
			return nil
		}

		existing := st.Locations()
		known := make(map[string]bool, len(existing))
		for _, l := range existing {
			known[l.ID] = true
		}
		var added []relief.Location
		for _, l := range locations {
			if l.ID != "" && known[l.ID] {
				continue
			}
			added = append(added, l)
			known[l.ID] = true
		}
		if err := st.ReplaceLocations(append(added, existing...)); err != nil {
			return err
		}
		fmt.Printf("Imported %d locations, skipped %d already on the board\n", len(added), len(locations)-len(added))
		return nil
	},
}

func readCollection[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	items, _, err := store.Decode[T](data)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return items, nil
}

func init() {
	importCmd.PersistentFlags().BoolVar(&importReplace, "replace", false, "Replace the collection instead of adding to it")

	importCmd.AddCommand(importEntriesCmd)
	importCmd.AddCommand(importLocationsCmd)
}
