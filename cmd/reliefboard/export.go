package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/reliefboard/internal/export"
	"github.com/TobiSchelling/reliefboard/internal/relief"
	"github.com/TobiSchelling/reliefboard/internal/store"
	"github.com/TobiSchelling/reliefboard/internal/views"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the entry list as CSV, PNG or JSON",
}

// exportEntries returns the filtered entry list in display order.
func exportEntries(st *store.Store) ([]relief.Entry, error) {
	f, err := entryFilter()
	if err != nil {
		return nil, err
	}
	return views.FilterEntries(st.Entries(), f), nil
}

// createExportFile opens the output file, defaulting to a timestamped name
// in the working directory.
func createExportFile(kind, ext string) (*os.File, error) {
	path := exportOut
	if path == "" {
		path = export.Filename(cfg.Export.FilePrefix, kind, ext, time.Now())
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return f, nil
}

// finishExport closes f and removes it if writing failed.
func finishExport(f *os.File, writeErr error) error {
	closeErr := f.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		os.Remove(f.Name())
		return err
	}
	fmt.Printf("Wrote %s\n", f.Name())
	return nil
}

var exportCSVCmd = &cobra.Command{
	Use:   "csv",
	Short: "Export entries as a spreadsheet-ready CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, st, err := openBoard()
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := exportEntries(st)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return export.ErrNothingToExport
		}
		f, err := createExportFile(export.KindData, "csv")
		if err != nil {
			return err
		}
		return finishExport(f, export.WriteCSV(f, entries, cfg.Export.Location()))
	},
}

var exportPNGCmd = &cobra.Command{
	Use:   "png",
	Short: "Export entries as a PNG snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, st, err := openBoard()
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := exportEntries(st)
		if err != nil {
			return err
		}
		f, err := createExportFile(export.KindUpdate, "png")
		if err != nil {
			return err
		}
		return finishExport(f, export.WritePNG(f, entries, export.PNGOptions{
			Face:     loadFace(),
			Location: cfg.Export.Location(),
		}))
	},
}

var exportJSONCmd = &cobra.Command{
	Use:   "json",
	Short: "Back up all entries in the storage format",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, st, err := openBoard()
		if err != nil {
			return err
		}
		defer db.Close()

		data, err := store.Encode(st.Entries())
		if err != nil {
			return err
		}
		f, err := createExportFile(export.KindData, "json")
		if err != nil {
			return err
		}
		_, werr := f.Write(data)
		return finishExport(f, werr)
	},
}

func init() {
	exportCmd.PersistentFlags().StringVarP(&exportOut, "out", "o", "", "Output file (default: timestamped name in the current directory)")
	addFilterFlags(exportCSVCmd)
	addFilterFlags(exportPNGCmd)

	exportCmd.AddCommand(exportCSVCmd)
	exportCmd.AddCommand(exportPNGCmd)
	exportCmd.AddCommand(exportJSONCmd)
}
