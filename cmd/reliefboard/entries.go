package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/TobiSchelling/reliefboard/internal/relief"
	"github.com/TobiSchelling/reliefboard/internal/term"
	"github.com/TobiSchelling/reliefboard/internal/views"
)

var (
	filterType   string
	filterStatus string
)

// addFilterFlags registers --type and --status on cmd.
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&filterType, "type", "ALL", "Entry type: ALL, NEED or OFFER")
	cmd.Flags().StringVar(&filterStatus, "status", "ALL", "Entry status: ALL, ACTIVE or COMPLETED")
}

func entryFilter() (views.Filter, error) {
	tf, err := views.ParseTypeFilter(filterType)
	if err != nil {
		return views.Filter{}, err
	}
	sf, err := views.ParseStatusFilter(filterStatus)
	if err != nil {
		return views.Filter{}, err
	}
	return views.Filter{Type: tf, Status: sf}, nil
}

var entriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "List and manage needs and offers",
}

var entriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List entries, active and most urgent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := entryFilter()
		if err != nil {
			return err
		}
		db, st, err := openBoard()
		if err != nil {
			return err
		}
		defer db.Close()

		all := st.Entries()
		fmt.Println(term.StatsLine(views.ComputeStats(all)))
		fmt.Println()
		fmt.Println(term.EntryTable(views.FilterEntries(all, f), cfg.Export.Location()))
		return nil
	},
}

var entryFields struct {
	typ, category, item, quantity, location, contact, urgency, notes, message string
}

func addEntryFieldFlags(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&entryFields.typ, "type", "", "NEED or OFFER")
	fl.StringVar(&entryFields.category, "category", "", "Category, e.g. 食品")
	fl.StringVar(&entryFields.item, "item", "", "Item name")
	fl.StringVar(&entryFields.quantity, "quantity", "", "Quantity")
	fl.StringVar(&entryFields.location, "location", "", "Location")
	fl.StringVar(&entryFields.contact, "contact", "", "Contact information")
	fl.StringVar(&entryFields.urgency, "urgency", "", "HIGH, MEDIUM or LOW")
	fl.StringVar(&entryFields.notes, "notes", "", "Notes")
	fl.StringVar(&entryFields.message, "message", "", "Original message")
}

// entryPatchFromFlags builds an edit from the flags the user actually set.
func entryPatchFromFlags(fl *pflag.FlagSet) (relief.EntryPatch, error) {
	var p relief.EntryPatch
	str := func(name, v string) *string {
		if fl.Changed(name) {
			return &v
		}
		return nil
	}
	p.Category = str("category", entryFields.category)
	p.Item = str("item", entryFields.item)
	p.Quantity = str("quantity", entryFields.quantity)
	p.Location = str("location", entryFields.location)
	p.ContactInfo = str("contact", entryFields.contact)
	p.Notes = str("notes", entryFields.notes)
	p.OriginalMessage = str("message", entryFields.message)

	if fl.Changed("type") {
		t := relief.EntryType(strings.ToUpper(entryFields.typ))
		if !t.IsValid() {
			return p, fmt.Errorf("invalid type %q (want NEED or OFFER)", entryFields.typ)
		}
		p.Type = &t
	}
	if fl.Changed("urgency") {
		u := relief.Urgency(strings.ToUpper(entryFields.urgency))
		if !u.IsValid() {
			return p, fmt.Errorf("invalid urgency %q (want HIGH, MEDIUM or LOW)", entryFields.urgency)
		}
		p.Urgency = &u
	}
	return p, nil
}

var entriesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an entry by hand",
	Long:  "Add prepends a placeholder entry and fills in any fields given as flags.",
	RunE: func(cmd *cobra.Command, args []string) error {
		patch, err := entryPatchFromFlags(cmd.Flags())
		if err != nil {
			return err
		}
		db, st, err := openBoard()
		if err != nil {
			return err
		}
		defer db.Close()

		e, err := st.AddManualEntry()
		if err != nil {
			return err
		}
		if err := st.EditEntry(e.ID, patch); err != nil {
			return err
		}
		e, _ = st.Entry(e.ID)
		fmt.Println(term.EntryTable([]relief.Entry{e}, cfg.Export.Location()))
		fmt.Printf("\nAdded entry %s\n", e.ID)
		return nil
	},
}

var entriesEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit an entry's fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		patch, err := entryPatchFromFlags(cmd.Flags())
		if err != nil {
			return err
		}
		db, st, err := openBoard()
		if err != nil {
			return err
		}
		defer db.Close()

		if _, ok := st.Entry(args[0]); !ok {
			return fmt.Errorf("entry %s not found", args[0])
		}
		if err := st.EditEntry(args[0], patch); err != nil {
			return err
		}
		fmt.Printf("Updated entry %s\n", args[0])
		return nil
	},
}

var entriesStatusCmd = &cobra.Command{
	Use:   "status <id> <PENDING|COMPLETED>",
	Short: "Mark an entry pending or completed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		status := relief.Status(strings.ToUpper(args[1]))
		if !status.IsValid() {
			return fmt.Errorf("invalid status %q (want PENDING or COMPLETED)", args[1])
		}
		db, st, err := openBoard()
		if err != nil {
			return err
		}
		defer db.Close()

		if _, ok := st.Entry(args[0]); !ok {
			return fmt.Errorf("entry %s not found", args[0])
		}
		if err := st.UpdateEntryStatus(args[0], status); err != nil {
			return err
		}
		fmt.Printf("Entry %s: %s\n", args[0], views.StatusText(status))
		return nil
	},
}

var entriesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, st, err := openBoard()
		if err != nil {
			return err
		}
		defer db.Close()

		e, ok := st.Entry(args[0])
		if !ok {
			return fmt.Errorf("entry %s not found", args[0])
		}
		if err := st.DeleteEntry(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted entry %s: %s\n", e.ID, e.Item)
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize active needs and offers by category",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, st, err := openBoard()
		if err != nil {
			return err
		}
		defer db.Close()

		fmt.Println(term.SummaryReport(views.Summarize(st.Entries())))
		return nil
	},
}

func init() {
	addFilterFlags(entriesListCmd)
	addEntryFieldFlags(entriesAddCmd)
	addEntryFieldFlags(entriesEditCmd)

	entriesCmd.AddCommand(entriesListCmd)
	entriesCmd.AddCommand(entriesAddCmd)
	entriesCmd.AddCommand(entriesEditCmd)
	entriesCmd.AddCommand(entriesStatusCmd)
	entriesCmd.AddCommand(entriesDeleteCmd)
}
