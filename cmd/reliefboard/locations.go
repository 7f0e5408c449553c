package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/TobiSchelling/reliefboard/internal/relief"
	"github.com/TobiSchelling/reliefboard/internal/term"
	"github.com/TobiSchelling/reliefboard/internal/views"
)

var locationsCmd = &cobra.Command{
	Use:     "locations",
	Aliases: []string{"sites"},
	Short:   "Show and manage the relief site board",
}

var locationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show relief sites, most in need first",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, st, err := openBoard()
		if err != nil {
			return err
		}
		defer db.Close()

		fmt.Println(term.LocationBoard(views.SortLocations(st.Locations())))
		return nil
	},
}

var locationFields struct {
	name, statusText, support string
	contacts, items           []string
}

func addLocationFieldFlags(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&locationFields.name, "name", "", "Site name")
	fl.StringVar(&locationFields.statusText, "status-text", "", "Current status description")
	fl.StringVar(&locationFields.support, "support", "", `Support state: urgent, sufficient, unspecified, or a pending label`)
	fl.StringArrayVar(&locationFields.contacts, "contact", nil, `Contact as "name | phone | note" (repeatable, replaces all contacts)`)
	fl.StringArrayVar(&locationFields.items, "items", nil, "Needed items, comma separated (repeatable, replaces the list)")
}

// locationPatchFromFlags builds an update from the flags the user set.
func locationPatchFromFlags(fl *pflag.FlagSet) relief.LocationPatch {
	var p relief.LocationPatch
	if fl.Changed("name") {
		p.Name = &locationFields.name
	}
	if fl.Changed("status-text") {
		p.CurrentStatus = &locationFields.statusText
	}
	if fl.Changed("support") {
		s := relief.ParseSupportState(locationFields.support)
		p.NeedsSupport = &s
	}
	if fl.Changed("contact") {
		contacts := []relief.Contact{}
		for _, c := range locationFields.contacts {
			if c != "" {
				contacts = append(contacts, relief.ParseContact(c))
			}
		}
		p.Contacts = &contacts
	}
	if fl.Changed("items") {
		var items []string
		for _, s := range locationFields.items {
			items = append(items, relief.ParseList(s)...)
		}
		p.NeededItems = &items
	}
	return p
}

var locationsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a relief site",
	RunE: func(cmd *cobra.Command, args []string) error {
		patch := locationPatchFromFlags(cmd.Flags())
		db, st, err := openBoard()
		if err != nil {
			return err
		}
		defer db.Close()

		l, err := st.AddLocation()
		if err != nil {
			return err
		}
		if err := st.UpdateLocation(l.ID, patch); err != nil {
			return err
		}
		l, _ = st.Location(l.ID)
		fmt.Println(term.LocationCard(l))
		return nil
	},
}

var locationsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a relief site",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		patch := locationPatchFromFlags(cmd.Flags())
		db, st, err := openBoard()
		if err != nil {
			return err
		}
		defer db.Close()

		if _, ok := st.Location(args[0]); !ok {
			return fmt.Errorf("location %s not found", args[0])
		}
		if err := st.UpdateLocation(args[0], patch); err != nil {
			return err
		}
		l, _ := st.Location(args[0])
		fmt.Println(term.LocationCard(l))
		return nil
	},
}

var locationsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove a relief site",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, st, err := openBoard()
		if err != nil {
			return err
		}
		defer db.Close()

		l, ok := st.Location(args[0])
		if !ok {
			return fmt.Errorf("location %s not found", args[0])
		}
		if err := st.DeleteLocation(args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed location %s: %s\n", l.ID, l.Name)
		return nil
	},
}

func init() {
	addLocationFieldFlags(locationsAddCmd)
	addLocationFieldFlags(locationsUpdateCmd)

	locationsCmd.AddCommand(locationsListCmd)
	locationsCmd.AddCommand(locationsAddCmd)
	locationsCmd.AddCommand(locationsUpdateCmd)
	locationsCmd.AddCommand(locationsDeleteCmd)
}
