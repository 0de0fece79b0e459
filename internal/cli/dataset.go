package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mesh-intelligence/datacatalog/pkg/types"
)

type datasetFlags struct {
	ds        types.Dataset
	dataTypes []string
}

func (f *datasetFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.ds.Name, "name", "", "dataset name")
	fs.StringVar(&f.ds.SourceURL, "source-url", "", "where the dataset is published")
	fs.StringVar(&f.ds.Description, "description", "", "description")
	fs.StringVar(&f.ds.SourceOrganization, "organization", "", "publishing organization")
	fs.StringVar(&f.ds.SourceType, "source-type", "", "kind of source, e.g. government or commercial")
	fs.StringVar(&f.ds.Format, "format", "", "distribution format")
	fs.StringVar(&f.ds.GeographicCoverage, "geographic-coverage", "", "area covered")
	fs.StringVar(&f.ds.TemporalCoverage, "temporal-coverage", "", "period covered")
	fs.BoolVar(&f.ds.IsValidated, "validated", false, "the dataset has been checked")
	fs.BoolVar(&f.ds.IsPrimaryExample, "primary", false, "the dataset is the primary example for its data types")
	fs.StringVar(&f.ds.Notes, "notes", "", "free-form notes")
	fs.StringSliceVar(&f.dataTypes, "datatypes", nil, "comma-separated ids of linked data types")
}

func (f *datasetFlags) overlay(fs *pflag.FlagSet, ds *types.Dataset) {
	set := map[string]func(){
		"name":                func() { ds.Name = f.ds.Name },
		"source-url":          func() { ds.SourceURL = f.ds.SourceURL },
		"description":         func() { ds.Description = f.ds.Description },
		"organization":        func() { ds.SourceOrganization = f.ds.SourceOrganization },
		"source-type":         func() { ds.SourceType = f.ds.SourceType },
		"format":              func() { ds.Format = f.ds.Format },
		"geographic-coverage": func() { ds.GeographicCoverage = f.ds.GeographicCoverage },
		"temporal-coverage":   func() { ds.TemporalCoverage = f.ds.TemporalCoverage },
		"validated":           func() { ds.IsValidated = f.ds.IsValidated },
		"primary":             func() { ds.IsPrimaryExample = f.ds.IsPrimaryExample },
		"notes":               func() { ds.Notes = f.ds.Notes },
	}
	fs.Visit(func(fl *pflag.Flag) {
		if apply, ok := set[fl.Name]; ok {
			apply()
		}
	})
}

func (a *app) newDatasetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "dataset",
		Aliases: []string{"ds"},
		Short:   "Manage datasets",
	}
	cmd.AddCommand(
		a.newDatasetAddCmd(),
		a.newDatasetUpdateCmd(),
		a.newDatasetDeleteCmd(),
		a.newDatasetGetCmd(),
		a.newDatasetListCmd(),
		a.newLinkCmd(types.SideDataset, "datatypes"),
	)
	return cmd
}

func (a *app) newDatasetAddCmd() *cobra.Command {
	var f datasetFlags
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add a dataset",
		Example: "  catalog dataset add --name OpenStreetMap --source-url https://www.openstreetmap.org --datatypes <id>",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			ds := f.ds
			id, err := rt.catalog.AddDataset(rt.session(cmd.Context()), &ds, f.dataTypes)
			if err != nil {
				return userError("add dataset", err)
			}
			return a.printID(cmd, id)
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func (a *app) newDatasetUpdateCmd() *cobra.Command {
	var f datasetFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a dataset",
		Long: "Update changes only the fields given as flags. --datatypes replaces\n" +
			"the linked data types; --datatypes= clears them.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			ds, ok := rt.store.DatasetByID(args[0])
			if !ok {
				return userError("update dataset", fmt.Errorf("%s: %w", args[0], types.ErrNotFound))
			}
			f.overlay(cmd.Flags(), &ds)
			ids := linkSet(cmd.Flags(), "datatypes", f.dataTypes)
			if err := rt.catalog.UpdateDataset(rt.session(cmd.Context()), &ds, ids); err != nil {
				return userError("update dataset", err)
			}
			return a.printID(cmd, ds.ID)
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func (a *app) newDatasetDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a dataset and its links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.catalog.DeleteDataset(rt.session(cmd.Context()), args[0]); err != nil {
				return userError("delete dataset", err)
			}
			return a.printID(cmd, args[0])
		},
	}
}

type datasetView struct {
	types.Dataset
	DataTypes []types.DataType `json:"data_types"`
}

func (a *app) newDatasetGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a dataset and the data types it provides",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			ds, ok := rt.store.DatasetByID(args[0])
			if !ok {
				return userError("get dataset", fmt.Errorf("%s: %w", args[0], types.ErrNotFound))
			}
			view := datasetView{Dataset: ds, DataTypes: rt.store.DataTypesForDataset(ds.ID)}
			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), view)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:           %s\n", ds.ID)
			fmt.Fprintf(out, "Name:         %s\n", ds.Name)
			fmt.Fprintf(out, "Source:       %s\n", ds.SourceURL)
			fmt.Fprintf(out, "Organization: %s\n", ds.SourceOrganization)
			fmt.Fprintf(out, "Format:       %s\n", ds.Format)
			fmt.Fprintf(out, "Validated:    %s\n", yesNo(ds.IsValidated))
			fmt.Fprintf(out, "Primary:      %s\n", yesNo(ds.IsPrimaryExample))
			fmt.Fprintf(out, "Created:      %s\n", ds.CreatedAt.Format("2006-01-02 15:04"))
			fmt.Fprintf(out, "Data types:   %d\n", len(view.DataTypes))
			for _, dt := range view.DataTypes {
				fmt.Fprintf(out, "  %s  %s\n", dt.ID, dt.Name)
			}
			return nil
		},
	}
}

func (a *app) newDatasetListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			list := rt.store.Datasets()
			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), list)
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No datasets found.")
				return nil
			}
			rows := make([][]string, 0, len(list))
			for _, ds := range list {
				rows = append(rows, []string{
					ds.ID,
					truncate(ds.Name, 40),
					truncate(ds.SourceOrganization, 30),
					yesNo(ds.IsValidated),
					strconv.Itoa(rt.store.DataTypeCountForDataset(ds.ID)),
				})
			}
			if err := printTable(cmd.OutOrStdout(), []string{"ID", "NAME", "ORGANIZATION", "VALIDATED", "DATA TYPES"}, rows); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Total: %d dataset(s)\n", len(list))
			return nil
		},
	}
}
