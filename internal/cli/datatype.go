package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mesh-intelligence/datacatalog/pkg/types"
)

// dataTypeFlags binds the editable data type fields to command flags.
type dataTypeFlags struct {
	dt       types.DataType
	datasets []string
}

func (f *dataTypeFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.dt.Name, "name", "", "data type name")
	fs.StringVar(&f.dt.Description, "description", "", "description")
	fs.StringVar(&f.dt.Category, "category", "", "category name (default: Uncategorized)")
	fs.StringVar(&f.dt.Priority, "priority", "", "unassigned, low, beneficial or essential")
	fs.StringVar(&f.dt.Status, "status", "", "not_started, in_progress or complete")
	fs.StringVar(&f.dt.Format, "format", "", "expected data format")
	fs.StringVar(&f.dt.Notes, "notes", "", "free-form notes")
	fs.StringVar(&f.dt.Standards, "standards", "", "applicable standards")
	fs.StringVar(&f.dt.Indicators, "indicators", "", "indicators derived from this data")
	fs.StringSliceVar(&f.datasets, "datasets", nil, "comma-separated ids of linked datasets")
}

// overlay copies the flags the user set onto dt.
func (f *dataTypeFlags) overlay(fs *pflag.FlagSet, dt *types.DataType) {
	set := map[string]func(){
		"name":        func() { dt.Name = f.dt.Name },
		"description": func() { dt.Description = f.dt.Description },
		"category":    func() { dt.Category = f.dt.Category },
		"priority":    func() { dt.Priority = f.dt.Priority },
		"status":      func() { dt.Status = f.dt.Status },
		"format":      func() { dt.Format = f.dt.Format },
		"notes":       func() { dt.Notes = f.dt.Notes },
		"standards":   func() { dt.Standards = f.dt.Standards },
		"indicators":  func() { dt.Indicators = f.dt.Indicators },
	}
	fs.Visit(func(fl *pflag.Flag) {
		if apply, ok := set[fl.Name]; ok {
			apply()
		}
	})
}

// linkSet returns the requested link set, or nil when the flag was not given.
func linkSet(fs *pflag.FlagSet, name string, ids []string) []string {
	if !fs.Changed(name) {
		return nil
	}
	if ids == nil {
		return []string{}
	}
	return ids
}

func (a *app) newDataTypeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "datatype",
		Aliases: []string{"dt"},
		Short:   "Manage data types",
	}
	cmd.AddCommand(
		a.newDataTypeAddCmd(),
		a.newDataTypeUpdateCmd(),
		a.newDataTypeDeleteCmd(),
		a.newDataTypeGetCmd(),
		a.newDataTypeListCmd(),
		a.newLinkCmd(types.SideDataType, "datasets"),
	)
	return cmd
}

func (a *app) newDataTypeAddCmd() *cobra.Command {
	var f dataTypeFlags
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add a data type",
		Example: "  catalog datatype add --name \"Road network\" --category Transport --priority essential",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			dt := f.dt
			id, err := rt.catalog.AddDataType(rt.session(cmd.Context()), &dt, f.datasets)
			if err != nil {
				return userError("add data type", err)
			}
			return a.printID(cmd, id)
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func (a *app) newDataTypeUpdateCmd() *cobra.Command {
	var f dataTypeFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a data type",
		Long: "Update changes only the fields given as flags. --datasets replaces\n" +
			"the linked datasets; --datasets= clears them.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			dt, ok := rt.store.DataTypeByID(args[0])
			if !ok {
				return userError("update data type", fmt.Errorf("%s: %w", args[0], types.ErrNotFound))
			}
			f.overlay(cmd.Flags(), &dt)
			ids := linkSet(cmd.Flags(), "datasets", f.datasets)
			if err := rt.catalog.UpdateDataType(rt.session(cmd.Context()), &dt, ids); err != nil {
				return userError("update data type", err)
			}
			return a.printID(cmd, dt.ID)
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func (a *app) newDataTypeDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a data type and its links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.catalog.DeleteDataType(rt.session(cmd.Context()), args[0]); err != nil {
				return userError("delete data type", err)
			}
			return a.printID(cmd, args[0])
		},
	}
}

type dataTypeView struct {
	types.DataType
	Datasets []types.Dataset `json:"datasets"`
}

func (a *app) newDataTypeGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a data type and the datasets linked to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			dt, ok := rt.store.DataTypeByID(args[0])
			if !ok {
				return userError("get data type", fmt.Errorf("%s: %w", args[0], types.ErrNotFound))
			}
			view := dataTypeView{DataType: dt, Datasets: rt.store.DatasetsForDataType(dt.ID)}
			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), view)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:          %s\n", dt.ID)
			fmt.Fprintf(out, "Name:        %s\n", dt.Name)
			fmt.Fprintf(out, "Category:    %s\n", dt.Category)
			fmt.Fprintf(out, "Priority:    %s\n", dt.Priority)
			fmt.Fprintf(out, "Status:      %s\n", dt.Status)
			fmt.Fprintf(out, "Format:      %s\n", dt.Format)
			fmt.Fprintf(out, "Description: %s\n", dt.Description)
			fmt.Fprintf(out, "Created:     %s\n", dt.CreatedAt.Format("2006-01-02 15:04"))
			fmt.Fprintf(out, "Datasets:    %d\n", len(view.Datasets))
			for _, ds := range view.Datasets {
				fmt.Fprintf(out, "  %s  %s\n", ds.ID, ds.Name)
			}
			return nil
		},
	}
}

func (a *app) newDataTypeListCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List data types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			list := rt.store.DataTypes()
			if cmd.Flags().Changed("category") {
				list = rt.store.DataTypesInCategory(category)
			}
			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), list)
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No data types found.")
				return nil
			}
			rows := make([][]string, 0, len(list))
			for _, dt := range list {
				rows = append(rows, []string{
					dt.ID,
					truncate(dt.Name, 40),
					dt.Category,
					dt.Priority,
					dt.Status,
					strconv.Itoa(rt.store.DatasetCountForDataType(dt.ID)),
				})
			}
			if err := printTable(cmd.OutOrStdout(), []string{"ID", "NAME", "CATEGORY", "PRIORITY", "STATUS", "DATASETS"}, rows); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Total: %d data type(s)\n", len(list))
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only data types in this category")
	return cmd
}

// newLinkCmd replaces the link set of one item from the given side.
func (a *app) newLinkCmd(side types.Side, flagName string) *cobra.Command {
	var ids []string
	cmd := &cobra.Command{
		Use:   "link <id>",
		Short: "Replace the " + flagName + " linked to an item",
		Long:  "Link makes --" + flagName + " the complete link set of the item. An empty\nlist removes every link.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			if ids == nil {
				ids = []string{}
			}
			if err := rt.catalog.ReplaceLinks(rt.session(cmd.Context()), args[0], ids, side); err != nil {
				return userError("replace links", err)
			}
			return a.printID(cmd, args[0])
		},
	}
	cmd.Flags().StringSliceVar(&ids, flagName, nil, "comma-separated ids forming the new link set")
	return cmd
}

func (a *app) printID(cmd *cobra.Command, id string) error {
	if a.jsonMode {
		return printJSON(cmd.OutOrStdout(), map[string]string{"id": id})
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), id)
	return err
}
