package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/datacatalog/internal/catalog"
	"github.com/mesh-intelligence/datacatalog/pkg/types"
)

func (a *app) newCategoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"cat"},
		Short:   "Manage data type categories",
	}
	cmd.AddCommand(
		a.newCategoryAddCmd(),
		a.newCategoryRenameCmd(),
		a.newCategoryDeleteCmd(),
		a.newCategoryListCmd(),
	)
	return cmd
}

func (a *app) newCategoryAddCmd() *cobra.Command {
	var c types.Category
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			c.Name = args[0]
			id, err := rt.catalog.AddCategory(rt.session(cmd.Context()), &c)
			if err != nil {
				return userError("add category", err)
			}
			return a.printID(cmd, id)
		},
	}
	cmd.Flags().StringVar(&c.Description, "description", "", "description")
	return cmd
}

func (a *app) newCategoryRenameCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "rename <id> <new-name>",
		Short: "Rename a category; its data types follow",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			c, ok := findCategory(rt.store.Categories(), args[0])
			if !ok {
				return userError("rename category", fmt.Errorf("%s: %w", args[0], types.ErrNotFound))
			}
			c.Name = args[1]
			if cmd.Flags().Changed("description") {
				c.Description = description
			}
			if err := rt.catalog.UpdateCategory(rt.session(cmd.Context()), &c); err != nil {
				return userError("rename category", err)
			}
			return a.printID(cmd, c.ID)
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "new description")
	return cmd
}

func (a *app) newCategoryDeleteCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category",
		Long: "Delete removes a category and moves its data types to Uncategorized.\n" +
			"With --strict the delete fails while any data type uses the category.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []catalog.Option
			if strict {
				opts = append(opts, catalog.WithStrictCategoryDelete())
			}
			rt, err := a.open(cmd, opts...)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.catalog.DeleteCategory(rt.session(cmd.Context()), args[0]); err != nil {
				return userError("delete category", err)
			}
			return a.printID(cmd, args[0])
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "refuse to delete a category that is in use")
	return cmd
}

func (a *app) newCategoryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categories, including Uncategorized",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			list := rt.store.Categories()
			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), list)
			}
			rows := make([][]string, 0, len(list))
			for _, c := range list {
				rows = append(rows, []string{
					c.ID,
					c.Name,
					strconv.Itoa(len(rt.store.DataTypesInCategory(c.Name))),
					truncate(c.Description, 50),
				})
			}
			return printTable(cmd.OutOrStdout(), []string{"ID", "NAME", "DATA TYPES", "DESCRIPTION"}, rows)
		},
	}
}

func findCategory(list []types.Category, id string) (types.Category, bool) {
	for _, c := range list {
		if c.ID == id {
			return c, true
		}
	}
	return types.Category{}, false
}
