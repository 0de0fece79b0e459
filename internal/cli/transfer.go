package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/datacatalog/internal/transfer"
)

const (
	formatJSON = "json"
	formatCSV  = "csv"
)

func (a *app) newExportCmd() *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the whole catalog as JSON or CSV",
		Example: "  catalog export > catalog.json\n" +
			"  catalog export --format csv --output catalog.csv",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var write func(io.Writer, transfer.Document) error
			switch format {
			case formatJSON:
				write = transfer.WriteJSON
			case formatCSV:
				write = transfer.WriteCSV
			default:
				return fmt.Errorf("unknown format %q (want %s or %s)", format, formatJSON, formatCSV)
			}

			rt, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()
			doc := rt.transfer.Export()

			if output == "" || output == "-" {
				return write(cmd.OutOrStdout(), doc)
			}
			f, err := os.Create(output)
			if err != nil {
				return sysErrorf("create %s: %w", output, err)
			}
			if err := write(f, doc); err != nil {
				f.Close()
				return sysErrorf("write %s: %w", output, err)
			}
			if err := f.Close(); err != nil {
				return sysErrorf("close %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d data types, %d datasets, %d categories, %d links to %s\n",
				len(doc.DataTypes), len(doc.Datasets), len(doc.Categories), len(doc.DataTypeDatasets), output)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", formatJSON, "export format: json or csv")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func (a *app) newImportCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the whole catalog with a JSON export",
		Long: "Import validates a JSON export and, if it is well formed, replaces\n" +
			"every data type, dataset, category and link in one step. Use - to\n" +
			"read from stdin. CSV exports cannot be imported.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("import replaces the entire catalog; pass --yes to confirm")
			}
			payload, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			rt, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			res, err := rt.transfer.Import(rt.session(cmd.Context()), payload)
			if err != nil {
				return userError("import", err)
			}
			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d data types, %d datasets, %d categories, %d links\n",
				res.DataTypes, res.Datasets, res.Categories, res.Links)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm replacing the existing catalog")
	return cmd
}

func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, sysErrorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, sysErrorf("read %s: %w", name, err)
	}
	return data, nil
}
