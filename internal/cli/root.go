// Package cli implements the catalog command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// sysError marks failures of the environment (config, storage, I/O) rather
// than of the request.
type sysError struct {
	err error
}

func (e *sysError) Error() string { return e.err.Error() }
func (e *sysError) Unwrap() error { return e.err }

func sysErrorf(format string, args ...any) error {
	return &sysError{err: fmt.Errorf(format, args...)}
}

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var se *sysError
	if errors.As(err, &se) {
		return exitSysError
	}
	return exitUserError
}

// app holds the global flag values shared by every subcommand.
type app struct {
	configDir string
	dataDir   string
	user      string
	jsonMode  bool
}

// NewRootCmd creates the top-level "catalog" command with its global flags
// and subcommands.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "catalog",
		Short: "Manage a catalog of data types and datasets",
		Long: "catalog records the data types a project needs, the datasets that\n" +
			"provide them, and the categories that group them.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configDir, "config-dir", "", "configuration directory (env CATALOG_CONFIG_DIR)")
	pf.StringVar(&a.dataDir, "data-dir", "", "data directory (default: ./.catalog-db)")
	pf.StringVar(&a.user, "user", "", "user recorded on mutations (default: config user, then $USER)")
	pf.BoolVar(&a.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(
		newVersionCmd(),
		a.newInitCmd(),
		a.newServeCmd(),
		a.newExportCmd(),
		a.newImportCmd(),
		a.newDataTypeCmd(),
		a.newDatasetCmd(),
		a.newCategoryCmd(),
	)
	return root
}

// Execute runs the root command against os.Args and returns the exit code.
func Execute() int {
	err := NewRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return ExitCode(err)
}
