package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/datacatalog/internal/logging"
	"github.com/mesh-intelligence/datacatalog/internal/paths"
	"github.com/mesh-intelligence/datacatalog/pkg/sqlite"
	"github.com/mesh-intelligence/datacatalog/pkg/types"
)

func (a *app) newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize catalog configuration and storage",
		Long: "Create the configuration directory with a default config.yaml and\n" +
			"the data directory with empty collection files. Safe to rerun.",
		Args: cobra.NoArgs,
		RunE: a.runInit,
	}
}

func (a *app) runInit(cmd *cobra.Command, args []string) error {
	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return sysErrorf("resolve config dir: %w", err)
	}
	if a.dataDir != "" {
		// Record an explicit data dir so later commands find it without the flag.
		dataDir, err := filepath.Abs(a.dataDir)
		if err != nil {
			return sysErrorf("resolve data dir: %w", err)
		}
		if err := os.MkdirAll(configDir, 0o755); err != nil {
			return sysErrorf("create config dir: %w", err)
		}
		if err := writeConfigIfMissing(filepath.Join(configDir, configFileExt), dataDir); err != nil {
			return sysErrorf("write config: %w", err)
		}
	}

	s, err := a.resolve()
	if err != nil {
		return err
	}
	logger, err := logging.New(s.Log)
	if err != nil {
		return sysErrorf("build logger: %w", err)
	}
	backend := sqlite.NewBackend(logger)
	if err := backend.Attach(types.Config{Backend: s.Backend, DataDir: s.DataDir}); err != nil {
		return sysErrorf("initialize storage: %w", err)
	}
	if err := backend.Detach(); err != nil {
		return sysErrorf("finalize storage: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Catalog initialized\nconfig: %s\ndata:   %s\n", configDir, s.DataDir)
	return nil
}
