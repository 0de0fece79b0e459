package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/datacatalog/internal/catalog"
	"github.com/mesh-intelligence/datacatalog/internal/livesync"
	"github.com/mesh-intelligence/datacatalog/internal/logging"
	"github.com/mesh-intelligence/datacatalog/internal/paths"
	"github.com/mesh-intelligence/datacatalog/internal/store"
	"github.com/mesh-intelligence/datacatalog/internal/transfer"
	"github.com/mesh-intelligence/datacatalog/pkg/sqlite"
	"github.com/mesh-intelligence/datacatalog/pkg/types"
)

const readyTimeout = 10 * time.Second

// instance is one attached catalog: backend, entity store kept current by
// live sync, and the services layered on them.
type instance struct {
	settings settings
	logger   *zap.Logger
	backend  types.Backend
	store    *store.Store
	sync     *livesync.Adapter
	catalog  *catalog.Service
	transfer *transfer.Engine
}

// resolve loads settings and works out the data directory.
func (a *app) resolve() (settings, error) {
	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return settings{}, sysErrorf("resolve config dir: %w", err)
	}
	s, err := loadConfig(configDir)
	if err != nil {
		return settings{}, &sysError{err: err}
	}
	s.DataDir, err = paths.ResolveDataDir(a.dataDir, s.DataDir)
	if err != nil {
		return settings{}, sysErrorf("resolve data dir: %w", err)
	}
	if a.user != "" {
		s.User = a.user
	}
	if s.User == "" {
		s.User = os.Getenv("USER")
	}
	return s, nil
}

// open attaches the backend and blocks until the store holds the first
// snapshot of every collection. The caller must Close the instance.
func (a *app) open(cmd *cobra.Command, opts ...catalog.Option) (*instance, error) {
	s, err := a.resolve()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(s.Log)
	if err != nil {
		return nil, sysErrorf("build logger: %w", err)
	}

	backend := sqlite.NewBackend(logger)
	if err := backend.Attach(types.Config{Backend: s.Backend, DataDir: s.DataDir}); err != nil {
		return nil, sysErrorf("attach backend: %w", err)
	}

	st := store.New()
	adapter := livesync.New(backend, st, livesync.WithLogger(logger))
	if err := adapter.Start(); err != nil {
		backend.Detach()
		return nil, sysErrorf("start live sync: %w", err)
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), readyTimeout)
	defer cancel()
	if err := adapter.WaitReady(ctx); err != nil {
		adapter.Stop()
		backend.Detach()
		return nil, sysErrorf("wait for store: %w", err)
	}

	if s.StrictCategoryDelete {
		opts = append(opts, catalog.WithStrictCategoryDelete())
	}
	opts = append(opts, catalog.WithLogger(logger))

	return &instance{
		settings: s,
		logger:   logger,
		backend:  backend,
		store:    st,
		sync:     adapter,
		catalog:  catalog.New(backend, opts...),
		transfer: transfer.New(st, backend, transfer.WithLogger(logger)),
	}, nil
}

// session returns ctx carrying the resolved user, if any.
func (r *instance) session(ctx context.Context) context.Context {
	user := strings.TrimSpace(r.settings.User)
	if user == "" {
		return ctx
	}
	return types.WithSession(ctx, types.Session{User: user})
}

// Close stops live sync and detaches the backend.
func (r *instance) Close() error {
	r.sync.Stop()
	err := r.backend.Detach()
	_ = r.logger.Sync()
	if err != nil {
		return sysErrorf("detach backend: %w", err)
	}
	return nil
}

// userError keeps domain failures at exit code 1 while adding context.
func userError(action string, err error) error {
	var se *sysError
	if errors.As(err, &se) {
		return err
	}
	return fmt.Errorf("%s: %w", action, err)
}
