package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/datacatalog/pkg/types"
)

// dbFile is the SQLite database name inside DataDir. It is rebuilt from the
// JSONL files on every Attach.
const dbFile = "catalog.db"

// Backend implements types.Backend using SQLite as the query engine and
// JSONL files as the source of truth.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	versions map[string]uint64
	hub      *hub
	logger   *zap.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used for load and commit diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(b *Backend) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach creates DataDir if needed, rebuilds the database from the JSONL
// files and starts accepting operations.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return err
	}
	if err := ensureJSONLFiles(dataDir); err != nil {
		db.Close()
		return err
	}
	stats, err := loadAllJSONL(context.Background(), db, dataDir, b.logger)
	if err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}
	for _, name := range loadOrder {
		b.logger.Info("loaded collection",
			zap.String("collection", name),
			zap.Int("records", stats[name].loaded),
			zap.Int("skipped", stats[name].skipped))
	}

	config.DataDir = dataDir
	b.config = config
	b.db = db
	b.versions = make(map[string]uint64, len(loadOrder))
	b.hub = newHub()
	b.attached = true
	return nil
}

func createSchema(db *sql.DB) error {
	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	for _, stmt := range indexDDL {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}
	return nil
}

// Detach cancels every subscription, waits for in-flight deliveries and
// closes the database. After Detach, all operations return
// ErrBackendDetached. Detach is idempotent. It must not be called from a
// subscription callback.
func (b *Backend) Detach() error {
	b.mu.Lock()
	if !b.attached {
		b.mu.Unlock()
		return nil
	}
	b.attached = false
	h, db := b.hub, b.db
	b.hub, b.db = nil, nil
	b.mu.Unlock()

	h.close()
	if err := db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// Create inserts data into collection and returns its id.
func (b *Backend) Create(ctx context.Context, collection string, data any) (string, error) {
	ids, err := b.commit(ctx, []types.Op{types.CreateOp(collection, data)})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// Update applies a partial update to one record.
func (b *Backend) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	_, err := b.commit(ctx, []types.Op{types.UpdateOp(collection, id, fields)})
	return err
}

// Delete removes one record.
func (b *Backend) Delete(ctx context.Context, collection, id string) error {
	_, err := b.commit(ctx, []types.Op{types.DeleteOp(collection, id)})
	return err
}

// Batch applies ops in one transaction.
func (b *Backend) Batch(ctx context.Context, ops []types.Op) error {
	if len(ops) == 0 {
		return nil
	}
	_, err := b.commit(ctx, ops)
	return err
}

// QueryWhere returns records whose field equals value. An empty field
// returns the whole collection.
func (b *Backend) QueryWhere(ctx context.Context, collection, field string, value any) ([]any, error) {
	t, err := tableFor(collection)
	if err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrBackendDetached
	}
	return t.selectWhere(ctx, b.db, field, value)
}

// Subscribe registers onChange for collection. The current snapshot is
// delivered first, then one snapshot per commit that touches collection.
func (b *Backend) Subscribe(collection string, onChange func(types.Snapshot)) (func(), error) {
	t, err := tableFor(collection)
	if err != nil {
		return nil, err
	}
	if onChange == nil {
		return nil, fmt.Errorf("%w: nil subscription callback", types.ErrInvalidData)
	}

	// The write lock keeps a commit from publishing between the initial
	// read and registration.
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return nil, types.ErrBackendDetached
	}
	records, err := t.selectWhere(context.Background(), b.db, "", nil)
	if err != nil {
		return nil, err
	}
	initial := types.Snapshot{
		Collection: collection,
		Version:    b.versions[collection],
		Records:    records,
	}
	return b.hub.add(collection, onChange, initial)
}

// commit runs ops in one transaction, rewrites the JSONL file of every
// touched collection, then publishes their snapshots. Files are staged
// before the SQL commit and renamed after it, so a failed transaction
// leaves every file untouched.
func (b *Backend) commit(ctx context.Context, ops []types.Op) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return nil, types.ErrBackendDetached
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	ids := make([]string, len(ops))
	touched := make(map[string]bool, len(loadOrder))
	for i, op := range ops {
		id, err := applyOp(ctx, tx, op)
		if err != nil {
			if len(ops) > 1 {
				return nil, fmt.Errorf("batch op %d (%s %s): %w", i, op.Kind, op.Collection, err)
			}
			return nil, err
		}
		ids[i] = id
		touched[op.Collection] = true
	}

	var snaps []types.Snapshot
	var staged []stagedFile
	discard := func() {
		for _, s := range staged {
			s.discard()
		}
	}
	for _, name := range loadOrder {
		if !touched[name] {
			continue
		}
		t := tables[name]
		records, err := t.selectWhere(ctx, tx, "", nil)
		if err != nil {
			discard()
			return nil, err
		}
		lines, err := marshalRecords(records)
		if err != nil {
			discard()
			return nil, err
		}
		s, err := stageJSONL(filepath.Join(b.config.DataDir, t.file), lines)
		if err != nil {
			discard()
			return nil, fmt.Errorf("staging %s: %w", t.file, err)
		}
		staged = append(staged, s)
		snaps = append(snaps, types.Snapshot{Collection: name, Records: records})
	}

	if err := tx.Commit(); err != nil {
		discard()
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	// Renames follow loadOrder so links land last: a failed rename leaves
	// missing links rather than links to rows that were never persisted.
	for i, s := range staged {
		if err := s.commit(); err != nil {
			for _, rest := range staged[i+1:] {
				rest.discard()
			}
			b.logger.Error("database and JSONL diverged", zap.String("file", s.target), zap.Error(err))
			return nil, fmt.Errorf("persisting %s: %w", s.target, err)
		}
	}

	for _, snap := range snaps {
		b.versions[snap.Collection]++
		snap.Version = b.versions[snap.Collection]
		b.hub.publish(snap)
	}
	b.logger.Debug("committed", zap.Int("ops", len(ops)), zap.Int("collections", len(snaps)))
	return ids, nil
}

func applyOp(ctx context.Context, tx *sql.Tx, op types.Op) (string, error) {
	t, err := tableFor(op.Collection)
	if err != nil {
		return "", err
	}
	switch op.Kind {
	case types.OpCreate:
		return t.insert(ctx, tx, op.Data)
	case types.OpUpdate:
		return op.ID, t.update(ctx, tx, op.ID, op.Fields)
	case types.OpDelete:
		return op.ID, t.delete(ctx, tx, op.ID)
	case types.OpClear:
		return "", t.clear(ctx, tx)
	default:
		return "", fmt.Errorf("%w: unknown op kind %q", types.ErrInvalidData, op.Kind)
	}
}

// Compile-time interface check.
var _ types.Backend = (*Backend)(nil)
