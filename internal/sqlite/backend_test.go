package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/datacatalog/pkg/types"
)

func attach(t *testing.T, dir string) *Backend {
	t.Helper()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	t.Cleanup(func() { b.Detach() })
	return b
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var lines []string
	for _, l := range strings.Split(string(data), "\n") {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func TestBackend_Attach(t *testing.T) {
	dir := t.TempDir()
	b := attach(t, dir)

	assert.FileExists(t, filepath.Join(dir, dbFile))
	for _, name := range loadOrder {
		assert.FileExists(t, filepath.Join(dir, tables[name].file))
	}
	assert.ErrorIs(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}), types.ErrAlreadyAttached)
}

func TestBackend_AttachRejectsBadConfig(t *testing.T) {
	b := NewBackend()
	assert.ErrorIs(t, b.Attach(types.Config{DataDir: t.TempDir()}), types.ErrBackendEmpty)
	assert.ErrorIs(t, b.Attach(types.Config{Backend: "redis", DataDir: t.TempDir()}), types.ErrBackendUnknown)
}

func TestBackend_Detach(t *testing.T) {
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	require.NoError(t, b.Detach())
	assert.NoError(t, b.Detach(), "Detach is idempotent")

	ctx := context.Background()
	_, err := b.Create(ctx, types.CollectionCategories, &types.Category{Name: "Climate"})
	assert.ErrorIs(t, err, types.ErrBackendDetached)
	_, err = b.QueryWhere(ctx, types.CollectionCategories, "", nil)
	assert.ErrorIs(t, err, types.ErrBackendDetached)
	_, err = b.Subscribe(types.CollectionCategories, func(types.Snapshot) {})
	assert.ErrorIs(t, err, types.ErrBackendDetached)
}

func TestBackend_CreateAndQuery(t *testing.T) {
	ctx := context.Background()
	b := attach(t, t.TempDir())

	dt := &types.DataType{Name: "Rainfall", Category: "Climate", Priority: types.PriorityLow, Status: types.StatusNotStarted}
	id, err := b.Create(ctx, types.CollectionDataTypes, dt)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, dt.ID)
	assert.False(t, dt.CreatedAt.IsZero())

	kept, err := b.Create(ctx, types.CollectionDataTypes, &types.DataType{ID: "fixed-id", Name: "Soil", Category: "Land"})
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", kept)

	all, err := b.QueryWhere(ctx, types.CollectionDataTypes, "", nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Rainfall", all[0].(*types.DataType).Name, "insertion order")

	got, err := b.QueryWhere(ctx, types.CollectionDataTypes, "category", "Land")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "fixed-id", got[0].(*types.DataType).ID)

	_, err = b.QueryWhere(ctx, types.CollectionDataTypes, "bogus", "x")
	assert.ErrorIs(t, err, types.ErrInvalidField)
	_, err = b.QueryWhere(ctx, "widgets", "", nil)
	assert.ErrorIs(t, err, types.ErrUnknownCollection)
}

func TestBackend_CreateRejects(t *testing.T) {
	ctx := context.Background()
	b := attach(t, t.TempDir())

	tests := []struct {
		name       string
		collection string
		data       any
		wantErr    error
	}{
		{"wrong entity type", types.CollectionDatasets, &types.Category{Name: "x"}, types.ErrInvalidData},
		{"missing name", types.CollectionDatasets, &types.Dataset{}, types.ErrInvalidName},
		{"placeholder category", types.CollectionCategories, &types.Category{Name: types.UncategorizedName}, types.ErrProtectedCategory},
		{"dangling link", types.CollectionLinks, &types.Link{DataTypeID: "nope", DatasetID: "nope"}, types.ErrDanglingLink},
		{"empty link", types.CollectionLinks, &types.Link{}, types.ErrInvalidData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Create(ctx, tt.collection, tt.data)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBackend_DuplicateCategoryName(t *testing.T) {
	ctx := context.Background()
	b := attach(t, t.TempDir())

	_, err := b.Create(ctx, types.CollectionCategories, &types.Category{Name: "Climate"})
	require.NoError(t, err)
	_, err = b.Create(ctx, types.CollectionCategories, &types.Category{Name: "Climate"})
	assert.ErrorIs(t, err, types.ErrDuplicateName)
}

func TestBackend_Update(t *testing.T) {
	ctx := context.Background()
	b := attach(t, t.TempDir())

	ds := &types.Dataset{Name: "ERA5"}
	id, err := b.Create(ctx, types.CollectionDatasets, ds)
	require.NoError(t, err)

	require.NoError(t, b.Update(ctx, types.CollectionDatasets, id, map[string]any{
		"name":         "ERA5-Land",
		"is_validated": true,
	}))
	got, err := b.QueryWhere(ctx, types.CollectionDatasets, "id", id)
	require.NoError(t, err)
	require.Len(t, got, 1)
	updated := got[0].(*types.Dataset)
	assert.Equal(t, "ERA5-Land", updated.Name)
	assert.True(t, updated.IsValidated)
	assert.True(t, ds.CreatedAt.Equal(updated.CreatedAt))

	assert.ErrorIs(t, b.Update(ctx, types.CollectionDatasets, "missing", map[string]any{"name": "x"}), types.ErrNotFound)
	assert.ErrorIs(t, b.Update(ctx, types.CollectionDatasets, id, map[string]any{"created_at": "x"}), types.ErrInvalidField)
	assert.ErrorIs(t, b.Update(ctx, types.CollectionDatasets, id, map[string]any{"is_validated": "yes"}), types.ErrInvalidField)
	assert.ErrorIs(t, b.Update(ctx, types.CollectionDatasets, id, nil), types.ErrInvalidField)
	assert.ErrorIs(t, b.Update(ctx, types.CollectionDatasets, "", map[string]any{"name": "x"}), types.ErrInvalidID)
}

func TestBackend_DeleteLinkedEntityFails(t *testing.T) {
	ctx := context.Background()
	b := attach(t, t.TempDir())

	dtID, err := b.Create(ctx, types.CollectionDataTypes, &types.DataType{Name: "Rainfall", Category: "Climate"})
	require.NoError(t, err)
	dsID, err := b.Create(ctx, types.CollectionDatasets, &types.Dataset{Name: "ERA5"})
	require.NoError(t, err)
	_, err = b.Create(ctx, types.CollectionLinks, &types.Link{DataTypeID: dtID, DatasetID: dsID})
	require.NoError(t, err)

	_, err = b.Create(ctx, types.CollectionLinks, &types.Link{DataTypeID: dtID, DatasetID: dsID})
	assert.ErrorIs(t, err, types.ErrConflict, "pair is unique")

	assert.ErrorIs(t, b.Delete(ctx, types.CollectionDatasets, dsID), types.ErrDanglingLink)
	assert.ErrorIs(t, b.Delete(ctx, types.CollectionDatasets, "missing"), types.ErrNotFound)
}

func TestBackend_BatchIsAtomic(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b := attach(t, dir)

	_, err := b.Create(ctx, types.CollectionCategories, &types.Category{ID: "c1", Name: "Climate"})
	require.NoError(t, err)
	before := readLines(t, filepath.Join(dir, categoriesTable.file))

	err = b.Batch(ctx, []types.Op{
		types.CreateOp(types.CollectionCategories, &types.Category{Name: "Land"}),
		types.DeleteOp(types.CollectionCategories, "missing"),
	})
	require.ErrorIs(t, err, types.ErrNotFound)

	all, err := b.QueryWhere(ctx, types.CollectionCategories, "", nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, before, readLines(t, filepath.Join(dir, categoriesTable.file)))

	matches, err := filepath.Glob(filepath.Join(dir, ".jsonl-*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches, "staged files are cleaned up")
}

func TestBackend_BatchClearAndRecreate(t *testing.T) {
	ctx := context.Background()
	b := attach(t, t.TempDir())

	_, err := b.Create(ctx, types.CollectionCategories, &types.Category{ID: "c1", Name: "Climate"})
	require.NoError(t, err)

	require.NoError(t, b.Batch(ctx, []types.Op{
		types.ClearOp(types.CollectionCategories),
		types.CreateOp(types.CollectionCategories, &types.Category{ID: "c2", Name: "Climate"}),
	}))
	all, err := b.QueryWhere(ctx, types.CollectionCategories, "", nil)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "c2", all[0].(*types.Category).ID)
	assert.NoError(t, b.Batch(ctx, nil))
}

func TestBackend_PersistsAcrossAttach(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	b := NewBackend()
	cfg := types.Config{Backend: types.BackendSQLite, DataDir: dir}
	require.NoError(t, b.Attach(cfg))
	dtID, err := b.Create(ctx, types.CollectionDataTypes, &types.DataType{Name: "Rainfall", Category: "Climate"})
	require.NoError(t, err)
	dsID, err := b.Create(ctx, types.CollectionDatasets, &types.Dataset{Name: "ERA5", IsPrimaryExample: true})
	require.NoError(t, err)
	_, err = b.Create(ctx, types.CollectionLinks, &types.Link{DataTypeID: dtID, DatasetID: dsID})
	require.NoError(t, err)
	require.NoError(t, b.Detach())

	assert.Len(t, readLines(t, filepath.Join(dir, linksTable.file)), 1)

	b2 := attach(t, dir)
	links, err := b2.QueryWhere(ctx, types.CollectionLinks, "dataset_id", dsID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, dtID, links[0].(*types.Link).DataTypeID)

	ds, err := b2.QueryWhere(ctx, types.CollectionDatasets, "is_primary_example", true)
	require.NoError(t, err)
	assert.Len(t, ds, 1)
}

func TestBackend_Subscribe(t *testing.T) {
	ctx := context.Background()
	b := attach(t, t.TempDir())

	var mu sync.Mutex
	var snaps []types.Snapshot
	unsubscribe, err := b.Subscribe(types.CollectionCategories, func(s types.Snapshot) {
		mu.Lock()
		snaps = append(snaps, s)
		mu.Unlock()
	})
	require.NoError(t, err)

	latest := func() (types.Snapshot, bool) {
		mu.Lock()
		defer mu.Unlock()
		if len(snaps) == 0 {
			return types.Snapshot{}, false
		}
		return snaps[len(snaps)-1], true
	}

	require.Eventually(t, func() bool {
		s, ok := latest()
		return ok && s.Version == 0 && len(s.Records) == 0
	}, time.Second, 5*time.Millisecond)

	_, err = b.Create(ctx, types.CollectionCategories, &types.Category{Name: "Climate"})
	require.NoError(t, err)
	_, err = b.Create(ctx, types.CollectionDatasets, &types.Dataset{Name: "ERA5"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		s, ok := latest()
		return ok && s.Version == 1 && len(s.Records) == 1
	}, time.Second, 5*time.Millisecond)

	unsubscribe()
	_, err = b.Create(ctx, types.CollectionCategories, &types.Category{Name: "Land"})
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	s, _ := latest()
	assert.Equal(t, uint64(1), s.Version, "no delivery after unsubscribe")

	mu.Lock()
	for _, snap := range snaps {
		assert.Equal(t, types.CollectionCategories, snap.Collection)
	}
	mu.Unlock()
}

func TestBackend_SubscribeRejects(t *testing.T) {
	b := attach(t, t.TempDir())
	_, err := b.Subscribe("widgets", func(types.Snapshot) {})
	assert.ErrorIs(t, err, types.ErrUnknownCollection)
	_, err = b.Subscribe(types.CollectionLinks, nil)
	assert.ErrorIs(t, err, types.ErrInvalidData)
}

func TestBackend_OversizedRecordRejected(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))

	dt := &types.DataType{
		Name:     "Rainfall",
		Priority: types.PriorityLow,
		Status:   types.StatusNotStarted,
		Notes:    strings.Repeat("x", maxLineBytes),
	}
	_, err := b.Create(ctx, types.CollectionDataTypes, dt)
	assert.ErrorIs(t, err, types.ErrInvalidData)

	got, err := b.QueryWhere(ctx, types.CollectionDataTypes, "", nil)
	require.NoError(t, err)
	assert.Empty(t, got, "rejected record is rolled back")
	require.NoError(t, b.Detach())

	b = attach(t, dir)
	got, err = b.QueryWhere(ctx, types.CollectionDataTypes, "", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBackend_LinksPersistLast(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))

	// A directory in place of the links file makes its rename fail.
	linksFile := filepath.Join(dir, linksTable.file)
	require.NoError(t, os.Remove(linksFile))
	require.NoError(t, os.Mkdir(linksFile, 0o755))

	err := b.Batch(ctx, []types.Op{
		types.CreateOp(types.CollectionDatasets, &types.Dataset{ID: "B", Name: "ERA5"}),
		types.CreateOp(types.CollectionDataTypes, &types.DataType{ID: "T1", Name: "Rainfall", Priority: types.PriorityLow, Status: types.StatusNotStarted}),
		types.CreateOp(types.CollectionLinks, &types.Link{DataTypeID: "T1", DatasetID: "B"}),
	})
	require.Error(t, err)
	assert.Len(t, readLines(t, filepath.Join(dir, datasetsTable.file)), 1)
	assert.Len(t, readLines(t, filepath.Join(dir, dataTypesTable.file)), 1)
	require.NoError(t, b.Detach())

	require.NoError(t, os.Remove(linksFile))
	b = attach(t, dir)
	links, err := b.QueryWhere(ctx, types.CollectionLinks, "", nil)
	require.NoError(t, err)
	assert.Empty(t, links)
	datasets, err := b.QueryWhere(ctx, types.CollectionDatasets, "", nil)
	require.NoError(t, err)
	assert.Len(t, datasets, 1)
}
