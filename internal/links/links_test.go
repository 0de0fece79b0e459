package links

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/datacatalog/internal/sqlite"
	"github.com/mesh-intelligence/datacatalog/pkg/types"
)

type fixture struct {
	backend *sqlite.Backend
	m       *Manager
	dt1     string
	dt2     string
	ds1     string
	ds2     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })

	f := &fixture{backend: b, m: New(b)}
	var err error
	f.dt1, err = b.Create(ctx, types.CollectionDataTypes, &types.DataType{Name: "Rainfall", Category: types.UncategorizedName})
	require.NoError(t, err)
	f.dt2, err = b.Create(ctx, types.CollectionDataTypes, &types.DataType{Name: "Soil", Category: types.UncategorizedName})
	require.NoError(t, err)
	f.ds1, err = b.Create(ctx, types.CollectionDatasets, &types.Dataset{Name: "ERA5"})
	require.NoError(t, err)
	f.ds2, err = b.Create(ctx, types.CollectionDatasets, &types.Dataset{Name: "SoilGrids"})
	require.NoError(t, err)
	return f
}

// linked returns the sorted opposite ids linked to itemID on side.
func (f *fixture) linked(t *testing.T, itemID string, side types.Side) []string {
	t.Helper()
	recs, err := f.backend.QueryWhere(context.Background(), types.CollectionLinks, side.Column(), itemID)
	require.NoError(t, err)
	out := []string{}
	for _, rec := range recs {
		l := rec.(*types.Link)
		if side == types.SideDataType {
			out = append(out, l.DatasetID)
		} else {
			out = append(out, l.DataTypeID)
		}
	}
	sort.Strings(out)
	return out
}

func sorted(ids ...string) []string {
	sort.Strings(ids)
	return ids
}

func TestReplace(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.m.Replace(ctx, f.dt1, []string{f.ds1, f.ds2, f.ds1}, types.SideDataType))
	assert.Equal(t, sorted(f.ds1, f.ds2), f.linked(t, f.dt1, types.SideDataType), "duplicates collapse")

	require.NoError(t, f.m.Replace(ctx, f.dt1, []string{f.ds2}, types.SideDataType))
	assert.Equal(t, []string{f.ds2}, f.linked(t, f.dt1, types.SideDataType))

	require.NoError(t, f.m.Replace(ctx, f.dt1, nil, types.SideDataType))
	assert.Empty(t, f.linked(t, f.dt1, types.SideDataType))
}

func TestReplace_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, f.m.Replace(ctx, f.ds1, []string{f.dt1, f.dt2}, types.SideDataset))
	}
	assert.Equal(t, sorted(f.dt1, f.dt2), f.linked(t, f.ds1, types.SideDataset))

	all, err := f.backend.QueryWhere(ctx, types.CollectionLinks, "", nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestReplace_SidesAreSymmetric(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.m.Replace(ctx, f.ds1, []string{f.dt1, f.dt2}, types.SideDataset))
	assert.Equal(t, []string{f.ds1}, f.linked(t, f.dt1, types.SideDataType))
	assert.Equal(t, []string{f.ds1}, f.linked(t, f.dt2, types.SideDataType))

	require.NoError(t, f.m.Replace(ctx, f.dt1, []string{f.ds2}, types.SideDataType))
	assert.Equal(t, []string{f.dt2}, f.linked(t, f.ds1, types.SideDataset), "other endpoints untouched")
}

func TestReplace_RejectsBeforeWriting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.m.Replace(ctx, f.dt1, []string{f.ds1}, types.SideDataType))

	tests := []struct {
		name    string
		itemID  string
		ids     []string
		side    types.Side
		wantErr error
	}{
		{"dangling target", f.dt1, []string{f.ds2, "ghost"}, types.SideDataType, types.ErrDanglingLink},
		{"target on wrong side", f.dt1, []string{f.dt2}, types.SideDataType, types.ErrDanglingLink},
		{"missing item", "ghost", []string{f.ds1}, types.SideDataType, types.ErrNotFound},
		{"bad side", f.dt1, nil, types.Side("trail"), types.ErrInvalidSide},
		{"empty item", "", nil, types.SideDataType, types.ErrInvalidID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, f.m.Replace(ctx, tt.itemID, tt.ids, tt.side), tt.wantErr)
			assert.Equal(t, []string{f.ds1}, f.linked(t, f.dt1, types.SideDataType))
		})
	}
}

func TestCleanupOps(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.m.Replace(ctx, f.ds1, []string{f.dt1, f.dt2}, types.SideDataset))

	ops, err := f.m.CleanupOps(ctx, f.ds1, types.SideDataset)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	for _, op := range ops {
		assert.Equal(t, types.OpDelete, op.Kind)
		assert.Equal(t, types.CollectionLinks, op.Collection)
	}

	ops, err = f.m.CleanupOps(ctx, f.ds2, types.SideDataset)
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Dedupe([]string{"a", "", "b", "a"}))
	assert.Empty(t, Dedupe(nil))
}
