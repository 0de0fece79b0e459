package categories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/datacatalog/internal/sqlite"
	"github.com/mesh-intelligence/datacatalog/pkg/types"
)

func newBackend(t *testing.T) *sqlite.Backend {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })
	return b
}

func addDataType(t *testing.T, b *sqlite.Backend, name, category string) string {
	t.Helper()
	dt := &types.DataType{Name: name, Category: category}
	dt.ApplyDefaults()
	id, err := b.Create(context.Background(), types.CollectionDataTypes, dt)
	require.NoError(t, err)
	return id
}

func categoryOf(t *testing.T, b *sqlite.Backend, dataTypeID string) string {
	t.Helper()
	recs, err := b.QueryWhere(context.Background(), types.CollectionDataTypes, "id", dataTypeID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	return recs[0].(*types.DataType).Category
}

func TestAdd(t *testing.T) {
	ctx := context.Background()
	m := New(newBackend(t))

	id, err := m.Add(ctx, &types.Category{Name: "  Climate "})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	tests := []struct {
		name    string
		cat     *types.Category
		wantErr error
	}{
		{"nil", nil, types.ErrInvalidData},
		{"blank name", &types.Category{Name: "   "}, types.ErrInvalidName},
		{"placeholder name", &types.Category{Name: types.UncategorizedName}, types.ErrProtectedCategory},
		{"duplicate after trim", &types.Category{Name: "Climate"}, types.ErrDuplicateName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Add(ctx, tt.cat)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUpdate_RenameCascades(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	m := New(b)

	id, err := m.Add(ctx, &types.Category{Name: "Climate"})
	require.NoError(t, err)
	_, err = m.Add(ctx, &types.Category{Name: "Land"})
	require.NoError(t, err)
	rain := addDataType(t, b, "Rainfall", "Climate")
	soil := addDataType(t, b, "Soil", "Land")

	require.NoError(t, m.Update(ctx, &types.Category{ID: id, Name: "Weather", Description: "renamed"}))
	assert.Equal(t, "Weather", categoryOf(t, b, rain))
	assert.Equal(t, "Land", categoryOf(t, b, soil))

	assert.ErrorIs(t, m.Update(ctx, &types.Category{ID: id, Name: "Land"}), types.ErrDuplicateName)
	assert.ErrorIs(t, m.Update(ctx, &types.Category{ID: id, Name: types.UncategorizedName}), types.ErrProtectedCategory)
	assert.ErrorIs(t, m.Update(ctx, &types.Category{ID: types.UncategorizedID, Name: "X"}), types.ErrProtectedCategory)
	assert.ErrorIs(t, m.Update(ctx, &types.Category{ID: "missing", Name: "X"}), types.ErrNotFound)
	assert.ErrorIs(t, m.Update(ctx, &types.Category{Name: "X"}), types.ErrInvalidID)

	require.NoError(t, m.Update(ctx, &types.Category{ID: id, Name: "Weather", Description: "same name"}))
}

func TestUpdate_RejectsRenameFromReservedName(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	m := New(b)

	id, err := m.Add(ctx, &types.Category{Name: "Climate"})
	require.NoError(t, err)
	// Only a raw backend write can give a stored category the reserved name.
	require.NoError(t, b.Update(ctx, types.CollectionCategories, id, map[string]any{"name": types.UncategorizedName}))

	err = m.Update(ctx, &types.Category{ID: id, Name: "Weather"})
	assert.ErrorIs(t, err, types.ErrProtectedCategory)

	recs, err := b.QueryWhere(ctx, types.CollectionCategories, "id", id)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, types.UncategorizedName, recs[0].(*types.Category).Name)
}

func TestDelete_ReassignsToUncategorized(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	m := New(b)

	id, err := m.Add(ctx, &types.Category{Name: "Climate"})
	require.NoError(t, err)
	rain := addDataType(t, b, "Rainfall", "Climate")

	require.NoError(t, m.Delete(ctx, id))
	assert.Equal(t, types.UncategorizedName, categoryOf(t, b, rain))

	recs, err := b.QueryWhere(ctx, types.CollectionCategories, "", nil)
	require.NoError(t, err)
	assert.Empty(t, recs)

	assert.ErrorIs(t, m.Delete(ctx, id), types.ErrNotFound)
	assert.ErrorIs(t, m.Delete(ctx, types.UncategorizedID), types.ErrProtectedCategory)
	assert.ErrorIs(t, m.Delete(ctx, ""), types.ErrInvalidID)
}

func TestDelete_Strict(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	m := New(b, WithStrictDelete(true))

	used, err := m.Add(ctx, &types.Category{Name: "Climate"})
	require.NoError(t, err)
	unused, err := m.Add(ctx, &types.Category{Name: "Land"})
	require.NoError(t, err)
	rain := addDataType(t, b, "Rainfall", "Climate")

	assert.ErrorIs(t, m.Delete(ctx, used), types.ErrCategoryInUse)
	assert.Equal(t, "Climate", categoryOf(t, b, rain))
	assert.NoError(t, m.Delete(ctx, unused))
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	m := New(newBackend(t))
	_, err := m.Add(ctx, &types.Category{Name: "Climate"})
	require.NoError(t, err)

	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{"", types.UncategorizedName, nil},
		{"  ", types.UncategorizedName, nil},
		{types.UncategorizedName, types.UncategorizedName, nil},
		{"Climate", "Climate", nil},
		{"Ocean", "", types.ErrInvalidCategory},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := m.Resolve(ctx, tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMaterializeAndPersistable(t *testing.T) {
	stored := []types.Category{{ID: "c1", Name: "Climate"}}

	got := Materialize(stored)
	require.Len(t, got, 2)
	assert.Equal(t, types.Uncategorized(), got[1])
	assert.Len(t, stored, 1, "input is not modified")

	assert.Equal(t, stored, Persistable(got))
	assert.Len(t, Materialize(nil), 1)

	withName := []types.Category{{ID: "x", Name: types.UncategorizedName}}
	assert.Len(t, Materialize(withName), 1, "no second placeholder")
}
