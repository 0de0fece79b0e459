// Package categories manages the category lifecycle: creation, rename with
// cascading reassignment of data types, deletion with fallback to the
// Uncategorized placeholder, and placeholder synthesis for read views.
package categories

import (
	"context"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/datacatalog/pkg/types"
)

// Manager applies category mutations through the persistence backend.
type Manager struct {
	backend types.Persistence
	strict  bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithStrictDelete makes Delete reject a category that data types still
// reference instead of moving them to Uncategorized.
func WithStrictDelete(strict bool) Option {
	return func(m *Manager) { m.strict = strict }
}

// New returns a Manager writing through backend.
func New(backend types.Persistence, opts ...Option) *Manager {
	m := &Manager{backend: backend}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Add creates a category and returns its id. The name must be unique and
// must not be the placeholder's.
func (m *Manager) Add(ctx context.Context, c *types.Category) (string, error) {
	if c == nil {
		return "", types.ErrInvalidData
	}
	c.Name = strings.TrimSpace(c.Name)
	if err := types.ValidateEntity(c); err != nil {
		return "", err
	}
	if c.IsPlaceholder() {
		return "", fmt.Errorf("%w: %q is reserved", types.ErrProtectedCategory, types.UncategorizedName)
	}
	if err := m.requireFreeName(ctx, c.Name, ""); err != nil {
		return "", err
	}
	return m.backend.Create(ctx, types.CollectionCategories, c)
}

// Update changes a category's name and description. A rename rewrites the
// category of every data type that used the old name in the same batch.
func (m *Manager) Update(ctx context.Context, c *types.Category) error {
	if c == nil || c.ID == "" {
		return types.ErrInvalidID
	}
	if c.ID == types.UncategorizedID {
		return fmt.Errorf("%w: the placeholder cannot be edited", types.ErrProtectedCategory)
	}
	c.Name = strings.TrimSpace(c.Name)
	if err := types.ValidateEntity(c); err != nil {
		return err
	}
	if c.Name == types.UncategorizedName {
		return fmt.Errorf("%w: %q is reserved", types.ErrProtectedCategory, types.UncategorizedName)
	}

	existing, err := m.byID(ctx, c.ID)
	if err != nil {
		return err
	}
	if existing.IsPlaceholder() {
		return fmt.Errorf("%w: the placeholder cannot be edited", types.ErrProtectedCategory)
	}
	ops := []types.Op{types.UpdateOp(types.CollectionCategories, c.ID, map[string]any{
		"name":        c.Name,
		"description": c.Description,
	})}

	if c.Name != existing.Name {
		if err := m.requireFreeName(ctx, c.Name, c.ID); err != nil {
			return err
		}
		reassign, err := m.reassignOps(ctx, existing.Name, c.Name)
		if err != nil {
			return err
		}
		ops = append(ops, reassign...)
	}
	return m.backend.Batch(ctx, ops)
}

// Delete removes a category. Data types in it move to Uncategorized in the
// same batch, or, with strict delete, the call fails with ErrCategoryInUse.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	if id == types.UncategorizedID {
		return fmt.Errorf("%w: the placeholder cannot be deleted", types.ErrProtectedCategory)
	}
	existing, err := m.byID(ctx, id)
	if err != nil {
		return err
	}
	if existing.IsPlaceholder() {
		return fmt.Errorf("%w: the placeholder cannot be deleted", types.ErrProtectedCategory)
	}

	reassign, err := m.reassignOps(ctx, existing.Name, types.UncategorizedName)
	if err != nil {
		return err
	}
	if m.strict && len(reassign) > 0 {
		return fmt.Errorf("%w: %q is used by %d data types", types.ErrCategoryInUse, existing.Name, len(reassign))
	}
	ops := append(reassign, types.DeleteOp(types.CollectionCategories, id))
	return m.backend.Batch(ctx, ops)
}

// Resolve maps a requested category name to the name a data type should
// store. Empty means Uncategorized; any other name must exist.
func (m *Manager) Resolve(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == types.UncategorizedName {
		return types.UncategorizedName, nil
	}
	found, err := m.backend.QueryWhere(ctx, types.CollectionCategories, "name", name)
	if err != nil {
		return "", err
	}
	if len(found) == 0 {
		return "", fmt.Errorf("%w: %q does not exist", types.ErrInvalidCategory, name)
	}
	return name, nil
}

func (m *Manager) byID(ctx context.Context, id string) (*types.Category, error) {
	found, err := m.backend.QueryWhere(ctx, types.CollectionCategories, "id", id)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: category %s", types.ErrNotFound, id)
	}
	return found[0].(*types.Category), nil
}

func (m *Manager) requireFreeName(ctx context.Context, name, selfID string) error {
	found, err := m.backend.QueryWhere(ctx, types.CollectionCategories, "name", name)
	if err != nil {
		return err
	}
	for _, rec := range found {
		if rec.(*types.Category).ID != selfID {
			return fmt.Errorf("%w: category %q already exists", types.ErrDuplicateName, name)
		}
	}
	return nil
}

// reassignOps returns one update per data type whose category is from,
// moving it to to.
func (m *Manager) reassignOps(ctx context.Context, from, to string) ([]types.Op, error) {
	found, err := m.backend.QueryWhere(ctx, types.CollectionDataTypes, "category", from)
	if err != nil {
		return nil, err
	}
	ops := make([]types.Op, 0, len(found))
	for _, rec := range found {
		dt := rec.(*types.DataType)
		ops = append(ops, types.UpdateOp(types.CollectionDataTypes, dt.ID, map[string]any{"category": to}))
	}
	return ops, nil
}

// Materialize returns stored with the placeholder appended when no stored
// category already carries its name.
func Materialize(stored []types.Category) []types.Category {
	out := make([]types.Category, 0, len(stored)+1)
	out = append(out, stored...)
	for _, c := range stored {
		if c.Name == types.UncategorizedName {
			return out
		}
	}
	return append(out, types.Uncategorized())
}

// Persistable drops the placeholder from cats.
func Persistable(cats []types.Category) []types.Category {
	out := make([]types.Category, 0, len(cats))
	for _, c := range cats {
		if !c.IsPlaceholder() {
			out = append(out, c)
		}
	}
	return out
}
