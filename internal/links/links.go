// Package links keeps the data type to dataset relation consistent by
// replacing the whole link set of one endpoint in a single batch.
package links

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/datacatalog/pkg/types"
)

// Manager replaces and cleans up link sets through the persistence backend.
type Manager struct {
	backend types.Persistence
}

// New returns a Manager writing through backend.
func New(backend types.Persistence) *Manager {
	return &Manager{backend: backend}
}

// Replace makes linkedIDs the complete link set of itemID on side. Input
// ids are deduplicated; every id is checked against storage before any
// write, and the delete of the old set and the create of the new one
// commit together. Repeating a call with the same set is a no-op in
// effect.
func (m *Manager) Replace(ctx context.Context, itemID string, linkedIDs []string, side types.Side) error {
	if !side.Valid() {
		return fmt.Errorf("%w: %q", types.ErrInvalidSide, side)
	}
	if itemID == "" {
		return types.ErrInvalidID
	}

	targets := Dedupe(linkedIDs)
	if err := m.requireExists(ctx, side.Collection(), itemID); err != nil {
		return err
	}
	if err := m.ValidateTargets(ctx, targets, side); err != nil {
		return err
	}

	ops, err := m.CleanupOps(ctx, itemID, side)
	if err != nil {
		return err
	}
	for _, other := range targets {
		ops = append(ops, types.CreateOp(types.CollectionLinks, types.NewLink(side, itemID, other)))
	}
	return m.backend.Batch(ctx, ops)
}

// ValidateTargets checks that every id exists in the collection opposite
// to side. It returns ErrDanglingLink naming the first missing id.
func (m *Manager) ValidateTargets(ctx context.Context, ids []string, side types.Side) error {
	if !side.Valid() {
		return fmt.Errorf("%w: %q", types.ErrInvalidSide, side)
	}
	collection := side.Opposite().Collection()
	for _, id := range ids {
		found, err := m.backend.QueryWhere(ctx, collection, "id", id)
		if err != nil {
			return err
		}
		if len(found) == 0 {
			return fmt.Errorf("%w: %s %q", types.ErrDanglingLink, collection, id)
		}
	}
	return nil
}

// CleanupOps returns the delete ops that remove every link of itemID on
// side. Entity deletion appends its own delete to these and commits them
// as one batch.
func (m *Manager) CleanupOps(ctx context.Context, itemID string, side types.Side) ([]types.Op, error) {
	if !side.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidSide, side)
	}
	existing, err := m.backend.QueryWhere(ctx, types.CollectionLinks, side.Column(), itemID)
	if err != nil {
		return nil, err
	}
	ops := make([]types.Op, 0, len(existing))
	for _, rec := range existing {
		ops = append(ops, types.DeleteOp(types.CollectionLinks, rec.(*types.Link).ID))
	}
	return ops, nil
}

func (m *Manager) requireExists(ctx context.Context, collection, id string) error {
	found, err := m.backend.QueryWhere(ctx, collection, "id", id)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return fmt.Errorf("%w: %s %q", types.ErrNotFound, collection, id)
	}
	return nil
}

// Dedupe returns ids without duplicates or empty strings, keeping first
// occurrence order.
func Dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
