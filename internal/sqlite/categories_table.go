package sqlite

import (
	"encoding/json"
	"time"

	"github.com/mesh-intelligence/datacatalog/pkg/types"
)

var categoriesTable = &table{
	collection: types.CollectionCategories,
	name:       "categories",
	file:       "categories.jsonl",
	columns:    []string{"id", "name", "description"},
	kinds: map[string]columnKind{
		"id": kindText, "name": kindText, "description": kindText,
	},
	immutable: map[string]bool{"id": true},
	prepare:   prepareCategory,
	scan: func(s scanner) (any, error) {
		var c types.Category
		if err := s.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, err
		}
		return &c, nil
	},
	decode: func(raw json.RawMessage) (any, error) {
		var c types.Category
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		return &c, nil
	},
}

// prepareCategory refuses the placeholder so it can never reach storage
// through any write path.
func prepareCategory(data any, _ time.Time) (string, []any, error) {
	c, ok := data.(*types.Category)
	if !ok {
		return "", nil, types.ErrInvalidData
	}
	if c.Name == "" {
		return "", nil, types.ErrInvalidName
	}
	if c.IsPlaceholder() {
		return "", nil, types.ErrProtectedCategory
	}
	if c.ID == "" {
		c.ID = newUUID()
	}
	return c.ID, []any{c.ID, c.Name, c.Description}, nil
}
