package sqlite

import (
	"encoding/json"
	"time"

	"github.com/mesh-intelligence/datacatalog/pkg/types"
)

var linksTable = &table{
	collection: types.CollectionLinks,
	name:       "data_type_datasets",
	file:       "data_type_datasets.jsonl",
	columns:    []string{"id", "data_type_id", "dataset_id"},
	kinds: map[string]columnKind{
		"id": kindText, "data_type_id": kindText, "dataset_id": kindText,
	},
	immutable: map[string]bool{"id": true},
	prepare:   prepareLink,
	scan: func(s scanner) (any, error) {
		var l types.Link
		if err := s.Scan(&l.ID, &l.DataTypeID, &l.DatasetID); err != nil {
			return nil, err
		}
		return &l, nil
	},
	decode: func(raw json.RawMessage) (any, error) {
		var l types.Link
		if err := json.Unmarshal(raw, &l); err != nil {
			return nil, err
		}
		return &l, nil
	},
}

func prepareLink(data any, _ time.Time) (string, []any, error) {
	l, ok := data.(*types.Link)
	if !ok {
		return "", nil, types.ErrInvalidData
	}
	if l.DataTypeID == "" || l.DatasetID == "" {
		return "", nil, types.ErrInvalidData
	}
	if l.ID == "" {
		l.ID = newUUID()
	}
	return l.ID, []any{l.ID, l.DataTypeID, l.DatasetID}, nil
}
