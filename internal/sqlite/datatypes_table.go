package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mesh-intelligence/datacatalog/pkg/types"
)

var dataTypesTable = &table{
	collection: types.CollectionDataTypes,
	name:       "data_types",
	file:       "data_types.jsonl",
	columns: []string{
		"id", "name", "description", "category", "priority", "status",
		"format", "notes", "standards", "indicators", "created_at",
	},
	kinds: map[string]columnKind{
		"id": kindText, "name": kindText, "description": kindText,
		"category": kindText, "priority": kindText, "status": kindText,
		"format": kindText, "notes": kindText, "standards": kindText,
		"indicators": kindText, "created_at": kindText,
	},
	immutable: map[string]bool{"id": true, "created_at": true},
	prepare:   prepareDataType,
	scan:      scanDataType,
	decode: func(raw json.RawMessage) (any, error) {
		var d types.DataType
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		return &d, nil
	},
}

func prepareDataType(data any, now time.Time) (string, []any, error) {
	d, ok := data.(*types.DataType)
	if !ok {
		return "", nil, types.ErrInvalidData
	}
	if d.Name == "" {
		return "", nil, types.ErrInvalidName
	}
	if d.ID == "" {
		d.ID = newUUID()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	return d.ID, []any{
		d.ID, d.Name, d.Description, d.Category, d.Priority, d.Status,
		d.Format, d.Notes, d.Standards, d.Indicators, formatTime(d.CreatedAt),
	}, nil
}

func scanDataType(s scanner) (any, error) {
	var d types.DataType
	var createdAt string
	if err := s.Scan(&d.ID, &d.Name, &d.Description, &d.Category, &d.Priority, &d.Status,
		&d.Format, &d.Notes, &d.Standards, &d.Indicators, &createdAt); err != nil {
		return nil, err
	}
	var err error
	d.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing data type created_at: %w", err)
	}
	return &d, nil
}
