package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mesh-intelligence/datacatalog/pkg/types"
)

var datasetsTable = &table{
	collection: types.CollectionDatasets,
	name:       "datasets",
	file:       "datasets.jsonl",
	columns: []string{
		"id", "name", "source_url", "description", "source_organization",
		"source_type", "format", "geographic_coverage", "temporal_coverage",
		"is_validated", "is_primary_example", "notes", "created_at",
	},
	kinds: map[string]columnKind{
		"id": kindText, "name": kindText, "source_url": kindText,
		"description": kindText, "source_organization": kindText,
		"source_type": kindText, "format": kindText,
		"geographic_coverage": kindText, "temporal_coverage": kindText,
		"is_validated": kindBool, "is_primary_example": kindBool,
		"notes": kindText, "created_at": kindText,
	},
	immutable: map[string]bool{"id": true, "created_at": true},
	prepare:   prepareDataset,
	scan:      scanDataset,
	decode: func(raw json.RawMessage) (any, error) {
		var d types.Dataset
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		return &d, nil
	},
}

func prepareDataset(data any, now time.Time) (string, []any, error) {
	d, ok := data.(*types.Dataset)
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
		d.ID, d.Name, d.SourceURL, d.Description, d.SourceOrganization,
		d.SourceType, d.Format, d.GeographicCoverage, d.TemporalCoverage,
		d.IsValidated, d.IsPrimaryExample, d.Notes, formatTime(d.CreatedAt),
	}, nil
}

func scanDataset(s scanner) (any, error) {
	var d types.Dataset
	var createdAt string
	if err := s.Scan(&d.ID, &d.Name, &d.SourceURL, &d.Description, &d.SourceOrganization,
		&d.SourceType, &d.Format, &d.GeographicCoverage, &d.TemporalCoverage,
		&d.IsValidated, &d.IsPrimaryExample, &d.Notes, &createdAt); err != nil {
		return nil, err
	}
	var err error
	d.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing dataset created_at: %w", err)
	}
	return &d, nil
}
