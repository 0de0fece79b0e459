package types

import "time"

// Dataset is a concrete, linkable real-world data source.
type Dataset struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name" validate:"required,max=200"`
	SourceURL          string    `json:"source_url" validate:"omitempty,max=2048,url"`
	Description        string    `json:"description" validate:"max=5000"`
	SourceOrganization string    `json:"source_organization" validate:"max=200"`
	SourceType         string    `json:"source_type" validate:"max=100"`
	Format             string    `json:"format" validate:"max=200"`
	GeographicCoverage string    `json:"geographic_coverage" validate:"max=500"`
	TemporalCoverage   string    `json:"temporal_coverage" validate:"max=500"`
	IsValidated        bool      `json:"is_validated"`
	IsPrimaryExample   bool      `json:"is_primary_example"`
	Notes              string    `json:"notes" validate:"max=10000"`
	CreatedAt          time.Time `json:"created_at"`
}

// Fields returns the mutable columns of the dataset for a partial update.
func (d *Dataset) Fields() map[string]any {
	return map[string]any{
		"name":                d.Name,
		"source_url":          d.SourceURL,
		"description":         d.Description,
		"source_organization": d.SourceOrganization,
		"source_type":         d.SourceType,
		"format":              d.Format,
		"geographic_coverage": d.GeographicCoverage,
		"temporal_coverage":   d.TemporalCoverage,
		"is_validated":        d.IsValidated,
		"is_primary_example":  d.IsPrimaryExample,
		"notes":               d.Notes,
	}
}
