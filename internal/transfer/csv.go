package transfer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// CSV section labels, in output order.
const (
	SectionDataTypes        = "DataTypes"
	SectionDatasets         = "Datasets"
	SectionCategories       = "Categories"
	SectionDataTypeDatasets = "DataTypeDatasets"
)

type csvSection struct {
	label  string
	header []string
	rows   [][]string
}

// WriteCSV writes doc as four labeled sections, each a label row, a header
// row and one row per record, separated by blank lines. The output is for
// spreadsheets; it cannot be imported.
func WriteCSV(w io.Writer, doc Document) error {
	cw := csv.NewWriter(w)
	for i, sec := range csvSections(doc) {
		if i > 0 {
			if err := cw.Write([]string{}); err != nil {
				return fmt.Errorf("writing csv: %w", err)
			}
		}
		if err := cw.Write([]string{sec.label}); err != nil {
			return fmt.Errorf("writing csv: %w", err)
		}
		if err := cw.Write(sec.header); err != nil {
			return fmt.Errorf("writing csv: %w", err)
		}
		if err := cw.WriteAll(sec.rows); err != nil {
			return fmt.Errorf("writing csv: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvSections(doc Document) []csvSection {
	dataTypes := csvSection{
		label: SectionDataTypes,
		header: []string{"id", "name", "description", "category", "priority", "status",
			"format", "notes", "standards", "indicators", "created_at"},
	}
	for _, d := range doc.DataTypes {
		dataTypes.rows = append(dataTypes.rows, []string{d.ID, d.Name, d.Description, d.Category,
			d.Priority, d.Status, d.Format, d.Notes, d.Standards, d.Indicators, csvTime(d.CreatedAt)})
	}

	datasets := csvSection{
		label: SectionDatasets,
		header: []string{"id", "name", "source_url", "description", "source_organization",
			"source_type", "format", "geographic_coverage", "temporal_coverage",
			"is_validated", "is_primary_example", "notes", "created_at"},
	}
	for _, d := range doc.Datasets {
		datasets.rows = append(datasets.rows, []string{d.ID, d.Name, d.SourceURL, d.Description,
			d.SourceOrganization, d.SourceType, d.Format, d.GeographicCoverage, d.TemporalCoverage,
			strconv.FormatBool(d.IsValidated), strconv.FormatBool(d.IsPrimaryExample), d.Notes,
			csvTime(d.CreatedAt)})
	}

	cats := csvSection{label: SectionCategories, header: []string{"id", "name", "description"}}
	for _, c := range doc.Categories {
		cats.rows = append(cats.rows, []string{c.ID, c.Name, c.Description})
	}

	links := csvSection{label: SectionDataTypeDatasets, header: []string{"id", "data_type_id", "dataset_id"}}
	for _, l := range doc.DataTypeDatasets {
		links.rows = append(links.rows, []string{l.ID, l.DataTypeID, l.DatasetID})
	}

	return []csvSection{dataTypes, datasets, cats, links}
}

func csvTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
