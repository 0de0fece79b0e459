// Package transfer exports the catalog as JSON or CSV and replaces the
// whole catalog from a JSON export in one atomic batch.
package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/datacatalog/internal/categories"
	"github.com/mesh-intelligence/datacatalog/pkg/types"
)

// FormatVersion is written to every JSON export.
const FormatVersion = 1

// Document is the exported catalog. Its JSON form is the import format.
type Document struct {
	Version          int              `json:"version"`
	ExportedAt       time.Time        `json:"exported_at"`
	DataTypes        []types.DataType `json:"dataTypes"`
	Datasets         []types.Dataset  `json:"datasets"`
	Categories       []types.Category `json:"categories"`
	DataTypeDatasets []types.Link     `json:"dataTypeDatasets"`
}

// Result counts the records an import wrote.
type Result struct {
	DataTypes  int `json:"dataTypes"`
	Datasets   int `json:"datasets"`
	Categories int `json:"categories"`
	Links      int `json:"dataTypeDatasets"`
}

// Source is the read view exports are taken from.
type Source interface {
	DataTypes() []types.DataType
	Datasets() []types.Dataset
	Categories() []types.Category
	Links() []types.Link
}

// Engine runs exports and imports.
type Engine struct {
	source    Source
	backend   types.Persistence
	logger    *zap.Logger
	now       func() time.Time
	importing atomic.Bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New returns an Engine exporting from source and importing through
// backend.
func New(source Source, backend types.Persistence, opts ...Option) *Engine {
	e := &Engine{source: source, backend: backend, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export snapshots the current catalog. The Uncategorized placeholder is
// left out.
func (e *Engine) Export() Document {
	doc := Document{
		Version:          FormatVersion,
		ExportedAt:       e.now().UTC(),
		DataTypes:        e.source.DataTypes(),
		Datasets:         e.source.Datasets(),
		Categories:       categories.Persistable(e.source.Categories()),
		DataTypeDatasets: e.source.Links(),
	}
	if doc.DataTypes == nil {
		doc.DataTypes = []types.DataType{}
	}
	if doc.Datasets == nil {
		doc.Datasets = []types.Dataset{}
	}
	if doc.DataTypeDatasets == nil {
		doc.DataTypeDatasets = []types.Link{}
	}
	return doc
}

// WriteJSON writes doc in the re-importable JSON format.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}
	return nil
}

// Import replaces the entire catalog with the contents of a JSON export.
// The payload is fully validated first; if anything is wrong nothing is
// written. Otherwise all four collections are cleared and refilled in a
// single batch with ids preserved. Only one import runs at a time.
func (e *Engine) Import(ctx context.Context, payload []byte) (Result, error) {
	sess, ok := types.SessionFrom(ctx)
	if !ok {
		return Result{}, types.ErrNoSession
	}
	if !e.importing.CompareAndSwap(false, true) {
		return Result{}, types.ErrImportInProgress
	}
	defer e.importing.Store(false)

	doc, err := Parse(payload)
	if err != nil {
		return Result{}, err
	}

	cats := categories.Persistable(doc.Categories)
	ops := []types.Op{
		types.ClearOp(types.CollectionLinks),
		types.ClearOp(types.CollectionDataTypes),
		types.ClearOp(types.CollectionDatasets),
		types.ClearOp(types.CollectionCategories),
	}
	for i := range cats {
		ops = append(ops, types.CreateOp(types.CollectionCategories, &cats[i]))
	}
	for i := range doc.Datasets {
		ops = append(ops, types.CreateOp(types.CollectionDatasets, &doc.Datasets[i]))
	}
	for i := range doc.DataTypes {
		ops = append(ops, types.CreateOp(types.CollectionDataTypes, &doc.DataTypes[i]))
	}
	for i := range doc.DataTypeDatasets {
		ops = append(ops, types.CreateOp(types.CollectionLinks, &doc.DataTypeDatasets[i]))
	}

	if err := e.backend.Batch(ctx, ops); err != nil {
		return Result{}, fmt.Errorf("replacing catalog: %w", err)
	}

	res := Result{
		DataTypes:  len(doc.DataTypes),
		Datasets:   len(doc.Datasets),
		Categories: len(cats),
		Links:      len(doc.DataTypeDatasets),
	}
	e.logger.Info("catalog imported",
		zap.String("user", sess.User),
		zap.Int("data_types", res.DataTypes),
		zap.Int("datasets", res.Datasets),
		zap.Int("categories", res.Categories),
		zap.Int("links", res.Links))
	return res, nil
}

// Parse decodes and validates an export payload without writing anything.
// Data type defaults are applied to the returned document.
func Parse(payload []byte) (Document, error) {
	if err := checkShape(payload); err != nil {
		return Document{}, err
	}
	var doc Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", types.ErrInvalidPayload, err)
	}
	if err := checkDocument(&doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// checkDocument validates every record and every in-payload reference.
func checkDocument(doc *Document) error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{types.ErrInvalidPayload}, args...)...)
	}

	categoryNames := map[string]bool{types.UncategorizedName: true}
	categoryIDs := map[string]bool{}
	for i, c := range doc.Categories {
		if err := types.ValidateEntity(&c); err != nil {
			return invalid("categories[%d]: %v", i, err)
		}
		if c.IsPlaceholder() {
			continue
		}
		if categoryIDs[c.ID] {
			return invalid("categories[%d]: duplicate id %q", i, c.ID)
		}
		if categoryNames[c.Name] {
			return invalid("categories[%d]: duplicate name %q", i, c.Name)
		}
		categoryIDs[c.ID] = true
		categoryNames[c.Name] = true
	}

	datasetIDs := map[string]bool{}
	for i := range doc.Datasets {
		ds := &doc.Datasets[i]
		if err := types.ValidateEntity(ds); err != nil {
			return invalid("datasets[%d]: %v", i, err)
		}
		if datasetIDs[ds.ID] {
			return invalid("datasets[%d]: duplicate id %q", i, ds.ID)
		}
		datasetIDs[ds.ID] = true
	}

	dataTypeIDs := map[string]bool{}
	for i := range doc.DataTypes {
		dt := &doc.DataTypes[i]
		dt.ApplyDefaults()
		if err := types.ValidateEntity(dt); err != nil {
			return invalid("dataTypes[%d]: %v", i, err)
		}
		if dataTypeIDs[dt.ID] {
			return invalid("dataTypes[%d]: duplicate id %q", i, dt.ID)
		}
		if !categoryNames[dt.Category] {
			return invalid("dataTypes[%d]: category %q is not in the payload", i, dt.Category)
		}
		dataTypeIDs[dt.ID] = true
	}

	pairs := map[[2]string]bool{}
	linkIDs := map[string]bool{}
	for i, l := range doc.DataTypeDatasets {
		if !dataTypeIDs[l.DataTypeID] {
			return invalid("dataTypeDatasets[%d]: data type %q is not in the payload", i, l.DataTypeID)
		}
		if !datasetIDs[l.DatasetID] {
			return invalid("dataTypeDatasets[%d]: dataset %q is not in the payload", i, l.DatasetID)
		}
		pair := [2]string{l.DataTypeID, l.DatasetID}
		if pairs[pair] {
			return invalid("dataTypeDatasets[%d]: duplicate link", i)
		}
		pairs[pair] = true
		if l.ID != "" {
			if linkIDs[l.ID] {
				return invalid("dataTypeDatasets[%d]: duplicate id %q", i, l.ID)
			}
			linkIDs[l.ID] = true
		}
	}
	return nil
}
