// Package sqlite implements the SQLite storage backend for the catalog.
// SQLite is the query engine; JSONL files in the data directory are the
// source of truth and are reloaded on every Attach.
package sqlite

// Schema DDL for all tables.
const (
	createCategories = `CREATE TABLE categories (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT ''
);`

	createDataTypes = `CREATE TABLE data_types (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL,
    priority TEXT NOT NULL,
    status TEXT NOT NULL,
    format TEXT NOT NULL DEFAULT '',
    notes TEXT NOT NULL DEFAULT '',
    standards TEXT NOT NULL DEFAULT '',
    indicators TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);`

	createDatasets = `CREATE TABLE datasets (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    source_url TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    source_organization TEXT NOT NULL DEFAULT '',
    source_type TEXT NOT NULL DEFAULT '',
    format TEXT NOT NULL DEFAULT '',
    geographic_coverage TEXT NOT NULL DEFAULT '',
    temporal_coverage TEXT NOT NULL DEFAULT '',
    is_validated INTEGER NOT NULL DEFAULT 0,
    is_primary_example INTEGER NOT NULL DEFAULT 0,
    notes TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);`

	createDataTypeDatasets = `CREATE TABLE data_type_datasets (
    id TEXT PRIMARY KEY,
    data_type_id TEXT NOT NULL,
    dataset_id TEXT NOT NULL,
    FOREIGN KEY (data_type_id) REFERENCES data_types(id),
    FOREIGN KEY (dataset_id) REFERENCES datasets(id)
);`
)

// Index DDL for common queries.
const (
	idxDataTypesCategory = `CREATE INDEX idx_data_types_category ON data_types(category);`
	idxLinksPair         = `CREATE UNIQUE INDEX idx_links_pair ON data_type_datasets(data_type_id, dataset_id);`
	idxLinksDataset      = `CREATE INDEX idx_links_dataset ON data_type_datasets(dataset_id);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createCategories,
	createDataTypes,
	createDatasets,
	createDataTypeDatasets,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxDataTypesCategory,
	idxLinksPair,
	idxLinksDataset,
}
