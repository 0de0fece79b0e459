package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
)

// loadStats reports what one JSONL file contributed to the database.
type loadStats struct {
	loaded  int
	skipped int
}

// loadAllJSONL reads each collection's JSONL file and inserts its records in
// one transaction, endpoints before links. Lines that are malformed, fail
// to decode, or violate a constraint are skipped and logged; they never
// abort the load. Unknown JSON fields are ignored.
func loadAllJSONL(ctx context.Context, db *sql.DB, dataDir string, logger *zap.Logger) (map[string]loadStats, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	stats := make(map[string]loadStats, len(loadOrder))
	for _, name := range loadOrder {
		t := tables[name]
		path := filepath.Join(dataDir, t.file)
		records, malformed, err := readJSONL(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", t.file, err)
		}

		st := loadStats{skipped: malformed}
		for i, raw := range records {
			rec, err := t.decode(raw)
			if err == nil {
				_, err = t.insert(ctx, tx, rec)
			}
			if err != nil {
				st.skipped++
				logger.Warn("skipping record",
					zap.String("file", t.file),
					zap.Int("record", i),
					zap.Error(err))
				continue
			}
			st.loaded++
		}
		if malformed > 0 {
			logger.Warn("skipped malformed lines",
				zap.String("file", t.file),
				zap.Int("count", malformed))
		}
		stats[name] = st
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing load transaction: %w", err)
	}
	return stats, nil
}
