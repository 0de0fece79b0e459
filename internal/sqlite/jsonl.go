package sqlite

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/datacatalog/pkg/types"
)

// maxLineBytes bounds a single JSONL record, newline included. Writes
// refuse longer records so every file stays readable.
const maxLineBytes = 4 << 20

// readJSONL reads a JSONL file and returns each non-empty, parseable line as
// a json.RawMessage. Malformed lines are skipped and counted.
func readJSONL(path string) ([]json.RawMessage, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []json.RawMessage
	skipped := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			skipped++
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, skipped, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, skipped, nil
}

// stagedFile is a fully written and synced temp file waiting to replace
// its target.
type stagedFile struct {
	tmp    string
	target string
}

// stageJSONL writes records to a temp file next to path and fsyncs it. The
// caller either promotes it with commit or removes it with discard.
func stageJSONL(path string, records []json.RawMessage) (stagedFile, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".jsonl-*.tmp")
	if err != nil {
		return stagedFile{}, fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(format string, err error) (stagedFile, error) {
		tmp.Close()
		os.Remove(tmpName)
		return stagedFile{}, fmt.Errorf(format, err)
	}

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fail("writing record: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail("writing newline: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fail("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return stagedFile{}, fmt.Errorf("closing temp file: %w", err)
	}
	return stagedFile{tmp: tmpName, target: path}, nil
}

func (s stagedFile) commit() error {
	if err := os.Rename(s.tmp, s.target); err != nil {
		os.Remove(s.tmp)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func (s stagedFile) discard() {
	os.Remove(s.tmp)
}

// writeJSONL atomically replaces path with records using the temp-file,
// fsync, rename pattern.
func writeJSONL(path string, records []json.RawMessage) error {
	staged, err := stageJSONL(path, records)
	if err != nil {
		return err
	}
	return staged.commit()
}

// marshalRecords encodes hydrated records as JSONL lines.
func marshalRecords(records []any) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(records))
	for _, rec := range records {
		b, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("encoding record: %w", err)
		}
		if len(b) >= maxLineBytes {
			return nil, fmt.Errorf("%w: record of %d bytes exceeds the %d byte line limit", types.ErrInvalidData, len(b), maxLineBytes)
		}
		out = append(out, b)
	}
	return out, nil
}

// ensureJSONLFiles creates an empty JSONL file for every collection that
// does not have one yet.
func ensureJSONLFiles(dataDir string) error {
	for _, name := range loadOrder {
		path := filepath.Join(dataDir, tables[name].file)
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("checking %s: %w", path, err)
		}
		if err := writeJSONL(path, nil); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}
	return nil
}
