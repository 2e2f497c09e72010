package gpscache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/parquet-go/parquet-go"
)

// Entry is one resolved address. The key column "adresse" holds the
// normalized address; "address" is the geocoder's canonical label.
type Entry struct {
	Adresse   string  `parquet:"adresse" json:"adresse"`
	Address   string  `parquet:"address" json:"address"`
	Latitude  float64 `parquet:"latitude" json:"latitude"`
	Longitude float64 `parquet:"longitude" json:"longitude"`
}

// Load reads the whole cache file into a map keyed by normalized address.
// A missing file is an empty cache. Any other read failure also yields an
// empty cache so a corrupt file never blocks a pipeline run, but the error is
// returned so the caller can log it.
func Load(path string) (map[string]Entry, error) {
	entries := make(map[string]Entry)

	rows, err := parquet.ReadFile[Entry](path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return entries, nil
		}
		return entries, fmt.Errorf("reading gps cache %s: %w", path, err)
	}

	for _, e := range rows {
		if e.Adresse == "" {
			continue
		}
		entries[e.Adresse] = e
	}
	return entries, nil
}

// Save rewrites the whole cache file. The write goes through a temp file and
// a rename so readers never observe a half-written cache. Callers are
// expected to Load once, mutate in memory across a batch, then Save once.
func Save(path string, entries map[string]Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]Entry, 0, len(entries))
	for _, k := range keys {
		rows = append(rows, entries[k])
	}

	tmp := path + ".tmp"
	if err := parquet.WriteFile(tmp, rows); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing gps cache: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing gps cache: %w", err)
	}
	return nil
}
