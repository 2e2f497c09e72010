package pudo

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/TDFSupplyChain/SC-Backend/internal/address"
	"github.com/TDFSupplyChain/SC-Backend/internal/geocoding"
	"github.com/TDFSupplyChain/SC-Backend/internal/gpscache"
)

// Geocoder resolves a normalized address, reporting false when no usable
// candidate exists for any reason.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (geocoding.Result, bool)
}

// cacheKey is the GPS-cache join key for a row: the precomputed normalized
// address when the merge already produced one, otherwise the normalization of
// (adresse_1, code_postal, ville) as the Chronopost backfill step does.
func cacheKey(p PointRelais) string {
	if p.AdresseNettoyee != "" {
		return p.AdresseNettoyee
	}
	return address.Normalize(p.Adresse1, p.CodePostal, p.Ville)
}

// Backfill fills missing coordinates from the cache, geocoding cache misses
// and recording resolutions in the cache. The cache map is mutated in place;
// persisting it (once, after the batch) is the caller's job. Rows whose
// address never resolves keep nil coordinates: backfill never fails the
// pipeline.
func Backfill(ctx context.Context, rows []PointRelais, cache map[string]gpscache.Entry, g Geocoder) []PointRelais {
	missing := 0
	queries := 0
	for _, p := range rows {
		if p.Latitude != nil {
			continue
		}
		missing++
		key := cacheKey(p)
		if key == "" {
			continue
		}
		if _, ok := cache[key]; ok {
			continue
		}
		queries++
		if res, ok := g.Resolve(ctx, key); ok {
			cache[key] = gpscache.Entry{
				Adresse:   key,
				Address:   res.Label,
				Latitude:  res.Latitude,
				Longitude: res.Longitude,
			}
		}
	}
	log.Printf("[backfill] %d row(s) without coordinates, %d geocoding call(s), cache now %d entries",
		missing, queries, len(cache))

	out := make([]PointRelais, len(rows))
	for i, p := range rows {
		if p.Latitude == nil {
			if e, ok := cache[cacheKey(p)]; ok {
				lat, lon := e.Latitude, e.Longitude
				p.Latitude = &lat
				p.Longitude = &lon
			}
		}
		out[i] = p
	}
	return out
}

// BackfillLatestFusion runs the backfill over the most recent Chronopost
// fusion table and rewrites it in place, persisting the cache once.
func BackfillLatestFusion(ctx context.Context, fusionDir, cachePath string, g Geocoder) error {
	path, err := latestFile(fusionDir, ".parquet")
	if err != nil {
		return fmt.Errorf("finding latest fusion table: %w", err)
	}

	rows, err := parquet.ReadFile[PointRelais](path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	cache, err := gpscache.Load(cachePath)
	if err != nil {
		log.Printf("[backfill] cache unreadable, starting empty: %v", err)
	}

	rows = Backfill(ctx, rows, cache, g)

	if err := gpscache.Save(cachePath, cache); err != nil {
		return fmt.Errorf("saving gps cache: %w", err)
	}
	if err := writeParquetAtomic(path, rows); err != nil {
		return err
	}

	left := 0
	for _, p := range rows {
		if p.Latitude == nil {
			left++
		}
	}
	log.Printf("[backfill] %s: %d row(s) still without GPS", filepath.Base(path), left)
	return nil
}

// latestFile returns the lexically last file in dir matching one of the
// extensions, mirroring how the daily drops are dated.
func latestFile(dir string, exts ...string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), "~$") {
			continue
		}
		for _, ext := range exts {
			if strings.HasSuffix(strings.ToLower(e.Name()), ext) {
				names = append(names, e.Name())
				break
			}
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no %v file in %s", exts, dir)
	}
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1]), nil
}

func writeParquetAtomic(path string, rows []PointRelais) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := parquet.WriteFile(tmp, rows); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
