package pudo

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/TomiHiltunen/geohash-golang"
	"github.com/parquet-go/parquet-go"

	"github.com/TDFSupplyChain/SC-Backend/internal/address"
	"github.com/TDFSupplyChain/SC-Backend/internal/gpscache"
)

// placeholderCode marks rows the upstream exports use as filler; they never
// describe a real point.
const placeholderCode = "FF"

// geohashPrecision of 7 gives cells of roughly 150m, enough for map
// clustering.
const geohashPrecision = 7

// Source is one PUDO directory feed.
type Source struct {
	Name string
	Load func() ([]PointRelais, error)
}

// Merge combines the available sources into one unified directory. A source
// that fails to load is skipped with a warning; zero usable sources is an
// error. The unified rows get a normalized address, cache-backed GPS
// coordinates and a geohash bucket. The cache file at cachePath is read once
// and saved once.
func Merge(ctx context.Context, sources []Source, cachePath string, g Geocoder) ([]PointRelais, error) {
	var rows []PointRelais
	var failures []string
	loaded := 0

	for _, src := range sources {
		part, err := src.Load()
		if err != nil {
			log.Printf("[pudo] source %s unavailable: %v", src.Name, err)
			failures = append(failures, fmt.Sprintf("%s: %v", src.Name, err))
			continue
		}
		log.Printf("[pudo] source %s: %d row(s)", src.Name, len(part))
		rows = append(rows, part...)
		loaded++
	}
	if loaded == 0 {
		return nil, fmt.Errorf("no PUDO source available: %s", strings.Join(failures, " | "))
	}

	kept := rows[:0]
	for _, p := range rows {
		if p.CodePointRelais == placeholderCode {
			continue
		}
		p.AdresseNettoyee = address.Normalize(p.Adresse1, p.Adresse2, p.CodePostal, p.Ville)
		kept = append(kept, p)
	}
	rows = kept

	cache, err := gpscache.Load(cachePath)
	if err != nil {
		log.Printf("[pudo] gps cache unreadable, starting empty: %v", err)
	}
	rows = Backfill(ctx, rows, cache, g)
	if err := gpscache.Save(cachePath, cache); err != nil {
		return nil, fmt.Errorf("saving gps cache: %w", err)
	}

	for i := range rows {
		if rows[i].Latitude != nil && rows[i].Longitude != nil {
			rows[i].Geohash = geohash.EncodeWithPrecision(*rows[i].Latitude, *rows[i].Longitude, geohashPrecision)
		}
	}
	return rows, nil
}

// WriteDirectory replaces the canonical directory snapshot.
func WriteDirectory(path string, rows []PointRelais) error {
	return writeParquetAtomic(path, rows)
}

// ReadDirectory loads the canonical directory snapshot.
func ReadDirectory(path string) ([]PointRelais, error) {
	rows, err := parquet.ReadFile[PointRelais](path)
	if err != nil {
		return nil, fmt.Errorf("reading directory snapshot %s: %w", path, err)
	}
	return rows, nil
}
