package gpscache

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	entries, err := Load(filepath.Join(t.TempDir(), "backup_addresses.parquet"))
	if err != nil {
		t.Fatalf("Load on missing file: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty cache, got %d entries", len(entries))
	}
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup_addresses.parquet")

	want := make(map[string]Entry)
	for i := 0; i < 50; i++ {
		key := fmt.Sprintf("%d rue de la paix 75002 paris", i)
		want[key] = Entry{
			Adresse:   key,
			Address:   fmt.Sprintf("%d Rue de la Paix 75002 Paris", i),
			Latitude:  48.86 + float64(i)/1000,
			Longitude: 2.33 + float64(i)/1000,
		}
	}

	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch: got %d entries, want %d", len(got), len(want))
	}
}

func TestSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup_addresses.parquet")

	first := map[string]Entry{
		"a": {Adresse: "a", Latitude: 1, Longitude: 2},
		"b": {Adresse: "b", Latitude: 3, Longitude: 4},
	}
	if err := Save(path, first); err != nil {
		t.Fatalf("Save: %v", err)
	}

	second := map[string]Entry{
		"c": {Adresse: "c", Latitude: 5, Longitude: 6},
	}
	if err := Save(path, second); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected full replace, got %d entries", len(got))
	}
	if _, ok := got["c"]; !ok {
		t.Error("missing entry after overwrite")
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestLoadSkipsEmptyKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup_addresses.parquet")

	entries := map[string]Entry{
		"":  {Adresse: "", Latitude: 1, Longitude: 1},
		"x": {Adresse: "x", Latitude: 2, Longitude: 2},
	}
	if err := Save(path, entries); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected the empty key to be dropped, got %d entries", len(got))
	}
}
