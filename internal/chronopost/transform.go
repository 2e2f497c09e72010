package chronopost

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
	"golang.org/x/text/encoding/charmap"

	"github.com/TDFSupplyChain/SC-Backend/internal/pudo"
)

var weekdays = []string{"lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi", "dimanche"}

// readExportCSV reads a Chronopost export: semicolon-separated, Latin-1.
func readExportCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(f))
	r.Comma = ';'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return records, nil
}

// padPostal left-pads a postal code with zeros to 5 digits.
func padPostal(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	for len(s) < 5 {
		s = "0" + s
	}
	return s
}

// pad4 left-pads a schedule time component with zeros to 4 digits.
func pad4(s string) string {
	for len(s) < 4 {
		s = "0" + s
	}
	return s
}

func parseCoord(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return nil
	}
	return &v
}

// TransformC13 converts the detailed-network export into the common schema.
// The format is positional (no header): column numbers below are 1-based to
// match the vendor documentation. The first data row is a header artifact and
// is dropped.
func TransformC13(path string) ([]pudo.PointRelais, error) {
	records, err := readExportCSV(path)
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s: no data rows", path)
	}

	out := make([]pudo.PointRelais, 0, len(records)-1)
	for _, rec := range records[1:] {
		col := func(n int) string {
			if n-1 >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[n-1])
		}

		p := pudo.PointRelais{
			CodePointRelais: col(3),
			Enseigne:        col(4),
			Latitude:        parseCoord(col(7)),
			Longitude:       parseCoord(col(8)),
			Adresse1:        col(10),
			Adresse2:        col(11),
			Adresse3:        col(12),
			CodePostal:      padPostal(col(13)),
			Ville:           col(14),
			DebutAbsence1:   col(56),
			FinAbsence1:     col(57),
			DebutAbsence2:   col(59),
			FinAbsence2:     col(60),
			DebutAbsence3:   col(62),
			FinAbsence3:     col(63),
			Categorie:       pudo.CategoryC13,
		}

		// Columns 22-49 hold 4 time components per weekday; fold each block
		// into one schedule string.
		horaires := make([]string, len(weekdays))
		for d := 0; d < len(weekdays); d++ {
			base := 22 + 4*d
			horaires[d] = pad4(col(base)) + ":" + pad4(col(base+1)) + "-" + pad4(col(base+2)) + ":" + pad4(col(base+3))
		}
		p.HorairesLundi = horaires[0]
		p.HorairesMardi = horaires[1]
		p.HorairesMercredi = horaires[2]
		p.HorairesJeudi = horaires[3]
		p.HorairesVendredi = horaires[4]
		p.HorairesSamedi = horaires[5]
		p.HorairesDimanche = horaires[6]

		out = append(out, p)
	}
	return out, nil
}

// c9Columns maps the named headers of the minimal-network export to the
// common schema. Repeated absence headers come in suffixed _duplicated_N,
// the same way the upstream tooling disambiguates them.
var c9Columns = map[string]string{
	"Point Relais":             "code_point_relais",
	"Enseigne":                 "enseigne",
	"Adresse 1":                "adresse_1",
	"Adresse 2":                "adresse_2",
	"Adresse 3":                "adresse_3",
	"Code Postal":              "code_postal",
	"Ville":                    "ville",
	"Horaires Lundi":           "horaires_lundi",
	"Horaires Mardi":           "horaires_mardi",
	"Horaires Mercredi":        "horaires_mercredi",
	"Horaires Jeudi":           "horaires_jeudi",
	"Horaires Vendredi":        "horaires_vendredi",
	"Horaires Samedi":          "horaires_samedi",
	"Horaires Dimanche":        "horaires_dimanche",
	"Debut Absence":            "debut_absence_1",
	"Fin Absence":              "fin_absence_1",
	"Debut Absence_duplicated_0": "debut_absence_2",
	"Fin Absence_duplicated_0":   "fin_absence_2",
	"Debut Absence_duplicated_1": "debut_absence_3",
	"Fin Absence_duplicated_1":   "fin_absence_3",
}

// TransformC9 converts the minimal-network export into the common schema.
// The file carries a header row; the first data row is a header artifact and
// is dropped. C9 rows never carry coordinates.
func TransformC9(path string) ([]pudo.PointRelais, error) {
	records, err := readExportCSV(path)
	if err != nil {
		return nil, err
	}
	if len(records) < 3 {
		return nil, fmt.Errorf("%s: no data rows", path)
	}

	header := records[0]
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	// Index columns by header, suffixing duplicates.
	idx := map[string]int{}
	seen := map[string]int{}
	for i, h := range header {
		h = strings.TrimSpace(h)
		if n, dup := seen[h]; dup {
			idx[fmt.Sprintf("%s_duplicated_%d", h, n)] = i
			seen[h] = n + 1
		} else {
			idx[h] = i
			seen[h] = 0
		}
	}

	out := make([]pudo.PointRelais, 0, len(records)-2)
	for _, rec := range records[2:] {
		get := func(name string) string {
			i, ok := idx[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		p := pudo.PointRelais{Categorie: pudo.CategoryC9}
		for src, dst := range c9Columns {
			v := get(src)
			switch dst {
			case "code_point_relais":
				p.CodePointRelais = v
			case "enseigne":
				p.Enseigne = v
			case "adresse_1":
				p.Adresse1 = v
			case "adresse_2":
				p.Adresse2 = v
			case "adresse_3":
				p.Adresse3 = v
			case "code_postal":
				p.CodePostal = padPostal(v)
			case "ville":
				p.Ville = v
			case "horaires_lundi":
				p.HorairesLundi = v
			case "horaires_mardi":
				p.HorairesMardi = v
			case "horaires_mercredi":
				p.HorairesMercredi = v
			case "horaires_jeudi":
				p.HorairesJeudi = v
			case "horaires_vendredi":
				p.HorairesVendredi = v
			case "horaires_samedi":
				p.HorairesSamedi = v
			case "horaires_dimanche":
				p.HorairesDimanche = v
			case "debut_absence_1":
				p.DebutAbsence1 = v
			case "fin_absence_1":
				p.FinAbsence1 = v
			case "debut_absence_2":
				p.DebutAbsence2 = v
			case "fin_absence_2":
				p.FinAbsence2 = v
			case "debut_absence_3":
				p.DebutAbsence3 = v
			case "fin_absence_3":
				p.FinAbsence3 = v
			}
		}
		out = append(out, p)
	}
	return out, nil
}

// TransformDir transforms every export CSV in srcDir that has no transformed
// counterpart in dstDir yet. The transforms themselves are pure; idempotence
// comes from the destination-file check.
func TransformDir(srcDir, dstDir string) error {
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return err
	}

	srcNames, err := os.ReadDir(srcDir)
	if err != nil {
		return fmt.Errorf("listing %s: %w", srcDir, err)
	}

	done := map[string]bool{}
	dstNames, err := os.ReadDir(dstDir)
	if err != nil {
		return fmt.Errorf("listing %s: %w", dstDir, err)
	}
	for _, e := range dstNames {
		done[baseName(e.Name())] = true
	}

	for _, e := range srcNames {
		name := e.Name()
		if e.IsDir() || !strings.Contains(strings.ToLower(name), "csv") {
			continue
		}
		if done[baseName(name)] {
			continue
		}

		var rows []pudo.PointRelais
		switch {
		case strings.Contains(name, "C9"):
			rows, err = TransformC9(filepath.Join(srcDir, name))
		case strings.Contains(name, "C13"):
			rows, err = TransformC13(filepath.Join(srcDir, name))
		default:
			continue
		}
		if err != nil {
			log.Printf("[chronopost] skipping %s: %v", name, err)
			continue
		}

		dst := filepath.Join(dstDir, baseName(name)+".parquet")
		if err := parquet.WriteFile(dst, rows); err != nil {
			return fmt.Errorf("writing %s: %w", dst, err)
		}
		log.Printf("[chronopost] transformed %s (%d rows)", name, len(rows))
	}
	return nil
}

func baseName(name string) string {
	return strings.SplitN(name, ".", 2)[0]
}

// datesInDir extracts the distinct trailing YYYYMMDD date stamps of the file
// names in a directory, newest first.
func datesInDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	set := map[string]bool{}
	for _, e := range entries {
		b := baseName(e.Name())
		if len(b) >= 8 {
			set[b[len(b)-8:]] = true
		}
	}
	dates := make([]string, 0, len(set))
	for d := range set {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}
