package pudo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
	"github.com/xuri/excelize/v2"
)

// SpeedConfig locates the daily SPEED export.
type SpeedConfig struct {
	// QuotidienDir holds one sub-directory per daily drop.
	QuotidienDir string
	// FileName is the export workbook name inside each daily folder.
	FileName string
	// SheetName is the PUDO sheet of the workbook.
	SheetName string
}

// LoadChronopost reads the most recent Chronopost fusion table.
func LoadChronopost(fusionDir string) ([]PointRelais, error) {
	path, err := latestFile(fusionDir, ".parquet")
	if err != nil {
		return nil, err
	}
	rows, err := parquet.ReadFile[PointRelais](path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return rows, nil
}

// lm2sColumns maps the LM2S export headers to the common schema.
var lm2sColumns = map[string]string{
	"Code DAH":        "code_point_relais",
	"Nom PUDO":        "enseigne",
	"Adresse1":        "adresse_1",
	"Adresse2":        "adresse_2",
	"CodePostal":      "code_postal",
	"Ville":           "ville",
	"PUDO XL":         "pudo_xl",
	"statut":          "statut",
	"nom_prestataire": "nom_prestataire",
	"latitude":        "latitude",
	"longitude":       "longitude",
}

// LoadLM2S reads the most recent LM2S directory workbook. The export already
// carries statut, provenance and (sometimes) coordinates; adresse_3 does not
// exist in this source.
func LoadLM2S(dir string) ([]PointRelais, error) {
	path, err := latestFile(dir, ".xlsx", ".xls")
	if err != nil {
		return nil, err
	}

	rows, err := readSheet(path, "")
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s: no data rows", path)
	}

	idx := headerIndex(rows[0])
	out := make([]PointRelais, 0, len(rows)-1)
	for _, row := range rows[1:] {
		get := func(header string) string {
			i, ok := idx[header]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		p := PointRelais{}
		for src, dst := range lm2sColumns {
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
			case "code_postal":
				p.CodePostal = v
			case "ville":
				p.Ville = v
			case "pudo_xl":
				p.PudoXL = v
			case "statut":
				p.Statut = v
			case "nom_prestataire":
				p.NomPrestataire = v
			case "latitude":
				p.Latitude = parseFloat(v)
			case "longitude":
				p.Longitude = parseFloat(v)
			}
		}
		if p.CodePointRelais == "" {
			continue
		}
		if p.NomPrestataire == "" {
			p.NomPrestataire = PrestataireLM2S
		}
		out = append(out, p)
	}
	return out, nil
}

// speedColumns maps the SPEED 545 sheet headers to the common schema.
var speedColumns = map[string]string{
	"Code point relais": "code_point_relais",
	"Nom point relais":  "enseigne",
	"Adresse 1":         "adresse_1",
	"Adresse 2":         "adresse_2",
	"Adresse 3":         "adresse_3",
	"Code postal":       "code_postal",
	"Ville":             "ville",
}

// LoadSpeed reads the PUDO sheet of the newest daily SPEED export. Only
// active rows belonging to the internal network are kept: code prefixed TDF
// or PR, or a name containing "boks".
func LoadSpeed(cfg SpeedConfig) ([]PointRelais, error) {
	entries, err := os.ReadDir(cfg.QuotidienDir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", cfg.QuotidienDir, err)
	}
	var folders []string
	for _, e := range entries {
		if e.IsDir() {
			folders = append(folders, e.Name())
		}
	}
	if len(folders) == 0 {
		return nil, fmt.Errorf("no daily folder in %s", cfg.QuotidienDir)
	}
	sort.Strings(folders)

	path := filepath.Join(cfg.QuotidienDir, folders[len(folders)-1], cfg.FileName)
	rows, err := readSheet(path, cfg.SheetName)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s: no data rows", path)
	}

	idx := headerIndex(rows[0])
	flagCol, hasFlag := idx["Flag actif"]

	out := make([]PointRelais, 0, len(rows)-1)
	for _, row := range rows[1:] {
		get := func(i int) string {
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		if hasFlag && get(flagCol) != "1" {
			continue
		}

		p := PointRelais{
			Statut:         StatutOuvert,
			NomPrestataire: PrestataireTDF,
		}
		for src, dst := range speedColumns {
			i, ok := idx[src]
			if !ok {
				continue
			}
			v := get(i)
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
				p.CodePostal = v
			case "ville":
				p.Ville = v
			}
		}

		code := p.CodePointRelais
		name := strings.ToLower(p.Enseigne)
		if !strings.HasPrefix(code, "TDF") && !strings.HasPrefix(code, "PR") && !strings.Contains(name, "boks") {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return nil
	}
	return &v
}

// readSheet returns the cell rows of a workbook sheet; an empty sheet name
// selects the first sheet.
func readSheet(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q of %s: %w", sheet, path, err)
	}
	return rows, nil
}
