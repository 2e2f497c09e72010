package chronopost

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/xuri/excelize/v2"

	"github.com/TDFSupplyChain/SC-Backend/internal/pudo"
)

const dateLayout = "2006-01-02"

// coverageAbsent is the only eligibility value that forces a downgrade.
const coverageAbsent = "NON"

// LoadEligibility reads the postal-code coverage workbook into a map keyed
// by zero-padded postal code. Values are the raw "Couverture C9" cells.
func LoadEligibility(path string) (map[string]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening eligibility workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading eligibility sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("eligibility sheet %s is empty", sheet)
	}

	cpCol, covCol := -1, -1
	for i, h := range rows[0] {
		switch strings.TrimSpace(h) {
		case "CP":
			cpCol = i
		case "Couverture C9":
			covCol = i
		}
	}
	if cpCol < 0 || covCol < 0 {
		return nil, fmt.Errorf("eligibility sheet %s: missing CP or Couverture C9 column", sheet)
	}

	out := make(map[string]string, len(rows)-1)
	for _, row := range rows[1:] {
		get := func(i int) string {
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		cp := padPostal(get(cpCol))
		if cp == "" {
			continue
		}
		out[cp] = get(covCol)
	}
	return out, nil
}

// cleanAbsenceDate normalizes one raw absence cell to "YYYY-MM-DD", or ""
// when no usable date is present. Observed raw shapes: empty, "-",
// "dd/mm/yyyy", "yyyymmdd", "yyyy-mm-dd" (sometimes with a time suffix).
// Anything unparseable is "no absence window", never a row failure.
func cleanAbsenceDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return ""
	}
	if strings.Contains(s, "/") {
		parts := strings.Split(s, "/")
		for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
			parts[i], parts[j] = parts[j], parts[i]
		}
		s = strings.Join(parts, "")
	}
	if len(s) == 8 {
		if t, err := time.Parse("20060102", s); err == nil {
			return t.Format(dateLayout)
		}
		return ""
	}
	if len(s) >= 10 {
		if t, err := time.Parse(dateLayout, s[:10]); err == nil {
			return t.Format(dateLayout)
		}
	}
	return ""
}

func cleanAbsences(p *pudo.PointRelais) {
	p.DebutAbsence1 = cleanAbsenceDate(p.DebutAbsence1)
	p.FinAbsence1 = cleanAbsenceDate(p.FinAbsence1)
	p.DebutAbsence2 = cleanAbsenceDate(p.DebutAbsence2)
	p.FinAbsence2 = cleanAbsenceDate(p.FinAbsence2)
	p.DebutAbsence3 = cleanAbsenceDate(p.DebutAbsence3)
	p.FinAbsence3 = cleanAbsenceDate(p.FinAbsence3)
}

// absenceToUse picks the first absence pair, in order 1-2-3, that is still
// ahead of or covering the reference date. A pair with no start date is
// skipped. A pair with a start but no end is reachable only through the
// "reference date at-or-before start" branch; that asymmetry is the observed
// production behavior and is kept as-is.
func absenceToUse(p pudo.PointRelais, ref time.Time) string {
	pairs := [3][2]string{
		{p.DebutAbsence1, p.FinAbsence1},
		{p.DebutAbsence2, p.FinAbsence2},
		{p.DebutAbsence3, p.FinAbsence3},
	}
	for _, pair := range pairs {
		if pair[0] == "" {
			continue
		}
		start, err := time.Parse(dateLayout, pair[0])
		if err != nil {
			continue
		}
		if !ref.After(start) {
			return pair[0] + "|" + pair[1]
		}
		if pair[1] == "" {
			continue
		}
		end, err := time.Parse(dateLayout, pair[1])
		if err != nil {
			continue
		}
		if ref.After(start) && !ref.After(end) {
			return pair[0] + "|" + pair[1]
		}
	}
	return ""
}

// Statut derives ouvert/ferme from the resolved absence window at the
// reference date. The window is inclusive on both ends; anything that does
// not parse as "start|end" means the point is open.
func Statut(periode string, ref time.Time) string {
	if periode == "" {
		return pudo.StatutOuvert
	}
	parts := strings.SplitN(periode, "|", 2)
	if len(parts) != 2 {
		return pudo.StatutOuvert
	}
	start, err := time.Parse(dateLayout, parts[0])
	if err != nil {
		return pudo.StatutOuvert
	}
	end, err := time.Parse(dateLayout, parts[1])
	if err != nil {
		return pudo.StatutOuvert
	}
	if ref.Before(start) || ref.After(end) {
		return pudo.StatutOuvert
	}
	return pudo.StatutFerme
}

// Resolve merges one C9 table and one C13 table for the same reference date
// into one row per point relais.
//
// Codes present in both tables take their fields from the richer C9 row and
// are re-tagged C9_C13; exclusive codes pass through with their own tag.
// The eligibility map then downgrades any point whose postal code has
// coverage declared exactly "NON" to C13. Finally the active absence window
// and the derived statut are computed against the reference date.
func Resolve(c9, c13 []pudo.PointRelais, eligibility map[string]string, refDate time.Time) []pudo.PointRelais {
	inC13 := make(map[string]bool, len(c13))
	for _, p := range c13 {
		inC13[p.CodePointRelais] = true
	}
	inC9 := make(map[string]bool, len(c9))
	for _, p := range c9 {
		inC9[p.CodePointRelais] = true
	}

	out := make([]pudo.PointRelais, 0, len(c9)+len(c13))
	for _, p := range c9 {
		if inC13[p.CodePointRelais] {
			p.Categorie = pudo.CategoryC9C13
		}
		out = append(out, p)
	}
	for _, p := range c13 {
		if !inC9[p.CodePointRelais] {
			out = append(out, p)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CodePointRelais < out[j].CodePointRelais
	})

	kept := out[:0]
	for _, p := range out {
		cleanAbsences(&p)
		p.PeriodeAbsence = absenceToUse(p, refDate)
		p.Statut = Statut(p.PeriodeAbsence, refDate)

		if cov, ok := eligibility[p.CodePostal]; ok && cov == coverageAbsent {
			p.Categorie = pudo.CategoryC13
		}

		if p.Enseigne == "" {
			continue
		}
		p.NomPrestataire = pudo.PrestataireChronopost
		kept = append(kept, p)
	}
	return kept
}

// MergeDir fuses transformed C9/C13 pairs found in excelDir into fusionDir,
// newest date first. A date is processed only when both variants are present
// and no fusion file exists for it yet.
func MergeDir(excelDir, fusionDir, eligibilityPath string) error {
	if err := os.MkdirAll(fusionDir, 0o755); err != nil {
		return err
	}

	eligibility, err := LoadEligibility(eligibilityPath)
	if err != nil {
		// Missing coverage data downgrades nothing; the merge still runs.
		log.Printf("[chronopost] eligibility unavailable: %v", err)
		eligibility = map[string]string{}
	}

	dates, err := datesInDir(excelDir)
	if err != nil {
		return fmt.Errorf("listing %s: %w", excelDir, err)
	}
	fused, err := datesInDir(fusionDir)
	if err != nil {
		return fmt.Errorf("listing %s: %w", fusionDir, err)
	}
	alreadyFused := map[string]bool{}
	for _, d := range fused {
		alreadyFused[d] = true
	}

	entries, err := os.ReadDir(excelDir)
	if err != nil {
		return err
	}

	for _, date := range dates {
		if alreadyFused[date] {
			continue
		}
		var c9Path, c13Path string
		for _, e := range entries {
			if !strings.Contains(e.Name(), date) {
				continue
			}
			switch {
			case strings.Contains(e.Name(), "C13"):
				c13Path = filepath.Join(excelDir, e.Name())
			case strings.Contains(e.Name(), "C9"):
				c9Path = filepath.Join(excelDir, e.Name())
			}
		}
		if c9Path == "" || c13Path == "" {
			continue
		}

		refDate, err := time.Parse("20060102", date)
		if err != nil {
			continue
		}

		log.Printf("[chronopost] fusing exports dated %s", date)
		c9, err := parquet.ReadFile[pudo.PointRelais](c9Path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", c9Path, err)
		}
		c13, err := parquet.ReadFile[pudo.PointRelais](c13Path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", c13Path, err)
		}

		merged := Resolve(c9, c13, eligibility, refDate)
		dst := filepath.Join(fusionDir, fmt.Sprintf("CHRONO_RELAIS_C9_C13_DETAILS_CHRONOS_%s.parquet", date))
		if err := parquet.WriteFile(dst, merged); err != nil {
			return fmt.Errorf("writing %s: %w", dst, err)
		}
	}
	return nil
}
