package chronopost

import (
	"testing"
	"time"

	"github.com/TDFSupplyChain/SC-Backend/internal/pudo"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func pr(code, postal string, categorie string) pudo.PointRelais {
	return pudo.PointRelais{
		CodePointRelais: code,
		Enseigne:        "Enseigne " + code,
		CodePostal:      postal,
		Categorie:       categorie,
	}
}

func TestResolvePartitionComplete(t *testing.T) {
	c9 := []pudo.PointRelais{
		pr("A", "75001", pudo.CategoryC9),
		pr("B", "75002", pudo.CategoryC9),
		pr("C", "75003", pudo.CategoryC9),
	}
	c13 := []pudo.PointRelais{
		pr("B", "75002", pudo.CategoryC13),
		pr("C", "75003", pudo.CategoryC13),
		pr("D", "75004", pudo.CategoryC13),
		pr("E", "75005", pudo.CategoryC13),
	}

	out := Resolve(c9, c13, nil, day("2024-03-15"))

	// |A∩B| + |A−B| + |B−A| = 2 + 1 + 2
	if len(out) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(out))
	}

	seen := map[string]string{}
	for _, p := range out {
		if _, dup := seen[p.CodePointRelais]; dup {
			t.Errorf("code %s appears twice", p.CodePointRelais)
		}
		seen[p.CodePointRelais] = p.Categorie
	}
	for code, want := range map[string]string{
		"A": pudo.CategoryC9,
		"B": pudo.CategoryC9C13,
		"C": pudo.CategoryC9C13,
		"D": pudo.CategoryC13,
		"E": pudo.CategoryC13,
	} {
		if seen[code] != want {
			t.Errorf("code %s: categorie = %q, want %q", code, seen[code], want)
		}
	}

	// Sorted by code.
	for i := 1; i < len(out); i++ {
		if out[i-1].CodePointRelais > out[i].CodePointRelais {
			t.Errorf("output not sorted at %d: %s > %s", i, out[i-1].CodePointRelais, out[i].CodePointRelais)
		}
	}
}

func TestResolveEligibilityMonotonic(t *testing.T) {
	eligibility := map[string]string{
		"97400": "NON",
		"75001": "OUI",
		"13001": "",
	}

	c9 := []pudo.PointRelais{
		pr("A", "97400", pudo.CategoryC9), // key present, NON -> downgrade
		pr("B", "75001", pudo.CategoryC9), // key present, OUI -> unchanged
		pr("C", "13001", pudo.CategoryC9), // key present, empty -> unchanged
		pr("D", "69001", pudo.CategoryC9), // key absent -> unchanged
	}
	c13 := []pudo.PointRelais{
		pr("A", "97400", pudo.CategoryC13), // would be C9_C13 without the override
		pr("E", "97400", pudo.CategoryC13), // already C13, stays C13
	}

	out := Resolve(c9, c13, eligibility, day("2024-03-15"))

	got := map[string]string{}
	for _, p := range out {
		got[p.CodePointRelais] = p.Categorie
	}
	want := map[string]string{
		"A": pudo.CategoryC13,
		"B": pudo.CategoryC9,
		"C": pudo.CategoryC9,
		"D": pudo.CategoryC9,
		"E": pudo.CategoryC13,
	}
	for code, cat := range want {
		if got[code] != cat {
			t.Errorf("code %s: categorie = %q, want %q", code, got[code], cat)
		}
	}
}

func TestResolveDropsEmptyEnseigne(t *testing.T) {
	c9 := []pudo.PointRelais{
		{CodePointRelais: "A", Enseigne: "Tabac", Categorie: pudo.CategoryC9},
		{CodePointRelais: "B", Categorie: pudo.CategoryC9},
	}
	out := Resolve(c9, nil, nil, day("2024-03-15"))
	if len(out) != 1 || out[0].CodePointRelais != "A" {
		t.Errorf("expected only row A, got %+v", out)
	}
	if out[0].NomPrestataire != pudo.PrestataireChronopost {
		t.Errorf("nom_prestataire = %q", out[0].NomPrestataire)
	}
}

func TestStatutBoundaries(t *testing.T) {
	window := "2024-03-01|2024-03-10"
	cases := []struct {
		ref  string
		want string
	}{
		{"2024-02-29", pudo.StatutOuvert},
		{"2024-03-01", pudo.StatutFerme},
		{"2024-03-10", pudo.StatutFerme},
		{"2024-03-11", pudo.StatutOuvert},
	}
	for _, c := range cases {
		if got := Statut(window, day(c.ref)); got != c.want {
			t.Errorf("Statut(%s, %s) = %q, want %q", window, c.ref, got, c.want)
		}
	}

	if got := Statut("", day("2024-03-05")); got != pudo.StatutOuvert {
		t.Errorf("no window: statut = %q", got)
	}
	if got := Statut("2024-03-01|", day("2024-03-05")); got != pudo.StatutOuvert {
		t.Errorf("open-ended window: statut = %q", got)
	}
	if got := Statut("garbage", day("2024-03-05")); got != pudo.StatutOuvert {
		t.Errorf("unparseable window: statut = %q", got)
	}
}

func TestAbsencePairOrder(t *testing.T) {
	ref := day("2024-03-15")

	p := pudo.PointRelais{
		DebutAbsence1: "2024-01-01", FinAbsence1: "2024-01-10", // past, skipped
		DebutAbsence2: "2024-03-10", FinAbsence2: "2024-03-20", // covers ref
		DebutAbsence3: "2024-04-01", FinAbsence3: "2024-04-10",
	}
	if got := absenceToUse(p, ref); got != "2024-03-10|2024-03-20" {
		t.Errorf("absenceToUse = %q", got)
	}

	// First pair missing its start: fall through to the second.
	p = pudo.PointRelais{
		FinAbsence1:   "2024-03-20",
		DebutAbsence2: "2024-05-01", FinAbsence2: "2024-05-10",
	}
	if got := absenceToUse(p, ref); got != "2024-05-01|2024-05-10" {
		t.Errorf("absenceToUse = %q", got)
	}

	// No qualifying pair.
	p = pudo.PointRelais{
		DebutAbsence1: "2024-01-01", FinAbsence1: "2024-01-10",
	}
	if got := absenceToUse(p, ref); got != "" {
		t.Errorf("absenceToUse = %q, want empty", got)
	}
}

func TestAbsenceStartOnlyAsymmetry(t *testing.T) {
	// A start-only pair is selectable only while the reference date is
	// at-or-before the start; once the reference date passes the start it can
	// never match, because the "between" branch needs an end date.
	p := pudo.PointRelais{DebutAbsence1: "2024-03-20"}

	if got := absenceToUse(p, day("2024-03-15")); got != "2024-03-20|" {
		t.Errorf("before start: absenceToUse = %q, want %q", got, "2024-03-20|")
	}
	if got := absenceToUse(p, day("2024-03-25")); got != "" {
		t.Errorf("after start: absenceToUse = %q, want empty", got)
	}

	// And the open-ended window it produces derives to "ouvert".
	if got := Statut("2024-03-20|", day("2024-03-20")); got != pudo.StatutOuvert {
		t.Errorf("statut for open-ended window = %q", got)
	}
}

func TestCleanAbsenceDate(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"-", ""},
		{"20240301", "2024-03-01"},
		{"01/03/2024", "2024-03-01"},
		{"2024-03-01", "2024-03-01"},
		{"2024-03-01 00:00:00", "2024-03-01"},
		{"notadate", ""},
		{"99999999", ""},
	}
	for _, c := range cases {
		if got := cleanAbsenceDate(c.in); got != c.want {
			t.Errorf("cleanAbsenceDate(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
