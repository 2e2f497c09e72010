package address

import "testing"

func TestNormalizeBasics(t *testing.T) {
	cases := []struct {
		name string
		in   []string
		want string
	}{
		{"lowercase and trim", []string{"  12 Rue Victor Hugo  "}, "12 rue victor hugo"},
		{"punctuation to space", []string{"3, place de la Gare."}, "3 place de la gare"},
		{"accent folding", []string{"Église Saint-Étienne"}, "eglise saint etienne"},
		{"numero token", []string{"n°5 allee des Tilleuls"}, "numero5 allee des tilleuls"},
		{"repeated part dropped", []string{"PARIS", "PARIS"}, "paris"},
		{"non adjacent repeat kept", []string{"PARIS", "75001", "PARIS"}, "paris 75001 paris"},
		{"null parts skipped", []string{"10 rue du Bac", "", "75007", "PARIS"}, "10 rue du bac 75007 paris"},
		{"whitespace collapse", []string{"4   bis   avenue"}, "4 bis avenue"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Normalize(c.in...)
			if got != c.want {
				t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := [][]string{
		{"12 Rue de l'Église", "75004", "PARIS"},
		{"Zone Industrielle n°3", "97400", "SAINT-DENIS"},
		{"1 chemin du Moulin"},
	}
	for _, in := range inputs {
		once := Normalize(in...)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent: %q -> %q", once, twice)
		}
	}
}

func TestNormalizeAccentAndCaseInsensitive(t *testing.T) {
	a := Normalize("Rue de l'Église")
	b := Normalize("rue de l'eglise")
	if a != b {
		t.Errorf("accent/case variants differ: %q vs %q", a, b)
	}

	// The apostrophe becomes a space, so the elided article stays a separate
	// token; a source string written without it is a different key.
	c := Normalize("rue de leglise")
	if a == c {
		t.Errorf("expected residual apostrophe-as-space difference, both gave %q", a)
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	in := []string{"8 Boulevard du Général de Gaulle", "44000", "NANTES"}
	first := Normalize(in...)
	for i := 0; i < 100; i++ {
		if got := Normalize(in...); got != first {
			t.Fatalf("run %d: got %q, want %q", i, got, first)
		}
	}
}
