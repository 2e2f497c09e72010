package pudo

// Category tags for Chronopost-sourced points.
const (
	CategoryC9    = "C9"
	CategoryC13   = "C13"
	CategoryC9C13 = "C9_C13"
)

// Statut values derived from the active absence window.
const (
	StatutOuvert = "ouvert"
	StatutFerme  = "ferme"
)

// Provenance tags.
const (
	PrestataireChronopost = "chronopost"
	PrestataireLM2S       = "lm2s"
	PrestataireTDF        = "TDF"
)

// PointRelais is one pickup/dropoff point. Absence dates are normalized
// "YYYY-MM-DD" strings, empty meaning null; PeriodeAbsence collapses the
// first qualifying pair into "start|end". Latitude/Longitude stay nil until
// geocoded.
type PointRelais struct {
	CodePointRelais string `parquet:"code_point_relais" json:"code_point_relais"`
	Enseigne        string `parquet:"enseigne,optional" json:"enseigne"`
	Adresse1        string `parquet:"adresse_1,optional" json:"adresse_1"`
	Adresse2        string `parquet:"adresse_2,optional" json:"adresse_2"`
	Adresse3        string `parquet:"adresse_3,optional" json:"adresse_3"`
	CodePostal      string `parquet:"code_postal,optional" json:"code_postal"`
	Ville           string `parquet:"ville,optional" json:"ville"`

	HorairesLundi    string `parquet:"horaires_lundi,optional" json:"horaires_lundi,omitempty"`
	HorairesMardi    string `parquet:"horaires_mardi,optional" json:"horaires_mardi,omitempty"`
	HorairesMercredi string `parquet:"horaires_mercredi,optional" json:"horaires_mercredi,omitempty"`
	HorairesJeudi    string `parquet:"horaires_jeudi,optional" json:"horaires_jeudi,omitempty"`
	HorairesVendredi string `parquet:"horaires_vendredi,optional" json:"horaires_vendredi,omitempty"`
	HorairesSamedi   string `parquet:"horaires_samedi,optional" json:"horaires_samedi,omitempty"`
	HorairesDimanche string `parquet:"horaires_dimanche,optional" json:"horaires_dimanche,omitempty"`

	DebutAbsence1 string `parquet:"debut_absence_1,optional" json:"debut_absence_1,omitempty"`
	FinAbsence1   string `parquet:"fin_absence_1,optional" json:"fin_absence_1,omitempty"`
	DebutAbsence2 string `parquet:"debut_absence_2,optional" json:"debut_absence_2,omitempty"`
	FinAbsence2   string `parquet:"fin_absence_2,optional" json:"fin_absence_2,omitempty"`
	DebutAbsence3 string `parquet:"debut_absence_3,optional" json:"debut_absence_3,omitempty"`
	FinAbsence3   string `parquet:"fin_absence_3,optional" json:"fin_absence_3,omitempty"`

	PeriodeAbsence string `parquet:"periode_absence_a_utiliser,optional" json:"periode_absence_a_utiliser,omitempty"`
	Categorie      string `parquet:"categorie_pr_chronopost,optional" json:"categorie_pr_chronopost,omitempty"`
	NomPrestataire string `parquet:"nom_prestataire,optional" json:"nom_prestataire"`
	Statut         string `parquet:"statut,optional" json:"statut"`

	Latitude  *float64 `parquet:"latitude,optional" json:"latitude"`
	Longitude *float64 `parquet:"longitude,optional" json:"longitude"`

	AdresseNettoyee string `parquet:"adresse_nettoyee,optional" json:"adresse_nettoyee,omitempty"`
	Geohash         string `parquet:"geohash,optional" json:"geohash,omitempty"`

	// LM2S-only flag carried through the merge untouched.
	PudoXL string `parquet:"pudo_xl,optional" json:"pudo_xl,omitempty"`
}
