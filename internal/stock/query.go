package stock

import (
	"sort"
	"strings"

	"github.com/golang/geo/s2"

	"github.com/TDFSupplyChain/SC-Backend/internal/pudo"
)

const earthRadiusKm = 6371.0

// SummaryRow totals stock for one (depot type, deployment flag) bucket, with
// quantities broken down per quality code.
type SummaryRow struct {
	TypeDeDepot string             `json:"type_de_depot"`
	FlagStockDM string             `json:"flag_stock_d_m"`
	ParQualite  map[string]float64 `json:"par_qualite"`
	Total       float64            `json:"total"`
}

// Summary aggregates the 554 extract for one article: one row per depot type
// and deployment flag, summed per quality code, sorted by depot type.
func (t *Tables) Summary(codeArticle string) []SummaryRow {
	type key struct{ depot, flag string }
	buckets := map[key]*SummaryRow{}
	var order []key

	for _, r := range t.Stock {
		if r.CodeArticle != codeArticle {
			continue
		}
		k := key{r.TypeDeDepot, r.FlagStockDM}
		b, ok := buckets[k]
		if !ok {
			b = &SummaryRow{
				TypeDeDepot: r.TypeDeDepot,
				FlagStockDM: r.FlagStockDM,
				ParQualite:  map[string]float64{},
			}
			buckets[k] = b
			order = append(order, k)
		}
		b.ParQualite[r.CodeQualite] += r.QteStock
		b.Total += r.QteStock
	}

	out := make([]SummaryRow, 0, len(order))
	for _, k := range order {
		out = append(out, *buckets[k])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TypeDeDepot != out[j].TypeDeDepot {
			return out[i].TypeDeDepot < out[j].TypeDeDepot
		}
		return out[i].FlagStockDM < out[j].FlagStockDM
	})
	return out
}

// Details returns the per-store stock lines of one article, in table order.
func (t *Tables) Details(codeArticle string) []Row {
	var out []Row
	for _, r := range t.Stock {
		if r.CodeArticle == codeArticle {
			out = append(out, r)
		}
	}
	return out
}

// BOMNode is one article in a bill-of-materials tree.
type BOMNode struct {
	CodeArticle string    `json:"code_article"`
	Libelle     string    `json:"libelle_court_article,omitempty"`
	Quantite    float64   `json:"quantite"`
	Children    []BOMNode `json:"children,omitempty"`
}

// BOMTree expands the nomenclature of an article recursively. An article
// already present on the path to the root is not expanded again, so cyclic
// nomenclature data cannot hang the traversal.
func (t *Tables) BOMTree(codeArticle string) BOMNode {
	children := map[string][]Nomenclature{}
	for _, n := range t.Nomenclatures {
		children[n.CodeArticlePere] = append(children[n.CodeArticlePere], n)
	}
	labels := map[string]string{}
	for _, it := range t.Items {
		labels[it.CodeArticle] = it.LibelleCourtArticle
	}

	var expand func(code string, qty float64, path map[string]bool) BOMNode
	expand = func(code string, qty float64, path map[string]bool) BOMNode {
		node := BOMNode{CodeArticle: code, Libelle: labels[code], Quantite: qty}
		if path[code] {
			return node
		}
		path[code] = true
		for _, link := range children[code] {
			node.Children = append(node.Children, expand(link.CodeArticleFils, link.Quantite, path))
		}
		delete(path, code)
		return node
	}
	return expand(codeArticle, 1, map[string]bool{})
}

// distanceKm is the great-circle distance between two points.
func distanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lon1)
	b := s2.LatLngFromDegrees(lat2, lon2)
	return a.Distance(b).Radians() * earthRadiusKm
}

// StoreDistance is a store with its distance from the query point.
type StoreDistance struct {
	Store
	DistanceKm float64 `json:"distance_km"`
}

// NearbyStores returns the stores within radiusKm of a point, closest first.
// When types is non-empty only those depot types are kept (case-insensitive).
func (t *Tables) NearbyStores(lat, lon, radiusKm float64, types []string) []StoreDistance {
	wanted := map[string]bool{}
	for _, ty := range types {
		if ty = strings.ToLower(strings.TrimSpace(ty)); ty != "" {
			wanted[ty] = true
		}
	}

	var out []StoreDistance
	for _, s := range t.Stores {
		if s.Latitude == nil || s.Longitude == nil {
			continue
		}
		if len(wanted) > 0 && !wanted[strings.ToLower(s.TypeDeDepot)] {
			continue
		}
		d := distanceKm(lat, lon, *s.Latitude, *s.Longitude)
		if d > radiusKm {
			continue
		}
		out = append(out, StoreDistance{Store: s, DistanceKm: d})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out
}

// PUDODistance is a pickup point with its distance from the query point.
type PUDODistance struct {
	pudo.PointRelais
	DistanceKm float64 `json:"distance_km"`
}

// Networks the PUDO search understands as filters.
const (
	NetworkChronopost9h  = "chronopost 9h00"
	NetworkChronopost13h = "chronopost 13h00"
	NetworkLM2S          = "lm2s"
	NetworkTDF           = "tdf"
)

func matchesNetwork(p pudo.PointRelais, network string) bool {
	cat := strings.ToLower(p.Categorie)
	prest := strings.ToLower(p.NomPrestataire)
	switch network {
	case NetworkChronopost9h:
		return cat == "c9" || cat == "c9_c13"
	case NetworkChronopost13h:
		return cat == "c13" || cat == "c9_c13"
	case NetworkLM2S:
		return prest == "lm2s"
	case NetworkTDF:
		return prest == "tdf"
	}
	return false
}

// NearbyPUDO returns the pickup points within radiusKm of a point, closest
// first. Rows without coordinates are skipped. When networks is non-empty a
// point is kept if it belongs to any of the requested networks; each point
// appears at most once.
func (t *Tables) NearbyPUDO(lat, lon, radiusKm float64, networks []string) []PUDODistance {
	var wanted []string
	for _, n := range networks {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			wanted = append(wanted, n)
		}
	}

	var out []PUDODistance
	for _, p := range t.Directory {
		if p.Latitude == nil || p.Longitude == nil {
			continue
		}
		if len(wanted) > 0 {
			keep := false
			for _, n := range wanted {
				if matchesNetwork(p, n) {
					keep = true
					break
				}
			}
			if !keep {
				continue
			}
		}
		d := distanceKm(lat, lon, *p.Latitude, *p.Longitude)
		if d > radiusKm {
			continue
		}
		out = append(out, PUDODistance{PointRelais: p, DistanceKm: d})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out
}

// PUDOByCode looks a pickup point up in the directory.
func (t *Tables) PUDOByCode(code string) (pudo.PointRelais, bool) {
	for _, p := range t.Directory {
		if p.CodePointRelais == code {
			return p, true
		}
	}
	return pudo.PointRelais{}, false
}
