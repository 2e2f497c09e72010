package stock

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/TDFSupplyChain/SC-Backend/internal/pudo"
)

// Row is one stock line of the 554 extract.
type Row struct {
	CodeArticle    string  `parquet:"code_article" json:"code_article"`
	CodeMagasin    string  `parquet:"code_magasin" json:"code_magasin"`
	LibelleMagasin string  `parquet:"libelle_magasin" json:"libelle_magasin"`
	TypeDeDepot    string  `parquet:"type_de_depot" json:"type_de_depot"`
	Emplacement    string  `parquet:"emplacement" json:"emplacement"`
	FlagStockDM    string  `parquet:"flag_stock_d_m" json:"flag_stock_d_m"`
	CodeQualite    string  `parquet:"code_qualite" json:"code_qualite"`
	QteStock       float64 `parquet:"qte_stock" json:"qte_stock"`
}

// Store is one warehouse or technician depot.
type Store struct {
	CodeMagasin    string   `parquet:"code_magasin" json:"code_magasin"`
	LibelleMagasin string   `parquet:"libelle_magasin" json:"libelle_magasin"`
	TypeDeDepot    string   `parquet:"type_de_depot" json:"type_de_depot"`
	Adresse1       string   `parquet:"adresse_1" json:"adresse_1"`
	Adresse2       string   `parquet:"adresse_2" json:"adresse_2"`
	CodePostal     string   `parquet:"code_postal" json:"code_postal"`
	Ville          string   `parquet:"ville" json:"ville"`
	Latitude       *float64 `parquet:"latitude,optional" json:"latitude"`
	Longitude      *float64 `parquet:"longitude,optional" json:"longitude"`
}

// Item is one catalog article.
type Item struct {
	CodeArticle         string `parquet:"code_article" json:"code_article"`
	LibelleCourtArticle string `parquet:"libelle_court_article" json:"libelle_court_article"`
	LibelleLongArticle  string `parquet:"libelle_long_article" json:"libelle_long_article"`
	TypeArticle         string `parquet:"type_article" json:"type_article"`
	StatutAbrege        string `parquet:"statut_abrege_article" json:"statut_abrege_article"`
	Criticite           string `parquet:"criticite_pim" json:"criticite_pim"`
}

// Nomenclature is one parent-child link of the bill of materials.
type Nomenclature struct {
	CodeArticlePere string  `parquet:"code_article_pere" json:"code_article_pere"`
	CodeArticleFils string  `parquet:"code_article_fils" json:"code_article_fils"`
	Quantite        float64 `parquet:"quantite" json:"quantite"`
}

// Tables is the in-memory query layer: every parquet table the read API
// serves from, loaded wholesale.
type Tables struct {
	Stock         []Row
	Stores        []Store
	Items         []Item
	Nomenclatures []Nomenclature
	Directory     []pudo.PointRelais
}

// TableStatus reports how one table load went.
type TableStatus struct {
	Name  string `json:"name"`
	Rows  int    `json:"rows"`
	Error string `json:"error,omitempty"`
}

func loadTable[T any](dir, name string, statuses *[]TableStatus) []T {
	path := tablePath(dir, name)
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("[stock] table %s missing, serving empty", name)
			*statuses = append(*statuses, TableStatus{Name: name, Error: "missing"})
		} else {
			log.Printf("[stock] table %s unreadable: %v", name, err)
			*statuses = append(*statuses, TableStatus{Name: name, Error: err.Error()})
		}
		return nil
	}
	*statuses = append(*statuses, TableStatus{Name: name, Rows: len(rows)})
	return rows
}

// Load reads every query table under dir. A missing or unreadable table is
// served empty; the per-table statuses tell the caller what loaded.
func Load(dir string) (*Tables, []TableStatus) {
	var statuses []TableStatus
	t := &Tables{
		Stock:         loadTable[Row](dir, "stock_554", &statuses),
		Stores:        loadTable[Store](dir, "stores", &statuses),
		Items:         loadTable[Item](dir, "items", &statuses),
		Nomenclatures: loadTable[Nomenclature](dir, "nomenclatures", &statuses),
		Directory:     loadTable[pudo.PointRelais](dir, "pudo_directory", &statuses),
	}
	return t, statuses
}

// ItemByCode returns the catalog entry for a code, if known.
func (t *Tables) ItemByCode(code string) (Item, bool) {
	for _, it := range t.Items {
		if it.CodeArticle == code {
			return it, true
		}
	}
	return Item{}, false
}

// TableFiles lists the parquet files Load expects under a data directory.
func TableFiles() []string {
	return []string{"stock_554", "stores", "items", "nomenclatures", "pudo_directory"}
}

func tablePath(dir, name string) string {
	return filepath.Join(dir, fmt.Sprintf("%s.parquet", name))
}
