package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"golang.org/x/crypto/bcrypt"

	"github.com/TDFSupplyChain/SC-Backend/internal/pudo"
	"github.com/TDFSupplyChain/SC-Backend/internal/state"
	"github.com/TDFSupplyChain/SC-Backend/internal/stock"
)

func f(v float64) *float64 { return &v }

func testApp(t *testing.T) *state.App {
	t.Helper()
	dir := t.TempDir()

	directory := []pudo.PointRelais{
		{CodePointRelais: "ABC123", Enseigne: "Tabac du Centre", Statut: pudo.StatutOuvert,
			Categorie: pudo.CategoryC9C13, NomPrestataire: pudo.PrestataireChronopost,
			Latitude: f(48.86), Longitude: f(2.35)},
		{CodePointRelais: "XYZ999", Enseigne: "Relais du Volcan", Statut: pudo.StatutOuvert,
			Categorie: pudo.CategoryC13, NomPrestataire: pudo.PrestataireChronopost,
			Latitude: f(48.80), Longitude: f(2.30)},
	}
	if err := parquet.WriteFile(filepath.Join(dir, "pudo_directory.parquet"), directory); err != nil {
		t.Fatal(err)
	}

	rows := []stock.Row{
		{CodeArticle: "TDF0001", CodeMagasin: "M1", TypeDeDepot: "CENTRAL", FlagStockDM: "D", CodeQualite: "BON", QteStock: 7},
		{CodeArticle: "TDF0001", CodeMagasin: "M2", TypeDeDepot: "CENTRAL", FlagStockDM: "D", CodeQualite: "HS", QteStock: 1},
	}
	if err := parquet.WriteFile(filepath.Join(dir, "stock_554.parquet"), rows); err != nil {
		t.Fatal(err)
	}

	app := state.New(dir, nil)
	app.Reload()
	return app
}

func get(t *testing.T, h http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGetPUDOHandler(t *testing.T) {
	h := SetupRoutes(testApp(t), Options{})

	rec := get(t, h, "/pudo/ABC123")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var p pudo.PointRelais
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if p.Enseigne != "Tabac du Centre" {
		t.Errorf("enseigne = %q", p.Enseigne)
	}

	if rec := get(t, h, "/pudo/NOPE"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown code status = %d", rec.Code)
	}
}

func TestNearPUDOHandler(t *testing.T) {
	h := SetupRoutes(testApp(t), Options{})

	rec := get(t, h, "/pudo/near?lat=48.85&lon=2.34&radius=20")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var points []json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &points); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(points) != 2 {
		t.Errorf("points = %d", len(points))
	}

	rec = get(t, h, "/pudo/near?lat=48.85&lon=2.34&radius=20&limit=1")
	points = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &points); err != nil {
		t.Fatal(err)
	}
	if len(points) != 1 {
		t.Errorf("limited points = %d", len(points))
	}

	if rec := get(t, h, "/pudo/near?lat=abc&lon=2.34"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad lat status = %d", rec.Code)
	}
}

func TestStockSummaryHandler(t *testing.T) {
	h := SetupRoutes(testApp(t), Options{})

	rec := get(t, h, "/stock/TDF0001/summary")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var rows []stock.SummaryRow
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(rows) != 1 || rows[0].Total != 8 {
		t.Errorf("summary = %+v", rows)
	}
}

func TestAdminUpdateRoute(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("sesame"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	h := SetupRoutes(testApp(t), Options{AdminTokenHash: string(hash)})

	post := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/update", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := post(""); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d", rec.Code)
	}
	if rec := post("wrong"); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d", rec.Code)
	}

	rec := post("sesame")
	if rec.Code != http.StatusOK {
		t.Fatalf("good token status = %d", rec.Code)
	}
	var summary state.ReloadSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if summary.RunID == "" {
		t.Error("reload summary missing run id")
	}

	// No hash configured: the route is disabled outright.
	disabled := SetupRoutes(testApp(t), Options{})
	req := httptest.NewRequest(http.MethodPost, "/update", nil)
	req.Header.Set("Authorization", "Bearer sesame")
	rec = httptest.NewRecorder()
	disabled.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("disabled admin status = %d", rec.Code)
	}
}

func TestCORSMiddleware(t *testing.T) {
	h := SetupRoutes(testApp(t), Options{AllowedOrigins: []string{"https://app.example"}})

	req := httptest.NewRequest(http.MethodGet, "/pudo", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Errorf("allowed origin header = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/pudo", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unknown origin must not be echoed")
	}

	// Preflight short-circuits.
	req = httptest.NewRequest(http.MethodOptions, "/pudo", nil)
	req.Header.Set("Origin", "https://app.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d", rec.Code)
	}
}

func TestUpdateStatusHandler(t *testing.T) {
	h := SetupRoutes(testApp(t), Options{})

	rec := get(t, h, "/update/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Tables []stock.TableStatus `json:"tables"`
		Files  []state.FileStatus  `json:"files"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(body.Files) != len(stock.TableFiles()) {
		t.Errorf("files = %d", len(body.Files))
	}
}
