package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/TDFSupplyChain/SC-Backend/internal/state"
)

const defaultRadiusKm = 10

// Server serves the read-only query API over the current snapshot.
type Server struct {
	App *state.App
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// geoQuery parses lat/lon/radius query parameters.
func geoQuery(r *http.Request) (lat, lon, radius float64, err error) {
	lat, err = strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		return 0, 0, 0, err
	}
	lon, err = strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil {
		return 0, 0, 0, err
	}
	radius = defaultRadiusKm
	if raw := r.URL.Query().Get("radius"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, 0, 0, err
		}
	}
	return lat, lon, radius, nil
}

// csvParam splits a comma-separated query parameter, dropping empties.
func csvParam(r *http.Request, name string) []string {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (s *Server) ListPUDOHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.App.Snapshot().Tables.Directory)
}

func (s *Server) GetPUDOHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	p, ok := s.App.Snapshot().Tables.PUDOByCode(code)
	if !ok {
		http.Error(w, "Unknown point relais", http.StatusNotFound)
		return
	}
	writeJSON(w, p)
}

func (s *Server) NearPUDOHandler(w http.ResponseWriter, r *http.Request) {
	lat, lon, radius, err := geoQuery(r)
	if err != nil {
		http.Error(w, "lat and lon are required numbers", http.StatusBadRequest)
		return
	}

	points := s.App.Snapshot().Tables.NearbyPUDO(lat, lon, radius, csvParam(r, "reseaux"))
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		if limit < len(points) {
			points = points[:limit]
		}
	}
	writeJSON(w, points)
}

func (s *Server) StockSummaryHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	writeJSON(w, s.App.Snapshot().Tables.Summary(code))
}

func (s *Server) StockDetailsHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	writeJSON(w, s.App.Snapshot().Tables.Details(code))
}

func (s *Server) BOMHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	writeJSON(w, s.App.Snapshot().Tables.BOMTree(code))
}

func (s *Server) NearStoresHandler(w http.ResponseWriter, r *http.Request) {
	lat, lon, radius, err := geoQuery(r)
	if err != nil {
		http.Error(w, "lat and lon are required numbers", http.StatusBadRequest)
		return
	}
	writeJSON(w, s.App.Snapshot().Tables.NearbyStores(lat, lon, radius, csvParam(r, "types")))
}

func (s *Server) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	snap := s.App.Snapshot()
	writeJSON(w, map[string]any{
		"loaded_at":   snap.LoadedAt,
		"tables":      snap.Statuses,
		"files":       s.App.UpdateStatus(),
		"last_reload": s.App.LastReload(),
	})
}

func (s *Server) TriggerUpdateHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.App.Reload())
}
