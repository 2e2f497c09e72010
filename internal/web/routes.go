package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TDFSupplyChain/SC-Backend/internal/state"
)

// Options configures the route setup.
type Options struct {
	AllowedOrigins []string
	AdminTokenHash string
}

func SetupRoutes(app *state.App, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(CORSMiddleware(opts.AllowedOrigins))

	s := &Server{App: app}

	r.Get("/pudo", s.ListPUDOHandler)
	r.Get("/pudo/near", s.NearPUDOHandler)
	r.Get("/pudo/{code}", s.GetPUDOHandler)
	r.Get("/stock/{code}/summary", s.StockSummaryHandler)
	r.Get("/stock/{code}/details", s.StockDetailsHandler)
	r.Get("/items/{code}/bom", s.BOMHandler)
	r.Get("/stores/near", s.NearStoresHandler)
	r.Get("/update/status", s.UpdateStatusHandler)

	r.Group(func(r chi.Router) {
		r.Use(AdminMiddleware(opts.AdminTokenHash))
		r.Post("/update", s.TriggerUpdateHandler)
	})

	return r
}
