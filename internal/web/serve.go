package web

import (
	"context"
	"log"
	"net/http"

	"github.com/TDFSupplyChain/SC-Backend/internal/config"
	"github.com/TDFSupplyChain/SC-Backend/internal/state"
)

// Serve loads the query tables, starts the background refresh and blocks
// serving the API.
func Serve(ctx context.Context, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	app := state.New(cfg.DataDir, cfg.Sources)
	app.Reload()
	app.StartRefresh(ctx, cfg.RefreshInterval)

	handler := SetupRoutes(app, Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AdminTokenHash: cfg.AdminTokenHash,
	})

	log.Printf("[web] listening on :%s", cfg.Port)
	return http.ListenAndServe("0.0.0.0:"+cfg.Port, handler)
}
