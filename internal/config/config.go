package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

var (
	ErrMissingDataDir   = errors.New("DATA_DIR environment variable is required")
	ErrBadRefreshPeriod = errors.New("REFRESH_MINUTES must be a positive integer")
)

// Paths locates every data directory and file the pipeline reads and writes.
// It can be loaded from a YAML file so deployments describe their share
// layout in one place.
type Paths struct {
	// ChronopostCSVDir holds the raw C9/C13 export CSVs.
	ChronopostCSVDir string `yaml:"chronopost_csv_dir"`
	// ChronopostExcelDir holds the per-file transformed parquet tables.
	ChronopostExcelDir string `yaml:"chronopost_excel_dir"`
	// ChronopostFusionDir holds the per-date fused parquet tables.
	ChronopostFusionDir string `yaml:"chronopost_fusion_dir"`
	// EligibilityFile is the C9 coverage workbook.
	EligibilityFile string `yaml:"eligibility_file"`
	// LM2SDir holds the LM2S directory workbooks.
	LM2SDir string `yaml:"lm2s_dir"`
	// SpeedQuotidienDir holds one sub-directory per daily SPEED drop.
	SpeedQuotidienDir string `yaml:"speed_quotidien_dir"`
	SpeedFileName     string `yaml:"speed_file_name"`
	SpeedSheetName    string `yaml:"speed_sheet_name"`
	// GPSCacheFile is the persistent geocoding cache.
	GPSCacheFile string `yaml:"gps_cache_file"`
}

// Config holds the full service configuration.
type Config struct {
	// Port the HTTP API listens on.
	Port string

	// DataDir holds the query-layer parquet tables.
	DataDir string

	Paths Paths

	// Sources maps a query table name to the upstream file it is derived
	// from, for update-status reporting. Loaded from SOURCE_<TABLE> vars.
	Sources map[string]string

	// GeocodeBaseURL overrides the public geocoding endpoint.
	GeocodeBaseURL string

	// AllowedOrigins for CORS, comma-separated in the environment.
	AllowedOrigins []string

	// AdminTokenHash is the bcrypt hash the admin bearer token is checked
	// against. Empty disables the admin routes.
	AdminTokenHash string

	// RefreshInterval between background snapshot reloads.
	RefreshInterval time.Duration
}

const defaultRefreshMinutes = 15

// LoadFromEnv loads configuration from environment variables.
//
// Environment variables:
//   - PORT: HTTP listen port (default: 8080)
//   - DATA_DIR: query-layer parquet directory (required)
//   - PATHS_FILE: optional YAML file describing the pipeline data layout
//   - GEOCODE_BASE_URL: geocoding endpoint override
//   - ALLOWED_ORIGINS: comma-separated CORS origin allow-list
//   - ADMIN_TOKEN_HASH: bcrypt hash of the admin bearer token
//   - REFRESH_MINUTES: background reload period (default: 15)
//   - SOURCE_<TABLE>: upstream file for a query table, e.g. SOURCE_STOCK_554
func LoadFromEnv() (Config, error) {
	cfg := Config{
		Port:            envOr("PORT", "8080"),
		DataDir:         os.Getenv("DATA_DIR"),
		GeocodeBaseURL:  os.Getenv("GEOCODE_BASE_URL"),
		AdminTokenHash:  os.Getenv("ADMIN_TOKEN_HASH"),
		RefreshInterval: defaultRefreshMinutes * time.Minute,
		Sources:         map[string]string{},
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	if mins := os.Getenv("REFRESH_MINUTES"); mins != "" {
		n, err := strconv.Atoi(mins)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("%w: %q", ErrBadRefreshPeriod, mins)
		}
		cfg.RefreshInterval = time.Duration(n) * time.Minute
	}

	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, "SOURCE_") || value == "" {
			continue
		}
		table := strings.ToLower(strings.TrimPrefix(name, "SOURCE_"))
		cfg.Sources[table] = value
	}

	if pathsFile := os.Getenv("PATHS_FILE"); pathsFile != "" {
		paths, err := LoadPaths(pathsFile)
		if err != nil {
			return cfg, err
		}
		cfg.Paths = paths
	}

	return cfg, nil
}

// LoadPaths reads a YAML data-layout file.
func LoadPaths(path string) (Paths, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Paths{}, fmt.Errorf("reading paths file %s: %w", path, err)
	}
	var p Paths
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Paths{}, fmt.Errorf("parsing paths file %s: %w", path, err)
	}
	return p, nil
}

// Validate checks that the configuration can serve the API.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return ErrMissingDataDir
	}
	return nil
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
