package state

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/TDFSupplyChain/SC-Backend/internal/stock"
)

// Snapshot is one immutable view of the query tables. Readers grab the
// current snapshot once and work on it; a reload swaps the pointer and never
// mutates a published snapshot.
type Snapshot struct {
	Tables   *stock.Tables
	Statuses []stock.TableStatus
	LoadedAt time.Time
}

// ReloadSummary describes one reload run.
type ReloadSummary struct {
	RunID     string              `json:"run_id"`
	StartedAt time.Time           `json:"started_at"`
	Duration  string              `json:"duration"`
	Tables    []stock.TableStatus `json:"tables"`
	HasErrors bool                `json:"has_errors"`
}

// FileStatus compares a query table against its upstream source file.
type FileStatus struct {
	Name        string     `json:"name"`
	Source      string     `json:"source,omitempty"`
	SourceMtime *time.Time `json:"source_mtime,omitempty"`
	TableMtime  *time.Time `json:"table_mtime,omitempty"`
	NeedsUpdate bool       `json:"needs_update"`
}

// App owns the data directory and the current snapshot.
type App struct {
	dataDir string
	// sources maps a table name to the upstream file it is derived from,
	// when one is configured; used only for status reporting.
	sources map[string]string

	current    atomic.Pointer[Snapshot]
	lastReload atomic.Pointer[ReloadSummary]
}

// New builds an App over a data directory. sources may be nil.
func New(dataDir string, sources map[string]string) *App {
	a := &App{dataDir: dataDir, sources: sources}
	a.current.Store(&Snapshot{Tables: &stock.Tables{}})
	return a
}

// Snapshot returns the current view. Never nil.
func (a *App) Snapshot() *Snapshot {
	return a.current.Load()
}

// LastReload returns the most recent reload summary, or nil before the first
// reload.
func (a *App) LastReload() *ReloadSummary {
	return a.lastReload.Load()
}

// Reload re-reads every query table and atomically swaps the snapshot.
// A table that fails to load is served empty; the summary records it.
func (a *App) Reload() ReloadSummary {
	started := time.Now()
	tables, statuses := stock.Load(a.dataDir)

	summary := ReloadSummary{
		RunID:     uuid.New().String(),
		StartedAt: started,
		Duration:  time.Since(started).String(),
		Tables:    statuses,
	}
	for _, s := range statuses {
		if s.Error != "" {
			summary.HasErrors = true
		}
	}

	a.current.Store(&Snapshot{Tables: tables, Statuses: statuses, LoadedAt: started})
	a.lastReload.Store(&summary)
	log.Printf("[state] reload %s: %d table(s), errors=%v", summary.RunID, len(statuses), summary.HasErrors)
	return summary
}

func mtime(path string) *time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	t := info.ModTime()
	return &t
}

// UpdateStatus reports, per table, whether its upstream source file is newer
// than the loaded parquet. A table needs an update when a source is
// configured and present, and the table file is missing or older.
func (a *App) UpdateStatus() []FileStatus {
	var out []FileStatus
	for _, name := range stock.TableFiles() {
		fs := FileStatus{
			Name:       name,
			TableMtime: mtime(filepath.Join(a.dataDir, name+".parquet")),
		}
		if src, ok := a.sources[name]; ok && src != "" {
			fs.Source = src
			fs.SourceMtime = mtime(src)
		}
		fs.NeedsUpdate = fs.SourceMtime != nil &&
			(fs.TableMtime == nil || fs.SourceMtime.After(*fs.TableMtime))
		out = append(out, fs)
	}
	return out
}

// StartRefresh reloads the snapshot on a fixed interval until ctx is done.
func (a *App) StartRefresh(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.Reload()
			}
		}
	}()
}
