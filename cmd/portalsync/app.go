package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	cache "github.com/krisalay/request-cache"
	"github.com/krisalay/request-cache/config"
	"github.com/krisalay/request-cache/expiration"
	"github.com/krisalay/request-cache/httpfetch"
	"github.com/krisalay/request-cache/metrics"
	"github.com/krisalay/request-cache/persistent"
	"github.com/krisalay/request-cache/refresh"
	"github.com/krisalay/request-cache/storage"
	"github.com/krisalay/request-cache/storage/boltstore"
	"github.com/krisalay/request-cache/storage/filestore"
	"github.com/krisalay/request-cache/storage/memory"
	"github.com/krisalay/request-cache/storage/sqlitestore"
	"github.com/krisalay/request-cache/writepolicy"
	"github.com/prometheus/client_golang/prometheus"
)

const appName = "portalsync"

// Cache keys and TTLs used by the portal views.
const (
	municipiosKey = "municipios_pr_cache_v1"
	roadsKey      = "estradas-rurais"
	leadersKey    = "liderancas"
	machineryKey  = "pedidos-maquinarios"

	roadsTTL = 3 * time.Minute
)

type municipio struct {
	ID   int    `json:"id"`
	Nome string `json:"nome"`
}

type road struct {
	ID         int     `json:"id"`
	Nome       string  `json:"nome"`
	Municipio  string  `json:"municipio"`
	ExtensaoKm float64 `json:"extensao_km"`
}

/*
run wires the stack the way a portal process does:
- reference data through the persistent cache
- view data through the shared request cache, warmed in parallel
*/
func run(ctx context.Context, cfg config.Config, logger *slog.Logger, reg prometheus.Registerer, out io.Writer) error {
	st := openStorage(cfg, logger)
	defer st.Close()

	_, downgraded := st.(storage.Unavailable)
	durable := cfg.Persistent() && !downgraded
	logger.Info("reference storage ready", "driver", cfg.StorageDriver, "survives_restart", durable)

	ref := persistent.New(st,
		persistent.WithLogger(logger),
		persistent.WithMetrics(metrics.NewPrometheus(reg, "portal", "reference")),
		persistent.WithWritePolicy(newWritePolicy(cfg, st, logger)),
	)
	defer ref.Close()

	opts := []cache.Option{
		cache.WithShards(cfg.Shards),
		cache.WithCapacity(cfg.Capacity, cfg.EvictionPolicy()),
		cache.WithFreshness(expiration.New(cfg.FreshnessKind())),
		cache.WithDefaultTTL(cfg.DefaultTTL),
		cache.WithMetrics(metrics.NewPrometheus(reg, "portal", "request")),
		cache.WithLogger(logger),
	}
	if cfg.RefreshAhead > 0 {
		opts = append(opts, cache.WithRefreshAhead(refresh.Ahead{Ratio: cfg.RefreshAhead}))
	}
	rc, err := cache.New(opts...)
	if err != nil {
		return fmt.Errorf("build request cache: %w", err)
	}
	defer rc.Close()

	api := httpfetch.NewClient(cfg.BackendURL)

	municipios, err := persistent.LoadOrFetchAs(ctx, ref, municipiosKey,
		httpfetch.Func[[]municipio](api, "/api/municipios"), cfg.ReferenceTTL)
	if err != nil {
		return fmt.Errorf("load municipios: %w", err)
	}

	rc.PrefetchAll(ctx, 3,
		cache.Request{Key: roadsKey, Fetcher: httpfetch.Get[[]road](api, "/api/estradas-rurais"), Options: cache.Options{TTL: roadsTTL}},
		cache.Request{Key: leadersKey, Fetcher: httpfetch.Get[[]json.RawMessage](api, "/api/liderancas")},
		cache.Request{Key: machineryKey, Fetcher: httpfetch.Get[[]json.RawMessage](api, "/api/pedidos-maquinarios")},
	)

	// Served from the warm cache unless the prefetch failed.
	roads, err := cache.FetchAs(ctx, rc, roadsKey,
		httpfetch.Func[[]road](api, "/api/estradas-rurais"), cache.Options{TTL: roadsTTL})
	if err != nil {
		return fmt.Errorf("load roads: %w", err)
	}

	fmt.Fprintln(out, "==================== PORTAL CACHE ====================")
	fmt.Fprintf(out, "STORAGE        : %s\n", cfg.StorageDriver)
	fmt.Fprintf(out, "PERSISTENT     : %t\n", durable)
	fmt.Fprintf(out, "MUNICIPIOS     : %d\n", len(municipios))
	fmt.Fprintf(out, "ESTRADAS       : %d\n", len(roads))
	fmt.Fprintf(out, "CACHED KEYS    : %d\n", rc.Len())
	return nil
}

// openStorage opens the configured backend. A backend that cannot be opened
// downgrades to storage.Unavailable so reference data is still fetched.
func openStorage(cfg config.Config, logger *slog.Logger) storage.Storage {
	var (
		st  storage.Storage
		err error
	)
	switch cfg.StorageDriver {
	case config.DriverMemory:
		return memory.New()
	case config.DriverNone:
		return storage.Unavailable{}
	case config.DriverFile:
		st, err = filestore.Open(storagePath(cfg, ""))
	case config.DriverSQLite:
		st, err = sqlitestore.Open(storagePath(cfg, "reference.sqlite"))
	default:
		st, err = boltstore.Open(storagePath(cfg, "reference.db"))
	}
	if err != nil {
		logger.Warn("reference storage unavailable, caching in memory only", "driver", cfg.StorageDriver, "err", err)
		return storage.Unavailable{}
	}
	return st
}

// storagePath resolves REQCACHE_STORAGE_PATH, falling back to a file (or,
// with an empty name, the directory itself) under the user config dir.
func storagePath(cfg config.Config, name string) string {
	if cfg.StoragePath != "" {
		return cfg.StoragePath
	}
	dir := filestore.DefaultDir(appName)
	if dir == "" {
		dir = filepath.Join(os.TempDir(), appName)
	}
	if name == "" {
		return dir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return filepath.Join(os.TempDir(), name)
	}
	return filepath.Join(dir, name)
}

func newWritePolicy(cfg config.Config, w writepolicy.Writer, logger *slog.Logger) writepolicy.WritePolicy {
	if writepolicy.Mode(cfg.WriteMode) == writepolicy.ModeBack {
		return writepolicy.NewWriteBackPolicy(w, cfg.WriteBuffer, logger)
	}
	return writepolicy.NewWriteThroughPolicy(w)
}
