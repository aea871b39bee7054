package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// BackendKind enumerates the configurable cache backends (§6 config surface
// `cache_backend`).
type BackendKind string

const (
	BackendMemory      BackendKind = "memory"
	BackendFile        BackendKind = "file"
	BackendDistributed BackendKind = "distributed"
)

// downgradeOrder is the fixed fallback sequence spec.md §4.B mandates when
// a configured backend fails to initialize.
var downgradeOrder = []BackendKind{BackendDistributed, BackendFile, BackendMemory}

// Config controls Manager construction.
type Config struct {
	Backend BackendKind

	// Memory backend settings.
	MemoryCapacity int

	// File backend settings.
	FileDir        string
	FileSweepEvery int

	// Redis backend settings (only consulted when Backend==BackendDistributed).
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DefaultTTL time.Duration
}

// Manager selects and owns a single active Backend, applying the
// distributed -> file -> memory downgrade policy if the configured backend
// fails during initialization. Once downgraded it does not auto-recover
// mid-run (spec.md §4.B).
type Manager struct {
	active  Backend
	started BackendKind // What was actually configured, for comparison against Active().Name()
}

// NewManager builds a Manager, starting from cfg.Backend and downgrading
// through downgradeOrder on initialization failure.
func NewManager(ctx context.Context, cfg Config) (*Manager, error) {
	start := indexOf(downgradeOrder, cfg.Backend)
	if start < 0 {
		start = 0 // Unknown backend name: start from the top of the chain.
	}

	var lastErr error
	for _, kind := range downgradeOrder[start:] {
		backend, err := buildBackend(ctx, kind, cfg)
		if err != nil {
			lastErr = err
			slog.Warn("cache backend failed to initialize, downgrading",
				"backend", kind, "error", err)
			continue
		}
		if kind != cfg.Backend {
			slog.Warn("cache backend downgraded", "requested", cfg.Backend, "using", kind)
		}
		return &Manager{active: backend, started: kind}, nil
	}

	// Memory backend never fails to construct; this path is unreachable in
	// practice but guards against a future backend being added to the chain
	// that can fail.
	return nil, lastErr
}

func buildBackend(ctx context.Context, kind BackendKind, cfg Config) (Backend, error) {
	switch kind {
	case BackendDistributed:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		backend := NewRedisBackend(client, cfg.DefaultTTL)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := backend.Ping(pingCtx); err != nil {
			_ = backend.Close()
			return nil, err
		}
		return backend, nil

	case BackendFile:
		dir := cfg.FileDir
		if dir == "" {
			dir = "./cache"
		}
		return NewFileBackend(dir, cfg.DefaultTTL, cfg.FileSweepEvery)

	case BackendMemory:
		capacity := cfg.MemoryCapacity
		if capacity <= 0 {
			capacity = 1000 // spec.md §5 resource limits default.
		}
		return NewMemoryBackend(capacity, cfg.DefaultTTL), nil
	}
	return NewMemoryBackend(1000, cfg.DefaultTTL), nil
}

// Active returns the currently selected backend.
func (m *Manager) Active() Backend { return m.active }

// Downgraded reports whether the active backend differs from what was
// originally requested.
func (m *Manager) Downgraded(requested BackendKind) bool { return m.started != requested }

func indexOf(kinds []BackendKind, k BackendKind) int {
	for i, kk := range kinds {
		if kk == k {
			return i
		}
	}
	return -1
}
