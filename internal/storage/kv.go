// Package storage provides durable key-value engines for client state.
//
// Three engines implement KV:
//
//   - FileKV: a single sealed file (ChaCha20-Poly1305), the default
//   - BadgerKV: an embedded Badger database
//   - MemoryKV: a process-local map for tests and ephemeral runs
//
// Values are small (credentials), so every engine favours durability of
// each write over throughput.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// Common errors
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrClosed      = errors.New("kv engine closed")
)

// KV defines the interface for durable key-value storage.
//
// Implementations must be safe for concurrent use.
type KV interface {
	// Get retrieves a value by key.
	// Returns ErrKeyNotFound if key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a key-value pair.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes the given keys in one write. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error

	// Close releases the engine.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Config configures a KV engine.
type Config struct {
	// Backend selects the engine ("file", "badger", "memory").
	// Default: "file"
	Backend string

	// Dir is the state directory. Required for durable backends.
	Dir string

	// Badger-specific configuration
	Badger BadgerConfig
}

// BadgerConfig contains Badger tuning parameters.
type BadgerConfig struct {
	// GCInterval is the interval between value log GC runs.
	// Default: 10m
	GCInterval string

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	// Default: 0.5
	GCThreshold float64

	// SyncWrites enables fsync after each write.
	// Default: true (credentials must survive a crash right after login)
	SyncWrites bool
}

// DefaultConfig returns the default KV configuration.
func DefaultConfig(dir string) Config {
	return Config{
		Backend: BackendFile,
		Dir:     dir,
		Badger:  DefaultBadgerConfig(),
	}
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:  "10m",
		GCThreshold: 0.5,
		SyncWrites:  true,
	}
}

// Open opens the engine selected by cfg.Backend.
func Open(cfg Config, logger *slog.Logger) (KV, error) {
	if logger == nil {
		logger = slog.Default()
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend == "" {
		backend = BackendFile
	}

	switch backend {
	case BackendMemory:
		return NewMemoryKV(), nil
	case BackendFile:
		if cfg.Dir == "" {
			return nil, fmt.Errorf("file: dir is required")
		}
		return OpenFileKV(cfg.Dir, logger)
	case BackendBadger:
		if cfg.Dir == "" {
			return nil, fmt.Errorf("badger: dir is required")
		}
		bcfg := cfg
		bcfg.Dir = filepath.Join(cfg.Dir, "badger")
		return NewBadgerKV(bcfg, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
