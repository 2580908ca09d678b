package kv

import "fmt"

// Backend names a storage implementation.
type Backend string

// Backend names accepted by Open.
const (
	BackendMemory   Backend = "memory"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
	BackendRedis    Backend = "redis"
)

// Valid reports whether b names a known backend.
func (b Backend) Valid() bool {
	switch b {
	case BackendMemory, BackendSQLite, BackendPostgres, BackendRedis:
		return true
	}
	return false
}

// Options selects and configures a backend.
type Options struct {
	Backend     Backend
	SQLitePath  string
	PostgresDSN string
	MaxConns    int
	RedisAddr   string
	RedisPrefix string
}

// Open constructs the Store named by opts.Backend. An empty backend means memory.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendSQLite:
		return NewSQLite(opts.SQLitePath)
	case BackendPostgres:
		return NewGorm(GormConfig{DSN: opts.PostgresDSN, MaxConns: opts.MaxConns})
	case BackendRedis:
		return NewRedis(opts.RedisAddr, opts.RedisPrefix)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}
