// Package threadstore keeps conversation history outside the relay. Stores
// are append-only per thread.
package threadstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/vasifvortex/azercell-project3/domain"
)

type Store interface {
	Append(ctx context.Context, threadID string, turn domain.Turn) error
	// Load returns the turns of a thread in the order they were appended.
	Load(ctx context.Context, threadID string) ([]domain.Turn, error)
	// List returns thread ids in the order the threads were first written.
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, threadID string) error
	Close() error
}

const (
	KindMemory = "memory"
	KindSQLite = "sqlite"
	KindRedis  = "redis"
)

// Open builds the store named by kind. dsn is a file path for sqlite and an
// address for redis.
func Open(ctx context.Context, kind, dsn string) (Store, error) {
	switch strings.ToLower(kind) {
	case "", KindMemory:
		return NewMemory(), nil
	case KindSQLite:
		return NewSQLite(ctx, dsn)
	case KindRedis:
		return NewRedis(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown thread store %q", kind)
	}
}
