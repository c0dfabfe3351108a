// Package lock implements cluster-wide mutual exclusion with PostgreSQL
// session advisory locks.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
)

// Locker takes advisory locks on a dedicated pooled connection per lease.
// The lock lives as long as that connection, so ttl is not enforced: a
// crashed holder frees the lock when its session ends.
type Locker struct {
	pool *pgxpool.Pool

	mu   sync.Mutex
	held map[string]*held
}

type held struct {
	conn *pgxpool.Conn
	key  string
}

// New creates a Locker on pool.
func New(pool *pgxpool.Pool) *Locker {
	return &Locker{pool: pool, held: make(map[string]*held)}
}

// TryAcquire attempts to take the lock name without waiting.
func (l *Locker) TryAcquire(ctx context.Context, name string, _ time.Duration) (domain.Lease, bool, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return domain.Lease{}, false, fmt.Errorf("acquire connection for lock %s: %w", name, err)
	}

	var ok bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock(hashtext($1))`, name).Scan(&ok); err != nil {
		conn.Release()
		return domain.Lease{}, false, fmt.Errorf("try advisory lock %s: %w", name, err)
	}
	if !ok {
		conn.Release()
		return domain.Lease{}, false, nil
	}

	lease := domain.Lease{Name: name, Token: uuid.NewString(), AcquiredAt: time.Now().UTC()}
	l.mu.Lock()
	l.held[lease.Token] = &held{conn: conn, key: name}
	l.mu.Unlock()
	return lease, true, nil
}

// Release frees the lock held under lease. Releasing an unknown lease is a no-op.
func (l *Locker) Release(ctx context.Context, lease domain.Lease) error {
	l.mu.Lock()
	h, ok := l.held[lease.Token]
	delete(l.held, lease.Token)
	l.mu.Unlock()
	if !ok {
		return nil
	}
	defer h.conn.Release()

	var released bool
	if err := h.conn.QueryRow(ctx, `SELECT pg_advisory_unlock(hashtext($1))`, h.key).Scan(&released); err != nil {
		// The session may still hold the lock; close it so the server frees it.
		_ = h.conn.Conn().Close(context.Background())
		return fmt.Errorf("advisory unlock %s: %w", h.key, err)
	}
	if !released {
		return fmt.Errorf("advisory unlock %s: lock was not held: %w", h.key, domain.ErrConflict)
	}
	return nil
}
