package sequence

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/lekhabooks/lekha/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RunSerialized executes fn inside its own transaction, retrying the whole
// transaction when a unique-constraint conflict signals that a concurrent
// caller claimed the same code. Attempts are bounded; exhaustion surfaces
// ErrConcurrencyConflict, which callers may retry.
func (g *Generator) RunSerialized(ctx context.Context, conn *gorm.DB, attempts int, fn func(tx *gorm.DB) error) error {
	if attempts <= 0 {
		attempts = 5
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := conn.Transaction(func(tx *gorm.DB) error {
			return fn(tx)
		})
		if err == nil {
			return nil
		}
		if !db.IsDuplicateKeyErr(err) {
			return err
		}
		lastErr = err
		g.log.Debug("sequence conflict, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff(attempt)):
		}
	}
	return fmt.Errorf("%w: %v", ErrConcurrencyConflict, lastErr)
}

// NextInTx allocates a code and hands it to fn inside one serialized
// transaction, for callers without their own transaction loop.
func (g *Generator) NextInTx(ctx context.Context, conn *gorm.DB, attempts int, req Request, fn func(tx *gorm.DB, code string) error) error {
	return g.RunSerialized(ctx, conn, attempts, func(tx *gorm.DB) error {
		code, err := g.Next(ctx, tx, req)
		if err != nil {
			return err
		}
		return fn(tx, code)
	})
}

// backoff grows linearly with jitter; contention windows here are single
// statements, so delays stay in the low milliseconds.
func backoff(attempt int) time.Duration {
	base := time.Duration(attempt) * 5 * time.Millisecond
	jitter := time.Duration(rand.Int63n(int64(5 * time.Millisecond)))
	return base + jitter
}
