package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const connectAttempts = 5

var connectBackoff = 500 * time.Millisecond

// pingWithRetry pings until it succeeds, the attempts run out or ctx ends.
// The wait doubles after each failure.
func pingWithRetry(ctx context.Context, name string, p Pinger, log zerolog.Logger) error {
	wait := connectBackoff
	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if err = p.Ping(ctx); err == nil {
			return nil
		}
		if attempt == connectAttempts {
			break
		}
		log.Warn().Err(err).
			Str("dependency", name).
			Int("attempt", attempt).
			Dur("retry_in", wait).
			Msg("dependency not ready")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
	return fmt.Errorf("ping %s after %d attempts: %w", name, connectAttempts, err)
}
