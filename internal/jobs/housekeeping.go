package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ResetTokenPurger clears reset token pairs that expired at or before now.
type ResetTokenPurger interface {
	PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

// IdleSweeper drops state that has not been touched since the cutoff.
type IdleSweeper interface {
	Sweep(cutoff time.Time) int
}

// PurgeResetTokens returns a job that clears expired reset tokens.
func PurgeResetTokens(repo ResetTokenPurger, now func() time.Time, logger *zap.Logger) Func {
	return func(ctx context.Context) error {
		n, err := repo.PurgeExpiredResetTokens(ctx, now().UTC())
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("Purged expired reset tokens", zap.Int64("count", n))
		}
		return nil
	}
}

// SweepIdle returns a job that evicts entries idle for longer than maxIdle.
func SweepIdle(sweeper IdleSweeper, maxIdle time.Duration, now func() time.Time, logger *zap.Logger) Func {
	return func(context.Context) error {
		if n := sweeper.Sweep(now().Add(-maxIdle)); n > 0 {
			logger.Debug("Evicted idle rate limiter entries", zap.Int("count", n))
		}
		return nil
	}
}

// SweepFunc adapts a plain function to IdleSweeper.
type SweepFunc func(cutoff time.Time) int

// Sweep calls f.
func (f SweepFunc) Sweep(cutoff time.Time) int { return f(cutoff) }
