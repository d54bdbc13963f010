package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/repository"
)

// OtpSweeper periodically clears expired OTP triples in bulk. It is a
// cleanup optimization: VerifyOtp re-checks expiry itself, so a missed
// tick never affects correctness.
type OtpSweeper struct {
	users    repository.UserRepository
	interval time.Duration
	logger   *zap.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewOtpSweeper creates a sweeper. A non-positive interval falls back
// to one minute.
func NewOtpSweeper(users repository.UserRepository, interval time.Duration, logger *zap.Logger) *OtpSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &OtpSweeper{
		users:    users,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop on its own goroutine.
func (s *OtpSweeper) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("otp sweeper stopped")
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

// StopWithContext signals the loop to stop and waits for it to exit or
// the context to expire, whichever comes first.
func (s *OtpSweeper) StopWithContext(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sweep runs a single cleanup pass. Exposed so a tick can be driven
// directly.
func (s *OtpSweeper) Sweep(ctx context.Context) (int64, error) {
	return s.users.ClearExpiredOtps(ctx, time.Now())
}

func (s *OtpSweeper) sweep(ctx context.Context) {
	cleared, err := s.Sweep(ctx)
	if err != nil {
		s.logger.Error("otp sweep failed", zap.Error(err))
		return
	}
	if cleared > 0 {
		s.logger.Info("expired otps cleared", zap.Int64("count", cleared))
	}
}
