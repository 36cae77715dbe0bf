package rate

import (
	"context"
	"fmt"
	"time"

	"ride-backend/pkg/cache"
	"ride-backend/pkg/xerrors"
)

// Limiter throttles OTP issuance per phone tail and purpose: a short
// cooldown between consecutive requests plus a max count per window.
type Limiter struct {
	cache       *cache.Cache
	window      time.Duration
	maxInWindow int
	cooldown    time.Duration
}

func NewLimiter(c *cache.Cache, window time.Duration, max int, cooldown time.Duration) *Limiter {
	return &Limiter{cache: c, window: window, maxInWindow: max, cooldown: cooldown}
}

func (l *Limiter) CanRequest(ctx context.Context, phoneTail, purpose string) error {
	blockKey := fmt.Sprintf("block:%s:%s", phoneTail, purpose)
	lastKey := fmt.Sprintf("last:%s:%s", phoneTail, purpose)
	countKey := fmt.Sprintf("count:%s:%s", phoneTail, purpose)

	// Blocked for exceeding the window limit earlier.
	if ttl, _ := l.cache.GetTTL(ctx, "otp_rate", blockKey); ttl > 0 {
		return fmt.Errorf("%w; please try again after %d seconds", xerrors.ErrTooManyOTPRequests, int(ttl.Seconds()))
	}

	// Cooldown since the last request.
	if ttl, _ := l.cache.GetTTL(ctx, "otp_rate", lastKey); ttl > 0 {
		return fmt.Errorf("%w; wait %d seconds", xerrors.ErrOTPCooldown, int(ttl.Seconds()))
	}

	cnt, err := l.cache.IncrWithExpire(ctx, "otp_rate", countKey, l.window)
	if err != nil {
		return err
	}
	if int(cnt) > l.maxInWindow {
		_ = l.cache.Set(ctx, "otp_rate", blockKey, "1", l.window*3)
		return fmt.Errorf("%w; please try again after %d seconds", xerrors.ErrTooManyOTPRequests, int((l.window * 3).Seconds()))
	}

	_ = l.cache.Set(ctx, "otp_rate", lastKey, "1", l.cooldown)
	return nil
}
