package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log"
	"time"

	"ride-backend/internal/domain"
	"ride-backend/internal/rate"
	"ride-backend/internal/service/notify"
	"ride-backend/pkg/id"

	"github.com/redis/go-redis/v9"
)

// CodeStore holds live codes; satisfied by pkg/cache.
type CodeStore interface {
	Set(ctx context.Context, namespace, key string, value interface{}, ttl time.Duration) error
	GetDel(ctx context.Context, namespace, key string) (string, error)
}

// AuditStore records issued and verified codes; satisfied by
// repository.OTPRepo.
type AuditStore interface {
	Create(ctx context.Context, o *domain.OTP) error
	MarkVerified(ctx context.Context, phoneTail, purpose, code string) error
}

type OTPService struct {
	repo     AuditStore
	limiter  *rate.Limiter
	sf       *id.Snowflake
	notifier notify.Notifier
	cache    CodeStore

	ttl     time.Duration
	devMode bool
}

func NewOTPService(
	repo AuditStore,
	limiter *rate.Limiter,
	sf *id.Snowflake,
	notifier notify.Notifier,
	c CodeStore,
	ttl time.Duration,
	devMode bool,
) *OTPService {
	return &OTPService{
		repo:     repo,
		limiter:  limiter,
		sf:       sf,
		notifier: notifier,
		cache:    c,
		ttl:      ttl,
		devMode:  devMode,
	}
}

// Generate issues a fresh code for the phone tail, stores it in Redis for
// live verification, audits it in Postgres, and dispatches it over the
// requested channel. recipient is the full phone number for SMS or the
// email address for email.
func (s *OTPService) Generate(ctx context.Context, phoneTail, purpose, channel, recipient string) error {
	if err := s.limiter.CanRequest(ctx, phoneTail, purpose); err != nil {
		return err
	}

	now := time.Now()
	otp := &domain.OTP{
		ID:         s.sf.Generate(),
		PhoneTail:  phoneTail,
		Code:       randomCode(6),
		Channel:    channel,
		Purpose:    purpose,
		IssuedAt:   now,
		ValidUntil: now.Add(s.ttl),
		IsVerified: false,
		IsActive:   true,
		UpdatedAt:  now,
	}

	key := fmt.Sprintf("%s:%s", phoneTail, purpose)
	if err := s.cache.Set(ctx, "otp", key, otp.Code, s.ttl); err != nil {
		return err
	}

	// Audit log is best-effort; don't block the request.
	go func() {
		if err := s.repo.Create(context.Background(), otp); err != nil {
			log.Printf("[OTP] Failed to insert audit row: %v", err)
		}
	}()

	if s.devMode {
		log.Printf("[OTP] Dev mode | Tail=%s | Purpose=%s | Channel=%s | Code=%s",
			phoneTail, purpose, channel, otp.Code)
		return nil
	}

	switch channel {
	case domain.OTPChannelSMS:
		return s.notifier.SendSMS(ctx, recipient, s.formatMessage(purpose, otp.Code))
	case domain.OTPChannelEmail:
		subject := fmt.Sprintf("%s Code", formatPurpose(purpose))
		return s.notifier.SendEmail(ctx, recipient, subject, s.formatMessage(purpose, otp.Code))
	default:
		return fmt.Errorf("unsupported channel: %s", channel)
	}
}

// Verify compares the supplied code against the live one. The read consumes
// the stored code whether or not it matches, so a code can satisfy exactly
// one check and a wrong guess forces a fresh issue. A missing, expired, or
// mismatched code returns false with no error.
func (s *OTPService) Verify(ctx context.Context, phoneTail, purpose, code string) (bool, error) {
	key := fmt.Sprintf("%s:%s", phoneTail, purpose)

	val, err := s.cache.GetDel(ctx, "otp", key)
	if err == redis.Nil {
		log.Printf("[OTP] Not found or expired | Tail=%s | Purpose=%s", phoneTail, purpose)
		return false, nil
	} else if err != nil {
		log.Printf("[OTP] Failed to get code from Redis: %v", err)
		return false, err
	}

	if subtle.ConstantTimeCompare([]byte(val), []byte(code)) != 1 {
		log.Printf("[OTP] Verification failed | Tail=%s | Purpose=%s", phoneTail, purpose)
		return false, nil
	}

	go func() {
		if err := s.repo.MarkVerified(context.Background(), phoneTail, purpose, code); err != nil {
			log.Printf("[OTP] Audit verify update failed: %v", err)
		}
	}()

	return true, nil
}

func (s *OTPService) formatMessage(purpose, code string) string {
	return fmt.Sprintf("Your %s code is %s. It is valid for %d minutes.",
		formatPurpose(purpose), code, int(s.ttl.Minutes()))
}
