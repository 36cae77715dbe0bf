package repository

import (
	"context"
	"strconv"
	"time"

	"ride-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// OTPRepo is the audit trail for issued codes. Redis holds the live copy;
// this table answers "what was sent, when, did it verify".
type OTPRepo struct {
	db *pgxpool.Pool
}

func NewOTPRepo(db *pgxpool.Pool) *OTPRepo {
	return &OTPRepo{db: db}
}

func (r *OTPRepo) Create(ctx context.Context, o *domain.OTP) error {
	id, err := strconv.ParseInt(o.ID, 10, 64)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO user_otps (id, phone_tail, code, channel, purpose, issued_at, valid_until, is_verified, is_active, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, id, o.PhoneTail, o.Code, o.Channel, o.Purpose, o.IssuedAt, o.ValidUntil, o.IsVerified, o.IsActive, o.UpdatedAt)
	return err
}

// MarkVerified retires the audit row matching a successful check.
func (r *OTPRepo) MarkVerified(ctx context.Context, phoneTail, purpose, code string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE user_otps SET is_verified=TRUE, is_active=FALSE, updated_at=NOW()
		WHERE phone_tail=$1 AND purpose=$2 AND code=$3 AND is_active=TRUE
	`, phoneTail, purpose, code)
	return err
}

// ExpireStale deactivates rows whose validity window has passed.
func (r *OTPRepo) ExpireStale(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE user_otps SET is_active=FALSE, updated_at=NOW()
		WHERE is_active=TRUE AND valid_until < $1
	`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
