package repository

import (
	"context"
	"errors"
	"strconv"

	"ride-backend/internal/domain"
	"ride-backend/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var userID int64
	err := row.Scan(
		&userID,
		&u.PhoneFull,
		&u.PhoneTail,
		&u.Email,
		&u.PendingEmail,
		&u.PINHash,
		&u.EmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	u.ID = strconv.FormatInt(userID, 10)
	return &u, nil
}

const userColumns = `id, phone_full, phone_tail, email, pending_email, pin_hash, email_verified, created_at, updated_at`

// Create inserts the user. Uniqueness is the index's job: a duplicate tail or
// email surfaces as 23505 and is mapped here, never pre-checked.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	userID, err := strconv.ParseInt(u.ID, 10, 64)
	if err != nil {
		return xerrors.ErrInvalidRequest
	}

	err = r.db.QueryRow(ctx, `
		INSERT INTO users (id, phone_full, phone_tail, email, pin_hash, email_verified)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at
	`, userID, u.PhoneFull, u.PhoneTail, u.Email, u.PINHash, u.EmailVerified).
		Scan(&u.CreatedAt, &u.UpdatedAt)
	if xerrors.IsUniqueViolation(err) {
		if xerrors.ConstraintName(err) == "users_email_key" {
			return xerrors.ErrEmailAlreadyInUse
		}
		return xerrors.ErrPhoneAlreadyInUse
	}
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	userID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, xerrors.ErrUserNotFound
	}
	return scanUser(r.db.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE id=$1
	`, userID))
}

func (r *UserRepository) GetByTail(ctx context.Context, tail string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE phone_tail=$1
	`, tail))
}

func (r *UserRepository) UpdatePINHash(ctx context.Context, id, hash string) error {
	userID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return xerrors.ErrUserNotFound
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET pin_hash=$1, updated_at=NOW() WHERE id=$2
	`, hash, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrUserNotFound
	}
	return nil
}

// SetPendingEmail stages an email address until the code sent to it checks out.
func (r *UserRepository) SetPendingEmail(ctx context.Context, id, email string) error {
	userID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return xerrors.ErrUserNotFound
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET pending_email=$1, updated_at=NOW() WHERE id=$2
	`, email, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrUserNotFound
	}
	return nil
}

// ConfirmEmail promotes pending_email to the verified email slot.
func (r *UserRepository) ConfirmEmail(ctx context.Context, id string) (*domain.User, error) {
	userID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, xerrors.ErrUserNotFound
	}
	u, err := scanUser(r.db.QueryRow(ctx, `
		UPDATE users
		SET email=pending_email, pending_email=NULL, email_verified=TRUE, updated_at=NOW()
		WHERE id=$1 AND pending_email IS NOT NULL
		RETURNING `+userColumns+`
	`, userID))
	if xerrors.IsUniqueViolation(err) {
		return nil, xerrors.ErrEmailAlreadyInUse
	}
	return u, err
}
