package usecase

import (
	"context"
	"errors"
	"time"

	"ride-backend/internal/domain"
	"ride-backend/pkg/id"
	"ride-backend/pkg/jwtutil"
	"ride-backend/pkg/phone"
	"ride-backend/pkg/validate"
	"ride-backend/pkg/xerrors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Verification modes accepted by the start/check endpoints.
const (
	ModeRegister = "register"
	ModeReset    = "reset"
)

// Hash of a throwaway PIN. Compared against on the unknown-phone login path
// so that path costs the same as a real bcrypt check.
const dummyPINHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByTail(ctx context.Context, tail string) (*domain.User, error)
	UpdatePINHash(ctx context.Context, id, hash string) error
	SetPendingEmail(ctx context.Context, id, email string) error
	ConfirmEmail(ctx context.Context, id string) (*domain.User, error)
}

// CodeService issues and checks the short-lived verification codes.
type CodeService interface {
	Generate(ctx context.Context, phoneTail, purpose, channel, recipient string) error
	Verify(ctx context.Context, phoneTail, purpose, code string) (bool, error)
}

// JTIStore tracks outstanding purpose-token ids so each token can be used
// exactly once. *cache.Cache satisfies it.
type JTIStore interface {
	Set(ctx context.Context, namespace, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, namespace, key string) (string, error)
	Delete(ctx context.Context, namespace, key string) error
}

type AuthUsecase struct {
	users      UserStore
	codes      CodeService
	jtis       JTIStore
	issuer     *jwtutil.Issuer
	sf         *id.Snowflake
	purposeTTL time.Duration
}

func NewAuthUsecase(users UserStore, codes CodeService, jtis JTIStore, issuer *jwtutil.Issuer, sf *id.Snowflake, purposeTTL time.Duration) *AuthUsecase {
	return &AuthUsecase{
		users:      users,
		codes:      codes,
		jtis:       jtis,
		issuer:     issuer,
		sf:         sf,
		purposeTTL: purposeTTL,
	}
}

// TokenPair is the result of any operation that signs the caller in.
type TokenPair struct {
	Access  string
	Refresh string
}

func purposeForMode(mode string) (string, error) {
	switch mode {
	case ModeRegister:
		return domain.OTPPurposeRegister, nil
	case ModeReset:
		return domain.OTPPurposeReset, nil
	default:
		return "", xerrors.ErrInvalidRequest
	}
}

// StartVerify normalizes the phone and sends a code over SMS. Register mode
// requires the phone to be free; reset mode requires an existing account.
func (uc *AuthUsecase) StartVerify(ctx context.Context, rawPhone, mode string) error {
	purpose, err := purposeForMode(mode)
	if err != nil {
		return err
	}
	e164 := phone.Normalize(rawPhone)
	if e164 == "" {
		return xerrors.ErrInvalidPhone
	}
	tail := phone.Tail(e164)

	_, err = uc.users.GetByTail(ctx, tail)
	switch mode {
	case ModeRegister:
		if err == nil {
			return xerrors.ErrPhoneAlreadyInUse
		}
		if !errors.Is(err, xerrors.ErrUserNotFound) {
			return err
		}
	case ModeReset:
		if errors.Is(err, xerrors.ErrUserNotFound) {
			return xerrors.ErrUserNotFound
		}
		if err != nil {
			return err
		}
	}

	return uc.codes.Generate(ctx, tail, purpose, domain.OTPChannelSMS, e164)
}

// CheckVerify consumes the code and mints the purpose token for the next
// step: a register token carrying the verified phone, or a reset token
// carrying the account id. The token's jti is recorded so it is single-use.
func (uc *AuthUsecase) CheckVerify(ctx context.Context, rawPhone, code, mode string) (string, error) {
	purpose, err := purposeForMode(mode)
	if err != nil {
		return "", err
	}
	e164 := phone.Normalize(rawPhone)
	if e164 == "" {
		return "", xerrors.ErrInvalidPhone
	}
	tail := phone.Tail(e164)

	ok, err := uc.codes.Verify(ctx, tail, purpose, code)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", xerrors.ErrInvalidOTP
	}

	jti := uuid.New().String()
	if err := uc.jtis.Set(ctx, "token_jti", jti, "1", uc.purposeTTL); err != nil {
		return "", err
	}

	if mode == ModeRegister {
		return uc.issuer.RegisterToken(e164, tail, jti)
	}

	u, err := uc.users.GetByTail(ctx, tail)
	if err != nil {
		return "", err
	}
	return uc.issuer.ResetToken(u.ID, jti)
}

func (uc *AuthUsecase) validateNewPIN(pin, confirmPin string) error {
	if !validate.PIN(pin) {
		return xerrors.ErrInvalidPIN
	}
	if pin != confirmPin {
		return xerrors.ErrPINMismatch
	}
	return nil
}

// checkJTI rejects tokens whose jti was never issued or was already spent.
func (uc *AuthUsecase) checkJTI(ctx context.Context, jti string) error {
	if jti == "" {
		return xerrors.ErrInvalidToken
	}
	if _, err := uc.jtis.Get(ctx, "token_jti", jti); err != nil {
		return xerrors.ErrInvalidToken
	}
	return nil
}

// RegisterComplete creates the account from a verified register token and
// signs the new user in.
func (uc *AuthUsecase) RegisterComplete(ctx context.Context, token, pin, confirmPin string) (*domain.User, *TokenPair, error) {
	if err := uc.validateNewPIN(pin, confirmPin); err != nil {
		return nil, nil, err
	}
	claims, err := uc.issuer.ParsePurpose(token, jwtutil.PurposeRegister)
	if err != nil {
		return nil, nil, xerrors.ErrInvalidToken
	}
	if err := uc.checkJTI(ctx, claims.ID); err != nil {
		return nil, nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}

	u := &domain.User{
		ID:        uc.sf.Generate(),
		PhoneFull: claims.Phone,
		PhoneTail: claims.PhoneTail,
		PINHash:   string(hash),
	}
	// Postgres's unique index decides the duplicate-phone race, not a
	// lookup here.
	if err := uc.users.Create(ctx, u); err != nil {
		return nil, nil, err
	}

	_ = uc.jtis.Delete(ctx, "token_jti", claims.ID)

	pair, err := uc.issueTokens(u.ID)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

// Login authenticates by phone tail and PIN. Unknown phone and wrong PIN are
// indistinguishable to the caller, in message and in timing.
func (uc *AuthUsecase) Login(ctx context.Context, rawPhone, pin string) (*domain.User, *TokenPair, error) {
	e164 := phone.Normalize(rawPhone)
	if e164 == "" {
		_ = bcrypt.CompareHashAndPassword([]byte(dummyPINHash), []byte(pin))
		return nil, nil, xerrors.ErrInvalidCredentials
	}

	u, err := uc.users.GetByTail(ctx, phone.Tail(e164))
	if err != nil {
		if errors.Is(err, xerrors.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyPINHash), []byte(pin))
			return nil, nil, xerrors.ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PINHash), []byte(pin)); err != nil {
		return nil, nil, xerrors.ErrInvalidCredentials
	}

	pair, err := uc.issueTokens(u.ID)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

// ResetPINComplete sets a new PIN from a verified reset token and consumes
// the token so it cannot be replayed.
func (uc *AuthUsecase) ResetPINComplete(ctx context.Context, token, pin, confirmPin string) error {
	if err := uc.validateNewPIN(pin, confirmPin); err != nil {
		return err
	}
	claims, err := uc.issuer.ParsePurpose(token, jwtutil.PurposeResetPIN)
	if err != nil {
		return xerrors.ErrInvalidToken
	}
	if err := uc.checkJTI(ctx, claims.ID); err != nil {
		return err
	}
	if claims.UserID == "" {
		return xerrors.ErrInvalidToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := uc.users.UpdatePINHash(ctx, claims.UserID, string(hash)); err != nil {
		return err
	}

	_ = uc.jtis.Delete(ctx, "token_jti", claims.ID)
	return nil
}

// Refresh verifies the refresh token and rotates the pair.
func (uc *AuthUsecase) Refresh(ctx context.Context, refreshToken string) (string, *TokenPair, error) {
	claims, err := uc.issuer.ParseRefresh(refreshToken)
	if err != nil || claims.UserID == "" || claims.Purpose != "" {
		return "", nil, xerrors.ErrInvalidToken
	}
	pair, err := uc.issueTokens(claims.UserID)
	if err != nil {
		return "", nil, err
	}
	return claims.UserID, pair, nil
}

func (uc *AuthUsecase) Me(ctx context.Context, userID string) (*domain.User, error) {
	return uc.users.GetByID(ctx, userID)
}

// StartEmailVerify stores the address as pending on the account and sends a
// code to it.
func (uc *AuthUsecase) StartEmailVerify(ctx context.Context, userID, email string) error {
	if !validate.Email(email) {
		return xerrors.ErrInvalidRequest
	}
	u, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := uc.users.SetPendingEmail(ctx, userID, email); err != nil {
		return err
	}
	return uc.codes.Generate(ctx, u.PhoneTail, domain.OTPPurposeVerifyEmail, domain.OTPChannelEmail, email)
}

// CheckEmailVerify promotes the pending email to verified on a code match.
func (uc *AuthUsecase) CheckEmailVerify(ctx context.Context, userID, code string) (*domain.User, error) {
	u, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.PendingEmail == nil {
		return nil, xerrors.ErrInvalidRequest
	}

	ok, err := uc.codes.Verify(ctx, u.PhoneTail, domain.OTPPurposeVerifyEmail, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, xerrors.ErrInvalidOTP
	}

	return uc.users.ConfirmEmail(ctx, userID)
}

func (uc *AuthUsecase) issueTokens(userID string) (*TokenPair, error) {
	access, err := uc.issuer.AccessToken(userID)
	if err != nil {
		return nil, err
	}
	refresh, err := uc.issuer.RefreshToken(userID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}
