package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"ride-backend/internal/domain"
	"ride-backend/pkg/id"
	"ride-backend/pkg/jwtutil"
	"ride-backend/pkg/xerrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserStore struct {
	byID   map[string]*domain.User
	byTail map[string]*domain.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byID:   make(map[string]*domain.User),
		byTail: make(map[string]*domain.User),
	}
}

func (s *fakeUserStore) Create(_ context.Context, u *domain.User) error {
	if _, taken := s.byTail[u.PhoneTail]; taken {
		return xerrors.ErrPhoneAlreadyInUse
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	s.byID[u.ID] = u
	s.byTail[u.PhoneTail] = u
	return nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, xerrors.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeUserStore) GetByTail(_ context.Context, tail string) (*domain.User, error) {
	u, ok := s.byTail[tail]
	if !ok {
		return nil, xerrors.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeUserStore) UpdatePINHash(_ context.Context, id, hash string) error {
	u, ok := s.byID[id]
	if !ok {
		return xerrors.ErrUserNotFound
	}
	u.PINHash = hash
	return nil
}

func (s *fakeUserStore) SetPendingEmail(_ context.Context, id, email string) error {
	u, ok := s.byID[id]
	if !ok {
		return xerrors.ErrUserNotFound
	}
	u.PendingEmail = &email
	return nil
}

func (s *fakeUserStore) ConfirmEmail(_ context.Context, id string) (*domain.User, error) {
	u, ok := s.byID[id]
	if !ok || u.PendingEmail == nil {
		return nil, xerrors.ErrUserNotFound
	}
	u.Email = u.PendingEmail
	u.PendingEmail = nil
	u.EmailVerified = true
	return u, nil
}

// fakeCodeService mimics the dispatcher: Generate stores a fixed code,
// Verify consumes it.
type fakeCodeService struct {
	codes     map[string]string
	sent      []string
	generated int
}

func newFakeCodeService() *fakeCodeService {
	return &fakeCodeService{codes: make(map[string]string)}
}

func (f *fakeCodeService) Generate(_ context.Context, phoneTail, purpose, channel, recipient string) error {
	f.codes[phoneTail+":"+purpose] = "123456"
	f.sent = append(f.sent, recipient)
	f.generated++
	return nil
}

func (f *fakeCodeService) Verify(_ context.Context, phoneTail, purpose, code string) (bool, error) {
	key := phoneTail + ":" + purpose
	stored, ok := f.codes[key]
	if !ok {
		return false, nil
	}
	// Any attempt against a live code consumes it, matching the dispatcher.
	delete(f.codes, key)
	return stored == code, nil
}

type fakeJTIStore struct {
	vals map[string]string
}

func newFakeJTIStore() *fakeJTIStore {
	return &fakeJTIStore{vals: make(map[string]string)}
}

func (f *fakeJTIStore) Set(_ context.Context, ns, key string, value interface{}, _ time.Duration) error {
	f.vals[ns+":"+key] = "1"
	return nil
}

func (f *fakeJTIStore) Get(_ context.Context, ns, key string) (string, error) {
	v, ok := f.vals[ns+":"+key]
	if !ok {
		return "", errors.New("redis: nil")
	}
	return v, nil
}

func (f *fakeJTIStore) Delete(_ context.Context, ns, key string) error {
	delete(f.vals, ns+":"+key)
	return nil
}

type authFixture struct {
	uc     *AuthUsecase
	users  *fakeUserStore
	codes  *fakeCodeService
	jtis   *fakeJTIStore
	issuer *jwtutil.Issuer
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	sf, err := id.NewSnowflake(1)
	require.NoError(t, err)

	issuer := jwtutil.NewIssuer("test-secret", "test-refresh", 2*time.Hour, 14*24*time.Hour, 15*time.Minute)
	users := newFakeUserStore()
	codes := newFakeCodeService()
	jtis := newFakeJTIStore()

	return &authFixture{
		uc:     NewAuthUsecase(users, codes, jtis, issuer, sf, 15*time.Minute),
		users:  users,
		codes:  codes,
		jtis:   jtis,
		issuer: issuer,
	}
}

// register walks start -> check -> complete for the given phone.
func (f *authFixture) register(t *testing.T, rawPhone, pin string) *domain.User {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, f.uc.StartVerify(ctx, rawPhone, ModeRegister))
	token, err := f.uc.CheckVerify(ctx, rawPhone, "123456", ModeRegister)
	require.NoError(t, err)

	user, pair, err := f.uc.RegisterComplete(ctx, token, pin, pin)
	require.NoError(t, err)
	require.NotNil(t, pair)
	return user
}

func TestRegisterEndToEnd(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, f.uc.StartVerify(ctx, "0712345678", ModeRegister))
	assert.Equal(t, []string{"+254712345678"}, f.codes.sent)

	token, err := f.uc.CheckVerify(ctx, "0712345678", "123456", ModeRegister)
	require.NoError(t, err)

	user, pair, err := f.uc.RegisterComplete(ctx, token, "1234", "1234")
	require.NoError(t, err)

	assert.Equal(t, "712345678", user.PhoneTail)
	assert.Equal(t, "+254712345678", user.PhoneFull)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PINHash), []byte("1234")))

	claims, err := f.issuer.ParseAccess(pair.Access)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestStartVerifyRejectsInvalidPhone(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)

	err := f.uc.StartVerify(context.Background(), "12345", ModeRegister)
	assert.ErrorIs(t, err, xerrors.ErrInvalidPhone)
	assert.Zero(t, f.codes.generated)
}

func TestStartVerifyRegisterConflictsOnTakenPhone(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	f.register(t, "0712345678", "1234")

	// Any spelling of the same number hits the same tail.
	err := f.uc.StartVerify(context.Background(), "+254712345678", ModeRegister)
	assert.ErrorIs(t, err, xerrors.ErrPhoneAlreadyInUse)
}

func TestStartVerifyResetRequiresAccount(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)

	err := f.uc.StartVerify(context.Background(), "0712345678", ModeReset)
	assert.ErrorIs(t, err, xerrors.ErrUserNotFound)
}

func TestCheckVerifyWrongCode(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, f.uc.StartVerify(ctx, "0712345678", ModeRegister))
	_, err := f.uc.CheckVerify(ctx, "0712345678", "000000", ModeRegister)
	assert.ErrorIs(t, err, xerrors.ErrInvalidOTP)
}

func TestRegisterCompleteValidation(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	_, _, err := f.uc.RegisterComplete(ctx, "whatever", "12a4", "12a4")
	assert.ErrorIs(t, err, xerrors.ErrInvalidPIN)

	_, _, err = f.uc.RegisterComplete(ctx, "whatever", "1234", "4321")
	assert.ErrorIs(t, err, xerrors.ErrPINMismatch)

	_, _, err = f.uc.RegisterComplete(ctx, "not-a-jwt", "1234", "1234")
	assert.ErrorIs(t, err, xerrors.ErrInvalidToken)
}

func TestRegisterCompleteRejectsResetToken(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	f.register(t, "0712345678", "1234")

	require.NoError(t, f.uc.StartVerify(ctx, "0712345678", ModeReset))
	resetToken, err := f.uc.CheckVerify(ctx, "0712345678", "123456", ModeReset)
	require.NoError(t, err)

	_, _, err = f.uc.RegisterComplete(ctx, resetToken, "1234", "1234")
	assert.ErrorIs(t, err, xerrors.ErrInvalidToken)

	// The reset token itself still works for its own purpose.
	require.NoError(t, f.uc.ResetPINComplete(ctx, resetToken, "5678", "5678"))
	_, _, err = f.uc.Login(ctx, "0712345678", "5678")
	assert.NoError(t, err)
}

func TestRegisterTokenSingleUse(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, f.uc.StartVerify(ctx, "0712345678", ModeRegister))
	token, err := f.uc.CheckVerify(ctx, "0712345678", "123456", ModeRegister)
	require.NoError(t, err)

	_, _, err = f.uc.RegisterComplete(ctx, token, "1234", "1234")
	require.NoError(t, err)

	// jti consumed; replaying the token must fail.
	_, _, err = f.uc.RegisterComplete(ctx, token, "1234", "1234")
	assert.ErrorIs(t, err, xerrors.ErrInvalidToken)
}

func TestRegisterCompleteDuplicateTail(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	// Mint two registration tokens for the same number before either
	// completes; the start pre-check cannot see the conflict yet, so the
	// user store's uniqueness rule has to decide it.
	require.NoError(t, f.uc.StartVerify(ctx, "0712345678", ModeRegister))
	first, err := f.uc.CheckVerify(ctx, "0712345678", "123456", ModeRegister)
	require.NoError(t, err)

	require.NoError(t, f.uc.StartVerify(ctx, "+254712345678", ModeRegister))
	second, err := f.uc.CheckVerify(ctx, "+254712345678", "123456", ModeRegister)
	require.NoError(t, err)

	user, _, err := f.uc.RegisterComplete(ctx, first, "1234", "1234")
	require.NoError(t, err)

	_, pair, err := f.uc.RegisterComplete(ctx, second, "5678", "5678")
	assert.ErrorIs(t, err, xerrors.ErrPhoneAlreadyInUse)
	assert.Nil(t, pair)

	// The winner's account is intact and still logs in.
	got, _, err := f.uc.Login(ctx, "0712345678", "1234")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestLoginErrorMessagesMatch(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	f.register(t, "0712345678", "1234")

	_, _, errUnknown := f.uc.Login(ctx, "0799999999", "1234")
	_, _, errWrongPIN := f.uc.Login(ctx, "0712345678", "0000")

	require.Error(t, errUnknown)
	require.Error(t, errWrongPIN)
	assert.Equal(t, errUnknown.Error(), errWrongPIN.Error())
	assert.ErrorIs(t, errUnknown, xerrors.ErrInvalidCredentials)
	assert.ErrorIs(t, errWrongPIN, xerrors.ErrInvalidCredentials)
}

func TestLoginSuccess(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	created := f.register(t, "0712345678", "1234")

	user, pair, err := f.uc.Login(ctx, "254712345678", "1234")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	claims, err := f.issuer.ParseRefresh(pair.Refresh)
	require.NoError(t, err)
	assert.Equal(t, created.ID, claims.UserID)
}

func TestResetTokenSingleUse(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	f.register(t, "0712345678", "1234")

	require.NoError(t, f.uc.StartVerify(ctx, "0712345678", ModeReset))
	token, err := f.uc.CheckVerify(ctx, "0712345678", "123456", ModeReset)
	require.NoError(t, err)

	require.NoError(t, f.uc.ResetPINComplete(ctx, token, "5678", "5678"))

	err = f.uc.ResetPINComplete(ctx, token, "9999", "9999")
	assert.ErrorIs(t, err, xerrors.ErrInvalidToken)

	// Old PIN is gone, new one works.
	_, _, err = f.uc.Login(ctx, "0712345678", "1234")
	assert.ErrorIs(t, err, xerrors.ErrInvalidCredentials)
	_, _, err = f.uc.Login(ctx, "0712345678", "5678")
	assert.NoError(t, err)
}

func TestRefreshRotates(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	user := f.register(t, "0712345678", "1234")
	_, pair, err := f.uc.Login(ctx, "0712345678", "1234")
	require.NoError(t, err)

	userID, next, err := f.uc.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
	require.NotNil(t, next)

	claims, err := f.issuer.ParseAccess(next.Access)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)

	access, err := f.issuer.AccessToken("123")
	require.NoError(t, err)

	_, _, err = f.uc.Refresh(context.Background(), access)
	assert.ErrorIs(t, err, xerrors.ErrInvalidToken)

	_, _, err = f.uc.Refresh(context.Background(), "garbage")
	assert.ErrorIs(t, err, xerrors.ErrInvalidToken)
}

func TestEmailVerifyFlow(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	user := f.register(t, "0712345678", "1234")

	err := f.uc.StartEmailVerify(ctx, user.ID, "not-an-email")
	assert.ErrorIs(t, err, xerrors.ErrInvalidRequest)

	require.NoError(t, f.uc.StartEmailVerify(ctx, user.ID, "driver@example.com"))
	assert.Contains(t, f.codes.sent, "driver@example.com")

	_, err = f.uc.CheckEmailVerify(ctx, user.ID, "000000")
	assert.ErrorIs(t, err, xerrors.ErrInvalidOTP)
}

func TestEmailVerifySuccess(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	user := f.register(t, "0712345678", "1234")
	require.NoError(t, f.uc.StartEmailVerify(ctx, user.ID, "driver@example.com"))

	updated, err := f.uc.CheckEmailVerify(ctx, user.ID, "123456")
	require.NoError(t, err)
	assert.True(t, updated.EmailVerified)
	require.NotNil(t, updated.Email)
	assert.Equal(t, "driver@example.com", *updated.Email)
}
