package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ride-backend/internal/config"
	"ride-backend/internal/domain"
	"ride-backend/internal/usecase"
	"ride-backend/pkg/id"
	"ride-backend/pkg/jwtutil"
	"ride-backend/pkg/middleware"
	"ride-backend/pkg/xerrors"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUserStore struct {
	byID   map[string]*domain.User
	byTail map[string]*domain.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{byID: map[string]*domain.User{}, byTail: map[string]*domain.User{}}
}

func (s *memUserStore) Create(_ context.Context, u *domain.User) error {
	if _, taken := s.byTail[u.PhoneTail]; taken {
		return xerrors.ErrPhoneAlreadyInUse
	}
	u.CreatedAt = time.Now()
	s.byID[u.ID] = u
	s.byTail[u.PhoneTail] = u
	return nil
}

func (s *memUserStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, xerrors.ErrUserNotFound
}

func (s *memUserStore) GetByTail(_ context.Context, tail string) (*domain.User, error) {
	if u, ok := s.byTail[tail]; ok {
		return u, nil
	}
	return nil, xerrors.ErrUserNotFound
}

func (s *memUserStore) UpdatePINHash(_ context.Context, id, hash string) error {
	u, ok := s.byID[id]
	if !ok {
		return xerrors.ErrUserNotFound
	}
	u.PINHash = hash
	return nil
}

func (s *memUserStore) SetPendingEmail(_ context.Context, id, email string) error {
	u, ok := s.byID[id]
	if !ok {
		return xerrors.ErrUserNotFound
	}
	u.PendingEmail = &email
	return nil
}

func (s *memUserStore) ConfirmEmail(_ context.Context, id string) (*domain.User, error) {
	u, ok := s.byID[id]
	if !ok || u.PendingEmail == nil {
		return nil, xerrors.ErrUserNotFound
	}
	u.Email = u.PendingEmail
	u.PendingEmail = nil
	u.EmailVerified = true
	return u, nil
}

type memCodes struct {
	codes map[string]string
}

func (f *memCodes) Generate(_ context.Context, tail, purpose, _, _ string) error {
	f.codes[tail+":"+purpose] = "123456"
	return nil
}

func (f *memCodes) Verify(_ context.Context, tail, purpose, code string) (bool, error) {
	key := tail + ":" + purpose
	stored, ok := f.codes[key]
	if !ok {
		return false, nil
	}
	delete(f.codes, key)
	return stored == code, nil
}

type memJTIs struct {
	vals map[string]string
}

func (f *memJTIs) Set(_ context.Context, ns, key string, _ interface{}, _ time.Duration) error {
	f.vals[ns+":"+key] = "1"
	return nil
}

func (f *memJTIs) Get(_ context.Context, ns, key string) (string, error) {
	if v, ok := f.vals[ns+":"+key]; ok {
		return v, nil
	}
	return "", errors.New("redis: nil")
}

func (f *memJTIs) Delete(_ context.Context, ns, key string) error {
	delete(f.vals, ns+":"+key)
	return nil
}

// newAuthServer wires real handlers and usecase over in-memory fakes.
func newAuthServer(t *testing.T) (*chi.Mux, *jwtutil.Issuer) {
	t.Helper()

	sf, err := id.NewSnowflake(3)
	require.NoError(t, err)

	cfg := &config.Config{AppEnv: "test", RefreshTTL: 14 * 24 * time.Hour}
	issuer := jwtutil.NewIssuer("test-secret", "test-refresh", 2*time.Hour, cfg.RefreshTTL, 15*time.Minute)
	uc := usecase.NewAuthUsecase(
		newMemUserStore(),
		&memCodes{codes: map[string]string{}},
		&memJTIs{vals: map[string]string{}},
		issuer, sf, 15*time.Minute,
	)
	h := NewAuthHandler(uc, cfg)
	authMW := middleware.NewAuthMiddleware(issuer)

	r := chi.NewRouter()
	r.Post("/api/auth/verify/start", h.HandleVerifyStart)
	r.Post("/api/auth/verify/check", h.HandleVerifyCheck)
	r.Post("/api/auth/register-complete", h.HandleRegisterComplete)
	r.Post("/api/auth/login", h.HandleLogin)
	r.Post("/api/auth/reset-pin-complete", h.HandleResetPINComplete)
	r.Post("/api/auth/refresh", h.HandleRefresh)
	r.Group(func(g chi.Router) {
		g.Use(authMW.Require)
		g.Get("/api/auth/me", h.HandleMe)
	})
	return r, issuer
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// registerUser drives the full phone flow and returns the access token and
// refresh cookie.
func registerUser(t *testing.T, r http.Handler, phone string) (string, *http.Cookie) {
	t.Helper()

	rec := doJSON(t, r, http.MethodPost, "/api/auth/verify/start", map[string]string{"phone": phone, "mode": "register"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, r, http.MethodPost, "/api/auth/verify/check", map[string]string{"phone": phone, "code": "123456", "mode": "register"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token, _ := decode(t, rec)["token"].(string)
	require.NotEmpty(t, token)

	rec = doJSON(t, r, http.MethodPost, "/api/auth/register-complete", map[string]string{
		"token": token, "pin": "1234", "confirmPin": "1234",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode(t, rec)
	access, _ := body["accessToken"].(string)
	require.NotEmpty(t, access)

	var refresh *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == refreshCookieName {
			refresh = c
		}
	}
	require.NotNil(t, refresh, "refresh cookie must be set")
	return access, refresh
}

func TestRegisterFlowHTTP(t *testing.T) {
	t.Parallel()
	r, issuer := newAuthServer(t)

	access, refresh := registerUser(t, r, "0712345678")

	claims, err := issuer.ParseAccess(access)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.UserID)

	assert.True(t, refresh.HttpOnly)
	assert.Equal(t, "/api/auth/refresh", refresh.Path)
	assert.Equal(t, http.SameSiteLaxMode, refresh.SameSite)
	assert.False(t, refresh.Secure, "not production")
}

func TestRegisterConflictHTTP(t *testing.T) {
	t.Parallel()
	r, _ := newAuthServer(t)
	registerUser(t, r, "0712345678")

	rec := doJSON(t, r, http.MethodPost, "/api/auth/verify/start", map[string]string{"phone": "254712345678", "mode": "register"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "phone already registered", body["message"])
}

func TestRegisterCompleteConflictHTTP(t *testing.T) {
	t.Parallel()
	r, _ := newAuthServer(t)

	mint := func(phone string) string {
		rec := doJSON(t, r, http.MethodPost, "/api/auth/verify/start", map[string]string{"phone": phone, "mode": "register"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		rec = doJSON(t, r, http.MethodPost, "/api/auth/verify/check", map[string]string{"phone": phone, "code": "123456", "mode": "register"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		token, _ := decode(t, rec)["token"].(string)
		require.NotEmpty(t, token)
		return token
	}

	// Two valid registration tokens for the same number can coexist when
	// both verifications finish before either completion; only one
	// completion may win.
	first := mint("0712345678")
	second := mint("254712345678")

	rec := doJSON(t, r, http.MethodPost, "/api/auth/register-complete", map[string]string{
		"token": first, "pin": "1234", "confirmPin": "1234",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, r, http.MethodPost, "/api/auth/register-complete", map[string]string{
		"token": second, "pin": "1234", "confirmPin": "1234",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "phone already registered", decode(t, rec)["message"])
}

func TestLoginMessagesIdenticalHTTP(t *testing.T) {
	t.Parallel()
	r, _ := newAuthServer(t)
	registerUser(t, r, "0712345678")

	unknown := doJSON(t, r, http.MethodPost, "/api/auth/login", map[string]string{"phone": "0799999999", "pin": "1234"})
	wrongPIN := doJSON(t, r, http.MethodPost, "/api/auth/login", map[string]string{"phone": "0712345678", "pin": "0000"})

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wrongPIN.Code)
	assert.JSONEq(t, unknown.Body.String(), wrongPIN.Body.String())
}

func TestRefreshRotatesCookieHTTP(t *testing.T) {
	t.Parallel()
	r, issuer := newAuthServer(t)
	_, refresh := registerUser(t, r, "0712345678")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(refresh)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	access, _ := body["accessToken"].(string)
	require.NotEmpty(t, access)
	_, err := issuer.ParseAccess(access)
	assert.NoError(t, err)

	var rotated *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == refreshCookieName {
			rotated = c
		}
	}
	require.NotNil(t, rotated, "refresh must rotate the cookie")
}

func TestRefreshRejectsMissingAndBogus(t *testing.T) {
	t.Parallel()
	r, _ := newAuthServer(t)

	rec := doJSON(t, r, http.MethodPost, "/api/auth/refresh", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/api/auth/refresh", map[string]string{"refreshToken": "bogus"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid refresh token", decode(t, rec)["message"])
}

func TestMeRequiresAuthHTTP(t *testing.T) {
	t.Parallel()
	r, _ := newAuthServer(t)
	access, _ := registerUser(t, r, "0712345678")

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	user, ok := body["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "+254712345678", user["phone"])
	_, hasHash := user["pinHash"]
	assert.False(t, hasHash, "hashes never leave the server")
}

func TestPurposeTokenRejectedAsAccessHTTP(t *testing.T) {
	t.Parallel()
	r, _ := newAuthServer(t)
	registerUser(t, r, "0712345678")

	// Obtain a reset purpose token and try it on a protected route.
	rec := doJSON(t, r, http.MethodPost, "/api/auth/verify/start", map[string]string{"phone": "0712345678", "mode": "reset"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, r, http.MethodPost, "/api/auth/verify/check", map[string]string{"phone": "0712345678", "code": "123456", "mode": "reset"})
	require.Equal(t, http.StatusOK, rec.Code)
	purposeToken, _ := decode(t, rec)["token"].(string)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+purposeToken)
	out := httptest.NewRecorder()
	r.ServeHTTP(out, req)
	assert.Equal(t, http.StatusUnauthorized, out.Code)
}

func TestResetFlowHTTP(t *testing.T) {
	t.Parallel()
	r, _ := newAuthServer(t)
	registerUser(t, r, "0712345678")

	rec := doJSON(t, r, http.MethodPost, "/api/auth/verify/start", map[string]string{"phone": "0712345678", "mode": "reset"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/api/auth/verify/check", map[string]string{"phone": "0712345678", "code": "123456", "mode": "reset"})
	require.Equal(t, http.StatusOK, rec.Code)
	token, _ := decode(t, rec)["token"].(string)

	rec = doJSON(t, r, http.MethodPost, "/api/auth/reset-pin-complete", map[string]string{
		"token": token, "pin": "5678", "confirmPin": "5678",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Replay fails; new PIN logs in.
	rec = doJSON(t, r, http.MethodPost, "/api/auth/reset-pin-complete", map[string]string{
		"token": token, "pin": "9999", "confirmPin": "9999",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/api/auth/login", map[string]string{"phone": "0712345678", "pin": "5678"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestValidationErrorsHTTP(t *testing.T) {
	t.Parallel()
	r, _ := newAuthServer(t)

	rec := doJSON(t, r, http.MethodPost, "/api/auth/verify/start", map[string]string{"phone": "12345", "mode": "register"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid Kenyan phone number", decode(t, rec)["message"])

	rec = doJSON(t, r, http.MethodPost, "/api/auth/register-complete", map[string]string{
		"token": "x", "pin": "12", "confirmPin": "12",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "PIN must be 4 digits", decode(t, rec)["message"])
}
