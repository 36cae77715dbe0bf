package jwtutil

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Token purposes carried by short-lived verification tokens.
const (
	PurposeRegister = "register"
	PurposeResetPIN = "reset_pin"
)

// Claims is the single canonical payload schema for every token this service
// signs. Access and refresh tokens carry only uid; purpose-scoped tokens add
// purpose, jti and (for register) the verified phone.
type Claims struct {
	UserID    string `json:"uid,omitempty"`
	Purpose   string `json:"purpose,omitempty"`
	Phone     string `json:"phone,omitempty"`
	PhoneTail string `json:"phone_tail,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies all tokens with HS256. Refresh tokens use a
// distinct secret when configured, otherwise the access secret.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	purposeTTL    time.Duration
}

func NewIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL, purposeTTL time.Duration) *Issuer {
	rs := refreshSecret
	if rs == "" {
		rs = accessSecret
	}
	return &Issuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(rs),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		purposeTTL:    purposeTTL,
	}
}

func (i *Issuer) sign(claims *Claims, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// AccessToken mints a 2h token authorizing API calls for userID.
func (i *Issuer) AccessToken(userID string) (string, error) {
	return i.sign(&Claims{UserID: userID}, i.accessSecret, i.accessTTL)
}

// RefreshToken mints a long-lived token used solely to mint new access tokens.
func (i *Issuer) RefreshToken(userID string) (string, error) {
	return i.sign(&Claims{UserID: userID}, i.refreshSecret, i.refreshTTL)
}

// RegisterToken carries the OTP-verified phone through to registration
// completion. jti makes the token single-use (the caller tracks issued jtis).
func (i *Issuer) RegisterToken(phoneE164, tail, jti string) (string, error) {
	claims := &Claims{
		Purpose:   PurposeRegister,
		Phone:     phoneE164,
		PhoneTail: tail,
		RegisteredClaims: jwt.RegisteredClaims{
			ID: jti,
		},
	}
	return i.sign(claims, i.accessSecret, i.purposeTTL)
}

// ResetToken authorizes setting a new PIN for userID.
func (i *Issuer) ResetToken(userID, jti string) (string, error) {
	claims := &Claims{
		UserID:  userID,
		Purpose: PurposeResetPIN,
		RegisteredClaims: jwt.RegisteredClaims{
			ID: jti,
		},
	}
	return i.sign(claims, i.accessSecret, i.purposeTTL)
}

func (i *Issuer) parse(tokenStr string, secret []byte) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseAccess validates an access or purpose-scoped token.
func (i *Issuer) ParseAccess(tokenStr string) (*Claims, error) {
	return i.parse(tokenStr, i.accessSecret)
}

// ParseRefresh validates a refresh token.
func (i *Issuer) ParseRefresh(tokenStr string) (*Claims, error) {
	return i.parse(tokenStr, i.refreshSecret)
}

// ParsePurpose validates a purpose-scoped token and checks the intent marker
// before anything acts on it.
func (i *Issuer) ParsePurpose(tokenStr, purpose string) (*Claims, error) {
	claims, err := i.parse(tokenStr, i.accessSecret)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != purpose {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
