package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"HealthAssist/pkg/session"
	"HealthAssist/pkg/store"
	tokenstore "HealthAssist/pkg/token"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrRevokedToken = errors.New("token has been revoked (logout)")
	ErrUnknownUser  = errors.New("user no longer exists")
)

type Claims struct {
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 access tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (i *Issuer) TTL() time.Duration { return i.ttl }

func (i *Issuer) Issue(userID string) (string, *Claims, error) {
	now := i.now()
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   userID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

func (i *Issuer) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		// only accept HMAC signing
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticator turns a bearer token into a Session, checking revocation and
// that the subject still exists.
type Authenticator struct {
	issuer  *Issuer
	revoked tokenstore.Store
	users   store.UserStore
}

func NewAuthenticator(issuer *Issuer, revoked tokenstore.Store, users store.UserStore) *Authenticator {
	return &Authenticator{issuer: issuer, revoked: revoked, users: users}
}

func (a *Authenticator) Resolve(ctx context.Context, tokenStr string) (*session.Session, error) {
	claims, err := a.issuer.Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	revoked, err := a.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("revocation lookup: %w", err)
	}
	if revoked {
		return nil, ErrRevokedToken
	}
	user, err := a.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, fmt.Errorf("user lookup: %w", err)
	}
	var exp int64
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Unix()
	}
	return &session.Session{UserID: user.ID, Email: user.Email, TokenID: claims.ID, ExpiresAt: exp}, nil
}

// Revoke invalidates the session's token for the rest of its lifetime.
func (a *Authenticator) Revoke(ctx context.Context, s *session.Session) error {
	ttl := time.Until(time.Unix(s.ExpiresAt, 0))
	return a.revoked.Revoke(ctx, s.TokenID, ttl)
}
