package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/park285/tap-racer/internal/domain"
)

type Claims struct {
	UID  string `json:"uid"`
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier accepts HS256 tokens signed with a shared secret.
type JWTVerifier struct {
	secret []byte
	now    func() time.Time
}

func NewJWTVerifier(secret string) (*JWTVerifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	return &JWTVerifier{secret: []byte(secret), now: time.Now}, nil
}

// Issue signs a token for id. It backs the development token command and tests.
func (v *JWTVerifier) Issue(id domain.Identity, ttl time.Duration) (string, error) {
	if strings.TrimSpace(id.UID) == "" {
		return "", errors.New("uid required")
	}
	now := v.now()
	claims := Claims{
		UID:  id.UID,
		Name: id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func (v *JWTVerifier) Resolve(_ context.Context, token string) (domain.Identity, error) {
	token = trimBearer(token)
	if token == "" {
		return domain.Identity{}, ErrUnauthenticated
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithTimeFunc(v.now))
	if err != nil || !parsed.Valid {
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	uid := claims.UID
	if uid == "" {
		uid = claims.Subject
	}
	if uid == "" {
		return domain.Identity{}, fmt.Errorf("%w: uid claim missing", ErrUnauthenticated)
	}
	if !domain.ValidKey(uid) {
		return domain.Identity{}, fmt.Errorf("%w: malformed uid %q", ErrUnauthenticated, uid)
	}
	return domain.Identity{UID: uid, Name: claims.Name}, nil
}
