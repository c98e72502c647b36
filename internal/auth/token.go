package auth

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"clinic_notify/internal/config"
)

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

type Claims struct {
	Name string `json:"name,omitempty"`
	Role string `json:"role"`
	jwtv5.RegisteredClaims
}

// TokenVerifier checks HS256 tokens whose subject is the user id. Without a
// secret it runs in development mode and callers may sign in with explicit
// credentials instead.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(cfg *config.Config) *TokenVerifier {
	return &TokenVerifier{secret: []byte(cfg.AuthJWTSecret)}
}

func (v *TokenVerifier) DevMode() bool {
	return len(v.secret) == 0
}

func (v *TokenVerifier) Issue(u User, ttl time.Duration) (string, error) {
	if v.DevMode() {
		return "", ErrTokenInvalid
	}
	now := time.Now()
	claims := Claims{
		Name: u.Name,
		Role: u.Role,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(v.secret)
}

func (v *TokenVerifier) Verify(tokenString string) (User, error) {
	if v.DevMode() {
		return User{}, ErrTokenInvalid
	}
	token, err := jwtv5.ParseWithClaims(tokenString, &Claims{}, func(t *jwtv5.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return User{}, ErrTokenExpired
		}
		return User{}, ErrTokenInvalid
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return User{}, ErrTokenInvalid
	}
	return User{ID: claims.Subject, Name: claims.Name, Role: claims.Role}, nil
}
