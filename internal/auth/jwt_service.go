package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var (
	// ErrTokenExpired is returned when a token's exp claim is in the past.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned for any other structural or signature failure.
	ErrTokenInvalid = errors.New("invalid token")
)

// requiredClaims must be present in every accepted token, even when the
// signature verifies.
var requiredClaims = []string{"sub", "iat", "exp"}

// JWTService issues and validates stateless, signed bearer tokens. There is
// no revocation list; validity is purely a function of signature and exp.
type JWTService struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
}

// NewJWTService creates a new JWT service. Only HMAC algorithms (HS256,
// HS384, HS512) are supported since the secret is a shared key.
func NewJWTService(secret, algorithm string, ttl time.Duration) (*JWTService, error) {
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q: only HMAC variants are allowed", algorithm)
	}
	return &JWTService{
		secret: []byte(secret),
		method: method,
		ttl:    ttl,
	}, nil
}

// Issue creates a signed token with sub, iat and exp claims. Extra claims are
// merged afterwards and may overwrite the standard ones; this pass-through is
// intentional and not guarded.
func (s *JWTService) Issue(subject string, extraClaims map[string]interface{}) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	}
	for k, v := range extraClaims {
		claims[k] = v
	}

	token, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Validate verifies the signature and standard time claims, then requires the
// sub, iat and exp claims to be present. It returns ErrTokenExpired when the
// token is past its exp, and ErrTokenInvalid for every other failure.
func (s *JWTService) Validate(tokenString string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != s.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	for _, name := range requiredClaims {
		if _, ok := claims[name]; !ok {
			return nil, ErrTokenInvalid
		}
	}
	return claims, nil
}
