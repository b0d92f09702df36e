package auth

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	apperrors "dspgateway/internal/errors"
	"dspgateway/internal/repository"
)

var (
	// ErrMissingSubject is returned when a valid token carries no usable sub claim.
	ErrMissingSubject = errors.New("token payload has no usable subject")
	// ErrUserNotFound is returned when the token subject no longer exists in the store.
	ErrUserNotFound = errors.New("user not found")

	// errNotBearer covers an absent or non-bearer Authorization scheme.
	errNotBearer = errors.New("authorization scheme is not bearer")
	// errStoreFailure marks user store failures, which are server errors
	// rather than authentication failures.
	errStoreFailure = errors.New("user store failure")
)

// contextKeySubject is the echo context key under which the authenticated
// subject email is stored.
const contextKeySubject = "auth_subject"

// Guard authenticates requests: it extracts the bearer token, validates it,
// and confirms the subject still exists in the user store. The store read
// happens on every request; there is no caching, so a deleted user is locked
// out immediately.
type Guard struct {
	tokens *JWTService
	users  repository.UserRepository
}

// NewGuard creates a new request guard.
func NewGuard(tokens *JWTService, users repository.UserRepository) *Guard {
	return &Guard{tokens: tokens, users: users}
}

// ParseToken is plugged into echo-jwt as ParseTokenFunc. It receives the raw
// Authorization header value (the token lookup strips nothing) so the scheme
// can be matched case-insensitively.
func (g *Guard) ParseToken(c echo.Context, authHeader string) (interface{}, error) {
	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return nil, errNotBearer
	}

	claims, err := g.tokens.Validate(strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}

	subject, ok := claims["sub"].(string)
	if !ok || subject == "" {
		return nil, ErrMissingSubject
	}

	if _, err := g.users.FindByEmail(c.Request().Context(), subject); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: look up %q: %v", errStoreFailure, subject, err)
	}

	c.Set(contextKeySubject, subject)
	return claims, nil
}

// ErrorHandler maps every authentication failure to 401 with a
// WWW-Authenticate challenge and a distinguishable detail text. Non-auth
// failures raised during the chain pass through untouched.
func (g *Guard) ErrorHandler(c echo.Context, err error) error {
	if errors.Is(err, errStoreFailure) {
		log.Printf("guard: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to verify user")
	}

	detail, code := "Not authenticated", apperrors.CodeUnauthenticated
	switch {
	case errors.Is(err, ErrTokenExpired):
		detail, code = "Token expired", apperrors.CodeTokenExpired
	case errors.Is(err, ErrTokenInvalid):
		detail, code = "Invalid token", apperrors.CodeTokenInvalid
	case errors.Is(err, ErrMissingSubject):
		detail, code = "Invalid token payload", apperrors.CodeTokenInvalid
	case errors.Is(err, ErrUserNotFound):
		detail, code = "User not found", apperrors.CodeUserNotFound
	}

	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
		Error: detail,
		Code:  code,
	})
}

// CurrentSubject returns the authenticated subject email set by the guard,
// or "" when the request did not pass through it.
func CurrentSubject(c echo.Context) string {
	subject, _ := c.Get(contextKeySubject).(string)
	return subject
}
