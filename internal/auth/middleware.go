package auth

import (
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	apperrors "grievancedesk/internal/errors"
)

const (
	// HeaderToken carries the raw token, without a scheme prefix.
	HeaderToken = "x-auth-token"
	// ContextKey is where the gate stores *Claims on the echo context.
	ContextKey = "user"
)

// Gate turns a presented token into an Identity on the request context.
type Gate struct {
	jwt     *JWTService
	revoker Revoker
}

// NewGate creates a gate. revoker may be nil.
func NewGate(jwt *JWTService, revoker Revoker) *Gate {
	return &Gate{jwt: jwt, revoker: revoker}
}

// Strict rejects requests without a valid token.
func (g *Gate) Strict() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		TokenLookup:    "header:" + HeaderToken,
		ContextKey:     ContextKey,
		ParseTokenFunc: g.parse,
		ErrorHandler: func(c echo.Context, err error) error {
			if c.Request().Header.Get(HeaderToken) == "" {
				return apperrors.ErrUnauthorized
			}
			return apperrors.ErrInvalidToken
		},
	})
}

// Soft never rejects; the identity is attached only when the token verifies.
func (g *Gate) Soft() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		TokenLookup:            "header:" + HeaderToken,
		ContextKey:             ContextKey,
		ParseTokenFunc:         g.parse,
		ContinueOnIgnoredError: true,
		ErrorHandler: func(c echo.Context, err error) error {
			return nil
		},
	})
}

func (g *Gate) parse(c echo.Context, raw string) (interface{}, error) {
	claims, err := g.jwt.ValidateToken(raw)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}
	if g.revoker != nil {
		revoked, err := g.revoker.IsRevoked(c.Request().Context(), claims.ID)
		if err != nil || revoked {
			return nil, apperrors.ErrInvalidToken
		}
	}
	return claims, nil
}

// ClaimsFrom returns the verified claims attached by a gate.
func ClaimsFrom(c echo.Context) (*Claims, bool) {
	claims, ok := c.Get(ContextKey).(*Claims)
	return claims, ok && claims != nil
}

// IdentityFrom returns the caller identity attached by a gate.
func IdentityFrom(c echo.Context) (Identity, bool) {
	claims, ok := ClaimsFrom(c)
	if !ok {
		return Identity{}, false
	}
	return claims.User, true
}
