package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"grievancedesk/internal/model"
)

// TokenExpiry is the lifetime of an issued token.
const TokenExpiry = 5 * time.Hour

// Identity is the caller as asserted by a verified token.
// Role is informational; authorization re-reads the stored role.
type Identity struct {
	ID       string     `json:"id"`
	Role     model.Role `json:"role"`
	Fullname string     `json:"fullname"`
}

// Claims represents JWT claims.
type Claims struct {
	User Identity `json:"user"`
	jwt.RegisteredClaims
}

// JWTService handles JWT token generation and validation.
type JWTService struct {
	secret []byte
	now    func() time.Time
}

// NewJWTService creates a new JWT service with the given secret.
func NewJWTService(secret string) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// GenerateToken signs a token for the identity.
func (s *JWTService) GenerateToken(id Identity) (string, error) {
	now := s.now()
	claims := &Claims{
		User: id,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        generateTokenID(),
			Subject:   id.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken validates a JWT token and returns the claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.User.ID == "" {
		return nil, errors.New("token has no user")
	}
	return claims, nil
}

// TTL is how long the token remains valid from now. Never negative.
func (c *Claims) TTL(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	if d := c.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

func generateTokenID() string {
	return uuid.New().String()
}
