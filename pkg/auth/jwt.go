package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingToken no token could be extracted from the Authorization header
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims JWT claims structure
type Claims struct {
	UserID string `json:"id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Identity returns the claim set as a request identity.
// The subject falls back to the registered "sub" claim when "id" is absent.
func (c *Claims) Identity() Identity {
	subject := c.UserID
	if subject == "" {
		subject = c.Subject
	}
	return Identity{Subject: subject, Role: Role(c.Role)}
}

// JWTManager JWT token manager
type JWTManager struct {
	secretKey    string
	accessExpiry time.Duration
	issuer       string
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secretKey string, accessExpiry time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:    secretKey,
		accessExpiry: accessExpiry,
		issuer:       "movie-catalog",
	}
}

// ExtractToken returns the second space separated segment of an
// Authorization header value. The scheme segment is not inspected.
func ExtractToken(header string) (string, error) {
	parts := strings.Split(header, " ")
	if len(parts) < 2 || parts[1] == "" {
		return "", ErrMissingToken
	}
	return parts[1], nil
}

// Verify extracts and validates the bearer token in an Authorization header.
// It returns ErrMissingToken when nothing could be extracted and
// ErrInvalidToken or ErrExpiredToken when verification fails.
func (m *JWTManager) Verify(header string) (*Claims, error) {
	token, err := ExtractToken(header)
	if err != nil {
		return nil, err
	}
	return m.ValidateToken(token)
}

// ValidateToken validates a token and returns claims
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(m.secretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// GenerateAccessToken generates an access token
func (m *JWTManager) GenerateAccessToken(userID string, role Role) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
			Issuer:   m.issuer,
			Subject:  userID,
		},
	}
	// zero expiry mints a token without exp
	if m.accessExpiry != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.accessExpiry))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.secretKey))
}
