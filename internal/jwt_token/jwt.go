// Package jwttoken issues and validates the HS256 access tokens that carry
// the acting user's identity and role.
package jwttoken

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"avd/pkg/domain"
	dErrors "avd/pkg/domain-errors"
)

// Claims represents the JWT claims for our access tokens.
type Claims struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTService handles JWT creation and validation.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewJWTService(signingKey string, issuer string, audience string) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

func (s *JWTService) GenerateAccessToken(actor domain.Actor, expiresIn time.Duration) (string, error) {
	now := time.Now()
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: int64(actor.ID),
		Name:   actor.Name,
		Email:  actor.Email,
		Role:   actor.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(int64(actor.ID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})
	return newToken.SignedString(s.signingKey)
}

func (s *JWTService) parse(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithAudience(s.audience))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// ValidateToken verifies the token and returns the actor it identifies.
func (s *JWTService) ValidateToken(tokenString string) (*domain.Actor, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	actor := &domain.Actor{
		ID:    domain.UserID(claims.UserID),
		Name:  claims.Name,
		Email: claims.Email,
		Role:  role,
	}
	if !actor.IsAuthenticated() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return actor, nil
}
