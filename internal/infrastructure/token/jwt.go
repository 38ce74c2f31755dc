package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"skipped/internal/domain/entity"
)

const issuer = "skipped"

type Claims struct {
	UID   string `json:"uid"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// JWTService issues and verifies HS256 bearer tokens. It backs AUTH_PROVIDER=jwt
// and the development token endpoint.
type JWTService struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewJWTService(secret string, expiry time.Duration) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
}

func (s *JWTService) Issue(principal *entity.Principal) (string, error) {
	if principal == nil || principal.UID == "" {
		return "", errors.New("token subject is required")
	}

	role := principal.Role
	if role == "" {
		role = entity.UserRoleUser
	}

	now := s.now()
	claims := &Claims{
		UID:   principal.UID,
		Email: principal.Email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.UID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *JWTService) VerifyToken(_ context.Context, raw string) (*entity.Principal, error) {
	parser := jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}

	token, err := parser.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.UID == "" {
		return nil, fmt.Errorf("token has no uid claim")
	}

	return &entity.Principal{
		UID:   claims.UID,
		Email: claims.Email,
		Role:  claims.Role,
	}, nil
}
