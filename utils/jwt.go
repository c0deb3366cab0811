package utils

import (
	"errors"
	"fmt"
	"time"

	"reservo/config"
	"reservo/models"

	"github.com/golang-jwt/jwt/v5"
)

// Claims identify the caller. The subject is the holder identity for slot holds.
type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

func secretKey() ([]byte, error) {
	if config.AppConfig.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not configured")
	}
	return []byte(config.AppConfig.JWTSecret), nil
}

// GenerateToken creates a signed JWT for subject acting as role. The token expires after duration.
func GenerateToken(subject string, role models.Role, duration time.Duration) (string, error) {
	key, err := secretKey()
	if err != nil {
		return "", err
	}
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// ParseToken validates tokenString and returns the actor it names.
func ParseToken(tokenString string) (models.Actor, error) {
	key, err := secretKey()
	if err != nil {
		return models.Actor{}, err
	}
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return models.Actor{}, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return models.Actor{}, errors.New("token does not contain a valid 'sub' claim")
	}
	switch claims.Role {
	case models.RoleClient, models.RoleProvider, models.RoleAdmin:
	default:
		return models.Actor{}, fmt.Errorf("token carries unknown role %q", claims.Role)
	}
	return models.Actor{ID: claims.Subject, Role: claims.Role}, nil
}
