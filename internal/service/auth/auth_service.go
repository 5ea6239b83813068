package auth

import (
	"context"
	"fmt"
	"strings"

	"survivor-api/internal/domain"
	"survivor-api/internal/service"
	"survivor-api/pkg/errors"
	"survivor-api/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
)

// Service implements the AuthService interface for HMAC-signed bearer tokens
type Service struct {
	secret []byte
	logger *logger.Logger
}

// NewService creates a new auth service
func NewService(jwtSecret string, log *logger.Logger) service.AuthService {
	return &Service{
		secret: []byte(jwtSecret),
		logger: log.Component("auth_service"),
	}
}

// ValidateToken verifies the token's signature and expiry and returns the caller's profile
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*domain.UserProfile, error) {
	if len(s.secret) == 0 {
		s.logger.Error("JWT_SECRET not configured")
		return nil, errors.NewAuthenticationError("Token validation not configured")
	}
	if !isJWTToken(tokenString) {
		return nil, errors.NewAuthenticationError("Unrecognized token format")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		s.logger.WithError(err).Debug("Failed to parse/validate JWT token")
		return nil, errors.NewAuthenticationError("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.NewAuthenticationError("Invalid JWT token")
	}

	profile := &domain.UserProfile{
		Sub:     getStringValue(claims, "sub"),
		Email:   getStringValue(claims, "email"),
		Name:    getStringValue(claims, "name"),
		Picture: getStringValue(claims, "picture"),
	}

	if userMeta, ok := claims["user_metadata"].(map[string]interface{}); ok {
		if profile.Name == "" {
			profile.Name = getStringValue(userMeta, "full_name")
		}
		if profile.Name == "" {
			profile.Name = getStringValue(userMeta, "name")
		}
		if profile.Picture == "" {
			profile.Picture = getStringValue(userMeta, "avatar_url")
		}
	}

	if profile.Sub == "" {
		return nil, errors.NewAuthenticationError("Invalid JWT token: no user identifier")
	}

	s.logger.WithField("user_id", profile.Sub).Debug("JWT token validated successfully")
	return profile, nil
}

func isJWTToken(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}

func getStringValue(m map[string]interface{}, key string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return ""
}
