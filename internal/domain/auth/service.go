package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/yanqian/gaptime-companion/pkg/errors"
)

// Service issues and validates device bearer tokens.
type Service interface {
	Issue(ctx context.Context, deviceID string) (string, error)
	ValidateToken(ctx context.Context, token string) (Claims, error)
}

type service struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a Service instance.
func NewService(cfg Config, logger *slog.Logger) Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 365 * 24 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "gaptime-companion"
	}
	return &service{
		cfg:    cfg,
		logger: logger.With("component", "auth.service"),
		now:    time.Now,
	}
}

func (s *service) Issue(_ context.Context, deviceID string) (string, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return "", apperrors.Wrap(apperrors.CodeInvalidInput, "device id cannot be empty", nil)
	}
	if !s.cfg.Enabled() {
		return "", apperrors.Wrap(apperrors.CodeInvalidInput, "auth secret not configured", nil)
	}
	now := s.now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   deviceID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign device token: %w", err)
	}
	s.logger.Info("device token issued", "device_id", deviceID, "expires_at", claims.ExpiresAt.Time)
	return signed, nil
}

func (s *service) ValidateToken(_ context.Context, token string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return []byte(s.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token validation failed", err)
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token invalid", nil)
	}
	if claims.Subject == "" {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token missing device id", nil)
	}
	return Claims{
		DeviceID:  claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

type tokenClaims struct {
	jwt.RegisteredClaims
}
