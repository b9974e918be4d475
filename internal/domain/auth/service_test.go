package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/gaptime-companion/pkg/errors"
)

func TestIssueAndValidate(t *testing.T) {
	svc := newTestService(Config{Secret: "s3cret", TokenTTL: time.Hour})

	token, err := svc.Issue(context.Background(), "pebble-time-01")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "pebble-time-01", claims.DeviceID)
	require.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, time.Minute)
}

func TestValidateRejectsForeignAndExpiredTokens(t *testing.T) {
	issuer := newTestService(Config{Secret: "other"})
	token, err := issuer.Issue(context.Background(), "watch")
	require.NoError(t, err)

	svc := newTestService(Config{Secret: "s3cret"})
	_, err = svc.ValidateToken(context.Background(), token)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidToken))

	expiring := newTestService(Config{Secret: "s3cret", TokenTTL: time.Minute}).(*service)
	expiring.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
	stale, err := expiring.Issue(context.Background(), "watch")
	require.NoError(t, err)
	_, err = svc.ValidateToken(context.Background(), stale)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidToken))

	_, err = svc.ValidateToken(context.Background(), "garbage")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidToken))
}

func TestIssueValidation(t *testing.T) {
	_, err := newTestService(Config{Secret: "s3cret"}).Issue(context.Background(), " ")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	_, err = newTestService(Config{}).Issue(context.Background(), "watch")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func newTestService(cfg Config) Service {
	return NewService(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}
