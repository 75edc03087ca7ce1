// Package ledger owns the lifecycle of opaque refresh tokens.
package ledger

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	customErrors "github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/auth/model"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/auth/repo"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/infra/clock"

	"go.uber.org/zap"
)

const tokenBytes = 32

type Ledger struct {
	repo  repo.RefreshTokenRepo
	clock clock.Clock
	ttl   time.Duration
	log   *zap.Logger
}

func New(r repo.RefreshTokenRepo, clk clock.Clock, ttl time.Duration, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{repo: r, clock: clk, ttl: ttl, log: log}
}

func (l *Ledger) Create(ctx context.Context, user model.User) (model.RefreshToken, error) {
	value, err := newTokenValue()
	if err != nil {
		return model.RefreshToken{}, customErrors.WrapInternal(err, "generate refresh token")
	}

	now := l.clock.Now()
	return l.repo.Create(ctx, model.RefreshToken{
		Token:     value,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(l.ttl),
	})
}

// FindValid returns ErrNotFound when the token is unknown, already consumed or expired.
func (l *Ledger) FindValid(ctx context.Context, value string) (model.RefreshToken, error) {
	if value == "" {
		return model.RefreshToken{}, customErrors.ErrNotFound
	}
	return l.repo.FindValid(ctx, value, l.clock.Now())
}

// Invalidate is idempotent; removed is false when the record was already gone.
func (l *Ledger) Invalidate(ctx context.Context, token model.RefreshToken) (removed bool, err error) {
	n, err := l.repo.DeleteByToken(ctx, token.Token)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (l *Ledger) InvalidateAllForUser(ctx context.Context, userID uint64) (int64, error) {
	n, err := l.repo.DeleteByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		l.log.Debug("refresh tokens invalidated", zap.Uint64("user_id", userID), zap.Int64("count", n))
	}
	return n, nil
}

func (l *Ledger) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	return l.repo.DeleteExpired(ctx, now)
}

func newTokenValue() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
