package postgres

import (
	"context"
	"errors"
	"time"

	customErrors "github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/auth/model"
	"gorm.io/gorm"
)

type PostgresRefreshTokenRepo struct {
	db *gorm.DB
}

func NewPostgresRefreshTokenRepo(db *gorm.DB) *PostgresRefreshTokenRepo {
	return &PostgresRefreshTokenRepo{db: db}
}

func (p *PostgresRefreshTokenRepo) Create(ctx context.Context, t model.RefreshToken) (model.RefreshToken, error) {
	t.CreatedAt = t.CreatedAt.UTC()
	t.ExpiresAt = t.ExpiresAt.UTC()
	if err := p.db.WithContext(ctx).Create(&t).Error; err != nil {
		if isUniqueViolation(err) {
			return model.RefreshToken{}, customErrors.ErrAlreadyExists
		}
		return model.RefreshToken{}, customErrors.WrapInternal(err, "CreateRefreshToken")
	}
	return t, nil
}

func (p *PostgresRefreshTokenRepo) FindValid(ctx context.Context, token string, now time.Time) (model.RefreshToken, error) {
	var t model.RefreshToken
	res := p.db.WithContext(ctx).
		Where("token = ? AND expires_at > ?", token, now.UTC()).
		First(&t)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.RefreshToken{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.RefreshToken{}, customErrors.WrapInternal(err, "FindValidRefreshToken")
	}
	return t, nil
}

func (p *PostgresRefreshTokenRepo) DeleteByToken(ctx context.Context, token string) (int64, error) {
	res := p.db.WithContext(ctx).Where("token = ?", token).Delete(&model.RefreshToken{})
	if err := res.Error; err != nil {
		return 0, customErrors.WrapInternal(err, "DeleteRefreshToken")
	}
	return res.RowsAffected, nil
}

func (p *PostgresRefreshTokenRepo) DeleteByUserID(ctx context.Context, userID uint64) (int64, error) {
	res := p.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.RefreshToken{})
	if err := res.Error; err != nil {
		return 0, customErrors.WrapInternal(err, "DeleteRefreshTokensByUser")
	}
	return res.RowsAffected, nil
}

func (p *PostgresRefreshTokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := p.db.WithContext(ctx).Where("expires_at < ?", now.UTC()).Delete(&model.RefreshToken{})
	if err := res.Error; err != nil {
		return 0, customErrors.WrapInternal(err, "DeleteExpiredRefreshTokens")
	}
	return res.RowsAffected, nil
}
