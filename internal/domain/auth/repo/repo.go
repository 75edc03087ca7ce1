package repo

import (
	"context"
	"time"

	"github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/auth/model"
)

type UserRepo interface {
	CreateUser(ctx context.Context, user model.User) (uint64, error)
	GetUserByID(ctx context.Context, id uint64) (model.User, error)
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	// DeleteUser removes the user together with its notes, refresh tokens and role links.
	DeleteUser(ctx context.Context, id uint64) error
}

type RoleRepo interface {
	RoleNamesByUserID(ctx context.Context, userID uint64) ([]string, error)
	// AssignRole creates the role on first use.
	AssignRole(ctx context.Context, userID uint64, name string) error
	RemoveRole(ctx context.Context, userID uint64, name string) error
}

// RefreshTokenRepo persists opaque refresh tokens.
//
// FindValid returns ErrNotFound for unknown and expired tokens alike.
// DeleteByToken reports how many records were removed so callers can detect
// that a concurrent consumer got there first.
type RefreshTokenRepo interface {
	Create(ctx context.Context, token model.RefreshToken) (model.RefreshToken, error)
	FindValid(ctx context.Context, token string, now time.Time) (model.RefreshToken, error)
	DeleteByToken(ctx context.Context, token string) (int64, error)
	DeleteByUserID(ctx context.Context, userID uint64) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
