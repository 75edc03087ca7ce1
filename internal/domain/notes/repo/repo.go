package repo

import (
	"context"

	"github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/notes/model"
)

type NoteRepo interface {
	Create(ctx context.Context, note model.Note) (model.Note, error)
	GetByID(ctx context.Context, id uint64) (model.Note, error)
	// ListByUser returns the user's notes newest first.
	ListByUser(ctx context.Context, userID uint64) ([]model.Note, error)
	UpdateBody(ctx context.Context, id uint64, body string) (model.Note, error)
	Delete(ctx context.Context, id uint64) error
}
