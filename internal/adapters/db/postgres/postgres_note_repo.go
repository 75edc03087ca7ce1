package postgres

import (
	"context"
	"errors"

	customErrors "github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/notes/model"
	"gorm.io/gorm"
)

type PostgresNoteRepo struct {
	db *gorm.DB
}

func NewPostgresNoteRepo(db *gorm.DB) *PostgresNoteRepo {
	return &PostgresNoteRepo{db: db}
}

func (p *PostgresNoteRepo) Create(ctx context.Context, n model.Note) (model.Note, error) {
	if err := p.db.WithContext(ctx).Create(&n).Error; err != nil {
		return model.Note{}, customErrors.WrapInternal(err, "CreateNote")
	}
	return n, nil
}

func (p *PostgresNoteRepo) GetByID(ctx context.Context, id uint64) (model.Note, error) {
	var n model.Note
	res := p.db.WithContext(ctx).Where("id = ?", id).First(&n)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.Note{}, customErrors.NewNotFound("Note not found")
	}
	if err := res.Error; err != nil {
		return model.Note{}, customErrors.WrapInternal(err, "GetNoteByID")
	}
	return n, nil
}

func (p *PostgresNoteRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Note, error) {
	notes := make([]model.Note, 0)
	err := p.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&notes).Error
	if err != nil {
		return nil, customErrors.WrapInternal(err, "ListNotes")
	}
	return notes, nil
}

func (p *PostgresNoteRepo) UpdateBody(ctx context.Context, id uint64, body string) (model.Note, error) {
	res := p.db.WithContext(ctx).Model(&model.Note{}).Where("id = ?", id).Update("body", body)
	if err := res.Error; err != nil {
		return model.Note{}, customErrors.WrapInternal(err, "UpdateNote")
	}
	if res.RowsAffected == 0 {
		return model.Note{}, customErrors.NewNotFound("Note not found")
	}
	return p.GetByID(ctx, id)
}

func (p *PostgresNoteRepo) Delete(ctx context.Context, id uint64) error {
	res := p.db.WithContext(ctx).Delete(&model.Note{}, id)
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "DeleteNote")
	}
	if res.RowsAffected == 0 {
		return customErrors.NewNotFound("Note not found")
	}
	return nil
}
