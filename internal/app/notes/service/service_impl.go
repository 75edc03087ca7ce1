package service

import (
	"context"
	"errors"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/app/authz"
	customErrors "github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/auth/errors"
	authmodel "github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/auth/model"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/notes/model"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/notes/repo"
	"github.com/go-playground/validator/v10"

	authsvc "github.com/Miraines/MoonyAndStarry/notes-service/internal/app/auth/service"
)

type Service interface {
	Create(ctx context.Context, p authmodel.Principal, in dto.NoteDTO) (model.Note, error)
	Get(ctx context.Context, p authmodel.Principal, id uint64) (model.Note, error)
	List(ctx context.Context, p authmodel.Principal) ([]model.Note, error)
	Update(ctx context.Context, p authmodel.Principal, id uint64, in dto.NoteDTO) (model.Note, error)
	Delete(ctx context.Context, p authmodel.Principal, id uint64) error
}

type notesService struct {
	repo repo.NoteRepo
	v    *validator.Validate
}

func New(r repo.NoteRepo, v *validator.Validate) Service {
	return &notesService{repo: r, v: v}
}

func (s *notesService) Create(ctx context.Context, p authmodel.Principal, in dto.NoteDTO) (model.Note, error) {
	if p.UserID == 0 {
		return model.Note{}, customErrors.ErrInvalidToken
	}
	if err := s.v.Struct(in); err != nil {
		return model.Note{}, customErrors.NewInvalidArgument(authsvc.Describe(err))
	}
	return s.repo.Create(ctx, model.Note{UserID: p.UserID, Body: in.Body})
}

func (s *notesService) Get(ctx context.Context, p authmodel.Principal, id uint64) (model.Note, error) {
	return s.load(ctx, p, id)
}

func (s *notesService) List(ctx context.Context, p authmodel.Principal) ([]model.Note, error) {
	if p.UserID == 0 {
		return nil, customErrors.ErrInvalidToken
	}
	return s.repo.ListByUser(ctx, p.UserID)
}

func (s *notesService) Update(ctx context.Context, p authmodel.Principal, id uint64, in dto.NoteDTO) (model.Note, error) {
	if _, err := s.load(ctx, p, id); err != nil {
		return model.Note{}, err
	}
	if err := s.v.Struct(in); err != nil {
		return model.Note{}, customErrors.NewInvalidArgument(authsvc.Describe(err))
	}
	return s.repo.UpdateBody(ctx, id, in.Body)
}

func (s *notesService) Delete(ctx context.Context, p authmodel.Principal, id uint64) error {
	if _, err := s.load(ctx, p, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// load checks existence before ownership: a missing note is 404 for everyone.
func (s *notesService) load(ctx context.Context, p authmodel.Principal, id uint64) (model.Note, error) {
	note, err := s.repo.GetByID(ctx, id)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.Note{}, err
	case err != nil:
		return model.Note{}, customErrors.WrapInternal(err, "LoadNote")
	}

	if err := authz.CanActOnNote(p, note); err != nil {
		return model.Note{}, err
	}
	return note, nil
}
