package grpc

import (
	"context"

	customErrors "github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/auth/errors"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Verifier is the subset of the auth service exposed over gRPC.
type Verifier interface {
	VerifyAccess(ctx context.Context, accessToken string) (bool, error)
	VerifyRefresh(ctx context.Context, refreshToken string) (bool, error)
}

type Handler struct {
	svc Verifier
	log *zap.Logger
}

var _ TokenVerifierServer = (*Handler)(nil)

func NewHandler(svc Verifier, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log}
}

func (h *Handler) VerifyAccess(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	ok, err := h.svc.VerifyAccess(ctx, req.GetValue())
	if err != nil {
		h.log.Debug("gRPC VerifyAccess error", zap.Error(err))
		return nil, mapError(err)
	}
	return wrapperspb.Bool(ok), nil
}

func (h *Handler) VerifyRefresh(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	ok, err := h.svc.VerifyRefresh(ctx, req.GetValue())
	if err != nil {
		h.log.Debug("gRPC VerifyRefresh error", zap.Error(err))
		return nil, mapError(err)
	}
	return wrapperspb.Bool(ok), nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, customErrors.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, customErrors.Message(err, "invalid argument"))
	case errors.Is(err, customErrors.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, "invalid credentials")
	case errors.Is(err, customErrors.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, "invalid token")
	case errors.Is(err, customErrors.ErrForbidden), errors.Is(err, customErrors.ErrNoRoles):
		return status.Error(codes.PermissionDenied, customErrors.Message(err, "access denied"))
	case errors.Is(err, customErrors.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, customErrors.Message(err, "already exists"))
	case errors.Is(err, customErrors.ErrNotFound):
		return status.Error(codes.NotFound, customErrors.Message(err, "not found"))
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
