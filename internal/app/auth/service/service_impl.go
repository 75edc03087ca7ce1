package service

import (
	"context"
	"errors"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/app/auth/password"
	customErrors "github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/auth/jwt"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/auth/model"
	repo "github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/auth/repo"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/infra/clock"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/infra/config"
	"github.com/go-playground/validator/v10"
	"strings"

	"go.uber.org/zap"
)

// RefreshLedger is the part of the refresh token ledger the service depends on.
type RefreshLedger interface {
	Create(ctx context.Context, user model.User) (model.RefreshToken, error)
	FindValid(ctx context.Context, value string) (model.RefreshToken, error)
	Invalidate(ctx context.Context, token model.RefreshToken) (bool, error)
	InvalidateAllForUser(ctx context.Context, userID uint64) (int64, error)
}

type authService struct {
	userRepo repo.UserRepo
	roleRepo repo.RoleRepo
	codec    jwt.Codec
	ledger   RefreshLedger
	hasher   password.Hasher
	clock    clock.Clock
	cfg      *config.Config
	v        *validator.Validate
	log      *zap.Logger
}

type Service interface {
	Register(context.Context, dto.RegisterDTO) (model.User, error)
	Login(context.Context, dto.LoginDTO) (model.LoginResult, error)
	Refresh(context.Context, dto.RefreshDTO) (model.TokenPair, error)
	Logout(context.Context, dto.LogoutDTO) error
	VerifyAccess(ctx context.Context, accessToken string) (bool, error)
	VerifyRefresh(ctx context.Context, refreshToken string) (bool, error)
	// Authenticate resolves an access token into the principal of the current request.
	Authenticate(ctx context.Context, accessToken string) (model.Principal, error)
	Me(context.Context, model.Principal) (model.User, error)
	DeleteAccount(context.Context, model.Principal) error
}

func New(
	ur repo.UserRepo,
	rr repo.RoleRepo,
	codec jwt.Codec,
	ledger RefreshLedger,
	hasher password.Hasher,
	clk clock.Clock,
	cfg *config.Config,
	v *validator.Validate,
	log *zap.Logger,
) Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &authService{
		userRepo: ur, roleRepo: rr, codec: codec, ledger: ledger, hasher: hasher,
		clock: clk, cfg: cfg, v: v, log: log,
	}
}

func (a *authService) Register(ctx context.Context, in dto.RegisterDTO) (model.User, error) {
	if err := a.v.Struct(in); err != nil {
		return model.User{}, customErrors.NewInvalidArgument(Describe(err))
	}

	_, err := a.userRepo.GetUserByUsername(ctx, in.Username)
	switch {
	case err == nil:
		return model.User{}, customErrors.NewAlreadyExists("Username already exists")
	case !errors.Is(err, customErrors.ErrNotFound):
		return model.User{}, customErrors.WrapInternal(err, "Register")
	}

	passwordHash, err := a.hasher.Hash(in.Password)
	if err != nil {
		return model.User{}, customErrors.WrapInternal(err, "Register")
	}

	user := model.User{Username: in.Username, PasswordHash: passwordHash}
	user.ID, err = a.userRepo.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, customErrors.ErrAlreadyExists) {
			return model.User{}, customErrors.NewAlreadyExists("Username already exists")
		}
		return model.User{}, customErrors.WrapInternal(err, "Register")
	}

	if err := a.roleRepo.AssignRole(ctx, user.ID, a.cfg.DefaultRole); err != nil {
		// без роли пользователь не сможет войти, поэтому откатываем регистрацию
		if delErr := a.userRepo.DeleteUser(ctx, user.ID); delErr != nil {
			a.log.Error("rollback of user without role failed",
				zap.Uint64("user_id", user.ID), zap.Error(delErr))
		}
		return model.User{}, customErrors.WrapInternal(err, "Register")
	}

	user.Roles = []model.Role{{Name: a.cfg.DefaultRole}}
	a.log.Info("user registered", zap.Uint64("user_id", user.ID))
	return user, nil
}

func (a *authService) Login(ctx context.Context, in dto.LoginDTO) (model.LoginResult, error) {
	if strings.TrimSpace(in.Username) == "" || in.Password == "" {
		return model.LoginResult{}, customErrors.ErrInvalidCredentials
	}

	user, err := a.userRepo.GetUserByUsername(ctx, in.Username)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		a.hasher.CompareDummy(in.Password)
		return model.LoginResult{}, customErrors.ErrInvalidCredentials
	case err != nil:
		return model.LoginResult{}, customErrors.WrapInternal(err, "Login")
	}

	ok, err := a.hasher.Compare(in.Password, user.PasswordHash)
	if err != nil {
		return model.LoginResult{}, customErrors.WrapInternal(err, "Login")
	}
	if !ok {
		return model.LoginResult{}, customErrors.ErrInvalidCredentials
	}

	roles, err := a.roleRepo.RoleNamesByUserID(ctx, user.ID)
	if err != nil {
		return model.LoginResult{}, customErrors.WrapInternal(err, "Login")
	}
	if len(roles) == 0 {
		return model.LoginResult{}, &customErrors.Error{Kind: customErrors.ErrNoRoles, Msg: "User has no roles assigned"}
	}

	// одна активная сессия на пользователя
	if _, err := a.ledger.InvalidateAllForUser(ctx, user.ID); err != nil {
		return model.LoginResult{}, customErrors.WrapInternal(err, "Login")
	}

	pair, err := a.issueTokens(ctx, user)
	if err != nil {
		return model.LoginResult{}, err
	}

	return model.LoginResult{
		TokenPair: pair,
		UserID:    user.ID,
		Username:  user.Username,
		Roles:     roles,
	}, nil
}

// Refresh rotates a refresh token. The new pair is built before the old token is consumed;
// if another request consumed it first, the new token is discarded and the call fails.
func (a *authService) Refresh(ctx context.Context, in dto.RefreshDTO) (model.TokenPair, error) {
	if strings.TrimSpace(in.RefreshToken) == "" {
		return model.TokenPair{}, customErrors.NewInvalidArgument("Refresh token is required.")
	}

	old, err := a.ledger.FindValid(ctx, in.RefreshToken)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.TokenPair{}, customErrors.ErrInvalidToken
	case err != nil:
		return model.TokenPair{}, customErrors.WrapInternal(err, "Refresh")
	}

	user, err := a.userRepo.GetUserByID(ctx, old.UserID)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.TokenPair{}, customErrors.ErrInvalidToken
	case err != nil:
		return model.TokenPair{}, customErrors.WrapInternal(err, "Refresh")
	}

	pair, err := a.issueTokens(ctx, user)
	if err != nil {
		return model.TokenPair{}, err
	}

	removed, err := a.ledger.Invalidate(ctx, old)
	if err != nil {
		// лучше два живых токена на короткое время, чем ни одного
		a.log.Error("failed to invalidate consumed refresh token",
			zap.Uint64("user_id", user.ID), zap.Uint64("token_id", old.ID), zap.Error(err))
		return pair, nil
	}
	if !removed {
		if _, err := a.ledger.Invalidate(ctx, model.RefreshToken{Token: pair.RefreshToken, UserID: user.ID}); err != nil {
			a.log.Error("failed to discard refresh token of a lost rotation",
				zap.Uint64("user_id", user.ID), zap.Error(err))
		}
		a.log.Warn("refresh token reused", zap.Uint64("user_id", user.ID), zap.Uint64("token_id", old.ID))
		return model.TokenPair{}, customErrors.ErrInvalidToken
	}

	return pair, nil
}

func (a *authService) Logout(ctx context.Context, in dto.LogoutDTO) error {
	if strings.TrimSpace(in.Username) == "" {
		return customErrors.NewInvalidArgument("Username is required for logout")
	}

	user, err := a.userRepo.GetUserByUsername(ctx, in.Username)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return customErrors.NewNotFound("User not found")
	case err != nil:
		return customErrors.WrapInternal(err, "Logout")
	}

	n, err := a.ledger.InvalidateAllForUser(ctx, user.ID)
	if err != nil {
		return customErrors.WrapInternal(err, "Logout")
	}
	a.log.Info("user logged out", zap.Uint64("user_id", user.ID), zap.Int64("tokens", n))
	return nil
}

func (a *authService) VerifyAccess(_ context.Context, accessToken string) (bool, error) {
	if strings.TrimSpace(accessToken) == "" {
		return false, customErrors.NewInvalidArgument("Access token is required")
	}
	if _, err := a.codec.Validate(accessToken); err != nil {
		return false, nil
	}
	return true, nil
}

func (a *authService) VerifyRefresh(ctx context.Context, refreshToken string) (bool, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return false, customErrors.NewInvalidArgument("Refresh token is required.")
	}

	_, err := a.ledger.FindValid(ctx, refreshToken)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return false, nil
	case err != nil:
		return false, customErrors.WrapInternal(err, "VerifyRefresh")
	}
	return true, nil
}

func (a *authService) Authenticate(ctx context.Context, accessToken string) (model.Principal, error) {
	claims, err := a.codec.Validate(accessToken)
	if err != nil {
		return model.Principal{}, customErrors.ErrInvalidToken
	}

	user, err := a.userRepo.GetUserByUsername(ctx, claims.Subject)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.Principal{}, customErrors.ErrInvalidToken
	case err != nil:
		return model.Principal{}, customErrors.WrapInternal(err, "Authenticate")
	}

	roles, err := a.roleRepo.RoleNamesByUserID(ctx, user.ID)
	if err != nil {
		return model.Principal{}, customErrors.WrapInternal(err, "Authenticate")
	}
	if len(roles) == 0 {
		return model.Principal{}, customErrors.ErrInvalidToken
	}

	return model.Principal{UserID: user.ID, Username: user.Username, Roles: roles}, nil
}

func (a *authService) Me(ctx context.Context, p model.Principal) (model.User, error) {
	user, err := a.userRepo.GetUserByID(ctx, p.UserID)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.User{}, customErrors.NewNotFound("User not found")
	case err != nil:
		return model.User{}, customErrors.WrapInternal(err, "Me")
	}

	roles, err := a.roleRepo.RoleNamesByUserID(ctx, user.ID)
	if err != nil {
		return model.User{}, customErrors.WrapInternal(err, "Me")
	}
	for _, name := range roles {
		user.Roles = append(user.Roles, model.Role{Name: name})
	}
	return user, nil
}

func (a *authService) DeleteAccount(ctx context.Context, p model.Principal) error {
	if _, err := a.ledger.InvalidateAllForUser(ctx, p.UserID); err != nil {
		return customErrors.WrapInternal(err, "DeleteAccount")
	}

	err := a.userRepo.DeleteUser(ctx, p.UserID)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return customErrors.NewNotFound("User not found")
	case err != nil:
		return customErrors.WrapInternal(err, "DeleteAccount")
	}
	a.log.Info("account deleted", zap.Uint64("user_id", p.UserID))
	return nil
}

func (a *authService) issueTokens(ctx context.Context, user model.User) (model.TokenPair, error) {
	at, atExp, err := a.codec.Mint(user.Username, a.clock.Now())
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "MintAccessToken")
	}
	rt, err := a.ledger.Create(ctx, user)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "CreateRefreshToken")
	}

	return model.TokenPair{
		AccessToken:      at,
		RefreshToken:     rt.Token,
		AccessExpiresAt:  atExp,
		RefreshExpiresAt: rt.ExpiresAt,
	}, nil
}
