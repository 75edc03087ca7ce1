package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	pgrepo "github.com/Miraines/MoonyAndStarry/notes-service/internal/adapters/db/postgres"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/app/auth/jwt"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/app/auth/ledger"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/app/auth/password"
	appsvc "github.com/Miraines/MoonyAndStarry/notes-service/internal/app/auth/service"
	authErrors "github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/auth/model"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/infra/clock"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/infra/config"
	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

/* ──────────────────────────────── stubs ──────────────────────────────── */

// ledgerStub forces the outcome of Invalidate to simulate races and storage failures.
type ledgerStub struct {
	appsvc.RefreshLedger
	invalidateErr error
	notRemoved    bool
	discarded     []string
}

func (l *ledgerStub) Invalidate(ctx context.Context, t model.RefreshToken) (bool, error) {
	if l.invalidateErr != nil {
		return false, l.invalidateErr
	}
	if l.notRemoved {
		l.discarded = append(l.discarded, t.Token)
		if len(l.discarded) == 1 {
			return false, nil
		}
	}
	return l.RefreshLedger.Invalidate(ctx, t)
}

/* ───────────────────────────── helpers ───────────────────────────── */

const (
	strongPwd  = "Secret123"
	testSecret = "0123456789abcdef0123456789abcdef"
)

var t0 = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

type env struct {
	svc    appsvc.Service
	clock  *clock.Fake
	ledger *ledger.Ledger
	users  *pgrepo.PostgresUserRepo
	roles  *pgrepo.PostgresRoleRepo
	db     *gorm.DB
	cfg    *config.Config
	codec  *jwt.JwtUtilImpl
	hasher password.Hasher
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, pgrepo.AutoMigrate(db))
	return db
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := setupDB(t)
	clk := clock.NewFake(t0)
	cfg := &config.Config{
		JWTSecret:       testSecret,
		Issuer:          "test",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		PasswordPepper:  "pepper",
		DefaultRole:     "USER",
	}

	codec, err := jwt.NewJWTUtil(cfg, clk, nil)
	require.NoError(t, err)

	e := &env{
		clock:  clk,
		db:     db,
		cfg:    cfg,
		codec:  codec,
		users:  pgrepo.NewPostgresUserRepo(db),
		roles:  pgrepo.NewPostgresRoleRepo(db),
		hasher: password.NewArgon2id(cfg.PasswordPepper, &argon2id.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}),
	}
	e.ledger = ledger.New(pgrepo.NewPostgresRefreshTokenRepo(db), clk, cfg.RefreshTokenTTL, nil)
	e.svc = e.build(e.ledger)
	return e
}

func (e *env) build(l appsvc.RefreshLedger) appsvc.Service {
	return appsvc.New(e.users, e.roles, e.codec, l, e.hasher, e.clock, e.cfg, appsvc.NewValidator(), nil)
}

func (e *env) register(t *testing.T, username string) model.User {
	t.Helper()
	u, err := e.svc.Register(context.Background(), dto.RegisterDTO{Username: username, Password: strongPwd})
	require.NoError(t, err)
	return u
}

func (e *env) login(t *testing.T, username string) model.LoginResult {
	t.Helper()
	res, err := e.svc.Login(context.Background(), dto.LoginDTO{Username: username, Password: strongPwd})
	require.NoError(t, err)
	return res
}

/* ───────────────────────────── tests ───────────────────────────── */

func TestAuthService_RegisterLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u := e.register(t, "alice")
	require.NotZero(t, u.ID)
	require.Equal(t, "USER", u.Roles[0].Name)

	res := e.login(t, "alice")
	require.NotEmpty(t, res.AccessToken)
	require.NotEmpty(t, res.RefreshToken)
	require.Equal(t, u.ID, res.UserID)
	require.Equal(t, []string{"USER"}, res.Roles)
	require.Equal(t, t0.Add(15*time.Minute), res.AccessExpiresAt)

	ok, err := e.svc.VerifyAccess(ctx, res.AccessToken)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = e.svc.VerifyRefresh(ctx, res.RefreshToken)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestAuthService_RegisterInvalid(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cases := map[string]dto.RegisterDTO{
		"empty":          {},
		"short username": {Username: "al", Password: strongPwd},
		"bad chars":      {Username: "al ice", Password: strongPwd},
		"weak password":  {Username: "alice", Password: "secret"},
		"no upper":       {Username: "alice", Password: "secret123"},
		"no digit":       {Username: "alice", Password: "SecretSecret"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.svc.Register(ctx, in)
			require.True(t, authErrors.IsInvalidArgument(err), "got %v", err)
		})
	}

	_, err := e.svc.Register(ctx, dto.RegisterDTO{Username: "alice", Password: "weak"})
	require.Contains(t, err.Error(), "password:")
}

func TestAuthService_RegisterDuplicate(t *testing.T) {
	e := newEnv(t)
	e.register(t, "alice")

	_, err := e.svc.Register(context.Background(), dto.RegisterDTO{Username: "alice", Password: strongPwd})
	require.True(t, authErrors.IsAlreadyExists(err))
	require.Equal(t, "Username already exists", err.Error())
}

func TestAuthService_LoginFailures(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "alice")

	for name, in := range map[string]dto.LoginDTO{
		"blank":          {},
		"wrong password": {Username: "alice", Password: "Wrong1234"},
		"unknown user":   {Username: "nobody", Password: strongPwd},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := e.svc.Login(ctx, in)
			require.True(t, authErrors.IsInvalidCredentials(err), "got %v", err)
		})
	}
}

func TestAuthService_LoginWithoutRoles(t *testing.T) {
	e := newEnv(t)
	u := e.register(t, "alice")
	require.NoError(t, e.roles.RemoveRole(context.Background(), u.ID, "USER"))

	_, err := e.svc.Login(context.Background(), dto.LoginDTO{Username: "alice", Password: strongPwd})
	require.ErrorIs(t, err, authErrors.ErrNoRoles)
	require.True(t, authErrors.IsForbidden(err))
}

func TestAuthService_SecondLoginRevokesFirstRefresh(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "alice")

	first := e.login(t, "alice")
	second := e.login(t, "alice")

	_, err := e.svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: first.RefreshToken})
	require.ErrorIs(t, err, authErrors.ErrInvalidToken)

	_, err = e.svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: second.RefreshToken})
	require.NoError(t, err)
}

func TestAuthService_RefreshIsSingleUse(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "alice")
	res := e.login(t, "alice")

	pair, err := e.svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: res.RefreshToken})
	require.NoError(t, err)
	require.NotEqual(t, res.RefreshToken, pair.RefreshToken)

	_, err = e.svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: res.RefreshToken})
	require.ErrorIs(t, err, authErrors.ErrInvalidToken)

	ok, err := e.svc.VerifyAccess(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestAuthService_ConcurrentRefreshSucceedsOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "alice")
	res := e.login(t, "alice")

	const workers = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes []model.TokenPair
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pair, err := e.svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: res.RefreshToken})
			if err == nil {
				mu.Lock()
				successes = append(successes, pair)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, successes, 1)

	var live int64
	require.NoError(t, e.db.Model(&model.RefreshToken{}).Count(&live).Error)
	require.EqualValues(t, 1, live, "losers must discard the tokens they minted")
}

func TestAuthService_RefreshLostRaceDiscardsNewToken(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "alice")
	res := e.login(t, "alice")

	stub := &ledgerStub{RefreshLedger: e.ledger, notRemoved: true}
	svc := e.build(stub)

	_, err := svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: res.RefreshToken})
	require.ErrorIs(t, err, authErrors.ErrInvalidToken)
	require.Len(t, stub.discarded, 2)

	ok, err := e.svc.VerifyRefresh(ctx, stub.discarded[1])
	require.NoError(t, err)
	require.False(t, ok, "token minted by the losing refresh must be gone")
}

func TestAuthService_RefreshInvalidateFailureStillReturnsPair(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "alice")
	res := e.login(t, "alice")

	svc := e.build(&ledgerStub{RefreshLedger: e.ledger, invalidateErr: authErrors.WrapInternal(errors.New("db down"), "test")})

	pair, err := svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: res.RefreshToken})
	require.NoError(t, err)
	require.NotEmpty(t, pair.RefreshToken)
}

func TestAuthService_RefreshBlankAndUnknown(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: ""})
	require.True(t, authErrors.IsInvalidArgument(err))
	require.Equal(t, "Refresh token is required.", err.Error())

	_, err = e.svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: "bad"})
	require.ErrorIs(t, err, authErrors.ErrInvalidToken)
}

func TestAuthService_RefreshExpired(t *testing.T) {
	e := newEnv(t)
	e.register(t, "alice")
	res := e.login(t, "alice")

	e.clock.Advance(24 * time.Hour)
	_, err := e.svc.Refresh(context.Background(), dto.RefreshDTO{RefreshToken: res.RefreshToken})
	require.ErrorIs(t, err, authErrors.ErrInvalidToken)
}

func TestAuthService_Logout(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "alice")
	res := e.login(t, "alice")

	require.NoError(t, e.svc.Logout(ctx, dto.LogoutDTO{Username: "alice"}))
	require.NoError(t, e.svc.Logout(ctx, dto.LogoutDTO{Username: "alice"}), "logout is idempotent")

	ok, err := e.svc.VerifyRefresh(ctx, res.RefreshToken)
	require.NoError(t, err)
	require.False(t, ok)

	err = e.svc.Logout(ctx, dto.LogoutDTO{Username: ""})
	require.True(t, authErrors.IsInvalidArgument(err))

	err = e.svc.Logout(ctx, dto.LogoutDTO{Username: "nobody"})
	require.True(t, authErrors.IsNotFound(err))
}

func TestAuthService_VerifyBlank(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.VerifyAccess(ctx, " ")
	require.True(t, authErrors.IsInvalidArgument(err))
	_, err = e.svc.VerifyRefresh(ctx, "")
	require.True(t, authErrors.IsInvalidArgument(err))

	ok, err := e.svc.VerifyAccess(ctx, "garbage")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAuthService_Authenticate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "alice")
	res := e.login(t, "alice")

	p, err := e.svc.Authenticate(ctx, res.AccessToken)
	require.NoError(t, err)
	require.Equal(t, model.Principal{UserID: u.ID, Username: "alice", Roles: []string{"USER"}}, p)

	e.clock.Advance(15 * time.Minute)
	_, err = e.svc.Authenticate(ctx, res.AccessToken)
	require.ErrorIs(t, err, authErrors.ErrInvalidToken)
}

func TestAuthService_AuthenticateRequiresRoles(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "alice")
	res := e.login(t, "alice")

	require.NoError(t, e.roles.RemoveRole(ctx, u.ID, "USER"))
	_, err := e.svc.Authenticate(ctx, res.AccessToken)
	require.ErrorIs(t, err, authErrors.ErrInvalidToken)
}

func TestAuthService_MeAndDeleteAccount(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "alice")
	res := e.login(t, "alice")

	p, err := e.svc.Authenticate(ctx, res.AccessToken)
	require.NoError(t, err)

	me, err := e.svc.Me(ctx, p)
	require.NoError(t, err)
	require.Equal(t, "alice", me.Username)
	require.Len(t, me.Roles, 1)

	require.NoError(t, e.svc.DeleteAccount(ctx, p))

	_, err = e.svc.Authenticate(ctx, res.AccessToken)
	require.ErrorIs(t, err, authErrors.ErrInvalidToken, "access token of a deleted user is rejected")
	ok, err := e.svc.VerifyRefresh(ctx, res.RefreshToken)
	require.NoError(t, err)
	require.False(t, ok)

	require.True(t, authErrors.IsNotFound(e.svc.DeleteAccount(ctx, p)))
}
