package jwt

import (
	"errors"
	"fmt"
	customErrors "github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/auth/errors"
	jwt2 "github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/auth/jwt"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/infra/clock"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/infra/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"time"

	"go.uber.org/zap"
)

const minSecretLength = 32

// JwtUtilImpl signs and validates HS256 access tokens.
type JwtUtilImpl struct {
	secret    []byte
	accessTTL time.Duration
	issuer    string
	clock     clock.Clock
	log       *zap.Logger
	parser    *jwt.Parser
}

var _ jwt2.Codec = (*JwtUtilImpl)(nil)

func NewJWTUtil(cfg *config.Config, clk clock.Clock, log *zap.Logger) (*JwtUtilImpl, error) {
	if len(cfg.JWTSecret) < minSecretLength {
		return nil, customErrors.WrapInternal(
			fmt.Errorf("secret is %d bytes, need at least %d", len(cfg.JWTSecret), minSecretLength),
			"NewJWTUtil",
		)
	}
	if cfg.AccessTokenTTL <= 0 {
		return nil, customErrors.WrapInternal(errors.New("access token ttl must be positive"), "NewJWTUtil")
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &JwtUtilImpl{
		secret:    []byte(cfg.JWTSecret),
		accessTTL: cfg.AccessTokenTTL,
		issuer:    cfg.Issuer,
		clock:     clk,
		log:       log,
		// время проверяем сами, по инжектированным часам
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

func (j *JwtUtilImpl) Mint(subject string, issuedAt time.Time) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, customErrors.WrapInternal(errors.New("empty subject"), "Mint")
	}
	exp := ceilToPrecision(issuedAt.Add(j.accessTTL))

	claims := jwt2.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, customErrors.WrapInternal(err, "sign access token")
	}
	return signed, exp, nil
}

// Validate returns ErrInvalidToken for every rejection; the reason only goes to the log.
func (j *JwtUtilImpl) Validate(raw string) (jwt2.Claims, error) {
	token, err := j.parser.ParseWithClaims(raw, &jwt2.AccessClaims{}, func(*jwt.Token) (interface{}, error) {
		return j.secret, nil
	})
	if err != nil || !token.Valid {
		j.logParseError(err)
		return jwt2.Claims{}, customErrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt2.AccessClaims)
	if !ok {
		j.log.Error("access token claims have unexpected type")
		return jwt2.Claims{}, customErrors.ErrInvalidToken
	}

	switch {
	case claims.Subject == "":
		j.log.Warn("access token without subject")
		return jwt2.Claims{}, customErrors.ErrInvalidToken
	case claims.ExpiresAt == nil:
		j.log.Warn("access token without expiry", zap.String("sub", claims.Subject))
		return jwt2.Claims{}, customErrors.ErrInvalidToken
	case claims.Issuer != j.issuer:
		j.log.Warn("access token from foreign issuer", zap.String("iss", claims.Issuer))
		return jwt2.Claims{}, customErrors.ErrInvalidToken
	}

	exp := claims.ExpiresAt.Time
	if now := j.clock.Now(); !now.Before(exp) {
		j.log.Info("access token expired",
			zap.String("sub", claims.Subject),
			zap.Time("exp", exp),
		)
		return jwt2.Claims{}, customErrors.ErrInvalidToken
	}

	return jwt2.Claims{Subject: claims.Subject, ExpiresAt: exp}, nil
}

func (j *JwtUtilImpl) logParseError(err error) {
	switch {
	case err == nil:
		j.log.Warn("access token rejected")
	case errors.Is(err, jwt.ErrTokenMalformed):
		j.log.Warn("malformed access token", zap.Error(err))
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		j.log.Warn("invalid access token signature", zap.Error(err))
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		j.log.Warn("unsupported access token algorithm", zap.Error(err))
	default:
		j.log.Error("access token validation error", zap.Error(err))
	}
}

// ceilToPrecision rounds t up to what a NumericDate can hold, so a token never expires before issuedAt+ttl.
func ceilToPrecision(t time.Time) time.Time {
	if r := t.Truncate(jwt.TimePrecision); !r.Equal(t) {
		return r.Add(jwt.TimePrecision)
	}
	return t
}
