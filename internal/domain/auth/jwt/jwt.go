package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type AccessClaims struct {
	jwt.RegisteredClaims
}

// Claims is the validated content of an access token.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

type Codec interface {
	Mint(subject string, issuedAt time.Time) (token string, expiresAt time.Time, err error)
	Validate(token string) (Claims, error)
}
