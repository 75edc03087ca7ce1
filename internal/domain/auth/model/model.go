package model

import (
	"slices"
	"time"
)

type User struct {
	ID           uint64 `gorm:"primaryKey"`
	Username     string `gorm:"size:50;uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Roles        []Role `gorm:"many2many:user_roles"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Role struct {
	ID   uint64 `gorm:"primaryKey"`
	Name string `gorm:"size:50;uniqueIndex;not null"`
}

// RefreshToken is an opaque server-side record; its value is never a JWT.
type RefreshToken struct {
	ID        uint64    `gorm:"primaryKey"`
	Token     string    `gorm:"size:64;uniqueIndex;not null"`
	UserID    uint64    `gorm:"index;not null"`
	CreatedAt time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
}

// Principal is the authenticated caller of a single request.
type Principal struct {
	UserID   uint64
	Username string
	Roles    []string
}

func (p Principal) HasRole(name string) bool {
	return slices.Contains(p.Roles, name)
}

type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

type LoginResult struct {
	TokenPair
	UserID   uint64
	Username string
	Roles    []string
}
