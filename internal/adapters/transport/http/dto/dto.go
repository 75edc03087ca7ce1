package dto

import "time"

type RegisterDTO struct {
	Username string `json:"username" validate:"required,username"`
	Password string `json:"password" validate:"required,strongpwd"`
}

type LoginDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshDTO struct {
	RefreshToken string `json:"refreshToken"`
}

type LogoutDTO struct {
	Username string `json:"username"`
}

type VerifyAccessDTO struct {
	AccessToken string `json:"accessToken"`
}

type VerifyRefreshDTO struct {
	RefreshToken string `json:"refreshToken"`
}

type NoteDTO struct {
	Body string `json:"body" validate:"notblank,max=5000"`
}

type LoginResponse struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	Username     string   `json:"username"`
	UserID       uint64   `json:"userId"`
	Roles        []string `json:"roles"`
}

type RegisterResponse struct {
	Message  string `json:"message"`
	UserID   uint64 `json:"userId"`
	Username string `json:"username"`
}

type RefreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type LogoutResponse struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}

type NoteResponse struct {
	ID        uint64    `json:"id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type UserResponse struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"createdAt"`
}

// ErrorResponse is the envelope of every failed HTTP request.
type ErrorResponse struct {
	Status    int       `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Details   string    `json:"details"`
}
