package http

import (
	"net/http"

	"github.com/Miraines/MoonyAndStarry/notes-service/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/adapters/transport/http/httperr"
	authsvc "github.com/Miraines/MoonyAndStarry/notes-service/internal/app/auth/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	svc authsvc.Service
	log *zap.Logger
}

func NewAuthHandler(svc authsvc.Service, log *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, log: log}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var body dto.LoginDTO
	if !bindJSON(c, &body) {
		return
	}
	h.log.Info("/auth/login", zap.String("user", userTag(body.Username)))

	res, err := h.svc.Login(c.Request.Context(), body)
	if err != nil {
		httperr.Handle(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, dto.LoginResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		Username:     res.Username,
		UserID:       res.UserID,
		Roles:        res.Roles,
	})
}

func (h *AuthHandler) Register(c *gin.Context) {
	var body dto.RegisterDTO
	if !bindJSON(c, &body) {
		return
	}
	h.log.Info("/auth/register", zap.String("user", userTag(body.Username)))

	user, err := h.svc.Register(c.Request.Context(), body)
	if err != nil {
		httperr.Handle(c, err, h.log)
		return
	}
	c.JSON(http.StatusCreated, dto.RegisterResponse{
		Message:  "User registered successfully",
		UserID:   user.ID,
		Username: user.Username,
	})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var body dto.RefreshDTO
	if !bindJSON(c, &body) {
		return
	}

	pair, err := h.svc.Refresh(c.Request.Context(), body)
	if err != nil {
		httperr.Handle(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, dto.RefreshResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var body dto.LogoutDTO
	if !bindJSON(c, &body) {
		return
	}
	h.log.Info("/auth/logout", zap.String("user", userTag(body.Username)))

	if err := h.svc.Logout(c.Request.Context(), body); err != nil {
		httperr.Handle(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, dto.LogoutResponse{Message: "Logged out successfully", Username: body.Username})
}

func (h *AuthHandler) VerifyAccess(c *gin.Context) {
	var body dto.VerifyAccessDTO
	if !bindJSON(c, &body) {
		return
	}

	ok, err := h.svc.VerifyAccess(c.Request.Context(), body.AccessToken)
	switch {
	case err != nil:
		httperr.Handle(c, err, h.log)
	case !ok:
		httperr.Abort(c, http.StatusUnauthorized, "Invalid access token")
	default:
		c.String(http.StatusOK, "Access token is valid")
	}
}

func (h *AuthHandler) VerifyRefresh(c *gin.Context) {
	var body dto.VerifyRefreshDTO
	if !bindJSON(c, &body) {
		return
	}

	ok, err := h.svc.VerifyRefresh(c.Request.Context(), body.RefreshToken)
	switch {
	case err != nil:
		httperr.Handle(c, err, h.log)
	case !ok:
		httperr.Abort(c, http.StatusUnauthorized, "Invalid refresh token")
	default:
		c.String(http.StatusOK, "Refresh token is valid")
	}
}
