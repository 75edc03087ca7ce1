package http

import (
	"net/http"

	"github.com/Miraines/MoonyAndStarry/notes-service/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/adapters/transport/http/httperr"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/adapters/transport/http/middleware"
	authsvc "github.com/Miraines/MoonyAndStarry/notes-service/internal/app/auth/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UsersHandler struct {
	svc authsvc.Service
	log *zap.Logger
}

func NewUsersHandler(svc authsvc.Service, log *zap.Logger) *UsersHandler {
	return &UsersHandler{svc: svc, log: log}
}

func (h *UsersHandler) Me(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c.Request.Context())

	user, err := h.svc.Me(c.Request.Context(), p)
	if err != nil {
		httperr.Handle(c, err, h.log)
		return
	}

	roles := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		roles = append(roles, r.Name)
	}
	c.JSON(http.StatusOK, dto.UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Roles:     roles,
		CreatedAt: user.CreatedAt,
	})
}

func (h *UsersHandler) DeleteMe(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c.Request.Context())

	if err := h.svc.DeleteAccount(c.Request.Context(), p); err != nil {
		httperr.Handle(c, err, h.log)
		return
	}
	c.Status(http.StatusNoContent)
}
