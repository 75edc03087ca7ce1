package http

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/Miraines/MoonyAndStarry/notes-service/internal/adapters/transport/http/httperr"
	"github.com/gin-gonic/gin"
)

// bindJSON treats an empty body as an empty DTO so the service reports which field is missing.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		httperr.Abort(c, http.StatusBadRequest, httperr.MsgMalformedRequest)
		return false
	}
	return true
}

func idParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		httperr.Abort(c, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// userTag hides usernames in logs.
func userTag(username string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(username)))[:16]
}
