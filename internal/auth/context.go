package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bugboard/bugboard/internal/auth/domain"
)

const (
	CtxUserID = "user_id"
	CtxUser   = "user"
)

// UserID extracts the signed-in user's id from the Gin context.
// It is set by middleware.RequireSession and empty on public routes.
func UserID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxUserID))
}

// SetUser stores u on the Gin context.
func SetUser(c *gin.Context, u *domain.User) {
	c.Set(CtxUser, u)
	c.Set(CtxUserID, u.ID)
}
