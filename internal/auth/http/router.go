package http

import (
	"github.com/gin-gonic/gin"

	"github.com/bugboard/bugboard/internal/auth/middleware"
)

// Register attaches the public auth pages to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	guest := rg.Group("")
	guest.Use(middleware.GuestOnly())
	guest.GET("/login", h.loginPage)
	guest.POST("/login", h.login)
	guest.GET("/register", h.registerPage)
	guest.POST("/register", h.register)

	rg.GET("/forgot-password", h.forgotPage)
	rg.POST("/forgot-password", h.forgotPassword)
	rg.GET("/reset-password", h.resetPage)
	rg.POST("/reset-password", h.resetPassword)
	rg.GET("/oauth/callback", h.oauthCallback)
	rg.GET("/logout", h.logout)
	rg.POST("/logout", h.logout)
}
