package http

import "github.com/gin-gonic/gin"

// Register attaches dashboard and project routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/dashboard", h.dashboard)
	rg.POST("/projects", h.create)
	rg.GET("/projects/:id", h.show)
	rg.POST("/projects/:id", h.update)
	rg.POST("/projects/:id/delete", h.delete)
	rg.POST("/projects/:id/members", h.addMember)
	rg.POST("/projects/:id/members/:memberId/delete", h.removeMember)
	rg.POST("/projects/:id/bugs", h.createBug)
}
