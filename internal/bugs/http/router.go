package http

import "github.com/gin-gonic/gin"

// Register attaches the bug routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/my-bugs", h.myBugs)
	rg.GET("/projects/:id/bugs/:bugId", h.show)
	rg.POST("/projects/:id/bugs/:bugId/edit", h.edit)
	rg.POST("/projects/:id/bugs/:bugId/assign", h.assign)
	rg.POST("/projects/:id/bugs/:bugId/comments", h.comment)
	rg.POST("/projects/:id/bugs/:bugId/delete", h.delete)
}
