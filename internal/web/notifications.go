package web

import (
	"embed"
	"io/fs"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bugboard/bugboard/internal/logging"
)

//go:embed static
var staticFS embed.FS

// RegisterStatic serves the stylesheet. It needs no session.
func RegisterStatic(rg gin.IRouter) {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	rg.StaticFS("/static", http.FS(sub))
}

// RegisterRoutes attaches the session endpoints shared by all pages.
func (a *App) RegisterRoutes(rg gin.IRouter) {
	rg.GET("/notifications", listNotifications)
	rg.DELETE("/notifications/:id", dismissNotification)
	rg.POST("/breadcrumbs/:index", clickBreadcrumb)
}

func listNotifications(c *gin.Context) {
	r := From(c)
	list, err := r.Notes.Active(c.Request.Context())
	if err != nil {
		logging.FromContext(c.Request.Context()).LogError("list_notifications", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "notifications unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

func dismissNotification(c *gin.Context) {
	r := From(c)
	if err := r.Notes.Dismiss(c.Request.Context(), c.Param("id")); err != nil {
		logging.FromContext(c.Request.Context()).LogError("dismiss_notification", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "notifications unavailable"})
		return
	}
	c.Status(http.StatusNoContent)
}

// clickBreadcrumb truncates the trail to the clicked item and follows it.
// The current page is not a link, so clicking it just reloads.
func clickBreadcrumb(c *gin.Context) {
	r := From(c)
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid breadcrumb index"})
		return
	}
	href := r.Trail.Click(index)
	if href == "" {
		href = localReferer(c.Request)
	}
	if href == "" {
		href = "/dashboard"
	}
	r.Redirect(href)
}

// localReferer is the path of the referring page when it is on this host,
// else "".
func localReferer(req *http.Request) string {
	ref, err := url.Parse(req.Referer())
	if err != nil || ref.Host != req.Host || !strings.HasPrefix(ref.Path, "/") {
		return ""
	}
	if ref.Scheme != "" && ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	return ref.RequestURI()
}
