package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	authhttp "github.com/bugboard/bugboard/internal/auth/http"
	"github.com/bugboard/bugboard/internal/auth/middleware"
	bugshttp "github.com/bugboard/bugboard/internal/bugs/http"
	projectshttp "github.com/bugboard/bugboard/internal/projects/http"
	usershttp "github.com/bugboard/bugboard/internal/users/http"
	"github.com/bugboard/bugboard/internal/web"
)

// RegisterPages mounts every browser page on pages, which must already run
// the app's Attach middleware. Unknown paths get the not-found page.
func RegisterPages(r *gin.Engine, pages *gin.RouterGroup, app *web.App) {
	authhttp.New().Register(pages)
	app.RegisterRoutes(pages)

	authed := pages.Group("")
	authed.Use(middleware.RequireSession())
	projectshttp.New().Register(authed)
	bugshttp.New().Register(authed)
	usershttp.New().Register(authed)

	pages.GET("/", func(c *gin.Context) {
		web.From(c).Redirect("/dashboard")
	})
	r.NoRoute(app.Attach(), func(c *gin.Context) {
		web.From(c).Render(http.StatusNotFound, "not_found.html", web.Page{Title: "Page not found"})
	})
}
