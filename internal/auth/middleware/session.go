package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/bugboard/bugboard/internal/auth"
	"github.com/bugboard/bugboard/internal/web"
)

// RequireSession validates the token cookie against the API and loads the
// user. Without a valid session the browser is sent to /login and the
// token cookie is cleared.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		r := web.From(c)
		u, err := r.Session.Init(c.Request.Context())
		if err != nil {
			r.ToLogin()
			return
		}
		auth.SetUser(c, u)
		c.Next()
	}
}

// GuestOnly keeps signed-in browsers off the login and register pages.
// The token is not validated here; an invalid one is cleared by the page
// it redirects to.
func GuestOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == "GET" && hasToken(c) {
			web.From(c).Redirect("/dashboard")
			return
		}
		c.Next()
	}
}

func hasToken(c *gin.Context) bool {
	return web.From(c).Session.HasToken()
}
