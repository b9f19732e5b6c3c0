package bootstrap

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/bugboard/bugboard/internal/api/http"
	"github.com/bugboard/bugboard/internal/api/http/middleware"
	"github.com/bugboard/bugboard/internal/api/http/routes"
	"github.com/bugboard/bugboard/internal/web"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	CORSOrigins []string
	App         *web.App
	Upstream    httpapi.Pinger
	Redis       *redis.Client
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	if len(dep.CORSOrigins) > 0 {
		cfg := cors.DefaultConfig()
		cfg.AllowOrigins = dep.CORSOrigins
		cfg.AllowCredentials = true
		cfg.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
		cfg.AddAllowHeaders(middleware.RequestIDHeader)
		r.Use(cors.New(cfg))
	}

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Upstream, dep.Redis)
	healthHandler.RegisterRoutes(r)
	web.RegisterStatic(r)

	r.SetHTMLTemplate(dep.App.Templates())

	pages := r.Group("")
	pages.Use(dep.App.Attach())
	routes.RegisterPages(r, pages, dep.App)

	return r
}
