package bootstrap

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// SetGinMode maps APP_ENV onto gin's modes. Anything unrecognised stays in
// debug mode.
func SetGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
	return gin.Mode()
}
