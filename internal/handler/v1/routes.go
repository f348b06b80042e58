package v1

import (
	"github.com/gin-gonic/gin"
)

const chartsPath = "/forecasts/charts/"

type Handlers struct {
	Auth     *AuthHandler
	Records  *RecordHandler
	Forecast *ForecastHandler
}

// ChartBase returns the URL prefix charts are served from when the API is mounted at prefix.
func ChartBase(prefix string) string {
	return prefix + chartsPath
}

// RegisterRoutes mounts the v1 API on rg. loginLimit guards the unauthenticated
// auth endpoints; requireSession guards everything else.
func RegisterRoutes(rg *gin.RouterGroup, h Handlers, requireSession, loginLimit gin.HandlerFunc) {
	authGroup := rg.Group("/auth")
	authGroup.POST("/login", loginLimit, h.Auth.Login)
	authGroup.POST("/refresh", loginLimit, h.Auth.Refresh)
	authGroup.POST("/logout", requireSession, h.Auth.Logout)

	protected := rg.Group("", requireSession)
	protected.GET("/records", h.Records.List)
	protected.POST("/records", h.Records.Create)
	protected.GET("/forecasts", h.Forecast.Get)
	protected.GET(chartsPath+":file", h.Forecast.Chart)
}
