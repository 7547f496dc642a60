package routes

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/cinedesk/internal/api/handlers"
	"github.com/yoockh/cinedesk/internal/api/middleware"
)

type Deps struct {
	File    *handlers.FileHandler
	Share   *handlers.ShareHandler
	Project *handlers.ProjectHandler

	// Auth guards the console API; nil leaves it open.
	Auth gin.HandlerFunc
	// ShareLimit throttles share-link lookups; nil disables it.
	ShareLimit gin.HandlerFunc

	// TrustedProxies may set X-Forwarded-For. Empty trusts no one, so the
	// client IP seen by the limiter and the audit trail is the peer address.
	TrustedProxies []string
}

// NewRouter builds the engine with logging and panic recovery installed.
func NewRouter(log *logrus.Logger, d Deps) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(d.TrustedProxies); err != nil {
		return nil, fmt.Errorf("routes: trusted proxies: %w", err)
	}

	r.Use(middleware.RequestLogger(log), middleware.Recovery(log))
	RegisterRoutes(r, d)
	return r, nil
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.NoRoute(handlers.NotFound)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	api := r.Group("/api")

	// Public, token-scoped
	share := api.Group("/share")
	if d.ShareLimit != nil {
		share.Use(d.ShareLimit)
	}
	share.GET("/", d.Share.Get)
	share.GET("/:token", d.Share.Get)

	// Console
	console := api.Group("/")
	if d.Auth != nil {
		console.Use(d.Auth)
	}
	console.POST("/files/signed-url", d.File.SignedURL)

	project := console.Group("/projects/:project_id", middleware.ProjectScope())
	project.GET("/context", d.Project.Context)
	project.GET("/share-access", d.Project.ShareAccess)
}
