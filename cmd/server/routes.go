package main

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/swaggo/swag"

	"codeberg.org/algrv/codelab/api/rest/agent"
	"codeberg.org/algrv/codelab/api/rest/catalog"
	"codeberg.org/algrv/codelab/api/rest/health"
	"codeberg.org/algrv/codelab/api/rest/workspaces"
	"codeberg.org/algrv/codelab/api/websocket"
	"codeberg.org/algrv/codelab/docs"
	"codeberg.org/algrv/codelab/internal/web"
)

// sets up all API routes and middleware
func RegisterRoutes(router *gin.Engine, server *Server) error {
	router.Use(CORSMiddleware(server.config.AllowedOrigins))
	router.GET("/health", health.Handler(server.manager))
	router.GET("/swagger/doc.json", SwaggerHandler)

	web.RegisterRoutes(router)

	v1 := router.Group("/api/v1")

	{
		v1.GET("/ping", health.PingHandler)

		catalog.RegisterRoutes(v1)
		workspaces.RegisterRoutes(v1, server.manager, server.hub)
		websocket.RegisterRoutes(v1, server.hub, server.manager)

		if err := agent.RegisterRoutes(v1, server.manager, server.services.Agent, server.config.RunRateLimit); err != nil {
			return err
		}
	}

	return nil
}

// allows the configured origins, or any origin when none are configured
func CORSMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: len(origins) > 0,
		MaxAge:           12 * time.Hour,
	}

	if len(origins) > 0 {
		cfg.AllowOrigins = origins
	} else {
		cfg.AllowAllOrigins = true
	}

	return cors.New(cfg)
}

// serves the OpenAPI document
func SwaggerHandler(c *gin.Context) {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
}
