// Package web serves the browser UI and renders model-written markdown.
package web

import (
	"embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed static
var static embed.FS

// IndexHandler serves the single-page workspace UI.
func IndexHandler(c *gin.Context) {
	page, err := static.ReadFile("static/index.html")
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

// serves the placeholder the preview shows until a dev server is ready
func LoadingHandler(c *gin.Context) {
	page, err := static.ReadFile("static/loading.html")
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

func RegisterRoutes(router *gin.Engine) {
	router.GET("/", IndexHandler)
	router.GET("/loading.html", LoadingHandler)
}
