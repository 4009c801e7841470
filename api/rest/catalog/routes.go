package catalog

import "github.com/gin-gonic/gin"

func RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/languages", ListLanguagesHandler)
	router.GET("/languages/:language/frameworks", ListFrameworksHandler)
}
