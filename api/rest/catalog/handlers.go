package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"codeberg.org/algrv/codelab/internal/catalog"
	"codeberg.org/algrv/codelab/internal/errors"
)

// ListLanguagesHandler godoc
// @Summary List languages
// @Description Supported languages in display order
// @Tags catalog
// @Produce json
// @Success 200 {object} LanguagesResponse
// @Router /api/v1/languages [get]
func ListLanguagesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, LanguagesResponse{
		Languages: catalog.Languages(),
		Default:   catalog.DefaultLanguage,
	})
}

// ListFrameworksHandler godoc
// @Summary List frameworks
// @Description Framework options for a language; empty when it has none
// @Tags catalog
// @Produce json
// @Param language path string true "Language"
// @Success 200 {object} FrameworksResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/languages/{language}/frameworks [get]
func ListFrameworksHandler(c *gin.Context) {
	language := c.Param("language")

	frameworks, err := catalog.Frameworks(language)
	if err != nil {
		errors.NotFound(c, "language")
		return
	}

	c.JSON(http.StatusOK, FrameworksResponse{
		Language:   language,
		Frameworks: frameworks,
	})
}
