package api

import (
	"net/http"

	"armybuilder/internal/dataset"
	"armybuilder/internal/editor"
	"armybuilder/internal/i18n"
	"armybuilder/internal/reference"

	"github.com/gin-gonic/gin"
)

// GET /api/meta/locale
func MetaLocaleHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := Lang(c)
		c.JSON(http.StatusOK, gin.H{
			"lang":        lang,
			"supported":   i18n.Supported(),
			"description": i18n.MetaDescription(lang),
			"messages":    srv.Bundle.Messages(lang),
		})
	}
}

type metaCategory struct {
	Category  dataset.Category `json:"category"`
	Label     string           `json:"label"`
	Character bool             `json:"character"`
	Editable  []string         `json:"editable"`
}

// GET /api/meta/categories
func MetaCategoriesHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := Lang(c)
		out := make([]metaCategory, 0, len(dataset.Categories))
		for _, cat := range dataset.Categories {
			out = append(out, metaCategory{
				Category:  cat,
				Label:     srv.Bundle.Message(lang, "category."+string(cat)),
				Character: cat.IsCharacter(),
				Editable:  editor.EditableFields(cat),
			})
		}
		c.JSON(http.StatusOK, out)
	}
}

type metaMagicItem struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// GET /api/meta/magic-items
func MetaMagicItemsHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := Lang(c)
		srv.Storage.mu.RLock()
		items := reference.MagicItems(srv.Storage.Enums)
		srv.Storage.mu.RUnlock()

		out := make([]metaMagicItem, 0, len(items))
		for _, it := range items {
			out = append(out, metaMagicItem{Code: it.Code, Label: it.Label(lang)})
		}
		c.JSON(http.StatusOK, out)
	}
}

// GET /api/meta/catalogs/:name
func MetaCatalogHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		srv.Storage.mu.RLock()
		dir, ok := srv.Storage.Enums[name]
		srv.Storage.mu.RUnlock()
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Catalog not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"name":  name,
			"items": dir.Items,
		})
	}
}
