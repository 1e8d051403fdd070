package api

import (
	"net/http"
	"strings"

	"armybuilder/internal/dataset"
	"armybuilder/internal/reference"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type reloadReq struct {
	DatasetsRoot string `json:"datasets_root"`
	EnumsRoot    string `json:"enums_root"`
}

// POST /api/admin/reload
func AdminReloadHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reloadReq
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
				return
			}
		}

		datasetsRoot := strings.TrimSpace(req.DatasetsRoot)
		if datasetsRoot == "" {
			datasetsRoot = srv.DatasetsDir
		}
		enumsRoot := strings.TrimSpace(req.EnumsRoot)
		if enumsRoot == "" {
			enumsRoot = srv.EnumsDir
		}

		datasets, err := dataset.LoadAll(datasetsRoot)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Dataset load error", "details": err.Error()})
			return
		}
		enums, err := reference.LoadEnumCatalog(enumsRoot)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Enum load error", "details": err.Error()})
			return
		}

		if issues := LintDatasets(datasets); len(issues) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":        "datasets have blocking issues",
				"issues":       issues,
				"hint":         "fix the dataset files and retry",
				"datasetsRoot": datasetsRoot, "enumsRoot": enumsRoot,
			})
			return
		}

		if err := srv.Storage.Reload(c.Request.Context(), datasets, enums); err != nil {
			writeStoreError(c, err)
			return
		}
		srv.Log.Info("datasets reloaded", zap.String("root", datasetsRoot), zap.Int("armies", len(datasets)))

		units := 0
		for _, ds := range datasets {
			units += ds.Count()
		}
		c.JSON(http.StatusOK, gin.H{
			"ok":           true,
			"datasetsRoot": datasetsRoot,
			"enumsRoot":    enumsRoot,
			"armies":       len(datasets),
			"units":        units,
			"enumGroups":   len(enums),
		})
	}
}
