package api

import (
	"bytes"
	"net/http"

	"armybuilder/internal/blob"
	"armybuilder/internal/dataset"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// POST /api/datasets/:army/_export
func ExportHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		if srv.Blob == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "blob store not configured"})
			return
		}
		ds, ok := srv.Storage.Snapshot(c.Param("army"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Army not found"})
			return
		}
		data, err := dataset.Marshal(ds)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "encode error", "details": err.Error()})
			return
		}

		info, err := srv.Blob.Put(c.Request.Context(), blob.DatedKey("exports/"+ds.Army, ".yaml"), bytes.NewReader(data))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "store error", "details": err.Error()})
			return
		}
		srv.Log.Info("dataset exported", zap.String("army", ds.Army), zap.String("key", info.Key), zap.Int64("size", info.Size))
		c.JSON(http.StatusCreated, gin.H{"army": ds.Army, "units": ds.Count(), "blob": info})
	}
}
