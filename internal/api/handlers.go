package api

import (
	"fmt"
	"net/http"
	"strconv"

	"armybuilder/internal/editor"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GET /api/datasets
func DatasetsHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, srv.Storage.Summaries())
	}
}

// GET /api/datasets/:army/:category
func ListHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		army, cat, ok := srv.Storage.normalizeTarget(c.Param("army"), c.Param("category"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Army or category not found"})
			return
		}
		recs, _ := srv.Storage.Units(army, cat)
		all := make([]*Record, 0, len(recs))
		for i := range recs {
			all = append(all, &recs[i])
		}

		lp := parseListParams(c.Request.URL.Query())
		filtered := filterRecords(all, lp)
		sortRecordsMulti(filtered, lp.Sort)

		lang := Lang(c)
		out := make([]unitView, 0, len(filtered))
		for _, rec := range page(filtered, lp) {
			out = append(out, flatten(army, cat, *rec, lang))
		}
		c.Header("X-Total-Count", strconv.Itoa(len(filtered)))
		c.JSON(http.StatusOK, out)
	}
}

// GET /api/datasets/:army/:category/:id
func GetOneHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		army, cat, ok := srv.Storage.normalizeTarget(c.Param("army"), c.Param("category"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Army or category not found"})
			return
		}
		rec, ok := srv.Storage.Get(army, cat, c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
			return
		}
		c.Header("ETag", fmt.Sprintf(`"%d"`, rec.Version))
		c.JSON(http.StatusOK, flatten(army, cat, rec, Lang(c)))
	}
}

// POST /api/datasets/:army/:category
func CreateHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		army, cat, ok := srv.Storage.normalizeTarget(c.Param("army"), c.Param("category"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Army or category not found"})
			return
		}
		var p unitPayload
		if !bindJSON(c, &p) {
			return
		}
		u := p.unit()
		slug := editor.Slugify(u.NameEn)
		if p.ID != nil && *p.ID != slug {
			c.JSON(http.StatusBadRequest, gin.H{"errors": []FieldError{
				ferr(ErrReadOnly, "id", fmt.Sprintf("Id is derived from name_en (%q)", slug)),
			}})
			return
		}
		u.ID = slug

		// validation runs without the write lock; Create re-checks the id
		if errs := ValidateUnit(srv.Storage, army, cat, u, nil, ""); len(errs) > 0 {
			c.JSON(statusForErrors(errs), gin.H{"errors": errs})
			return
		}
		rec, err := srv.Storage.Create(c.Request.Context(), army, cat, u)
		if err != nil {
			writeStoreError(c, err)
			return
		}
		srv.Metrics.write("create", army)
		srv.Log.Info("unit created", zap.String("army", army), zap.String("category", string(cat)), zap.String("id", rec.Unit.ID))
		c.JSON(http.StatusCreated, flatten(army, cat, rec, Lang(c)))
	}
}

// PUT /api/datasets/:army/:category/:id
func UpdateHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		army, cat, ok := srv.Storage.normalizeTarget(c.Param("army"), c.Param("category"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Army or category not found"})
			return
		}
		id := c.Param("id")

		var p unitPayload
		if !bindJSON(c, &p) {
			return
		}
		expVer, okExp := readExpectedVersion(c, p.Version)
		if p.ID != nil && *p.ID != id {
			c.JSON(http.StatusBadRequest, gin.H{"errors": []FieldError{ferr(ErrReadOnly, "id", "Id cannot be changed")}})
			return
		}

		cur, ok := srv.Storage.Get(army, cat, id)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
			return
		}
		if !okExp || expVer != cur.Version {
			c.JSON(http.StatusConflict, gin.H{
				"errors": []FieldError{ferr(ErrVersionConflict, "version", fmt.Sprintf("expected version %d", cur.Version))},
			})
			return
		}

		u := p.unit()
		u.ID = id
		if errs := ValidateUnit(srv.Storage, army, cat, u, nil, id); len(errs) > 0 {
			c.JSON(statusForErrors(errs), gin.H{"errors": errs})
			return
		}
		rec, err := srv.Storage.Update(c.Request.Context(), army, cat, id, u, expVer, true)
		if err != nil {
			writeStoreError(c, err)
			return
		}
		srv.Metrics.write("update", army)
		c.Header("ETag", fmt.Sprintf(`"%d"`, rec.Version))
		c.JSON(http.StatusOK, flatten(army, cat, rec, Lang(c)))
	}
}

// DELETE /api/datasets/:army/:category/:id (soft delete)
func DeleteHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		army, cat, ok := srv.Storage.normalizeTarget(c.Param("army"), c.Param("category"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Army or category not found"})
			return
		}
		if _, err := srv.Storage.Delete(c.Request.Context(), army, cat, c.Param("id")); err != nil {
			writeStoreError(c, err)
			return
		}
		srv.Metrics.write("delete", army)
		c.Status(http.StatusNoContent)
	}
}

// POST /api/datasets/:army/:category/:id/restore
func RestoreHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		army, cat, ok := srv.Storage.normalizeTarget(c.Param("army"), c.Param("category"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Army or category not found"})
			return
		}
		rec, err := srv.Storage.Restore(c.Request.Context(), army, cat, c.Param("id"))
		if err != nil {
			writeStoreError(c, err)
			return
		}
		srv.Metrics.write("restore", army)
		c.JSON(http.StatusOK, flatten(army, cat, rec, Lang(c)))
	}
}
