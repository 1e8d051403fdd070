package api

import (
	"fmt"
	"net/http"
	"time"

	"armybuilder/internal/armylist"
	"armybuilder/internal/dataset"

	"github.com/gin-gonic/gin"
)

type listPayload struct {
	Name    string              `json:"name"`
	Army    string              `json:"army" binding:"required"`
	Points  int                 `json:"points"`
	Units   []armylist.ListUnit `json:"units"`
	Version *int64              `json:"version"`
}

type listView struct {
	armylist.List
	Version   int64  `json:"version"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func listOut(rec ListRecord) listView {
	return listView{
		List:      rec.List,
		Version:   rec.Version,
		CreatedAt: rec.CreatedAt.Format(time.RFC3339),
		UpdatedAt: rec.UpdatedAt.Format(time.RFC3339),
	}
}

// validate checks the list header; unit selections are checked when the
// list is priced.
func (p *listPayload) validate(storage *Storage) (armylist.List, []FieldError) {
	var errs []FieldError
	army, ok := storage.NormalizeArmy(p.Army)
	if !ok {
		errs = append(errs, ferr(ErrNotFound, "army", fmt.Sprintf("Army %q not found", p.Army)))
	}
	if p.Points < 0 {
		errs = append(errs, ferr(ErrOutOfRange, "points", "Points must not be negative"))
	}
	for i, u := range p.Units {
		if _, ok := dataset.ParseCategory(string(u.Category)); !ok {
			errs = append(errs, ferr(ErrEnumInvalid, fmt.Sprintf("units[%d].category", i), fmt.Sprintf("Unknown category %q", u.Category)))
		}
		if u.UnitID == "" {
			errs = append(errs, ferr(ErrRequired, fmt.Sprintf("units[%d].unit_id", i), "Unit id is required"))
		}
	}
	units := p.Units
	if units == nil {
		units = []armylist.ListUnit{}
	}
	return armylist.List{Name: p.Name, Army: army, Points: p.Points, Units: units}, errs
}

// POST /api/lists
func CreateListHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var p listPayload
		if !bindJSON(c, &p) {
			return
		}
		l, errs := p.validate(srv.Storage)
		if len(errs) > 0 {
			c.JSON(statusForErrors(errs), gin.H{"errors": errs})
			return
		}
		rec, err := srv.Storage.CreateList(c.Request.Context(), l)
		if err != nil {
			writeStoreError(c, err)
			return
		}
		srv.Metrics.write("list_create", l.Army)
		c.JSON(http.StatusCreated, listOut(rec))
	}
}

// GET /api/lists/:id
func GetListHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, ok := srv.Storage.GetList(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "List not found"})
			return
		}
		c.Header("ETag", fmt.Sprintf(`"%d"`, rec.Version))
		c.JSON(http.StatusOK, listOut(rec))
	}
}

// PUT /api/lists/:id
func UpdateListHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var p listPayload
		if !bindJSON(c, &p) {
			return
		}
		expVer, okExp := readExpectedVersion(c, p.Version)
		if !okExp {
			c.JSON(http.StatusConflict, gin.H{"errors": []FieldError{ferr(ErrVersionConflict, "version", "expected version required")}})
			return
		}
		l, errs := p.validate(srv.Storage)
		if len(errs) > 0 {
			c.JSON(statusForErrors(errs), gin.H{"errors": errs})
			return
		}
		rec, err := srv.Storage.UpdateList(c.Request.Context(), c.Param("id"), l, expVer, true)
		if err != nil {
			writeStoreError(c, err)
			return
		}
		srv.Metrics.write("list_update", l.Army)
		c.Header("ETag", fmt.Sprintf(`"%d"`, rec.Version))
		c.JSON(http.StatusOK, listOut(rec))
	}
}

// DELETE /api/lists/:id
func DeleteListHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := srv.Storage.DeleteList(c.Request.Context(), c.Param("id")); err != nil {
			writeStoreError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// GET /api/lists/:id/points
func ListPointsHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, ok := srv.Storage.GetList(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "List not found"})
			return
		}
		res := armylist.Price(rec.List, srv.Storage)
		lang := Lang(c)
		for i, lu := range rec.List.Units {
			if u, ok := srv.Storage.Unit(rec.List.Army, lu.Category, lu.UnitID); ok {
				res.Units[i].Name = u.LocalizedName(lang)
			}
		}
		for i, is := range res.Issues {
			if is.Code == armylist.IssueOverBudget {
				res.Issues[i].Message = fmt.Sprintf("%s (%d/%d)", srv.Bundle.Message(lang, "list.over_budget"), res.Total, res.Budget)
			}
		}
		c.JSON(http.StatusOK, res)
	}
}
