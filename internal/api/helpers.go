package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"

	"armybuilder/internal/dataset"

	"github.com/gin-gonic/gin"
)

type unitView struct {
	dataset.Unit
	Army      string           `json:"army"`
	Category  dataset.Category `json:"category"`
	Name      string           `json:"name"`
	Version   int64            `json:"version"`
	CreatedAt string           `json:"created_at"`
	UpdatedAt string           `json:"updated_at"`
}

// flatten renders a record with its localized display name.
func flatten(army string, c dataset.Category, rec Record, lang string) unitView {
	return unitView{
		Unit:      rec.Unit,
		Army:      army,
		Category:  c,
		Name:      rec.Unit.LocalizedName(lang),
		Version:   rec.Version,
		CreatedAt: rec.CreatedAt.Format(time.RFC3339),
		UpdatedAt: rec.UpdatedAt.Format(time.RFC3339),
	}
}

// readExpectedVersion reads the expected version from If-Match (plain, quoted
// or weak) or from the body's "version".
func readExpectedVersion(c *gin.Context, version *int64) (int64, bool) {
	ifMatch := strings.TrimSpace(c.GetHeader("If-Match"))
	if ifMatch != "" {
		ifMatch = strings.TrimPrefix(ifMatch, "W/")
		ifMatch = strings.Trim(ifMatch, `"'`)
		if v, err := strconv.ParseInt(ifMatch, 10, 64); err == nil {
			return v, true
		}
	}
	if version != nil {
		return *version, true
	}
	return 0, false
}

// unitPayload is the body of create and replace requests. Absent fields keep
// the unit defaults.
type unitPayload struct {
	dataset.Overrides
	Version *int64 `json:"version"`
}

func (p unitPayload) unit() dataset.Unit {
	return dataset.Merge(dataset.DefaultUnit(), &p.Overrides)
}

// bindJSON decodes the body into dst and reports decode problems as field
// errors.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			c.JSON(http.StatusBadRequest, gin.H{"errors": []FieldError{
				ferr(ErrTypeMismatch, jsonPath(typeErr.Field), fmt.Sprintf("expected %s", typeErr.Type)),
			}})
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return false
	}
	return true
}

// jsonPath drops the Go names of embedded structs that encoding/json puts in
// front of the JSON field names, e.g. "Overrides.points" -> "points".
func jsonPath(field string) string {
	parts := strings.Split(field, ".")
	out := parts[:0]
	for _, p := range parts {
		if p != "" && unicode.IsUpper(rune(p[0])) {
			continue
		}
		out = append(out, p)
	}
	return strings.Join(out, ".")
}

// rawValue turns a JSON value into the text an input field would hold.
func rawValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// writeStoreError maps storage errors to responses.
func writeStoreError(c *gin.Context, err error) {
	var vc *VersionConflictError
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(statusForErrors(ve.Errors), gin.H{"errors": ve.Errors})
	case errors.As(err, &vc):
		c.JSON(http.StatusConflict, gin.H{"errors": []FieldError{
			ferr(ErrVersionConflict, "version", fmt.Sprintf("expected version %d", vc.Current)),
		}})
	case errors.Is(err, ErrDuplicateID):
		c.JSON(http.StatusConflict, gin.H{"errors": []FieldError{ferr(ErrUniqueViolation, "id", err.Error())}})
	case errors.Is(err, ErrArmyNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Army not found"})
	case errors.Is(err, ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store error", "details": err.Error()})
	}
}
