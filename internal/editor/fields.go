package editor

import (
	"math"
	"strconv"
	"strings"

	"armybuilder/internal/dataset"
)

// coerceNumber parses raw the way a browser number input does: surrounding
// blanks are ignored and an empty value reads as zero. Anything that is not
// an integer yields ok=false; callers store zero and mark the field with the
// not-a-number sentinel.
func coerceNumber(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

func coerceBool(raw string) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, ErrNotBool
	}
	return b, nil
}

// SetField replaces one top-level field. Numeric fields are coerced; see
// coerceNumber for malformed input.
func (e *Editor) SetField(key, raw string) error {
	next := e.draft
	switch key {
	case "name_en":
		next.NameEn = raw
	case "name_de":
		next.NameDe = raw
	case "id":
		return ErrReadOnlyField
	case "points":
		n, ok := coerceNumber(raw)
		next.Points = n
		e.markInvalid(key, !ok)
	case "minimum", "maximum":
		if e.category.IsCharacter() {
			return ErrFieldUnavailable
		}
		n, ok := coerceNumber(raw)
		if key == "minimum" {
			next.Minimum = n
		} else {
			next.Maximum = n
		}
		e.markInvalid(key, !ok)
	default:
		// collections and magic have their own operations
		return ErrUnknownField
	}
	e.draft = next
	return nil
}

// BlurName runs when the English name loses focus. A new unit gets its id
// derived from the name; an existing unit keeps its id. An empty German name
// is filled with the English one. Applying it twice changes nothing more.
func (e *Editor) BlurName() {
	next := e.draft
	if e.IsNew() {
		next.ID = Slugify(next.NameEn)
	}
	if next.NameDe == "" {
		next.NameDe = next.NameEn
	}
	e.draft = next
}

func fieldAvailable(c dataset.Category, key string) bool {
	for _, f := range EditableFields(c) {
		if f == key {
			return true
		}
	}
	return false
}
