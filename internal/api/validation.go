package api

import (
	"fmt"
	"net/http"
	"strings"

	"armybuilder/internal/dataset"
	"armybuilder/internal/reference"
)

type FieldError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

const (
	ErrRequired         = "required"
	ErrTypeMismatch     = "type_mismatch"
	ErrEnumInvalid      = "enum_invalid"
	ErrUniqueViolation  = "unique_violation"
	ErrNotFound         = "not_found"
	ErrReadOnly         = "readonly_field"
	ErrVersionConflict  = "version_conflict"
	ErrOutOfRange       = "out_of_range"
	ErrFieldUnavailable = "field_unavailable"
	ErrUnknownField     = "unknown_field"
)

// ValidationError carries field errors through the editor sink.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Code)
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func ferr(code, field, msg string) FieldError {
	return FieldError{Code: code, Field: field, Message: msg}
}

func statusForErrors(errs []FieldError) int {
	for _, e := range errs {
		if e.Code == ErrUniqueViolation || e.Code == ErrVersionConflict {
			return http.StatusConflict
		}
	}
	return http.StatusBadRequest
}

// ValidateUnit checks u before it is stored in army/category. invalid lists
// numeric fields that still hold the not-a-number sentinel; those report
// type_mismatch only. A nil storage skips the uniqueness check. The id is
// derived from name_en, so only its presence and uniqueness are checked.
func ValidateUnit(storage *Storage, army string, c dataset.Category, u dataset.Unit, invalid []string, excludeID string) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(u.NameEn) == "" {
		errs = append(errs, ferr(ErrRequired, "name_en", "English name is required"))
	}
	if strings.TrimSpace(u.NameDe) == "" {
		errs = append(errs, ferr(ErrRequired, "name_de", "German name is required"))
	}
	switch {
	case u.ID == "":
		errs = append(errs, ferr(ErrRequired, "id", "Id is required"))
	case storage != nil && storage.Exists(army, c, u.ID, excludeID):
		errs = append(errs, ferr(ErrUniqueViolation, "id", fmt.Sprintf("Unit %q already exists in %s", u.ID, c)))
	}

	if u.Points < 1 {
		errs = append(errs, ferr(ErrOutOfRange, "points", "Points must be at least 1"))
	}

	if c.IsCharacter() {
		if u.Minimum != 0 || u.Maximum != 0 {
			errs = append(errs, ferr(ErrFieldUnavailable, "minimum", "Characters have no unit size"))
		}
		if len(u.Command) > 0 {
			errs = append(errs, ferr(ErrFieldUnavailable, "command", "Characters have no command group"))
		}
		errs = append(errs, validateMagic("magic", u.Magic)...)
	} else {
		if u.Minimum < 0 {
			errs = append(errs, ferr(ErrOutOfRange, "minimum", "Minimum must not be negative"))
		}
		if u.Maximum < 0 {
			errs = append(errs, ferr(ErrOutOfRange, "maximum", "Maximum must not be negative"))
		}
		if u.Maximum > 0 && u.Minimum > u.Maximum {
			errs = append(errs, ferr(ErrOutOfRange, "maximum", "Maximum must not be below minimum"))
		}
		if len(u.Magic.Types) > 0 || u.Magic.MaxPoints != 0 {
			errs = append(errs, ferr(ErrFieldUnavailable, "magic", "Only characters carry magic items themselves"))
		}
	}

	for i, e := range u.Command {
		p := fmt.Sprintf("command[%d]", i)
		errs = append(errs, entryErrors(p, e.NameEn, e.NameDe, e.Points, 1)...)
		errs = append(errs, validateMagic(p+".magic", e.Magic)...)
	}
	for i, e := range u.Equipment {
		errs = append(errs, entryErrors(fmt.Sprintf("equipment[%d]", i), e.NameEn, e.NameDe, e.Points, 0)...)
	}
	for i, e := range u.Options {
		p := fmt.Sprintf("options[%d]", i)
		errs = append(errs, entryErrors(p, e.NameEn, e.NameDe, e.Points, 0)...)
		if e.Minimum < 0 || e.Maximum < 0 {
			errs = append(errs, ferr(ErrOutOfRange, p+".minimum", "Quantities must not be negative"))
		}
		if e.Stackable && e.Maximum > 0 && e.Minimum > e.Maximum {
			errs = append(errs, ferr(ErrOutOfRange, p+".maximum", "Maximum must not be below minimum"))
		}
	}
	for i, e := range u.Mounts {
		errs = append(errs, entryErrors(fmt.Sprintf("mounts[%d]", i), e.NameEn, e.NameDe, e.Points, 0)...)
	}
	return withSentinels(errs, invalid)
}

// withSentinels puts a type_mismatch first for every invalid path and drops
// the other errors reported on that path: the stored zero is not the value
// the user typed.
func withSentinels(errs []FieldError, invalid []string) []FieldError {
	if len(invalid) == 0 {
		return errs
	}
	bad := make(map[string]bool, len(invalid))
	out := make([]FieldError, 0, len(invalid)+len(errs))
	for _, path := range invalid {
		bad[path] = true
		out = append(out, ferr(ErrTypeMismatch, path, "Not a number"))
	}
	for _, fe := range errs {
		if !bad[fe.Field] {
			out = append(out, fe)
		}
	}
	return out
}

// entryErrors checks the names and points of a sub-entry.
func entryErrors(path, nameEn, nameDe string, points, minPoints int) []FieldError {
	var errs []FieldError
	if strings.TrimSpace(nameEn) == "" {
		errs = append(errs, ferr(ErrRequired, path+".name_en", "English name is required"))
	}
	if strings.TrimSpace(nameDe) == "" {
		errs = append(errs, ferr(ErrRequired, path+".name_de", "German name is required"))
	}
	if points < minPoints {
		errs = append(errs, ferr(ErrOutOfRange, path+".points", fmt.Sprintf("Points must be at least %d", minPoints)))
	}
	return errs
}

func validateMagic(path string, m dataset.MagicProfile) []FieldError {
	var errs []FieldError
	seen := map[string]bool{}
	for _, t := range m.Types {
		if !reference.IsMagicItemType(t) {
			errs = append(errs, ferr(ErrEnumInvalid, path+".types", fmt.Sprintf("Unknown magic item category %q", t)))
			continue
		}
		if seen[t] {
			errs = append(errs, ferr(ErrEnumInvalid, path+".types", fmt.Sprintf("Duplicate magic item category %q", t)))
		}
		seen[t] = true
	}
	if m.MaxPoints < 0 {
		errs = append(errs, ferr(ErrOutOfRange, path+".maxPoints", "Magic item points must not be negative"))
	}
	return errs
}
