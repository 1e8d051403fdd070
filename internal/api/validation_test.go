package api

import (
	"testing"

	"armybuilder/internal/dataset"

	"github.com/stretchr/testify/assert"
)

func TestValidateUnitSentinelReplacesRangeChecks(t *testing.T) {
	u := dataset.Unit{ID: "orc-big-uns", NameEn: "Orc Big Uns", NameDe: "Dicke Orks", Points: 0, Minimum: 1,
		Command: []dataset.CommandEntry{{NameEn: "Boss", NameDe: "Boss", Points: 0}},
	}
	errs := ValidateUnit(nil, "orcs", dataset.Core, u, []string{"points", "command[0].points"}, "")
	assert.Equal(t, []FieldError{
		ferr(ErrTypeMismatch, "points", "Not a number"),
		ferr(ErrTypeMismatch, "command[0].points", "Not a number"),
	}, errs)

	// without the sentinel the same zero is out of range
	errs = ValidateUnit(nil, "orcs", dataset.Core, u, nil, "")
	got := map[string]string{}
	for _, fe := range errs {
		got[fe.Field] = fe.Code
	}
	assert.Equal(t, map[string]string{"points": ErrOutOfRange, "command[0].points": ErrOutOfRange}, got)
}

func TestValidateUnitRequiresGermanNames(t *testing.T) {
	u := dataset.Unit{ID: "orc-boyz", NameEn: "Orc Boyz", Points: 6, Minimum: 10,
		Options: []dataset.OptionEntry{{NameEn: "Shields", NameDe: "Schilde", Points: 1}, {NameEn: "Spears", Points: 1}},
	}
	errs := ValidateUnit(nil, "orcs", dataset.Core, u, nil, "")
	fields := make([]string, 0, len(errs))
	for _, fe := range errs {
		assert.Equal(t, ErrRequired, fe.Code, fe.Field)
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"name_de", "options[1].name_de"}, fields)
}

func TestJSONPath(t *testing.T) {
	for in, want := range map[string]string{
		"Overrides.points":      "points",
		"points":                "points",
		"Unit.command":          "command",
		"Overrides.magic.types": "magic.types",
		"":                      "",
	} {
		assert.Equal(t, want, jsonPath(in), in)
	}
}
