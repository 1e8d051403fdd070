package dataset

import "strings"

// Category groups units inside an army dataset.
type Category string

const (
	Characters  Category = "characters"
	Core        Category = "core"
	Special     Category = "special"
	Rare        Category = "rare"
	Mercenaries Category = "mercenaries"
	Allies      Category = "allies"
)

// Categories lists every category in dataset order.
var Categories = []Category{Characters, Core, Special, Rare, Mercenaries, Allies}

// ParseCategory accepts a category name case-insensitively.
func ParseCategory(s string) (Category, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// IsCharacter reports whether units of c carry a unit-level magic profile
// instead of model counts and command entries.
func (c Category) IsCharacter() bool { return c == Characters }

// Unit is one dataset entry: a template for a fighting element of an army.
type Unit struct {
	NameEn    string           `json:"name_en" yaml:"name_en"`
	NameDe    string           `json:"name_de" yaml:"name_de"`
	ID        string           `json:"id" yaml:"id"`
	Points    int              `json:"points" yaml:"points"`
	Minimum   int              `json:"minimum" yaml:"minimum"`
	Maximum   int              `json:"maximum" yaml:"maximum"`
	Command   []CommandEntry   `json:"command" yaml:"command"`
	Equipment []EquipmentEntry `json:"equipment" yaml:"equipment"`
	Options   []OptionEntry    `json:"options" yaml:"options"`
	Mounts    []MountEntry     `json:"mounts" yaml:"mounts"`
	Magic     MagicProfile     `json:"magic" yaml:"magic"`
}

type CommandEntry struct {
	NameEn string       `json:"name_en" yaml:"name_en"`
	NameDe string       `json:"name_de" yaml:"name_de"`
	Points int          `json:"points" yaml:"points"`
	Magic  MagicProfile `json:"magic" yaml:"magic"`
}

type EquipmentEntry struct {
	NameEn   string `json:"name_en" yaml:"name_en"`
	NameDe   string `json:"name_de" yaml:"name_de"`
	Points   int    `json:"points" yaml:"points"`
	PerModel bool   `json:"perModel" yaml:"perModel"`
	Active   bool   `json:"active" yaml:"active"`
}

type OptionEntry struct {
	NameEn    string `json:"name_en" yaml:"name_en"`
	NameDe    string `json:"name_de" yaml:"name_de"`
	Points    int    `json:"points" yaml:"points"`
	Stackable bool   `json:"stackable" yaml:"stackable"`
	Minimum   int    `json:"minimum" yaml:"minimum"`
	Maximum   int    `json:"maximum" yaml:"maximum"`
}

type MountEntry struct {
	NameEn string `json:"name_en" yaml:"name_en"`
	NameDe string `json:"name_de" yaml:"name_de"`
	Points int    `json:"points" yaml:"points"`
	Active bool   `json:"active" yaml:"active"`
}

// MagicProfile limits which magic item categories a unit (or a command
// entry) may take and how many points it may spend on them.
type MagicProfile struct {
	Types     []string `json:"types" yaml:"types"`
	MaxPoints int      `json:"maxPoints" yaml:"maxPoints"`
}

// Has reports whether the profile allows the magic item category.
func (m MagicProfile) Has(t string) bool {
	for _, v := range m.Types {
		if v == t {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with m.
func (m MagicProfile) Clone() MagicProfile {
	out := MagicProfile{MaxPoints: m.MaxPoints, Types: make([]string, len(m.Types))}
	copy(out.Types, m.Types)
	return out
}

// Clone returns a deep copy of u.
func (u Unit) Clone() Unit {
	out := u
	out.Command = make([]CommandEntry, len(u.Command))
	for i, c := range u.Command {
		c.Magic = c.Magic.Clone()
		out.Command[i] = c
	}
	out.Equipment = append(make([]EquipmentEntry, 0, len(u.Equipment)), u.Equipment...)
	out.Options = append(make([]OptionEntry, 0, len(u.Options)), u.Options...)
	out.Mounts = append(make([]MountEntry, 0, len(u.Mounts)), u.Mounts...)
	out.Magic = u.Magic.Clone()
	return out
}

// LocalizedName picks the display name for a language. Only English and
// German names are maintained; other languages fall back to English.
func (u Unit) LocalizedName(lang string) string {
	if lang == "de" && u.NameDe != "" {
		return u.NameDe
	}
	return u.NameEn
}
