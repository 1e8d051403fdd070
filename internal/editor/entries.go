package editor

import (
	"fmt"
	"strings"

	"armybuilder/internal/dataset"
)

// Collection names one of the ordered sub-entry lists of a unit. Entries are
// addressed by their position; positions never shift because entries are
// only ever appended.
type Collection string

const (
	Command   Collection = "command"
	Equipment Collection = "equipment"
	Options   Collection = "options"
	Mounts    Collection = "mounts"
)

// Collections lists every sub-entry collection.
var Collections = []Collection{Command, Equipment, Options, Mounts}

// ParseCollection accepts a collection name case-insensitively.
func ParseCollection(s string) (Collection, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range Collections {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

func entryPath(c Collection, index int, field string) string {
	return fmt.Sprintf("%s[%d].%s", c, index, field)
}

// replaceAt copies in and swaps element i for fn's result.
func replaceAt[T any](in []T, i int, fn func(T) T) []T {
	out := append(make([]T, 0, len(in)), in...)
	out[i] = fn(out[i])
	return out
}

func (e *Editor) checkCollection(c Collection) error {
	switch c {
	case Command:
		if !fieldAvailable(e.category, string(c)) {
			return ErrFieldUnavailable
		}
	case Equipment, Options, Mounts:
	default:
		return ErrUnknownCollection
	}
	return nil
}

// Len returns the number of entries in a collection.
func (e *Editor) Len(c Collection) int {
	switch c {
	case Command:
		return len(e.draft.Command)
	case Equipment:
		return len(e.draft.Equipment)
	case Options:
		return len(e.draft.Options)
	case Mounts:
		return len(e.draft.Mounts)
	}
	return 0
}

func (e *Editor) checkEntry(c Collection, index int) error {
	if err := e.checkCollection(c); err != nil {
		return err
	}
	if index < 0 || index >= e.Len(c) {
		return ErrNoEntry
	}
	return nil
}

// Append adds a defaulted entry at the end of a collection.
func (e *Editor) Append(c Collection) error {
	if err := e.checkCollection(c); err != nil {
		return err
	}
	next := e.draft
	switch c {
	case Command:
		next.Command = append(append(make([]dataset.CommandEntry, 0, len(next.Command)+1), next.Command...), dataset.DefaultCommandEntry())
	case Equipment:
		next.Equipment = append(append(make([]dataset.EquipmentEntry, 0, len(next.Equipment)+1), next.Equipment...), dataset.DefaultEquipmentEntry())
	case Options:
		next.Options = append(append(make([]dataset.OptionEntry, 0, len(next.Options)+1), next.Options...), dataset.DefaultOptionEntry())
	case Mounts:
		next.Mounts = append(append(make([]dataset.MountEntry, 0, len(next.Mounts)+1), next.Mounts...), dataset.DefaultMountEntry())
	}
	e.draft = next
	return nil
}

// SetEntryField replaces one field of the entry at index. Every other entry
// and every other collection is left untouched.
func (e *Editor) SetEntryField(c Collection, index int, field, raw string) error {
	if err := e.checkEntry(c, index); err != nil {
		return err
	}

	var (
		num      int
		numOK    = true
		isNumber bool
		flag     bool
	)
	switch field {
	case "name_en", "name_de":
	case "points", "minimum", "maximum":
		isNumber = true
		num, numOK = coerceNumber(raw)
	case "perModel", "active", "stackable":
		b, err := coerceBool(raw)
		if err != nil {
			return err
		}
		flag = b
	default:
		return ErrUnknownField
	}

	next := e.draft
	switch c {
	case Command:
		var err error
		next.Command = replaceAt(next.Command, index, func(en dataset.CommandEntry) dataset.CommandEntry {
			switch field {
			case "name_en":
				en.NameEn = raw
			case "name_de":
				en.NameDe = raw
			case "points":
				en.Points = num
			default:
				err = ErrUnknownField
			}
			return en
		})
		if err != nil {
			return err
		}
	case Equipment:
		var err error
		next.Equipment = replaceAt(next.Equipment, index, func(en dataset.EquipmentEntry) dataset.EquipmentEntry {
			switch field {
			case "name_en":
				en.NameEn = raw
			case "name_de":
				en.NameDe = raw
			case "points":
				en.Points = num
			case "perModel":
				en.PerModel = flag
			case "active":
				en.Active = flag
			default:
				err = ErrUnknownField
			}
			return en
		})
		if err != nil {
			return err
		}
	case Options:
		var err error
		next.Options = replaceAt(next.Options, index, func(en dataset.OptionEntry) dataset.OptionEntry {
			switch field {
			case "name_en":
				en.NameEn = raw
			case "name_de":
				en.NameDe = raw
			case "points":
				en.Points = num
			case "stackable":
				en.Stackable = flag
			case "minimum":
				en.Minimum = num
			case "maximum":
				en.Maximum = num
			default:
				err = ErrUnknownField
			}
			return en
		})
		if err != nil {
			return err
		}
	case Mounts:
		var err error
		next.Mounts = replaceAt(next.Mounts, index, func(en dataset.MountEntry) dataset.MountEntry {
			switch field {
			case "name_en":
				en.NameEn = raw
			case "name_de":
				en.NameDe = raw
			case "points":
				en.Points = num
			case "active":
				en.Active = flag
			default:
				err = ErrUnknownField
			}
			return en
		})
		if err != nil {
			return err
		}
	}

	if isNumber {
		e.markInvalid(entryPath(c, index, field), !numOK)
	}
	e.draft = next
	return nil
}

// BlurEntryName fills an empty German name of one entry with its English
// name. It never touches the unit id.
func (e *Editor) BlurEntryName(c Collection, index int) error {
	if err := e.checkEntry(c, index); err != nil {
		return err
	}
	next := e.draft
	switch c {
	case Command:
		next.Command = replaceAt(next.Command, index, func(en dataset.CommandEntry) dataset.CommandEntry {
			if en.NameDe == "" {
				en.NameDe = en.NameEn
			}
			return en
		})
	case Equipment:
		next.Equipment = replaceAt(next.Equipment, index, func(en dataset.EquipmentEntry) dataset.EquipmentEntry {
			if en.NameDe == "" {
				en.NameDe = en.NameEn
			}
			return en
		})
	case Options:
		next.Options = replaceAt(next.Options, index, func(en dataset.OptionEntry) dataset.OptionEntry {
			if en.NameDe == "" {
				en.NameDe = en.NameEn
			}
			return en
		})
	case Mounts:
		next.Mounts = replaceAt(next.Mounts, index, func(en dataset.MountEntry) dataset.MountEntry {
			if en.NameDe == "" {
				en.NameDe = en.NameEn
			}
			return en
		})
	}
	e.draft = next
	return nil
}
