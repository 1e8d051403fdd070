package editor

import (
	"armybuilder/internal/dataset"
	"armybuilder/internal/reference"
)

// UnitLevel addresses the unit's own magic profile rather than the profile
// of a command entry.
const UnitLevel = -1

func toggleType(m dataset.MagicProfile, t string, on bool) dataset.MagicProfile {
	has := m.Has(t)
	if has == on {
		return m
	}
	out := dataset.MagicProfile{MaxPoints: m.MaxPoints}
	if on {
		out.Types = append(append(make([]string, 0, len(m.Types)+1), m.Types...), t)
		return out
	}
	out.Types = make([]string, 0, len(m.Types))
	for _, v := range m.Types {
		if v != t {
			out.Types = append(out.Types, v)
		}
	}
	return out
}

// magicScope validates the scope: UnitLevel needs a character category, a
// command index needs a category with command entries.
func (e *Editor) magicScope(scope int) error {
	if scope == UnitLevel {
		if !fieldAvailable(e.category, "magic") {
			return ErrFieldUnavailable
		}
		return nil
	}
	return e.checkEntry(Command, scope)
}

// ToggleMagic allows (on) or disallows a magic item category for the unit
// (scope UnitLevel) or for the command entry at index scope. Toggling a
// category into the state it already has is a no-op.
func (e *Editor) ToggleMagic(scope int, t string, on bool) error {
	if !reference.IsMagicItemType(t) {
		return ErrUnknownMagicType
	}
	if err := e.magicScope(scope); err != nil {
		return err
	}
	next := e.draft
	if scope == UnitLevel {
		next.Magic = toggleType(next.Magic, t, on)
	} else {
		next.Command = replaceAt(next.Command, scope, func(en dataset.CommandEntry) dataset.CommandEntry {
			en.Magic = toggleType(en.Magic, t, on)
			return en
		})
	}
	e.draft = next
	return nil
}

// SetMagicPoints sets the magic point allowance of the targeted profile.
func (e *Editor) SetMagicPoints(scope int, raw string) error {
	if err := e.magicScope(scope); err != nil {
		return err
	}
	n, ok := coerceNumber(raw)
	next := e.draft
	path := "magic.maxPoints"
	if scope == UnitLevel {
		next.Magic = dataset.MagicProfile{Types: next.Magic.Types, MaxPoints: n}
	} else {
		path = entryPath(Command, scope, path)
		next.Command = replaceAt(next.Command, scope, func(en dataset.CommandEntry) dataset.CommandEntry {
			en.Magic = dataset.MagicProfile{Types: en.Magic.Types, MaxPoints: n}
			return en
		})
	}
	e.markInvalid(path, !ok)
	e.draft = next
	return nil
}
