package dataset

// DefaultUnit is the record a new unit starts from.
func DefaultUnit() Unit {
	return Unit{
		Points:    1,
		Command:   []CommandEntry{},
		Equipment: []EquipmentEntry{},
		Options:   []OptionEntry{},
		Mounts:    []MountEntry{},
		Magic:     MagicProfile{Types: []string{}},
	}
}

func DefaultCommandEntry() CommandEntry {
	return CommandEntry{Points: 1, Magic: MagicProfile{Types: []string{}}}
}

func DefaultEquipmentEntry() EquipmentEntry {
	return EquipmentEntry{Points: 1, PerModel: true}
}

func DefaultOptionEntry() OptionEntry {
	return OptionEntry{Points: 1}
}

func DefaultMountEntry() MountEntry {
	return MountEntry{Points: 1}
}

// Overrides is a partial Unit. A nil field is absent and keeps the default;
// a non-nil field replaces it, even when it holds a zero value.
type Overrides struct {
	NameEn    *string           `json:"name_en" yaml:"name_en"`
	NameDe    *string           `json:"name_de" yaml:"name_de"`
	ID        *string           `json:"id" yaml:"id"`
	Points    *int              `json:"points" yaml:"points"`
	Minimum   *int              `json:"minimum" yaml:"minimum"`
	Maximum   *int              `json:"maximum" yaml:"maximum"`
	Command   *[]CommandEntry   `json:"command" yaml:"command"`
	Equipment *[]EquipmentEntry `json:"equipment" yaml:"equipment"`
	Options   *[]OptionEntry    `json:"options" yaml:"options"`
	Mounts    *[]MountEntry     `json:"mounts" yaml:"mounts"`
	Magic     *MagicProfile     `json:"magic" yaml:"magic"`
}

// Present turns a complete record into overrides with every field present.
func Present(u *Unit) *Overrides {
	if u == nil {
		return nil
	}
	c := u.Clone()
	return &Overrides{
		NameEn:    &c.NameEn,
		NameDe:    &c.NameDe,
		ID:        &c.ID,
		Points:    &c.Points,
		Minimum:   &c.Minimum,
		Maximum:   &c.Maximum,
		Command:   &c.Command,
		Equipment: &c.Equipment,
		Options:   &c.Options,
		Mounts:    &c.Mounts,
		Magic:     &c.Magic,
	}
}

// Merge lays o over defaults one top-level field at a time. Slices and the
// magic profile are replaced wholesale, never merged element by element.
// The result shares no memory with either argument.
func Merge(defaults Unit, o *Overrides) Unit {
	out := defaults.Clone()
	if o == nil {
		return out
	}
	if o.NameEn != nil {
		out.NameEn = *o.NameEn
	}
	if o.NameDe != nil {
		out.NameDe = *o.NameDe
	}
	if o.ID != nil {
		out.ID = *o.ID
	}
	if o.Points != nil {
		out.Points = *o.Points
	}
	if o.Minimum != nil {
		out.Minimum = *o.Minimum
	}
	if o.Maximum != nil {
		out.Maximum = *o.Maximum
	}
	if o.Command != nil {
		out.Command = nonNil(*o.Command)
		for i := range out.Command {
			out.Command[i].Magic = out.Command[i].Magic.Clone()
		}
	}
	if o.Equipment != nil {
		out.Equipment = nonNil(*o.Equipment)
	}
	if o.Options != nil {
		out.Options = nonNil(*o.Options)
	}
	if o.Mounts != nil {
		out.Mounts = nonNil(*o.Mounts)
	}
	if o.Magic != nil {
		out.Magic = o.Magic.Clone()
	}
	return out
}

func nonNil[T any](in []T) []T {
	return append(make([]T, 0, len(in)), in...)
}
