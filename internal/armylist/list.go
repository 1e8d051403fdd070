// Package armylist prices army lists built from dataset units.
package armylist

import (
	"fmt"

	"armybuilder/internal/dataset"
)

// List is a player's army list.
type List struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Army   string     `json:"army"`
	Points int        `json:"points"` // budget
	Units  []ListUnit `json:"units"`
}

// ListUnit is one chosen unit with its selections. Entry choices refer to
// positions in the dataset unit's collections.
type ListUnit struct {
	Category  dataset.Category `json:"category"`
	UnitID    string           `json:"unit_id"`
	Strength  int              `json:"strength"`
	Command   []int            `json:"command,omitempty"`
	Equipment *int             `json:"equipment,omitempty"`
	Options   []OptionChoice   `json:"options,omitempty"`
	Mount     *int             `json:"mount,omitempty"`
	// MagicPoints is spent on magic items by the unit itself (characters).
	MagicPoints int `json:"magic_points,omitempty"`
	// CommandMagic maps a command index to magic item points spent by it.
	CommandMagic map[int]int `json:"command_magic,omitempty"`
}

type OptionChoice struct {
	Index    int `json:"index"`
	Quantity int `json:"quantity"`
}

// Issue codes.
const (
	IssueUnknownUnit   = "unknown_unit"
	IssueStrength      = "strength_out_of_range"
	IssueNoEntry       = "no_entry"
	IssueQuantity      = "quantity_out_of_range"
	IssueMagicAllowed  = "magic_over_allowance"
	IssueMagicNegative = "negative_magic_points"
	IssueDuplicate     = "duplicate_entry"
	IssueOverBudget    = "over_budget"
)

type Issue struct {
	Code    string `json:"code"`
	Unit    int    `json:"unit"` // position in List.Units, -1 for the list itself
	Message string `json:"message"`
}

type UnitCost struct {
	UnitID string `json:"unit_id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
}

type Result struct {
	Units  []UnitCost `json:"units"`
	Total  int        `json:"total"`
	Budget int        `json:"budget"`
	Issues []Issue    `json:"issues"`
}

// OK reports whether pricing found no issue.
func (r Result) OK() bool { return len(r.Issues) == 0 }

// Resolver finds a dataset unit.
type Resolver interface {
	Unit(army string, category dataset.Category, id string) (dataset.Unit, bool)
}

// Price computes the cost of every unit and the list total. Problems are
// collected as issues; pricing continues past them.
func Price(l List, r Resolver) Result {
	res := Result{Budget: l.Points, Units: make([]UnitCost, 0, len(l.Units)), Issues: []Issue{}}
	issue := func(i int, code, format string, args ...any) {
		res.Issues = append(res.Issues, Issue{Code: code, Unit: i, Message: fmt.Sprintf(format, args...)})
	}

	for i, lu := range l.Units {
		u, ok := r.Unit(l.Army, lu.Category, lu.UnitID)
		if !ok {
			issue(i, IssueUnknownUnit, "unit %s/%s not found in %s", lu.Category, lu.UnitID, l.Army)
			res.Units = append(res.Units, UnitCost{UnitID: lu.UnitID})
			continue
		}
		cost := priceUnit(i, lu, u, issue)
		res.Units = append(res.Units, UnitCost{UnitID: u.ID, Name: u.NameEn, Points: cost})
		res.Total += cost
	}

	if l.Points > 0 && res.Total > l.Points {
		issue(-1, IssueOverBudget, "list costs %d points, limit is %d", res.Total, l.Points)
	}
	return res
}

func inRange(n, min, max int) bool {
	return n >= min && (max == 0 || n <= max)
}

func priceUnit(i int, lu ListUnit, u dataset.Unit, issue func(int, string, string, ...any)) int {
	strength := lu.Strength
	if lu.Category.IsCharacter() || strength < 1 {
		strength = 1
	}
	if !lu.Category.IsCharacter() && !inRange(strength, u.Minimum, u.Maximum) {
		issue(i, IssueStrength, "%s: %d models, allowed %d..%d", u.ID, strength, u.Minimum, u.Maximum)
	}

	cost := u.Points * strength

	if lu.Equipment != nil {
		if *lu.Equipment < 0 || *lu.Equipment >= len(u.Equipment) {
			issue(i, IssueNoEntry, "%s: no equipment %d", u.ID, *lu.Equipment)
		} else {
			cost += equipmentCost(u.Equipment[*lu.Equipment], strength)
		}
	} else {
		for _, eq := range u.Equipment {
			if eq.Active {
				cost += equipmentCost(eq, strength)
				break
			}
		}
	}

	if lu.Mount != nil {
		if *lu.Mount < 0 || *lu.Mount >= len(u.Mounts) {
			issue(i, IssueNoEntry, "%s: no mount %d", u.ID, *lu.Mount)
		} else {
			cost += u.Mounts[*lu.Mount].Points
		}
	} else {
		for _, m := range u.Mounts {
			if m.Active {
				cost += m.Points
				break
			}
		}
	}

	pickedOpt := map[int]bool{}
	for _, oc := range lu.Options {
		if oc.Index < 0 || oc.Index >= len(u.Options) {
			issue(i, IssueNoEntry, "%s: no option %d", u.ID, oc.Index)
			continue
		}
		if pickedOpt[oc.Index] {
			issue(i, IssueDuplicate, "%s: option %d chosen twice", u.ID, oc.Index)
			continue
		}
		pickedOpt[oc.Index] = true
		opt := u.Options[oc.Index]
		qty := 1
		if opt.Stackable {
			qty = oc.Quantity
			if !inRange(qty, opt.Minimum, opt.Maximum) {
				issue(i, IssueQuantity, "%s: %d x %s, allowed %d..%d", u.ID, qty, opt.NameEn, opt.Minimum, opt.Maximum)
			}
		}
		cost += opt.Points * qty
	}

	pickedCmd := map[int]bool{}
	for _, ci := range lu.Command {
		if ci < 0 || ci >= len(u.Command) {
			issue(i, IssueNoEntry, "%s: no command entry %d", u.ID, ci)
			continue
		}
		if pickedCmd[ci] {
			issue(i, IssueDuplicate, "%s: command entry %d chosen twice", u.ID, ci)
			continue
		}
		pickedCmd[ci] = true
		cmd := u.Command[ci]
		cost += cmd.Points
		spent := lu.CommandMagic[ci]
		switch {
		case spent < 0:
			issue(i, IssueMagicNegative, "%s: %s spends %d magic points", u.ID, cmd.NameEn, spent)
			continue
		case spent > cmd.Magic.MaxPoints:
			issue(i, IssueMagicAllowed, "%s: %s spends %d magic points, allowed %d", u.ID, cmd.NameEn, spent, cmd.Magic.MaxPoints)
		}
		cost += spent
	}

	switch {
	case lu.MagicPoints < 0:
		issue(i, IssueMagicNegative, "%s spends %d magic points", u.ID, lu.MagicPoints)
	case lu.MagicPoints > 0:
		if lu.MagicPoints > u.Magic.MaxPoints {
			issue(i, IssueMagicAllowed, "%s spends %d magic points, allowed %d", u.ID, lu.MagicPoints, u.Magic.MaxPoints)
		}
		cost += lu.MagicPoints
	}
	return cost
}

// Clone returns a copy of l that shares no slices or maps with it.
func (l List) Clone() List {
	out := l
	out.Units = make([]ListUnit, len(l.Units))
	for i, lu := range l.Units {
		out.Units[i] = lu.clone()
	}
	return out
}

func (lu ListUnit) clone() ListUnit {
	out := lu
	if lu.Command != nil {
		out.Command = append([]int(nil), lu.Command...)
	}
	if lu.Options != nil {
		out.Options = append([]OptionChoice(nil), lu.Options...)
	}
	if lu.Equipment != nil {
		v := *lu.Equipment
		out.Equipment = &v
	}
	if lu.Mount != nil {
		v := *lu.Mount
		out.Mount = &v
	}
	if lu.CommandMagic != nil {
		out.CommandMagic = make(map[int]int, len(lu.CommandMagic))
		for k, v := range lu.CommandMagic {
			out.CommandMagic[k] = v
		}
	}
	return out
}

func equipmentCost(eq dataset.EquipmentEntry, strength int) int {
	if eq.PerModel {
		return eq.Points * strength
	}
	return eq.Points
}
