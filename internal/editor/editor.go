// Package editor holds the draft of one unit while it is being edited.
//
// Every operation replaces the draft with a new value instead of mutating
// the previous one in place, so a Draft obtained earlier stays valid. An
// Editor is not safe for concurrent use; callers serialize access.
package editor

import (
	"context"
	"errors"
	"sort"

	"armybuilder/internal/dataset"

	"github.com/oklog/ulid/v2"
)

var (
	ErrUnknownField      = errors.New("editor: unknown field")
	ErrReadOnlyField     = errors.New("editor: field is read-only")
	ErrFieldUnavailable  = errors.New("editor: field is not available for this category")
	ErrUnknownCollection = errors.New("editor: unknown collection")
	ErrNoEntry           = errors.New("editor: no entry at index")
	ErrUnknownMagicType  = errors.New("editor: unknown magic item category")
	ErrNotBool           = errors.New("editor: value is not a boolean")
)

// Submission is handed to the Sink when the draft is submitted.
type Submission struct {
	Record   dataset.Unit     `json:"record"`
	Category dataset.Category `json:"category"`
	IsNew    bool             `json:"isNew"`
	// Invalid lists the numeric fields still holding the not-a-number
	// sentinel, e.g. "points" or "command[0].magic.maxPoints".
	Invalid []string `json:"invalid,omitempty"`
}

// DeleteRequest is handed to the Sink when deletion is requested.
type DeleteRequest struct {
	Category dataset.Category `json:"category"`
	ID       string           `json:"id"`
}

// Sink receives finalized records and deletion requests. Persistence,
// routing and feedback to the user all live behind it.
type Sink interface {
	Submit(ctx context.Context, s Submission) error
	Delete(ctx context.Context, r DeleteRequest) error
}

// Editor owns the draft of one unit.
type Editor struct {
	scope    string
	category dataset.Category
	existing *dataset.Unit
	sink     Sink

	draft   dataset.Unit
	invalid []string
}

// New starts an editing session. A nil existing record starts a new unit
// from the defaults; otherwise the existing record is laid over the
// defaults. The existing record is never modified.
func New(category dataset.Category, existing *dataset.Unit, sink Sink) *Editor {
	e := &Editor{
		scope:    ulid.Make().String(),
		category: category,
		sink:     sink,
	}
	e.init(existing)
	return e
}

func (e *Editor) init(existing *dataset.Unit) {
	e.existing = existing
	e.draft = dataset.Merge(dataset.DefaultUnit(), dataset.Present(existing))
	e.invalid = nil
}

// Retarget switches the session to another existing record (or to a new
// one when nil). The draft is rebuilt only when the target is a different
// record, compared by identity; it reports whether that happened.
func (e *Editor) Retarget(existing *dataset.Unit) bool {
	if existing == e.existing {
		return false
	}
	e.init(existing)
	return true
}

// Scope is a stable identifier for the session, generated once.
func (e *Editor) Scope() string { return e.scope }

func (e *Editor) Category() dataset.Category { return e.category }

// IsNew reports whether the session creates a unit rather than editing one.
func (e *Editor) IsNew() bool { return e.existing == nil }

// Draft returns the current draft. It shares memory with the editor state
// and must be treated as read-only.
func (e *Editor) Draft() dataset.Unit { return e.draft }

// Invalid lists fields holding the not-a-number sentinel, sorted.
func (e *Editor) Invalid() []string {
	return append([]string(nil), e.invalid...)
}

// Editable lists the top-level fields the category exposes.
func (e *Editor) Editable() []string {
	return EditableFields(e.category)
}

// EditableFields lists the top-level fields a category exposes for editing.
func EditableFields(c dataset.Category) []string {
	fields := []string{"name_en", "name_de", "points"}
	if c.IsCharacter() {
		fields = append(fields, "magic")
	} else {
		fields = append(fields, "minimum", "maximum", "command")
	}
	return append(fields, "equipment", "options", "mounts")
}

// Submit finalizes the draft and hands it to the sink. A new unit gets its
// id from the current English name, whether or not the name was blurred
// before. After a successful hand-off a new-unit session starts over from
// the defaults; an editing session keeps the submitted draft.
func (e *Editor) Submit(ctx context.Context) (Submission, error) {
	rec := e.draft
	isNew := e.IsNew()
	if isNew {
		rec.ID = Slugify(rec.NameEn)
	}
	s := Submission{
		Record:   rec.Clone(),
		Category: e.category,
		IsNew:    isNew,
		Invalid:  e.Invalid(),
	}
	if e.sink != nil {
		if err := e.sink.Submit(ctx, s); err != nil {
			return s, err
		}
	}
	if isNew {
		e.init(nil)
	}
	return s, nil
}

// Delete asks the sink to remove the record with the draft's id. The draft
// is left as it is.
func (e *Editor) Delete(ctx context.Context) (DeleteRequest, error) {
	r := DeleteRequest{Category: e.category, ID: e.draft.ID}
	if e.sink != nil {
		if err := e.sink.Delete(ctx, r); err != nil {
			return r, err
		}
	}
	return r, nil
}

// markInvalid records path as holding the sentinel (or clears it) and
// replaces the invalid set.
func (e *Editor) markInvalid(path string, bad bool) {
	next := make([]string, 0, len(e.invalid)+1)
	for _, p := range e.invalid {
		if p != path {
			next = append(next, p)
		}
	}
	if bad {
		next = append(next, path)
		sort.Strings(next)
	}
	e.invalid = next
}
