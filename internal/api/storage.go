package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"sync"
	"time"

	"armybuilder/internal/armylist"
	"armybuilder/internal/dataset"
	"armybuilder/internal/docstore"
	"armybuilder/internal/reference"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

var (
	ErrArmyNotFound   = errors.New("army not found")
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateID    = errors.New("id already exists")
)

// VersionConflictError is returned when the caller's expected version is
// stale.
type VersionConflictError struct {
	Current int64
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version conflict, current version is %d", e.Current)
}

// Document kinds written to the persister.
const (
	kindUnit = "unit"
	kindList = "list"
)

type Record struct {
	Unit      dataset.Unit
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
	Deleted   bool
}

func (r *Record) clone() Record {
	out := *r
	out.Unit = r.Unit.Clone()
	return out
}

// Army holds the units of one army by category and id. Order keeps the
// dataset order for listings.
type Army struct {
	Name   string
	NameEn string
	NameDe string
	Units  map[dataset.Category]map[string]*Record
	Order  map[dataset.Category][]string
}

func newArmy(name string) *Army {
	return &Army{
		Name:  name,
		Units: make(map[dataset.Category]map[string]*Record),
		Order: make(map[dataset.Category][]string),
	}
}

func (a *Army) put(c dataset.Category, rec *Record) {
	if a.Units[c] == nil {
		a.Units[c] = make(map[string]*Record)
	}
	if _, ok := a.Units[c][rec.Unit.ID]; !ok {
		a.Order[c] = append(a.Order[c], rec.Unit.ID)
	}
	a.Units[c][rec.Unit.ID] = rec
}

type ListRecord struct {
	List      armylist.List
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Storage struct {
	mu      sync.RWMutex
	Armies  map[string]*Army
	Enums   map[string]reference.EnumDirectory
	Lists   map[string]*ListRecord
	Persist docstore.Store // optional write-through
	Log     *zap.Logger
	entropy io.Reader
}

// NewStorage fills the store from the loaded datasets and catalogs.
func NewStorage(datasets map[string]*dataset.Dataset, enumCatalog map[string]reference.EnumDirectory) *Storage {
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Storage{
		Armies:  buildArmies(datasets, time.Now().UTC()),
		Enums:   enumCatalog,
		Lists:   make(map[string]*ListRecord),
		Log:     zap.NewNop(),
		entropy: ulid.Monotonic(src, 0),
	}
}

func buildArmies(datasets map[string]*dataset.Dataset, now time.Time) map[string]*Army {
	armies := make(map[string]*Army, len(datasets))
	for name, ds := range datasets {
		a := newArmy(name)
		a.NameEn, a.NameDe = ds.NameEn, ds.NameDe
		for _, c := range dataset.Categories {
			for _, u := range ds.Units[c] {
				a.put(c, &Record{Unit: u.Clone(), Version: 1, CreatedAt: now, UpdatedAt: now})
			}
		}
		armies[name] = a
	}
	return armies
}

// newID must be called with s.mu held for writing.
func (s *Storage) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// Reload swaps in freshly loaded datasets and catalogs, then lays persisted
// edits over them again.
func (s *Storage) Reload(ctx context.Context, datasets map[string]*dataset.Dataset, enumCatalog map[string]reference.EnumDirectory) error {
	armies := buildArmies(datasets, time.Now().UTC())
	if err := s.overlayUnits(ctx, armies); err != nil {
		return err
	}
	s.mu.Lock()
	s.Armies = armies
	s.Enums = enumCatalog
	s.mu.Unlock()
	return nil
}

// Unit implements armylist.Resolver over live records.
func (s *Storage) Unit(army string, c dataset.Category, id string) (dataset.Unit, bool) {
	rec, ok := s.Get(army, c, id)
	if !ok {
		return dataset.Unit{}, false
	}
	return rec.Unit, true
}

// Get returns a copy of a live record.
func (s *Storage) Get(army string, c dataset.Category, id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.army(army)
	if !ok {
		return Record{}, false
	}
	rec := a.Units[c][id]
	if rec == nil || rec.Deleted {
		return Record{}, false
	}
	return rec.clone(), true
}

// Exists reports whether a live record holds id, ignoring exceptID.
func (s *Storage) Exists(army string, c dataset.Category, id, exceptID string) bool {
	if id == "" || id == exceptID {
		return false
	}
	_, ok := s.Get(army, c, id)
	return ok
}

// Units returns copies of the live records of a category in dataset order.
func (s *Storage) Units(army string, c dataset.Category) ([]Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.army(army)
	if !ok {
		return nil, false
	}
	out := make([]Record, 0, len(a.Order[c]))
	for _, id := range a.Order[c] {
		if rec := a.Units[c][id]; rec != nil && !rec.Deleted {
			out = append(out, rec.clone())
		}
	}
	return out, true
}

type ArmySummary struct {
	Army   string                   `json:"army"`
	NameEn string                   `json:"name_en,omitempty"`
	NameDe string                   `json:"name_de,omitempty"`
	Units  map[dataset.Category]int `json:"units"`
	Total  int                      `json:"total"`
}

func (s *Storage) Summaries() []ArmySummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ArmySummary, 0, len(s.Armies))
	for _, a := range s.Armies {
		sum := ArmySummary{Army: a.Name, NameEn: a.NameEn, NameDe: a.NameDe, Units: map[dataset.Category]int{}}
		for _, c := range dataset.Categories {
			n := 0
			for _, rec := range a.Units[c] {
				if !rec.Deleted {
					n++
				}
			}
			sum.Units[c] = n
			sum.Total += n
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Army < out[j].Army })
	return out
}

// Snapshot returns the live units of an army as a dataset.
func (s *Storage) Snapshot(army string) (*dataset.Dataset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.army(army)
	if !ok {
		return nil, false
	}
	ds := &dataset.Dataset{Army: a.Name, NameEn: a.NameEn, NameDe: a.NameDe, Units: map[dataset.Category][]dataset.Unit{}}
	for _, c := range dataset.Categories {
		for _, id := range a.Order[c] {
			if rec := a.Units[c][id]; rec != nil && !rec.Deleted {
				ds.Units[c] = append(ds.Units[c], rec.Unit.Clone())
			}
		}
	}
	return ds, true
}

// Create stores a new unit. An id held only by a deleted record is reused
// and the version continues from it.
func (s *Storage) Create(ctx context.Context, army string, c dataset.Category, u dataset.Unit) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.army(army)
	if !ok {
		return Record{}, ErrArmyNotFound
	}
	now := time.Now().UTC()
	next := &Record{Unit: u.Clone(), Version: 1, CreatedAt: now, UpdatedAt: now}
	if prev := a.Units[c][u.ID]; prev != nil {
		if !prev.Deleted {
			return Record{}, ErrDuplicateID
		}
		next.Version = prev.Version + 1
	}
	if err := s.persistUnit(ctx, a.Name, c, next); err != nil {
		return Record{}, err
	}
	a.put(c, next)
	return next.clone(), nil
}

// Update replaces a live unit. When checkVersion is set, expected must match
// the current version.
func (s *Storage) Update(ctx context.Context, army string, c dataset.Category, id string, u dataset.Unit, expected int64, checkVersion bool) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.army(army)
	if !ok {
		return Record{}, ErrArmyNotFound
	}
	prev := a.Units[c][id]
	if prev == nil || prev.Deleted {
		return Record{}, ErrRecordNotFound
	}
	if checkVersion && expected != prev.Version {
		return Record{}, &VersionConflictError{Current: prev.Version}
	}
	next := &Record{Unit: u.Clone(), Version: prev.Version + 1, CreatedAt: prev.CreatedAt, UpdatedAt: time.Now().UTC()}
	next.Unit.ID = id
	if err := s.persistUnit(ctx, a.Name, c, next); err != nil {
		return Record{}, err
	}
	a.put(c, next)
	return next.clone(), nil
}

// Delete marks a live unit deleted.
func (s *Storage) Delete(ctx context.Context, army string, c dataset.Category, id string) (Record, error) {
	return s.setDeleted(ctx, army, c, id, true)
}

// Restore revives a deleted unit. Restoring a live unit is a no-op.
func (s *Storage) Restore(ctx context.Context, army string, c dataset.Category, id string) (Record, error) {
	return s.setDeleted(ctx, army, c, id, false)
}

func (s *Storage) setDeleted(ctx context.Context, army string, c dataset.Category, id string, deleted bool) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.army(army)
	if !ok {
		return Record{}, ErrArmyNotFound
	}
	prev := a.Units[c][id]
	if prev == nil || (deleted && prev.Deleted) {
		return Record{}, ErrRecordNotFound
	}
	if prev.Deleted == deleted {
		return prev.clone(), nil
	}
	next := prev.clone()
	next.Deleted = deleted
	next.Version++
	next.UpdatedAt = time.Now().UTC()
	if err := s.persistUnit(ctx, a.Name, c, &next); err != nil {
		return Record{}, err
	}
	a.put(c, &next)
	return next.clone(), nil
}

// ===== army lists =====

func (r *ListRecord) clone() ListRecord {
	out := *r
	out.List = r.List.Clone()
	return out
}

func (s *Storage) CreateList(ctx context.Context, l armylist.List) (ListRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	l = l.Clone()
	l.ID = s.newID()
	rec := &ListRecord{List: l, Version: 1, CreatedAt: now, UpdatedAt: now}
	if err := s.persistList(ctx, rec); err != nil {
		return ListRecord{}, err
	}
	s.Lists[l.ID] = rec
	return rec.clone(), nil
}

func (s *Storage) GetList(id string) (ListRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.Lists[id]
	if !ok {
		return ListRecord{}, false
	}
	return rec.clone(), true
}

func (s *Storage) UpdateList(ctx context.Context, id string, l armylist.List, expected int64, checkVersion bool) (ListRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.Lists[id]
	if !ok {
		return ListRecord{}, ErrRecordNotFound
	}
	if checkVersion && expected != prev.Version {
		return ListRecord{}, &VersionConflictError{Current: prev.Version}
	}
	l = l.Clone()
	l.ID = id
	next := &ListRecord{List: l, Version: prev.Version + 1, CreatedAt: prev.CreatedAt, UpdatedAt: time.Now().UTC()}
	if err := s.persistList(ctx, next); err != nil {
		return ListRecord{}, err
	}
	s.Lists[id] = next
	return next.clone(), nil
}

func (s *Storage) DeleteList(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Lists[id]; !ok {
		return ErrRecordNotFound
	}
	if s.Persist != nil {
		if err := s.Persist.Delete(ctx, kindList, id); err != nil {
			return err
		}
	}
	delete(s.Lists, id)
	return nil
}

// ===== persistence =====

type storedUnit struct {
	Army      string           `json:"army"`
	Category  dataset.Category `json:"category"`
	Unit      dataset.Unit     `json:"unit"`
	CreatedAt time.Time        `json:"created_at"`
	Deleted   bool             `json:"deleted,omitempty"`
}

type storedList struct {
	List      armylist.List `json:"list"`
	CreatedAt time.Time     `json:"created_at"`
}

func unitKey(army string, c dataset.Category, id string) string {
	return army + "/" + string(c) + "/" + id
}

func (s *Storage) persistUnit(ctx context.Context, army string, c dataset.Category, rec *Record) error {
	if s.Persist == nil {
		return nil
	}
	body, err := json.Marshal(storedUnit{Army: army, Category: c, Unit: rec.Unit, CreatedAt: rec.CreatedAt, Deleted: rec.Deleted})
	if err != nil {
		return err
	}
	return s.Persist.Put(ctx, docstore.Document{
		Kind: kindUnit, Key: unitKey(army, c, rec.Unit.ID), Version: rec.Version, Body: body, UpdatedAt: rec.UpdatedAt,
	})
}

func (s *Storage) persistList(ctx context.Context, rec *ListRecord) error {
	if s.Persist == nil {
		return nil
	}
	body, err := json.Marshal(storedList{List: rec.List, CreatedAt: rec.CreatedAt})
	if err != nil {
		return err
	}
	return s.Persist.Put(ctx, docstore.Document{
		Kind: kindList, Key: rec.List.ID, Version: rec.Version, Body: body, UpdatedAt: rec.UpdatedAt,
	})
}

// LoadPersisted lays persisted unit edits over the datasets and restores
// army lists.
func (s *Storage) LoadPersisted(ctx context.Context) error {
	if s.Persist == nil {
		return nil
	}
	s.mu.Lock()
	armies := s.Armies
	s.mu.Unlock()
	if err := s.overlayUnits(ctx, armies); err != nil {
		return err
	}

	docs, err := s.Persist.All(ctx, kindList)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range docs {
		var sl storedList
		if err := json.Unmarshal(d.Body, &sl); err != nil {
			s.Log.Warn("skip stored list", zap.String("key", d.Key), zap.Error(err))
			continue
		}
		sl.List.ID = d.Key
		s.Lists[d.Key] = &ListRecord{List: sl.List, Version: d.Version, CreatedAt: sl.CreatedAt, UpdatedAt: d.UpdatedAt}
	}
	return nil
}

func (s *Storage) overlayUnits(ctx context.Context, armies map[string]*Army) error {
	if s.Persist == nil {
		return nil
	}
	docs, err := s.Persist.All(ctx, kindUnit)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range docs {
		var su storedUnit
		if err := json.Unmarshal(d.Body, &su); err != nil {
			s.Log.Warn("skip stored unit", zap.String("key", d.Key), zap.Error(err))
			continue
		}
		if _, ok := dataset.ParseCategory(string(su.Category)); !ok || su.Unit.ID == "" {
			s.Log.Warn("skip stored unit", zap.String("key", d.Key))
			continue
		}
		a := armies[su.Army]
		if a == nil {
			a = newArmy(su.Army)
			armies[su.Army] = a
		}
		a.put(su.Category, &Record{Unit: su.Unit, Version: d.Version, CreatedAt: su.CreatedAt, UpdatedAt: d.UpdatedAt, Deleted: su.Deleted})
	}
	s.Log.Info("persisted units loaded", zap.Int("count", len(docs)))
	return nil
}
