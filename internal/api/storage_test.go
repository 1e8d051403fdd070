package api

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"armybuilder/internal/armylist"
	"armybuilder/internal/dataset"
	"armybuilder/internal/docstore"
	"armybuilder/internal/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteStore(t *testing.T) docstore.Store {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	require.NoError(t, sqlite.ApplyDDL(ctx, db, sqlite.Schema()))
	st := sqlite.NewStore(db)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestStoragePersistsEdits(t *testing.T) {
	ctx := context.Background()
	store := sqliteStore(t)

	s1 := NewStorage(testDatasets(t), testEnums())
	s1.Persist = store
	_, err := s1.Create(ctx, "orcs", dataset.Rare, dataset.Unit{ID: "giant", NameEn: "Giant", Points: 205})
	require.NoError(t, err)
	_, err = s1.Update(ctx, "orcs", dataset.Core, "orc-boyz", dataset.Unit{NameEn: "Orc Boyz", Points: 7, Minimum: 10}, 1, true)
	require.NoError(t, err)
	_, err = s1.Delete(ctx, "orcs", dataset.Core, "black-orcs")
	require.NoError(t, err)
	l, err := s1.CreateList(ctx, armylist.List{Name: "Waaagh", Army: "orcs", Points: 1000})
	require.NoError(t, err)

	s2 := NewStorage(testDatasets(t), testEnums())
	s2.Persist = store
	require.NoError(t, s2.LoadPersisted(ctx))

	giant, ok := s2.Get("orcs", dataset.Rare, "giant")
	require.True(t, ok)
	assert.Equal(t, 205, giant.Unit.Points)

	boyz, ok := s2.Get("orcs", dataset.Core, "orc-boyz")
	require.True(t, ok)
	assert.Equal(t, 7, boyz.Unit.Points)
	assert.EqualValues(t, 2, boyz.Version)

	_, ok = s2.Get("orcs", dataset.Core, "black-orcs")
	assert.False(t, ok)
	restored, err := s2.Restore(ctx, "orcs", dataset.Core, "black-orcs")
	require.NoError(t, err)
	assert.EqualValues(t, 3, restored.Version)

	got, ok := s2.GetList(l.List.ID)
	require.True(t, ok)
	assert.Equal(t, "Waaagh", got.List.Name)

	require.NoError(t, s2.DeleteList(ctx, l.List.ID))
	s3 := NewStorage(testDatasets(t), testEnums())
	s3.Persist = store
	require.NoError(t, s3.LoadPersisted(ctx))
	_, ok = s3.GetList(l.List.ID)
	assert.False(t, ok)
}

type failingStore struct{ docstore.Store }

func (failingStore) Put(context.Context, docstore.Document) error { return errors.New("disk full") }

func TestStorageKeepsStateWhenPersistFails(t *testing.T) {
	s := NewStorage(testDatasets(t), testEnums())
	s.Persist = failingStore{}

	_, err := s.Create(context.Background(), "orcs", dataset.Rare, dataset.Unit{ID: "giant", NameEn: "Giant", Points: 205})
	require.Error(t, err)
	assert.False(t, s.Exists("orcs", dataset.Rare, "giant", ""))

	_, err = s.Update(context.Background(), "orcs", dataset.Core, "orc-boyz", dataset.Unit{NameEn: "x", Points: 1}, 1, true)
	require.Error(t, err)
	boyz, _ := s.Get("orcs", dataset.Core, "orc-boyz")
	assert.Equal(t, 6, boyz.Unit.Points)
}

func TestStorageVersionConflict(t *testing.T) {
	s := NewStorage(testDatasets(t), testEnums())
	_, err := s.Update(context.Background(), "orcs", dataset.Core, "orc-boyz", dataset.Unit{NameEn: "x", Points: 1}, 5, true)
	var vc *VersionConflictError
	require.ErrorAs(t, err, &vc)
	assert.EqualValues(t, 1, vc.Current)

	_, err = s.Update(context.Background(), "orcs", dataset.Core, "ghost", dataset.Unit{}, 1, true)
	assert.ErrorIs(t, err, ErrRecordNotFound)
	_, err = s.Create(context.Background(), "dwarfs", dataset.Core, dataset.Unit{ID: "x"})
	assert.ErrorIs(t, err, ErrArmyNotFound)
}

func TestStorageListsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStorage(testDatasets(t), testEnums())
	in := armylist.List{Name: "Waaagh", Army: "orcs", Points: 1000, Units: []armylist.ListUnit{
		{Category: dataset.Core, UnitID: "black-orcs", Strength: 10, Command: []int{0}, CommandMagic: map[int]int{0: 25}},
	}}
	rec, err := s.CreateList(ctx, in)
	require.NoError(t, err)
	in.Units[0].Strength = 99
	in.Units[0].CommandMagic[0] = 1

	got, ok := s.GetList(rec.List.ID)
	require.True(t, ok)
	got.List.Units[0].Strength = 50
	got.List.Units[0].Command[0] = 3
	got.List.Units[0].CommandMagic[0] = 100
	got.List.Units = append(got.List.Units, armylist.ListUnit{UnitID: "orc-boyz"})

	again, ok := s.GetList(rec.List.ID)
	require.True(t, ok)
	require.Len(t, again.List.Units, 1)
	assert.Equal(t, 10, again.List.Units[0].Strength)
	assert.Equal(t, []int{0}, again.List.Units[0].Command)
	assert.Equal(t, map[int]int{0: 25}, again.List.Units[0].CommandMagic)
}
