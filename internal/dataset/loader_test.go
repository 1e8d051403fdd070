package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsPerField(t *testing.T) {
	ds, err := Load(filepath.Join("testdata", "orcs.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "orc-and-goblin-tribes", ds.Army)
	assert.Equal(t, 2, ds.Count())

	boss := ds.Units[Characters][0]
	assert.Equal(t, 85, boss.Points)
	assert.Equal(t, []string{"weapon", "armor", "talisman", "enchanted-item"}, boss.Magic.Types)
	assert.NotNil(t, boss.Command)

	orcs := ds.Units[Core][0]
	assert.Equal(t, "", orcs.NameDe)
	assert.Equal(t, 10, orcs.Minimum)
	assert.Equal(t, 0, orcs.Maximum)
	require.Len(t, orcs.Command, 1)
	assert.Equal(t, 25, orcs.Command[0].Magic.MaxPoints)
	assert.Equal(t, 0, orcs.Equipment[0].Points, "explicit zero wins over the default")
	// nested entries are replaced wholesale, so missing fields stay zero
	assert.False(t, orcs.Options[0].Stackable)
	assert.NotNil(t, orcs.Mounts)
}

func TestLoadArmyFallsBackToFileName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dwarfen-mountain-holds.yml")
	require.NoError(t, os.WriteFile(path, []byte("core:\n  - name_en: Warriors\n    id: warriors\n"), 0o644))

	ds, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "dwarfen-mountain-holds", ds.Army)
	assert.Equal(t, 1, ds.Units[Core][0].Points)
}

func TestLoadAllRejectsDuplicateArmies(t *testing.T) {
	dir := t.TempDir()
	body := []byte("army: empire\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), body, 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "old"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old", "b.yaml"), body, 0o644))

	_, err := LoadAll(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate army")
}

func TestLoadAllWrapsParseErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("core: [\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	_, err := LoadAll(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yaml")
}

func TestMarshalRoundTripsThroughParse(t *testing.T) {
	ds, err := Load(filepath.Join("testdata", "orcs.yaml"))
	require.NoError(t, err)

	out, err := Marshal(ds)
	require.NoError(t, err)
	back, err := Parse(out)
	require.NoError(t, err)

	assert.Equal(t, ds.Army, back.Army)
	assert.Equal(t, ds.Units[Core], back.Units[Core])
	assert.Equal(t, ds.Units[Characters], back.Units[Characters])
}

func TestMergeIsShallow(t *testing.T) {
	points := 0
	types := MagicProfile{Types: []string{"banner"}}
	got := Merge(DefaultUnit(), &Overrides{Points: &points, Magic: &types})

	assert.Equal(t, 0, got.Points)
	assert.Equal(t, 0, got.Magic.MaxPoints)
	assert.Equal(t, []string{"banner"}, got.Magic.Types)

	types.Types[0] = "weapon"
	assert.Equal(t, []string{"banner"}, got.Magic.Types, "merge result must not alias overrides")

	assert.Equal(t, DefaultUnit(), Merge(DefaultUnit(), nil))
}

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory("Characters")
	assert.True(t, ok)
	assert.True(t, c.IsCharacter())

	c, ok = ParseCategory("rare")
	assert.True(t, ok)
	assert.False(t, c.IsCharacter())

	_, ok = ParseCategory("lords")
	assert.False(t, ok)
}

func TestLocalizedName(t *testing.T) {
	u := Unit{NameEn: "Goblins", NameDe: "Goblins (de)"}
	assert.Equal(t, "Goblins (de)", u.LocalizedName("de"))
	assert.Equal(t, "Goblins", u.LocalizedName("fr"))
	assert.Equal(t, "Goblins", Unit{NameEn: "Goblins"}.LocalizedName("de"))
}
