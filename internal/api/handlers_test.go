package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"armybuilder/internal/blob"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetCRUD(t *testing.T) {
	cl := newClient(t, newTestServer(t))

	w := cl.do(http.MethodPost, "/api/datasets/orcs/special", map[string]any{
		"name_en": "Orc Boar Boyz", "name_de": "Ork-Eberreiter", "points": 16, "minimum": 5,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[unitView](t, w)
	assert.Equal(t, "orc-boar-boyz", created.ID)
	assert.EqualValues(t, 1, created.Version)
	// absent collections come from the defaults
	assert.NotNil(t, created.Command)
	assert.Equal(t, "special", string(created.Category))

	w = cl.do(http.MethodGet, "/api/datasets/orcs/special/orc-boar-boyz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `"1"`, w.Header().Get("ETag"))

	// stale version
	w = cl.do(http.MethodPut, "/api/datasets/orcs/special/orc-boar-boyz", map[string]any{
		"name_en": "Orc Boar Boyz", "name_de": "Ork-Eberreiter", "points": 18, "version": 7,
	})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, ErrVersionConflict, codes(t, w)["version"])

	w = cl.do(http.MethodPut, "/api/datasets/orcs/special/orc-boar-boyz", map[string]any{
		"name_en": "Orc Boar Boyz", "name_de": "Ork-Eberreiter", "points": 18,
	}, "If-Match", `"1"`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[unitView](t, w)
	assert.Equal(t, 18, updated.Points)
	assert.EqualValues(t, 2, updated.Version)
	// replace, not patch: minimum falls back to the default
	assert.Equal(t, 0, updated.Minimum)

	w = cl.do(http.MethodPut, "/api/datasets/orcs/special/orc-boar-boyz", map[string]any{
		"id": "other", "name_en": "Orc Boar Boyz", "version": 2,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ErrReadOnly, codes(t, w)["id"])

	w = cl.do(http.MethodDelete, "/api/datasets/orcs/special/orc-boar-boyz", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = cl.do(http.MethodGet, "/api/datasets/orcs/special/orc-boar-boyz", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	w = cl.do(http.MethodDelete, "/api/datasets/orcs/special/orc-boar-boyz", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = cl.do(http.MethodPost, "/api/datasets/orcs/special/orc-boar-boyz/restore", nil)
	require.Equal(t, http.StatusOK, w.Code)
	restored := decode[unitView](t, w)
	assert.EqualValues(t, 4, restored.Version)
}

func TestCreateDerivesIDFromName(t *testing.T) {
	cl := newClient(t, newTestServer(t))

	for name, id := range map[string]string{
		"Black Orcs ":         "black-orcs-",
		"Grimgor's Immortulz": "grimgor's-immortulz",
		"Orc  Boyz":           "orc--boyz",
		"Night Goblins 2":     "night-goblins-2",
	} {
		w := cl.do(http.MethodPost, "/api/datasets/orcs/core", map[string]any{
			"name_en": name, "name_de": name, "points": 5,
		})
		require.Equal(t, http.StatusCreated, w.Code, "%q: %s", name, w.Body.String())
		assert.Equal(t, id, decode[unitView](t, w).ID, name)
	}

	// a supplied id matching the derived one is accepted
	w := cl.do(http.MethodPost, "/api/datasets/orcs/core", map[string]any{
		"name_en": "Savage Orcs", "name_de": "Wilde Orks", "id": "savage-orcs", "points": 8,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = cl.do(http.MethodPost, "/api/datasets/orcs/core", map[string]any{
		"name_en": "Savage Boyz", "name_de": "Wilde Boyz", "id": "zzz", "points": 8,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ErrReadOnly, codes(t, w)["id"])
	w = cl.do(http.MethodGet, "/api/datasets/orcs/core/zzz", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateValidation(t *testing.T) {
	cl := newClient(t, newTestServer(t))

	w := cl.do(http.MethodPost, "/api/datasets/orcs/core", map[string]any{"points": 0})
	require.Equal(t, http.StatusBadRequest, w.Code)
	got := codes(t, w)
	assert.Equal(t, ErrRequired, got["name_en"])
	assert.Equal(t, ErrRequired, got["name_de"])
	assert.Equal(t, ErrRequired, got["id"])
	assert.Equal(t, ErrOutOfRange, got["points"])

	w = cl.do(http.MethodPost, "/api/datasets/orcs/core", map[string]any{"name_en": "Black Orcs"})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, ErrUniqueViolation, codes(t, w)["id"])

	w = cl.do(http.MethodPost, "/api/datasets/orcs/characters", map[string]any{"name_en": "Orc Big Boss", "minimum": 2})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ErrFieldUnavailable, codes(t, w)["minimum"])

	w = cl.do(http.MethodPost, "/api/datasets/orcs/core", map[string]any{"name_en": "Orc Arrer Boyz", "points": "lots"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ErrTypeMismatch, codes(t, w)["points"])

	w = cl.do(http.MethodPost, "/api/datasets/orcs/core", map[string]any{"name_en": "Boyz", "name_de": "Boyz", "id": "zzz"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ErrReadOnly, codes(t, w)["id"])

	w = cl.do(http.MethodPost, "/api/datasets/orcs/core", map[string]any{
		"name_en": "Night Goblins",
		"command": []map[string]any{{"name_en": "Boss", "points": 0, "magic": map[string]any{"types": []string{"scroll"}}}},
		"mounts":  []map[string]any{{"name_en": "Wolf", "name_de": "Wolf"}},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	got = codes(t, w)
	assert.Equal(t, ErrRequired, got["name_de"])
	assert.Equal(t, ErrOutOfRange, got["command[0].points"])
	assert.Equal(t, ErrEnumInvalid, got["command[0].magic.types"])
	assert.Equal(t, ErrRequired, got["command[0].name_de"])
	assert.NotContains(t, got, "mounts[0].name_de")

	w = cl.do(http.MethodPost, "/api/datasets/dwarfs/core", map[string]any{"name_en": "Warriors"})
	require.Equal(t, http.StatusNotFound, w.Code)
	w = cl.do(http.MethodPost, "/api/datasets/orcs/heroes", map[string]any{"name_en": "Warriors"})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListQuery(t *testing.T) {
	cl := newClient(t, newTestServer(t))

	w := cl.do(http.MethodGet, "/api/datasets/orcs/core?_sort=-points", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-Total-Count"))
	units := decode[[]unitView](t, w)
	require.Len(t, units, 2)
	assert.Equal(t, "black-orcs", units[0].ID)

	w = cl.do(http.MethodGet, "/api/datasets/orcs/core?_sort=points&_limit=1", nil)
	units = decode[[]unitView](t, w)
	require.Len(t, units, 1)
	assert.Equal(t, "orc-boyz", units[0].ID)
	assert.Equal(t, "2", w.Header().Get("X-Total-Count"))

	w = cl.do(http.MethodGet, "/api/datasets/ORCS/core?q=schwarz", nil)
	units = decode[[]unitView](t, w)
	require.Len(t, units, 1)
	assert.Equal(t, "black-orcs", units[0].ID)

	w = cl.do(http.MethodGet, "/api/datasets/orcs/core?points=6", nil)
	units = decode[[]unitView](t, w)
	require.Len(t, units, 1)
	assert.Equal(t, "orc-boyz", units[0].ID)
}

func TestLocalizedNames(t *testing.T) {
	cl := newClient(t, newTestServer(t))

	w := cl.do(http.MethodGet, "/api/datasets/orcs/core?lang=de", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "de", w.Header().Get("Content-Language"))
	assert.Contains(t, w.Header().Get("Set-Cookie"), "lang=de")
	units := decode[[]unitView](t, w)
	assert.Equal(t, "Schwarzorks", units[0].Name)
	assert.Equal(t, "Ork-Boyz", units[1].Name)

	// no French names are kept: English is shown
	w = cl.do(http.MethodGet, "/api/datasets/orcs/core", nil, "Accept-Language", "fr-FR,fr;q=0.9")
	assert.Equal(t, "fr", w.Header().Get("Content-Language"))
	assert.Empty(t, w.Header().Get("Set-Cookie"))
	units = decode[[]unitView](t, w)
	assert.Equal(t, "Orc Boyz", units[1].Name)
}

func TestDatasetsSummary(t *testing.T) {
	cl := newClient(t, newTestServer(t))
	w := cl.do(http.MethodGet, "/api/datasets", nil)
	require.Equal(t, http.StatusOK, w.Code)
	sums := decode[[]ArmySummary](t, w)
	require.Len(t, sums, 1)
	assert.Equal(t, "orcs", sums[0].Army)
	assert.Equal(t, 3, sums[0].Total)
	assert.Equal(t, 2, sums[0].Units["core"])
}

func TestMetaEndpoints(t *testing.T) {
	cl := newClient(t, newTestServer(t))

	w := cl.do(http.MethodGet, "/api/meta/locale?lang=de", nil)
	require.Equal(t, http.StatusOK, w.Code)
	loc := decode[struct {
		Lang        string            `json:"lang"`
		Description string            `json:"description"`
		Messages    map[string]string `json:"messages"`
	}](t, w)
	assert.Equal(t, "de", loc.Lang)
	assert.Contains(t, loc.Description, "Armeebauer")
	assert.Equal(t, "Einheit hinzufügen", loc.Messages["unit.add"])

	w = cl.do(http.MethodGet, "/api/meta/categories?lang=de", nil)
	cats := decode[[]metaCategory](t, w)
	require.Len(t, cats, 6)
	assert.Equal(t, "Charaktere", cats[0].Label)
	assert.True(t, cats[0].Character)
	assert.Contains(t, cats[0].Editable, "magic")
	assert.Contains(t, cats[1].Editable, "command")

	w = cl.do(http.MethodGet, "/api/meta/magic-items?lang=de", nil)
	items := decode[[]metaMagicItem](t, w)
	require.NotEmpty(t, items)
	assert.Equal(t, "weapon", items[0].Code)
	assert.Equal(t, "Magische Waffen", items[0].Label)

	w = cl.do(http.MethodGet, "/api/meta/catalogs/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportWritesBlob(t *testing.T) {
	srv := newTestServer(t)
	root := t.TempDir()
	srv.Blob = &blob.Local{Root: root}
	cl := newClient(t, srv)

	w := cl.do(http.MethodPost, "/api/datasets/orcs/_export", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	out := decode[struct {
		Army  string    `json:"army"`
		Units int       `json:"units"`
		Blob  blob.Info `json:"blob"`
	}](t, w)
	assert.Equal(t, 3, out.Units)
	assert.True(t, strings.HasPrefix(out.Blob.Key, "exports/orcs/"))

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(out.Blob.Key)))
	require.NoError(t, err)
	assert.Contains(t, string(data), "black-orcs")

	w = cl.do(http.MethodPost, "/api/datasets/dwarfs/_export", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminReload(t *testing.T) {
	srv := newTestServer(t)
	dir := t.TempDir()
	enums := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dwarfs.yaml"), []byte(`
army: dwarfs
core:
  - name_en: Dwarf Warriors
    name_de: Zwergenkrieger
    id: dwarf-warriors
    points: 9
    minimum: 10
`), 0o644))
	srv.DatasetsDir, srv.EnumsDir = dir, enums
	cl := newClient(t, srv)

	w := cl.do(http.MethodPost, "/api/admin/reload", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = cl.do(http.MethodGet, "/api/datasets/dwarfs/core/dwarf-warriors", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = cl.do(http.MethodGet, "/api/datasets/orcs/core", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte(`
army: broken
core:
  - name_en: Nameless
    id: nameless
    points: 0
`), 0o644))
	w = cl.do(http.MethodPost, "/api/admin/reload", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), ErrOutOfRange)
	assert.Contains(t, w.Body.String(), `"field":"name_de"`)
}

func TestMetricsEndpoint(t *testing.T) {
	cl := newClient(t, newTestServer(t))
	cl.do(http.MethodGet, "/api/datasets", nil)

	w := cl.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "armybuilder_http_requests_total")
}

func TestLintDatasets(t *testing.T) {
	ds := testDatasets(t)
	assert.Empty(t, LintDatasets(ds))

	orcs := ds["orcs"]
	orcs.Units["core"] = append(orcs.Units["core"], orcs.Units["core"][0])
	issues := LintDatasets(ds)
	require.Len(t, issues, 1)
	assert.Equal(t, ErrUniqueViolation, issues[0].Code)
	assert.Equal(t, "black-orcs", issues[0].Unit)
}
