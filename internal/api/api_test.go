package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"armybuilder/internal/dataset"
	"armybuilder/internal/i18n"
	"armybuilder/internal/reference"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

const orcsYAML = `
army: orcs
name_en: Orcs
name_de: Orks
characters:
  - name_en: Orc Warboss
    name_de: Ork-Waaaghboss
    id: orc-warboss
    points: 85
    magic:
      types: [weapon]
      maxPoints: 100
    mounts:
      - name_en: On foot
        name_de: Zu Fuß
        points: 0
        active: true
      - name_en: War boar
        name_de: Kriegseber
        points: 16
core:
  - name_en: Black Orcs
    name_de: Schwarzorks
    id: black-orcs
    points: 13
    minimum: 10
    command:
      - name_en: Boss
        name_de: Boss
        points: 7
        magic:
          types: [weapon]
          maxPoints: 25
  - name_en: Orc Boyz
    name_de: Ork-Boyz
    id: orc-boyz
    points: 6
    minimum: 10
`

func testDatasets(t *testing.T) map[string]*dataset.Dataset {
	t.Helper()
	ds, err := dataset.Parse([]byte(orcsYAML))
	require.NoError(t, err)
	return map[string]*dataset.Dataset{ds.Army: ds}
}

func testEnums() map[string]reference.EnumDirectory {
	return map[string]reference.EnumDirectory{
		reference.MagicItemsCatalog: {Name: reference.MagicItemsCatalog, Items: []reference.EnumItem{
			{Code: "weapon", NameEn: "Magic weapons", NameDe: "Magische Waffen", Order: 1},
		}},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	bundle, err := i18n.LoadEmbedded()
	require.NoError(t, err)
	return &Server{
		Storage:     NewStorage(testDatasets(t), testEnums()),
		Sessions:    NewSessions(0),
		Bundle:      bundle,
		Metrics:     NewMetrics(),
		DefaultLang: "en",
	}
}

type client struct {
	t *testing.T
	r *gin.Engine
}

func newClient(t *testing.T, srv *Server) *client {
	return &client{t: t, r: NewRouter(srv)}
}

func (cl *client) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	cl.t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(cl.t, err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	cl.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type errorsBody struct {
	Errors []FieldError `json:"errors"`
}

func codes(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	out := map[string]string{}
	for _, fe := range decode[errorsBody](t, w).Errors {
		out[fe.Field] = fe.Code
	}
	return out
}
