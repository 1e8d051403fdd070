package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := Load(flags(t))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoadLayers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"port": "9000",
		"dbDriver": "sqlite",
		"sqlitePath": "/tmp/a.db",
		"defaultLang": "de",
		"sessionTtl": "5m"
	}`), 0o644))

	t.Setenv("ARMYBUILDER_PORT", "9100")
	t.Setenv("ARMYBUILDER_LOG_LEVEL", "debug")

	cfg, err := Load(flags(t, "--config", path, "--port", "9200", "--auto-migrate"))
	require.NoError(t, err)
	assert.Equal(t, "9200", cfg.Port)
	assert.Equal(t, DBSQLite, cfg.DBDriver)
	assert.Equal(t, "/tmp/a.db", cfg.SQLitePath)
	assert.Equal(t, "de", cfg.DefaultLang)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5*time.Minute, cfg.SessionTTL)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, "datasets", cfg.DatasetsDir)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(flags(t, "--config", filepath.Join(t.TempDir(), "nope.json")))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.DBDriver = DBPostgres
	cfg.BlobDriver = BlobS3
	cfg.SessionTTL = -time.Second
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dbUrl")
	assert.Contains(t, err.Error(), "s3Bucket")
	assert.Contains(t, err.Error(), "sessionTtl")

	cfg = Default()
	cfg.DBDriver = "mongo"
	assert.ErrorContains(t, cfg.Validate(), `unknown db driver "mongo"`)
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
