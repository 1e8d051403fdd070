package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/pflag"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "ARMYBUILDER_"

// Storage drivers.
const (
	DBMemory   = "memory"
	DBPostgres = "postgres"
	DBSQLite   = "sqlite"
)

// Blob drivers.
const (
	BlobLocal = "local"
	BlobS3    = "s3"
)

type Config struct {
	Port        string `json:"port" env:"PORT"`
	DatasetsDir string `json:"datasetsDir" env:"DATASETS_DIR"`
	EnumsDir    string `json:"enumsDir" env:"ENUMS_DIR"`

	// Persistence of edits and army lists. memory keeps nothing across restarts.
	DBDriver    string `json:"dbDriver" env:"DB_DRIVER"`
	DBURL       string `json:"dbUrl" env:"DB_URL"`
	SQLitePath  string `json:"sqlitePath" env:"SQLITE_PATH"`
	AutoMigrate bool   `json:"autoMigrate" env:"AUTO_MIGRATE"`

	// Dataset exports.
	BlobDriver string `json:"blobDriver" env:"BLOB_DRIVER"`
	FilesRoot  string `json:"filesRoot" env:"FILES_ROOT"`

	S3Region    string `json:"s3Region" env:"S3_REGION"`
	S3Bucket    string `json:"s3Bucket" env:"S3_BUCKET"`
	S3Prefix    string `json:"s3Prefix" env:"S3_PREFIX"`
	S3Endpoint  string `json:"s3Endpoint" env:"S3_ENDPOINT"` // MinIO and friends
	S3PathStyle bool   `json:"s3PathStyle" env:"S3_PATH_STYLE"`

	DefaultLang string        `json:"defaultLang" env:"DEFAULT_LANG"`
	LogLevel    string        `json:"logLevel" env:"LOG_LEVEL"`
	SessionTTL  time.Duration `json:"sessionTtl" env:"SESSION_TTL"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:        "8080",
		DatasetsDir: "datasets",
		EnumsDir:    "reference/enums",
		DBDriver:    DBMemory,
		SQLitePath:  "armybuilder.db",
		BlobDriver:  BlobLocal,
		FilesRoot:   "uploads",
		DefaultLang: "en",
		LogLevel:    "info",
		SessionTTL:  30 * time.Minute,
	}
}

// UnmarshalJSON accepts sessionTtl as a duration string ("15m").
func (c *Config) UnmarshalJSON(b []byte) error {
	type plain Config
	aux := struct {
		*plain
		SessionTTL any `json:"sessionTtl"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	switch v := aux.SessionTTL.(type) {
	case nil:
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("sessionTtl: %w", err)
		}
		c.SessionTTL = d
	case float64:
		c.SessionTTL = time.Duration(v) * time.Second
	default:
		return fmt.Errorf("sessionTtl: unexpected %T", v)
	}
	return nil
}

// AddFlags registers the command-line overrides on fs.
func AddFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("config", "config.json", "Path to config JSON")
	fs.String("port", d.Port, "HTTP port")
	fs.String("datasets", d.DatasetsDir, "Path to the dataset directory")
	fs.String("enums", d.EnumsDir, "Path to the enum catalog directory")
	fs.String("db-driver", d.DBDriver, "Persistence driver (memory/postgres/sqlite)")
	fs.String("db", d.DBURL, "Postgres URL")
	fs.String("sqlite-path", d.SQLitePath, "SQLite database file")
	fs.Bool("auto-migrate", d.AutoMigrate, "Apply the schema on start")
	fs.String("blob-driver", d.BlobDriver, "Blob driver (local/s3)")
	fs.String("files-root", d.FilesRoot, "Local files root (if blob=local)")
	fs.String("s3-region", d.S3Region, "S3 region")
	fs.String("s3-bucket", d.S3Bucket, "S3 bucket")
	fs.String("s3-prefix", d.S3Prefix, "S3 key prefix")
	fs.String("s3-endpoint", d.S3Endpoint, "S3 custom endpoint")
	fs.Bool("s3-path-style", d.S3PathStyle, "Use path-style S3 addressing")
	fs.String("lang", d.DefaultLang, "Default interface language")
	fs.String("log-level", d.LogLevel, "Log level (debug/info/warn/error)")
	fs.Duration("session-ttl", d.SessionTTL, "Idle editor session lifetime (0 = never expire)")
}

// Load layers defaults, the JSON file, ARMYBUILDER_* variables and the flags
// set explicitly on fs. A missing file at the default path is not an error.
func Load(fs *pflag.FlagSet) (Config, error) {
	cfg := Default()

	path := "config.json"
	explicit := false
	if fs != nil {
		if f := fs.Lookup("config"); f != nil {
			path = f.Value.String()
			explicit = f.Changed
		}
	}
	if err := loadJSON(path, &cfg); err != nil {
		if !errors.Is(err, os.ErrNotExist) || explicit {
			return cfg, err
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	if fs != nil {
		if err := applyFlags(fs, &cfg); err != nil {
			return cfg, err
		}
	}
	return cfg, cfg.Validate()
}

func loadJSON(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func applyFlags(fs *pflag.FlagSet, cfg *Config) error {
	strs := map[string]*string{
		"port":        &cfg.Port,
		"datasets":    &cfg.DatasetsDir,
		"enums":       &cfg.EnumsDir,
		"db-driver":   &cfg.DBDriver,
		"db":          &cfg.DBURL,
		"sqlite-path": &cfg.SQLitePath,
		"blob-driver": &cfg.BlobDriver,
		"files-root":  &cfg.FilesRoot,
		"s3-region":   &cfg.S3Region,
		"s3-bucket":   &cfg.S3Bucket,
		"s3-prefix":   &cfg.S3Prefix,
		"s3-endpoint": &cfg.S3Endpoint,
		"lang":        &cfg.DefaultLang,
		"log-level":   &cfg.LogLevel,
	}
	for name, dst := range strs {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*dst = strings.TrimSpace(v)
	}
	bools := map[string]*bool{
		"auto-migrate":  &cfg.AutoMigrate,
		"s3-path-style": &cfg.S3PathStyle,
	}
	for name, dst := range bools {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetBool(name)
		if err != nil {
			return err
		}
		*dst = v
	}
	if fs.Changed("session-ttl") {
		v, err := fs.GetDuration("session-ttl")
		if err != nil {
			return err
		}
		cfg.SessionTTL = v
	}
	return nil
}

// Validate rejects combinations the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	switch c.DBDriver {
	case DBMemory:
	case DBPostgres:
		if c.DBURL == "" {
			errs = append(errs, errors.New("db driver postgres needs dbUrl"))
		}
	case DBSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("db driver sqlite needs sqlitePath"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown db driver %q", c.DBDriver))
	}
	switch c.BlobDriver {
	case BlobLocal:
		if c.FilesRoot == "" {
			errs = append(errs, errors.New("blob driver local needs filesRoot"))
		}
	case BlobS3:
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("blob driver s3 needs s3Bucket"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown blob driver %q", c.BlobDriver))
	}
	if c.SessionTTL < 0 {
		errs = append(errs, errors.New("sessionTtl must not be negative"))
	}
	return errors.Join(errs...)
}

// Addr is the listen address for Port.
func (c Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}
