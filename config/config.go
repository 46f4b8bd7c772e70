// Package config loads packtrack's configuration from an optional YAML file
// and PACKTRACK_* environment variables.
package config

import (
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	// EnvPrefix prefixes every environment variable read by Load.
	EnvPrefix = "PACKTRACK_"
	// DefaultFile is read when no config path is given and it exists.
	DefaultFile = "packtrack.yaml"
)

type Config struct {
	Env struct {
		Log Log `yaml:"log"`
	} `yaml:"env"`

	HTTP struct {
		Addr           string `yaml:"addr"`
		MaxUploadBytes int64  `yaml:"maxUploadBytes"`
		Timeouts       struct {
			ReadTimeout       time.Duration `yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `yaml:"writeTimeout"`
			IdleTimeout       time.Duration `yaml:"idleTimeout"`
			ShutdownTimeout   time.Duration `yaml:"shutdownTimeout"`
		} `yaml:"timeouts"`
	} `yaml:"http"`

	Database struct {
		Driver       string `yaml:"driver"`
		DSN          string `yaml:"dsn"`
		MaxOpenConns int    `yaml:"maxOpenConns"`
		MaxIdleConns int    `yaml:"maxIdleConns"`
	} `yaml:"database"`

	Lifecycle struct {
		IDRetries int `yaml:"idRetries"`
	} `yaml:"lifecycle"`

	Images struct {
		MaxDimension int `yaml:"maxDimension"`
		JPEGQuality  int `yaml:"jpegQuality"`
	} `yaml:"images"`

	Admin struct {
		Email string `yaml:"email"`
	} `yaml:"admin"`
}

type Log struct {
	Pretty bool   `yaml:"pretty"`
	Level  string `yaml:"level"`
	File   string `yaml:"file"`
}

// Default returns the configuration used for keys that are not set.
func Default() *Config {
	cfg := &Config{}
	cfg.Env.Log.Level = "info"
	cfg.Env.Log.Pretty = true

	cfg.HTTP.Addr = ":8080"
	cfg.HTTP.MaxUploadBytes = 32 << 20
	cfg.HTTP.Timeouts.ReadTimeout = 30 * time.Second
	cfg.HTTP.Timeouts.ReadHeaderTimeout = 10 * time.Second
	cfg.HTTP.Timeouts.WriteTimeout = 60 * time.Second
	cfg.HTTP.Timeouts.IdleTimeout = 120 * time.Second
	cfg.HTTP.Timeouts.ShutdownTimeout = 10 * time.Second

	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = "packtrack.db"
	cfg.Database.MaxOpenConns = 10
	cfg.Database.MaxIdleConns = 5

	cfg.Lifecycle.IDRetries = 5

	cfg.Images.MaxDimension = 1024
	cfg.Images.JPEGQuality = 85

	cfg.Admin.Email = "admin@packtrack.local"
	return cfg
}

// Load reads the YAML file at path over the defaults, then applies
// PACKTRACK_* environment variables. An empty path reads DefaultFile if it
// exists; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "read config %s failed", path)
		}
	}

	existing := k.Raw()
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.TrimPrefix(key, EnvPrefix)
			return canonicalizeEnvKey(key, existing), value
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrap(err, "unmarshal config failed")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return errors.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	if c.Images.JPEGQuality < 1 || c.Images.JPEGQuality > 100 {
		return errors.Errorf("images.jpegQuality must be between 1 and 100, got %d", c.Images.JPEGQuality)
	}
	if c.Images.MaxDimension <= 0 {
		return errors.Errorf("images.maxDimension must be positive, got %d", c.Images.MaxDimension)
	}
	return nil
}

// SlogLevel converts the configured level name to a slog.Level.
func (l Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// canonicalizeEnvKey turns DATABASE_MAXOPENCONNS into database.maxOpenConns
// when the file already used that spelling, so both sources land on one key.
func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}
		child, _ := value.(map[string]any)
		return key, child, true
	}
	return "", nil, false
}

func normalizeToken(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
