package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/gopasspw/gopass/pkg/appdir"
	"github.com/gopasspw/gopass/pkg/debug"
	"github.com/gopasspw/zypprepo"
	"github.com/gopasspw/zypprepo/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	appName   = "zypprepo"
	envPrefix = "ZYPPREPO"
)

// Config holds all settings of the command.
type Config struct {
	// ZyppConf is the zypper config that may set reposdir.
	ZyppConf string `mapstructure:"zypp_conf" default:"/etc/zypp/zypp.conf"`
	// ReposDirs are the repo directories used when zypp.conf does not set reposdir.
	ReposDirs []string `mapstructure:"reposdir" default:"/etc/zypp/repos.d"`
	// FallbackDir receives new repo files when no repo directory exists.
	FallbackDir string `mapstructure:"fallback_dir" default:"/etc/zypp/repos.d"`
	// FilePattern selects repo files inside a repo directory.
	FilePattern string `mapstructure:"file_pattern" default:"*.repo"`
	// Log holds the logger settings.
	Log logger.Config `mapstructure:"log"`
}

// DefaultFile returns the location of the per-user settings file.
func DefaultFile() string {
	return filepath.Join(appdir.New(appName).UserConfig(), "config.yaml")
}

// New returns a viper instance with all defaults registered and environment
// lookups enabled.
func New() *viper.Viper {
	v := viper.New()

	bindValues(v, Config{}, "")

	// ZYPPREPO_LOG_LEVEL -> log.level
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the settings file at path, or DefaultFile if path is empty, from fs and
// resolves all settings.
func Load(v *viper.Viper, fs afero.Fs, path string) (*Config, error) {
	if path == "" {
		path = DefaultFile()
	}

	v.SetFs(fs)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read settings from %s: %w", path, err)
		}
		debug.V(1).Log("no settings file at %s", path)
	}

	if err := loadDotEnv(v, fs, filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}

	return &cfg, nil
}

// Store returns a repo store configured from the settings.
func (c *Config) Store(fs afero.Fs, log *zap.Logger) *zypprepo.Store {
	s := zypprepo.New()
	s.Fs = fs
	s.Logger = log
	if c.ZyppConf != "" {
		s.ConfigFile = c.ZyppConf
	}
	if len(c.ReposDirs) > 0 {
		s.DefaultDirs = c.ReposDirs
	}
	if c.FallbackDir != "" {
		s.FallbackDir = c.FallbackDir
	}
	if c.FilePattern != "" {
		s.FilePattern = c.FilePattern
	}

	return s
}

// loadDotEnv uses the ZYPPREPO_ variables of a .env file as defaults. The process
// environment is not modified.
func loadDotEnv(v *viper.Viper, fs afero.Fs, fn string) error {
	fh, err := fs.Open(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("failed to open %s: %w", fn, err)
	}
	defer func() {
		_ = fh.Close()
	}()

	vars, err := godotenv.Parse(fh)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", fn, err)
	}

	for _, key := range v.AllKeys() {
		if val, found := vars[envName(key)]; found {
			debug.V(1).Log("using %s from %s", envName(key), fn)
			v.SetDefault(key, val)
		}
	}

	return nil
}

func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// bindValues registers the default tag of every field so AutomaticEnv can find
// each key.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := range t.NumField() {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)

			continue
		}

		v.SetDefault(key, field.Tag.Get("default"))
	}
}
