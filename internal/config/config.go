// Package config loads prefs settings.
//
// Precedence, lowest to highest: built-in defaults, the TOML config file,
// a .env file, the process environment, command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendDynamo = "dynamo"
)

const (
	defaultBackend      = BackendSQLite
	defaultLogLevel     = "warn"
	defaultLogFormat    = "text"
	defaultLogMaxSizeMB = 10
	defaultLogMaxFiles  = 5
	defaultDynamoTable  = "prefs"
	defaultDotEnvFile   = ".env"
)

var ErrInvalidConfig = errors.New("invalid config")

var (
	validBackends  = []string{BackendMemory, BackendSQLite, BackendFile, BackendDynamo}
	validLogLevels = []string{"debug", "info", "warn", "error"}
	validFormats   = []string{"text", "json"}
)

type Config struct {
	Store    StoreConfig    `toml:"store"`
	Logging  LoggingConfig  `toml:"logging"`
	Manifest ManifestConfig `toml:"manifest"`
}

type StoreConfig struct {
	Backend string       `toml:"backend"`
	Path    string       `toml:"path"`
	Dynamo  DynamoConfig `toml:"dynamo"`
}

type DynamoConfig struct {
	Table     string `toml:"table"`
	Region    string `toml:"region"`
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
}

type LoggingConfig struct {
	Level     string `toml:"level"`
	Format    string `toml:"format"`
	File      string `toml:"file"`
	MaxSizeMB int    `toml:"max_size_mb"`
	MaxFiles  int    `toml:"max_files"`
}

type ManifestConfig struct {
	Path string `toml:"path"`
}

type LoadOptions struct {
	ConfigPath string
	// DotEnvPath defaults to ".env" in the working directory. A missing file
	// is ignored.
	DotEnvPath string
	// Env is consulted before the process environment.
	Env   map[string]string
	Flags FlagOverrides
}

type FlagOverrides struct {
	Backend   *string
	StorePath *string
	LogLevel  *string
}

func DefaultConfig() Config {
	return Config{
		Store: StoreConfig{
			Backend: defaultBackend,
			Dynamo: DynamoConfig{
				Table: defaultDynamoTable,
			},
		},
		Logging: LoggingConfig{
			Level:     defaultLogLevel,
			Format:    defaultLogFormat,
			MaxSizeMB: defaultLogMaxSizeMB,
			MaxFiles:  defaultLogMaxFiles,
		},
	}
}

func Load(opts LoadOptions) (Config, error) {
	cfg := DefaultConfig()

	dotenv, err := readDotEnv(opts)
	if err != nil {
		return Config{}, err
	}
	env := envLookup{opts: opts, dotenv: dotenv}

	configPath, err := resolveConfigPath(opts, env)
	if err != nil {
		return Config{}, fmt.Errorf("resolve config path: %w", err)
	}
	if err := loadFile(configPath, &cfg); err != nil {
		return Config{}, err
	}

	if err := applyEnvOverrides(&cfg, env); err != nil {
		return Config{}, err
	}
	applyFlagOverrides(&cfg, opts.Flags)

	if cfg.Store.Path == "" {
		path, err := defaultStorePath(cfg.Store.Backend, env)
		if err != nil {
			return Config{}, err
		}
		cfg.Store.Path = path
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type rawConfig struct {
	Store    *rawStore    `toml:"store"`
	Logging  *rawLogging  `toml:"logging"`
	Manifest *rawManifest `toml:"manifest"`
}

type rawStore struct {
	Backend *string    `toml:"backend"`
	Path    *string    `toml:"path"`
	Dynamo  *rawDynamo `toml:"dynamo"`
}

type rawDynamo struct {
	Table     *string `toml:"table"`
	Region    *string `toml:"region"`
	Endpoint  *string `toml:"endpoint"`
	AccessKey *string `toml:"access_key"`
	SecretKey *string `toml:"secret_key"`
}

type rawLogging struct {
	Level     *string `toml:"level"`
	Format    *string `toml:"format"`
	File      *string `toml:"file"`
	MaxSizeMB *int    `toml:"max_size_mb"`
	MaxFiles  *int    `toml:"max_files"`
}

type rawManifest struct {
	Path *string `toml:"path"`
}

func loadFile(path string, cfg *Config) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file %q: %w", path, err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: parse TOML file %q: %v", ErrInvalidConfig, path, err)
	}
	applyRawConfig(cfg, raw)
	return nil
}

func applyRawConfig(cfg *Config, raw rawConfig) {
	if raw.Store != nil {
		setString(raw.Store.Backend, &cfg.Store.Backend)
		setString(raw.Store.Path, &cfg.Store.Path)
		if d := raw.Store.Dynamo; d != nil {
			setString(d.Table, &cfg.Store.Dynamo.Table)
			setString(d.Region, &cfg.Store.Dynamo.Region)
			setString(d.Endpoint, &cfg.Store.Dynamo.Endpoint)
			setString(d.AccessKey, &cfg.Store.Dynamo.AccessKey)
			setString(d.SecretKey, &cfg.Store.Dynamo.SecretKey)
		}
	}

	if raw.Logging != nil {
		setString(raw.Logging.Level, &cfg.Logging.Level)
		setString(raw.Logging.Format, &cfg.Logging.Format)
		setString(raw.Logging.File, &cfg.Logging.File)
		setInt(raw.Logging.MaxSizeMB, &cfg.Logging.MaxSizeMB)
		setInt(raw.Logging.MaxFiles, &cfg.Logging.MaxFiles)
	}

	if raw.Manifest != nil {
		setString(raw.Manifest.Path, &cfg.Manifest.Path)
	}
}

func applyEnvOverrides(cfg *Config, env envLookup) error {
	stringVars := []struct {
		name   string
		target *string
	}{
		{"PREFS_STORE_BACKEND", &cfg.Store.Backend},
		{"PREFS_STORE_PATH", &cfg.Store.Path},
		{"PREFS_DYNAMO_TABLE", &cfg.Store.Dynamo.Table},
		{"PREFS_DYNAMO_ENDPOINT", &cfg.Store.Dynamo.Endpoint},
		{"PREFS_LOG_LEVEL", &cfg.Logging.Level},
		{"PREFS_LOG_FORMAT", &cfg.Logging.Format},
		{"PREFS_LOG_FILE", &cfg.Logging.File},
		{"PREFS_MANIFEST", &cfg.Manifest.Path},
		// Standard AWS variables, so an existing .env for the SDK works as is.
		{"AWS_REGION", &cfg.Store.Dynamo.Region},
		{"AWS_ACCESS_KEY_ID", &cfg.Store.Dynamo.AccessKey},
		{"AWS_SECRET_ACCESS_KEY", &cfg.Store.Dynamo.SecretKey},
	}
	for _, v := range stringVars {
		if value, ok := env.lookup(v.name); ok {
			*v.target = value
		}
	}

	intVars := []struct {
		name   string
		target *int
	}{
		{"PREFS_LOG_MAX_SIZE_MB", &cfg.Logging.MaxSizeMB},
		{"PREFS_LOG_MAX_FILES", &cfg.Logging.MaxFiles},
	}
	for _, v := range intVars {
		value, ok := env.lookup(v.name)
		if !ok {
			continue
		}
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, v.name, err)
		}
		*v.target = parsed
	}
	return nil
}

func applyFlagOverrides(cfg *Config, flags FlagOverrides) {
	setString(flags.Backend, &cfg.Store.Backend)
	setString(flags.StorePath, &cfg.Store.Path)
	setString(flags.LogLevel, &cfg.Logging.Level)
}

func validate(cfg Config) error {
	if !slices.Contains(validBackends, cfg.Store.Backend) {
		return fmt.Errorf("%w: store.backend %q must be one of %v", ErrInvalidConfig, cfg.Store.Backend, validBackends)
	}
	if cfg.Store.Backend == BackendDynamo && cfg.Store.Dynamo.Table == "" {
		return fmt.Errorf("%w: store.dynamo.table is required for the dynamo backend", ErrInvalidConfig)
	}
	if (cfg.Store.Dynamo.AccessKey == "") != (cfg.Store.Dynamo.SecretKey == "") {
		return fmt.Errorf("%w: store.dynamo access_key and secret_key must be set together", ErrInvalidConfig)
	}
	if !slices.Contains(validLogLevels, cfg.Logging.Level) {
		return fmt.Errorf("%w: logging.level %q must be one of %v", ErrInvalidConfig, cfg.Logging.Level, validLogLevels)
	}
	if !slices.Contains(validFormats, cfg.Logging.Format) {
		return fmt.Errorf("%w: logging.format %q must be one of %v", ErrInvalidConfig, cfg.Logging.Format, validFormats)
	}
	if cfg.Logging.MaxSizeMB <= 0 || cfg.Logging.MaxFiles <= 0 {
		return fmt.Errorf("%w: logging.max_size_mb and logging.max_files must be > 0", ErrInvalidConfig)
	}
	return nil
}

func setString(raw *string, target *string) {
	if raw != nil {
		*target = *raw
	}
}

func setInt(raw *int, target *int) {
	if raw != nil {
		*target = *raw
	}
}

// envLookup resolves a variable from LoadOptions.Env, then the process
// environment, then the .env file.
type envLookup struct {
	opts   LoadOptions
	dotenv map[string]string
}

func (e envLookup) lookup(key string) (string, bool) {
	if e.opts.Env != nil {
		if value, ok := e.opts.Env[key]; ok {
			return value, true
		}
	}
	if value, ok := os.LookupEnv(key); ok {
		return value, true
	}
	value, ok := e.dotenv[key]
	return value, ok
}

func readDotEnv(opts LoadOptions) (map[string]string, error) {
	path := opts.DotEnvPath
	if path == "" {
		path = defaultDotEnvFile
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("%w: read env file %q: %v", ErrInvalidConfig, path, err)
	}
	return values, nil
}

func resolveConfigPath(opts LoadOptions, env envLookup) (string, error) {
	if opts.ConfigPath != "" {
		return opts.ConfigPath, nil
	}
	if value, ok := env.lookup("PREFS_CONFIG"); ok {
		return value, nil
	}
	dir, err := configDir(env)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func defaultStorePath(backend string, env envLookup) (string, error) {
	var name string
	switch backend {
	case BackendSQLite:
		name = "prefs.db"
	case BackendFile:
		name = "prefs.yaml"
	default:
		return "", nil
	}
	dir, err := dataDir(env)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func dataDir(env envLookup) (string, error) {
	if value, ok := env.lookup("PREFS_HOME"); ok && value != "" {
		return value, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}

	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", "prefs"), nil
	}

	dataHome := filepath.Join(home, ".local", "share")
	if xdgDataHome, ok := env.lookup("XDG_DATA_HOME"); ok && xdgDataHome != "" {
		dataHome = xdgDataHome
	}
	return filepath.Join(dataHome, "prefs"), nil
}

func configDir(env envLookup) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}

	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", "prefs"), nil
	}

	configHome := filepath.Join(home, ".config")
	if xdgConfigHome, ok := env.lookup("XDG_CONFIG_HOME"); ok && xdgConfigHome != "" {
		configHome = xdgConfigHome
	}
	return filepath.Join(configHome, "prefs"), nil
}
