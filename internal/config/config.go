package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config is the root configuration for ponto, stored in ~/.ponto/config.json.
// The file supports single-line // comments for documentation purposes.
type Config struct {
	// LogFile is the append-only record log.
	LogFile string `json:"log_file"`
	// MachineIDFile caches the resolved machine identity.
	MachineIDFile string `json:"machine_id_file"`
	// Timezone is the IANA zone record timestamps are written and read in.
	Timezone string `json:"timezone"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level"`
}

const (
	DefaultLogFile       = "registros.txt"
	DefaultMachineIDFile = ".machine_id"
	DefaultTimezone      = "America/Sao_Paulo"
	DefaultLogLevel      = "warn"
)

// Environment variables that override the file.
const (
	EnvConfig        = "PONTO_CONFIG"
	EnvLogFile       = "PONTO_LOG_FILE"
	EnvMachineIDFile = "PONTO_MACHINE_ID_FILE"
	EnvTimezone      = "PONTO_TIMEZONE"
	EnvLogLevel      = "PONTO_LOG_LEVEL"
)

// Default returns a Config pre-filled with the built-in defaults.
func Default() Config {
	return Config{
		LogFile:       DefaultLogFile,
		MachineIDFile: DefaultMachineIDFile,
		Timezone:      DefaultTimezone,
		LogLevel:      DefaultLogLevel,
	}
}

// configTemplate is the annotated config written on first run.
// Lines whose trimmed content starts with // are stripped before JSON parsing.
const configTemplate = `// ponto configuration – ~/.ponto/config.json
//
// All settings are optional. Relative paths resolve against the directory
// ponto is started from. Each value can also be set through the matching
// PONTO_* environment variable or a command-line flag.
{
  // Record log, one event per line. The digest lives next to it as <file>.sha256.
  "log_file": "registros.txt",

  // Where the machine identity is cached between runs.
  "machine_id_file": ".machine_id",

  // IANA timezone for record timestamps and day boundaries.
  "timezone": "America/Sao_Paulo",

  // Diagnostics on stderr: debug, info, warn or error.
  "log_level": "warn"
}
`

// FilePath returns the config file location: $PONTO_CONFIG if set, otherwise
// ~/.ponto/config.json.
func FilePath() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".ponto", "config.json"), nil
}

// stripLineComments removes lines whose leading non-whitespace content starts
// with //. Only full-line comments are handled; inline comments are not stripped.
func stripLineComments(data []byte) []byte {
	var out []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if bytes.HasPrefix(bytes.TrimLeft(line, " \t"), []byte("//")) {
			continue
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

// Load reads the config file from FilePath and applies environment overrides.
func Load() (Config, error) {
	path, err := FilePath()
	if err != nil {
		return applyEnv(Default()), err
	}
	return LoadFile(path)
}

// LoadFile reads the config at path, creating it with annotated defaults when
// it does not exist, then applies environment overrides. On error the
// returned Config is still usable.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if writeErr := writeDefault(path); writeErr != nil {
			return applyEnv(Default()), fmt.Errorf("could not create config file %s: %w", path, writeErr)
		}
		return applyEnv(Default()), nil
	}
	if err != nil {
		return applyEnv(Default()), fmt.Errorf("reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(stripLineComments(data), &cfg); err != nil {
		return applyEnv(Default()), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}

	return applyEnv(fillDefaults(cfg)), nil
}

// fillDefaults replaces zero-value fields so a partially filled file still
// yields a usable Config.
func fillDefaults(cfg Config) Config {
	def := Default()
	if cfg.LogFile == "" {
		cfg.LogFile = def.LogFile
	}
	if cfg.MachineIDFile == "" {
		cfg.MachineIDFile = def.MachineIDFile
	}
	if cfg.Timezone == "" {
		cfg.Timezone = def.Timezone
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	return cfg
}

func applyEnv(cfg Config) Config {
	cfg.LogFile = getenvDefault(EnvLogFile, cfg.LogFile)
	cfg.MachineIDFile = getenvDefault(EnvMachineIDFile, cfg.MachineIDFile)
	cfg.Timezone = getenvDefault(EnvTimezone, cfg.Timezone)
	cfg.LogLevel = getenvDefault(EnvLogLevel, cfg.LogLevel)
	return cfg
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// Location loads Timezone. An unknown zone falls back to the local zone and
// is returned as an error alongside it.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local, fmt.Errorf("unknown timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// SlogLevel maps LogLevel onto a slog.Level; unknown values mean warn.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
