package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/kalambet/userdefaults/internal/defaults"
)

// BackendKinds lists the accepted values of backend.kind.
var BackendKinds = []string{"auto", "memory", "file", "sqlite", "bolt", "native"}

const DefaultDomain = "com.kalambet.userdefaults"

type Config struct {
	Domain  string
	Backend BackendConfig
	Server  ServerConfig
	Log     LogConfig
}

type BackendConfig struct {
	Kind    string
	DataDir string
}

type ServerConfig struct {
	Port  int
	Token string
}

type LogConfig struct {
	Level string
}

func defaultConfig() Config {
	return Config{
		Domain: DefaultDomain,
		Backend: BackendConfig{
			Kind:    "auto",
			DataDir: defaultDataDir(),
		},
		Server: ServerConfig{
			Port: 4100,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the YAML config file and environment
// variables.
//
// The file is $USERDEFAULTS_CONFIG when set, otherwise config.yaml under
// ~/Library/Application Support/userdefaults on macOS or
// $XDG_CONFIG_HOME/userdefaults elsewhere. A missing file is not an error.
//
// Environment variables (USERDEFAULTS_*) override file values.
func Load() (Config, error) {
	return LoadFile(FilePath())
}

// LoadFile is Load with an explicit config file path.
func LoadFile(path string) (Config, error) {
	cfg := defaultConfig()

	f, err := openFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := applyFile(&cfg, f); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FilePath returns the config file location.
func FilePath() string {
	if p := os.Getenv("USERDEFAULTS_CONFIG"); p != "" {
		return p
	}
	return defaultConfigPath()
}

func (c Config) Validate() error {
	if c.Domain == "" {
		return fmt.Errorf("domain must not be empty")
	}
	if !slices.Contains(BackendKinds, c.Backend.Kind) {
		return fmt.Errorf("invalid backend.kind %q (valid: %s)", c.Backend.Kind, strings.Join(BackendKinds, ", "))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range 1-65535", c.Server.Port)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps the configured level name, including "trace", to a
// slog.Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "trace":
		return defaults.LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log.level %q", l.Level)
}
