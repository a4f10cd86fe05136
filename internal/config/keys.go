package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "domain", typ: kString, env: "USERDEFAULTS_DOMAIN",
		apply:   func(cfg *Config, v any) { cfg.Domain = v.(string) },
		extract: func(cfg Config) any { return cfg.Domain },
	},
	{
		key: "backend.kind", typ: kString, env: "USERDEFAULTS_BACKEND",
		apply:   func(cfg *Config, v any) { cfg.Backend.Kind = v.(string) },
		extract: func(cfg Config) any { return cfg.Backend.Kind },
	},
	{
		key: "backend.data_dir", typ: kString, env: "USERDEFAULTS_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Backend.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Backend.DataDir },
	},
	{
		key: "server.port", typ: kInt, env: "USERDEFAULTS_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.token", typ: kString, env: "USERDEFAULTS_SERVER_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Server.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.Token },
	},
	{
		key: "log.level", typ: kString, env: "USERDEFAULTS_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyFile(cfg *Config, f *configFile) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := f.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := f.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
