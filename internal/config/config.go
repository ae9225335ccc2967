package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Portal struct {
		BaseURL   string `yaml:"baseURL"`
		Token     string `yaml:"token"`
		TokenFile string `yaml:"tokenFile"`
		Timeout   string `yaml:"timeout"`
	} `yaml:"portal"`
	Session struct {
		SubmitTimeout  string `yaml:"submitTimeout"`
		ShuffleOptions *bool  `yaml:"shuffleOptions"`
	} `yaml:"session"`
	Bridge struct {
		Port string `yaml:"port"`
	} `yaml:"bridge"`
	Server struct {
		Port      string `yaml:"port"`
		JWTSecret string `yaml:"jwtSecret"`
		TokenTTL  string `yaml:"tokenTTL"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadOptional is Load, but a missing file yields the zero Config.
func LoadOptional(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	return cfg, err
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// ShuffleOptions reports whether the console shows options in random order;
// it does unless the config turns it off.
func (c Config) ShuffleOptions() bool {
	return c.Session.ShuffleOptions == nil || *c.Session.ShuffleOptions
}
