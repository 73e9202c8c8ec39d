package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
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
	Game GameConfig `yaml:"game"`
}

// GameConfig carries the session timing knobs. Durations are Go duration
// strings; thresholds and the default answer time are whole seconds.
type GameConfig struct {
	StartDelay           string `yaml:"startDelay"`
	InterQuestionDelay   string `yaml:"interQuestionDelay"`
	QuestionDuration     int    `yaml:"questionDuration"`
	TickInterval         string `yaml:"tickInterval"`
	PanicTickInterval    string `yaml:"panicTickInterval"`
	PanicThresholdChoice int    `yaml:"panicThresholdChoice"`
	PanicThresholdOpen   int    `yaml:"panicThresholdOpen"`
	GraceWindow          string `yaml:"graceWindow"`
	TypingIdleWindow     string `yaml:"typingIdleWindow"`
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

// TTLDuration parses a duration string or returns the fallback if empty or invalid.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
