// Package config loads the supportmesh YAML configuration. A single file
// describes the whole local topology: the tool server, both specialists and
// the router. Missing files produce defaults only.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for every supportmesh process.
type Config struct {
	LogLevel string   `yaml:"log_level"`
	Store    Store    `yaml:"store"`
	Tools    Endpoint `yaml:"tools"`
	Data     Endpoint `yaml:"data_agent"`
	Support  Endpoint `yaml:"support_agent"`
	Router   Router   `yaml:"router"`
}

// Store configures the sqlite database backing the tool server.
type Store struct {
	Path string `yaml:"path"`
	Seed bool   `yaml:"seed"`
}

// Endpoint describes one process: the address it binds and the URL its
// peers use to reach it.
type Endpoint struct {
	Listen string `yaml:"listen"`
	URL    string `yaml:"url"`
}

// Router configures the orchestrator.
type Router struct {
	Listen          string   `yaml:"listen"`
	URL             string   `yaml:"url"`
	Specialists     []string `yaml:"specialists"`
	SubTaskDeadline Duration `yaml:"subtask_deadline"`
	PollInterval    Duration `yaml:"poll_interval"`
}

// Duration wraps time.Duration so YAML values can be written as "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Defaults returns the local demo topology: every process on loopback,
// tool server on 8000, specialists on 8001/8002, router on 8003.
func Defaults() Config {
	return Config{
		LogLevel: "info",
		Store: Store{
			Path: "supportmesh.db",
			Seed: true,
		},
		Tools: Endpoint{
			Listen: ":8000",
			URL:    "http://localhost:8000",
		},
		Data: Endpoint{
			Listen: ":8001",
			URL:    "http://localhost:8001",
		},
		Support: Endpoint{
			Listen: ":8002",
			URL:    "http://localhost:8002",
		},
		Router: Router{
			Listen:          ":8003",
			URL:             "http://localhost:8003",
			SubTaskDeadline: Duration(30 * time.Second),
			PollInterval:    Duration(500 * time.Millisecond),
		},
	}
}

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandPaths processes environment variable references in fields that
// commonly carry deployment-specific values.
func expandPaths(cfg *Config) {
	cfg.Store.Path = expandEnvVars(cfg.Store.Path)
	cfg.Tools.URL = expandEnvVars(cfg.Tools.URL)
	cfg.Data.URL = expandEnvVars(cfg.Data.URL)
	cfg.Support.URL = expandEnvVars(cfg.Support.URL)
	cfg.Router.URL = expandEnvVars(cfg.Router.URL)
	for i, s := range cfg.Router.Specialists {
		cfg.Router.Specialists[i] = expandEnvVars(s)
	}
}

// Load reads the config file over the defaults. Missing files produce
// defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applySpecialistDefaults()
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applySpecialistDefaults()
	expandPaths(&cfg)
	return cfg, nil
}

// applySpecialistDefaults points the router at the configured specialist
// endpoints when no explicit list is given.
func (c *Config) applySpecialistDefaults() {
	if len(c.Router.Specialists) == 0 {
		c.Router.Specialists = []string{c.Data.URL, c.Support.URL}
	}
	if c.Router.SubTaskDeadline <= 0 {
		c.Router.SubTaskDeadline = Duration(30 * time.Second)
	}
	if c.Router.PollInterval <= 0 {
		c.Router.PollInterval = Duration(500 * time.Millisecond)
	}
}
