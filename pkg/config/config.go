package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dthomason/wpsearch/pkg/errors"
)

const (
	defaultModel          = "z-ai/glm-4.5-air:free"
	defaultBaseURL        = "https://openrouter.ai/api/v1"
	defaultMaxResults     = 5
	defaultRequestTimeout = 30 * time.Second
)

// defaultFallbackModels are tried in order when the primary model fails.
var defaultFallbackModels = []string{
	"z-ai/glm-4.5-air:free",
	"qwen/qwen3-coder:free",
	"moonshotai/kimi-k2:free",
}

// Config represents the complete wpsearch configuration
type Config struct {
	AI        AIConfig        `yaml:"ai"`
	WordPress WordPressConfig `yaml:"wordpress"`
	Search    SearchConfig    `yaml:"search"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// AIConfig configures the OpenRouter model endpoint
type AIConfig struct {
	APIKey         string   `yaml:"api_key"`
	BaseURL        string   `yaml:"base_url"`
	Model          string   `yaml:"model"`
	FallbackModels []string `yaml:"fallback_models"`
}

// WordPressConfig configures the content endpoint
type WordPressConfig struct {
	APIURL   string `yaml:"api_url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// SearchConfig holds per-query defaults
type SearchConfig struct {
	MaxResults     int           `yaml:"max_results"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// LoggingConfig controls diagnostic output
type LoggingConfig struct {
	Verbose     bool   `yaml:"verbose"`
	NetworkLogs bool   `yaml:"network_logs"`
	Dir         string `yaml:"dir"`
}

// ModelCascade returns the ordered list of models to try: primary first,
// then fallbacks, with the primary deduplicated out of the fallback list.
func (c *Config) ModelCascade() []string {
	cascade := []string{c.AI.Model}
	for _, m := range c.AI.FallbackModels {
		if m != c.AI.Model {
			cascade = append(cascade, m)
		}
	}
	return cascade
}

// LogDir returns the directory for structured logs.
func (c *Config) LogDir() string {
	if c.Logging.Dir != "" {
		return c.Logging.Dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	return filepath.Join(home, ".wpsearch", "logs")
}

// DefaultConfig returns the built-in defaults before file and env overrides.
func DefaultConfig() *Config {
	return &Config{
		AI: AIConfig{
			BaseURL:        defaultBaseURL,
			Model:          defaultModel,
			FallbackModels: append([]string{}, defaultFallbackModels...),
		},
		Search: SearchConfig{
			MaxResults:     defaultMaxResults,
			RequestTimeout: defaultRequestTimeout,
		},
	}
}

// Load loads configuration from default locations with proper precedence:
// defaults, then ~/.wpsearch/config.yaml, then environment variables.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	if home != "" {
		userConfigPath := filepath.Join(home, ".wpsearch", "config.yaml")
		if err := loadAndMerge(cfg, userConfigPath); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromPath loads configuration from a specific file path
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := loadAndMerge(cfg, path); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadAndMerge loads a YAML file and merges non-empty values into the config.
func loadAndMerge(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigLoad, "reading config file")
	}

	var override Config
	if err := yaml.Unmarshal(data, &override); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigParse, "parsing config file")
	}

	mergeConfigs(cfg, &override)
	return nil
}

func mergeConfigs(base, override *Config) {
	if override.AI.APIKey != "" {
		base.AI.APIKey = override.AI.APIKey
	}
	if override.AI.BaseURL != "" {
		base.AI.BaseURL = override.AI.BaseURL
	}
	if override.AI.Model != "" {
		base.AI.Model = override.AI.Model
	}
	if len(override.AI.FallbackModels) > 0 {
		base.AI.FallbackModels = override.AI.FallbackModels
	}
	if override.WordPress.APIURL != "" {
		base.WordPress.APIURL = override.WordPress.APIURL
	}
	if override.WordPress.Username != "" {
		base.WordPress.Username = override.WordPress.Username
	}
	if override.WordPress.Password != "" {
		base.WordPress.Password = override.WordPress.Password
	}
	if override.Search.MaxResults > 0 {
		base.Search.MaxResults = override.Search.MaxResults
	}
	if override.Search.RequestTimeout > 0 {
		base.Search.RequestTimeout = override.Search.RequestTimeout
	}
	if override.Logging.Verbose {
		base.Logging.Verbose = true
	}
	if override.Logging.NetworkLogs {
		base.Logging.NetworkLogs = true
	}
	if override.Logging.Dir != "" {
		base.Logging.Dir = override.Logging.Dir
	}
}

// applyEnvOverrides applies environment variable overrides
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}
	if v := os.Getenv("OPENROUTER_BASE_URL"); v != "" {
		cfg.AI.BaseURL = v
	}
	if v := os.Getenv("AI_MODEL"); v != "" {
		cfg.AI.Model = v
	}
	if v := os.Getenv("AI_FALLBACK_MODELS"); v != "" {
		var models []string
		for _, m := range strings.Split(v, ",") {
			if m = strings.TrimSpace(m); m != "" {
				models = append(models, m)
			}
		}
		cfg.AI.FallbackModels = models
	}

	if v := os.Getenv("WORDPRESS_API_URL"); v != "" {
		cfg.WordPress.APIURL = v
	}
	if v := os.Getenv("WORDPRESS_USERNAME"); v != "" {
		cfg.WordPress.Username = v
	}
	if v := os.Getenv("WORDPRESS_PASSWORD"); v != "" {
		cfg.WordPress.Password = v
	}

	if v := os.Getenv("MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.MaxResults = n
		}
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.RequestTimeout = time.Duration(n) * time.Second
		}
	}
	if v, ok := envBool("VERBOSE_LOGGING"); ok {
		cfg.Logging.Verbose = v
	}
	if v, ok := envBool("NETWORK_LOGS_ENABLED"); ok {
		cfg.Logging.NetworkLogs = v
	}
}

// envBool parses a boolean environment variable, returning (value, set).
func envBool(key string) (bool, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return false, false
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}

// Validate checks that required values are present and numeric values sane.
// A failure here must halt the process before any query is processed.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.AI.APIKey) == "" {
		return errors.New(errors.ErrCodeConfigInvalid, "OPENROUTER_API_KEY is required")
	}
	if strings.TrimSpace(c.WordPress.APIURL) == "" {
		return errors.New(errors.ErrCodeConfigInvalid, "WORDPRESS_API_URL is required")
	}
	if strings.TrimSpace(c.WordPress.Username) == "" {
		return errors.New(errors.ErrCodeConfigInvalid, "WORDPRESS_USERNAME is required")
	}
	if strings.TrimSpace(c.WordPress.Password) == "" {
		return errors.New(errors.ErrCodeConfigInvalid, "WORDPRESS_PASSWORD is required")
	}
	if strings.TrimSpace(c.AI.Model) == "" {
		return errors.New(errors.ErrCodeConfigInvalid, "ai.model must not be empty")
	}
	if c.Search.MaxResults <= 0 {
		return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("search.max_results must be positive, got %d", c.Search.MaxResults))
	}
	if c.Search.RequestTimeout <= 0 {
		return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("search.request_timeout must be positive, got %s", c.Search.RequestTimeout))
	}
	return nil
}
