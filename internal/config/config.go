package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	bookerrors "github.com/vampirenirmal/bookgen/internal/errors"
	"github.com/vampirenirmal/bookgen/internal/generator"
)

// Config is the resolved run configuration: provider identity and
// credentials for the content generator, plus the output directory and
// the retry/rate-limit policy. Constructed once per run.
type Config struct {
	Provider  string `yaml:"provider" validate:"required,oneof=gemini openai anthropic"`
	Model     string `yaml:"model" validate:"required"`
	BaseURL   string `yaml:"base_url" validate:"omitempty,url"`
	APIKey    string `yaml:"api_key" validate:"required,min=8"`
	OutputDir string `yaml:"output_dir" validate:"required"`
	Limits    Limits `yaml:"limits"`
}

// Options carries CLI-level overrides into Load. Empty fields defer to
// the config file, the environment, and the per-provider fallbacks.
type Options struct {
	ConfigPath string
	Provider   string
	Model      string
	APIKeyFile string
	OutputDir  string
}

// Load resolves the configuration. Provider, model, and output
// directory follow CLI overrides, then the YAML config file, then
// per-provider model files, then hardcoded defaults. The API key is
// resolved separately: the provider's environment variables win over a
// key set in the config file, with the per-provider key file as the
// last fallback.
func Load(opts Options) (*Config, error) {
	_ = godotenv.Load()

	cfg := Config{}

	configPath := getConfigPath(opts.ConfigPath)
	data, err := os.ReadFile(configPath)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, bookerrors.Wrap("configuration", fmt.Sprintf("parsing config file %s", configPath), err)
		}
	} else if !os.IsNotExist(err) {
		return nil, bookerrors.Wrap("configuration", fmt.Sprintf("reading config file %s", configPath), err)
	}

	if opts.Provider != "" {
		cfg.Provider = opts.Provider
	}
	if cfg.Provider == "" {
		cfg.Provider = generator.ProviderGemini
	}

	if opts.Model != "" {
		cfg.Model = opts.Model
	}
	if cfg.Model == "" {
		cfg.Model = resolveModelFile(modelFilePath(cfg.Provider))
	}
	if cfg.Model == "" {
		cfg.Model = generator.DefaultModel(cfg.Provider)
	}

	if key := apiKeyFromEnv(cfg.Provider); key != "" {
		cfg.APIKey = key
	}
	if cfg.APIKey == "" {
		key, err := readAPIKeyFile(keyFilePath(cfg.Provider, opts.APIKeyFile))
		if err != nil {
			return nil, err
		}
		cfg.APIKey = key
	}

	if opts.OutputDir != "" {
		cfg.OutputDir = opts.OutputDir
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "books"
	}
	cfg.OutputDir = expandTilde(cfg.OutputDir)

	defaults := DefaultLimits()
	if cfg.Limits.MaxRetries == 0 {
		cfg.Limits.MaxRetries = defaults.MaxRetries
	}
	if cfg.Limits.RequestTimeout == 0 {
		cfg.Limits.RequestTimeout = defaults.RequestTimeout
	}
	if cfg.Limits.RateLimit.RequestsPerMinute == 0 {
		cfg.Limits.RateLimit.RequestsPerMinute = defaults.RateLimit.RequestsPerMinute
	}
	if cfg.Limits.RateLimit.BurstSize == 0 {
		cfg.Limits.RateLimit.BurstSize = defaults.RateLimit.BurstSize
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return bookerrors.Wrap("configuration", "config validation failed", err)
	}
	return nil
}

// NewClient builds the content-generation client this configuration
// describes.
func (c *Config) NewClient(opts ...generator.Option) *generator.Client {
	all := append([]generator.Option{
		generator.WithProvider(c.Provider, c.BaseURL, c.Model),
		generator.WithRetry(c.Limits.MaxRetries),
		generator.WithTimeout(c.Limits.RequestTimeout),
		generator.WithRateLimit(c.Limits.RateLimit.RequestsPerMinute, c.Limits.RateLimit.BurstSize),
	}, opts...)
	return generator.NewClient(c.APIKey, all...)
}

func getConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if path := os.Getenv("BOOKGEN_CONFIG"); path != "" {
		return path
	}
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "bookgen", "config.yaml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "bookgen", "config.yaml")
}

// apiKeyFromEnv checks the provider's conventional key variables.
func apiKeyFromEnv(provider string) string {
	var names []string
	switch provider {
	case generator.ProviderOpenAI:
		names = []string{"OPENAI_API_KEY"}
	case generator.ProviderAnthropic:
		names = []string{"ANTHROPIC_API_KEY"}
	default:
		names = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	}
	for _, name := range names {
		if key := os.Getenv(name); key != "" {
			return key
		}
	}
	return ""
}

// keyFilePath picks the key file: an explicit override or the
// per-provider convention (~/.api-<provider>).
func keyFilePath(provider, explicit string) string {
	if explicit != "" {
		return expandTilde(explicit)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".api-"+provider)
}

// modelFilePath is the per-provider model override file
// (~/.model-<provider>), a single-line model name.
func modelFilePath(provider string) string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".model-"+provider)
}

// readAPIKeyFile reads a credential file. A missing, unreadable, or
// empty file is a terminal configuration error since the file is the
// last fallback.
func readAPIKeyFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", bookerrors.Newf("configuration", "API key not found: set the provider key environment variable or create %s", path)
	}
	if err != nil {
		return "", bookerrors.Wrap("configuration", fmt.Sprintf("reading API key file %s", path), err)
	}

	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", bookerrors.Newf("configuration", "API key file is empty: %s", path)
	}
	return key, nil
}

// resolveModelFile returns the stripped contents of a single-line model
// file, or empty when absent or unreadable. The caller decides the
// ultimate default.
func resolveModelFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// expandTilde expands a leading ~/ to the user's home directory.
func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
