// Package config loads MindBuddy settings from defaults, an optional YAML
// file and the environment, in that order of precedence (environment wins).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/petasbytes/mindbuddy/internal/provider"
	"github.com/petasbytes/mindbuddy/internal/telemetry"
	"github.com/petasbytes/mindbuddy/internal/windowing"
)

const (
	DefaultStorePath   = "~/.mindbuddy_chat.json"
	DefaultProfilePath = "profile.json"
	DefaultAddr        = ":8080"
	DefaultRateLimit   = 30
	DefaultTokenBudget = 3000
	DefaultChatKey     = "default"
)

type Config struct {
	LLM       provider.Config  `yaml:"llm"`
	Chat      ChatConfig       `yaml:"chat"`
	Store     StoreConfig      `yaml:"store"`
	Profile   ProfileConfig    `yaml:"profile"`
	Server    ServerConfig     `yaml:"server"`
	Telemetry telemetry.Config `yaml:"telemetry"`
	Log       LogConfig        `yaml:"log"`
}

type ChatConfig struct {
	TokenBudget int    `yaml:"token_budget"`
	Estimator   string `yaml:"estimator"`
	Key         string `yaml:"key"`

	// Style overrides the profile's style when set.
	Style string `yaml:"style"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type ProfileConfig struct {
	Path string `yaml:"path"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`

	// RateLimit is the number of chat requests each client may make per minute.
	// Zero disables limiting.
	RateLimit   int      `yaml:"rate_limit"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LLM: provider.Config{
			Provider: provider.ProviderOpenAI,
		},
		Chat: ChatConfig{
			TokenBudget: DefaultTokenBudget,
			Estimator:   windowing.DefaultEstimatorName,
			Key:         DefaultChatKey,
		},
		Store:   StoreConfig{Path: DefaultStorePath},
		Profile: ProfileConfig{Path: DefaultProfilePath},
		Server: ServerConfig{
			Addr:        DefaultAddr,
			RateLimit:   DefaultRateLimit,
			CORSOrigins: []string{"*"},
		},
		Telemetry: telemetry.Config{Path: telemetry.DefaultPath},
		Log:       LogConfig{Level: "info", Format: "text"},
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults and the environment are used. .env and .env.local in the working
// directory are loaded first and never overwrite variables already set.
func Load(path string) (*Config, error) {
	for _, f := range []string{".env", ".env.local"} {
		_ = godotenv.Load(f)
	}

	cfg := Default()
	if path != "" {
		if err := cfg.parseFile(path); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.finish()
	return cfg, nil
}

func (c *Config) parseFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	data = []byte(os.ExpandEnv(string(data)))

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.LLM.Provider, "MINDBUDDY_PROVIDER")
	setString(&c.LLM.Model, "MINDBUDDY_MODEL")
	setString(&c.LLM.BaseURL, "MINDBUDDY_BASE_URL")
	setString(&c.Chat.Estimator, "MINDBUDDY_ESTIMATOR")
	setString(&c.Chat.Key, "MINDBUDDY_CHAT_KEY")
	setString(&c.Chat.Style, "MINDBUDDY_STYLE")
	setString(&c.Store.Path, "MINDBUDDY_STORE_PATH")
	setString(&c.Profile.Path, "MINDBUDDY_PROFILE_PATH")
	setString(&c.Server.Addr, "MINDBUDDY_ADDR")
	setString(&c.Telemetry.Path, "MINDBUDDY_EVENTS_PATH")
	setString(&c.Log.Level, "MINDBUDDY_LOG_LEVEL")
	setString(&c.Log.Format, "MINDBUDDY_LOG_FORMAT")

	if v, ok := lookup("MINDBUDDY_CORS_ORIGINS"); ok {
		c.Server.CORSOrigins = splitList(v)
	}
	if v, ok := lookup("MINDBUDDY_OBSERVE_JSON"); ok {
		c.Telemetry.Enabled = v == "1" || strings.EqualFold(v, "true")
	}

	if v, ok := lookup("MINDBUDDY_TEMPERATURE"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid MINDBUDDY_TEMPERATURE %q: %w", v, err)
		}
		c.LLM.Temperature = f
	}
	for env, dst := range map[string]*int{
		"MINDBUDDY_TOKEN_BUDGET": &c.Chat.TokenBudget,
		"MINDBUDDY_MAX_TOKENS":   &c.LLM.MaxTokens,
		"MINDBUDDY_RATE_LIMIT":   &c.Server.RateLimit,
	} {
		if v, ok := lookup(env); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", env, v, err)
			}
			*dst = n
		}
	}

	if c.LLM.APIKey == "" {
		c.LLM.APIKey = os.Getenv(apiKeyEnv(c.LLM.Provider))
	}
	return nil
}

func (c *Config) finish() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Model == "" {
		c.LLM.Model = provider.DefaultModel(c.LLM.Provider)
	}
	c.Store.Path = expandHome(c.Store.Path)
	c.Profile.Path = expandHome(c.Profile.Path)
	c.Telemetry.Path = expandHome(c.Telemetry.Path)
}

// Validate reports settings that would keep the assistant from starting.
func (c *Config) Validate() error {
	var errs []error

	switch c.LLM.Provider {
	case provider.ProviderOpenAI, provider.ProviderAnthropic:
		if strings.TrimSpace(c.LLM.APIKey) == "" {
			errs = append(errs, fmt.Errorf("%w: set %s", provider.ErrMissingAPIKey, apiKeyEnv(c.LLM.Provider)))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: %q", provider.ErrUnknownProvider, c.LLM.Provider))
	}

	if c.Chat.TokenBudget <= 0 {
		errs = append(errs, fmt.Errorf("token budget must be positive, got %d", c.Chat.TokenBudget))
	}
	if _, err := windowing.LookupEstimator(c.Chat.Estimator); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(c.Chat.Key) == "" {
		errs = append(errs, errors.New("chat key must not be empty"))
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		errs = append(errs, errors.New("store path must not be empty"))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rate limit must not be negative, got %d", c.Server.RateLimit))
	}

	return errors.Join(errs...)
}

func apiKeyEnv(p string) string {
	if strings.EqualFold(strings.TrimSpace(p), provider.ProviderAnthropic) {
		return "ANTHROPIC_API_KEY"
	}
	return "OPENAI_API_KEY"
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func setString(dst *string, name string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
