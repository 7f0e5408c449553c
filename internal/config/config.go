package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

// ErrNoConfig is returned by ResolveConfigPath when no config file exists.
var ErrNoConfig = errors.New("no config file found")

type Config struct {
	Storage    Storage    `yaml:"storage"`
	Extraction Extraction `yaml:"extraction"`
	Export     Export     `yaml:"export"`
	Intake     Intake     `yaml:"intake"`
	Telegram   Telegram   `yaml:"telegram"`
	Server     Server     `yaml:"server"`
	Logging    Logging    `yaml:"logging"`
}

type Storage struct {
	DataDir      string `yaml:"data_dir"       env:"RELIEFBOARD_DATA_DIR"`
	SeedDemoData bool   `yaml:"seed_demo_data"`
}

type Extraction struct {
	Provider           string  `yaml:"provider"              env:"RELIEFBOARD_PROVIDER"`
	GeminiModel        string  `yaml:"gemini_model"`
	GeminiAPIKeyEnv    string  `yaml:"gemini_api_key_env"`
	OpenAIModel        string  `yaml:"openai_model"`
	OpenAIAPIKeyEnv    string  `yaml:"openai_api_key_env"`
	AnthropicModel     string  `yaml:"anthropic_model"`
	AnthropicAPIKeyEnv string  `yaml:"anthropic_api_key_env"`
	OllamaModel        string  `yaml:"ollama_model"`
	OllamaURL          string  `yaml:"ollama_url"            env:"RELIEFBOARD_OLLAMA_URL"`
	Temperature        float64 `yaml:"temperature"`
	MaxTokens          int     `yaml:"max_tokens"`
	TimeoutSeconds     int     `yaml:"timeout_seconds"`
	TargetLanguage     string  `yaml:"target_language"`
	RegionHint         string  `yaml:"region_hint"`
}

// Timeout is the per-request extraction deadline.
func (e Extraction) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

type Export struct {
	Timezone   string `yaml:"timezone"    env:"RELIEFBOARD_TIMEZONE"`
	FilePrefix string `yaml:"file_prefix"`
	FontPath   string `yaml:"font_path"   env:"RELIEFBOARD_FONT_PATH"`
}

// Location loads the export timezone, falling back to UTC when it is unknown.
func (e Export) Location() *time.Location {
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type Intake struct {
	Feeds               []Feed `yaml:"feeds"`
	MaxItemsPerFeed     int    `yaml:"max_items_per_feed"`
	FetchTimeoutSeconds int    `yaml:"fetch_timeout_seconds"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

type Telegram struct {
	TokenEnv     string  `yaml:"token_env"`
	AllowedChats []int64 `yaml:"allowed_chats"`
}

// Token reads the bot token from the configured environment variable.
func (t Telegram) Token() string {
	return os.Getenv(t.TokenEnv)
}

type Server struct {
	Port int `yaml:"port" env:"RELIEFBOARD_PORT"`
}

type Logging struct {
	Level string `yaml:"level" env:"RELIEFBOARD_LOG_LEVEL"`
}

// ConfigDir returns the XDG config directory for reliefboard.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "reliefboard")
}

// DataDir returns the XDG data directory for reliefboard.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "reliefboard")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/reliefboard/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf("%w; searched:\n  %s\n  ./config.yaml", ErrNoConfig, xdgConfig)
}

// Resolve loads the config named by explicit, or the first one found on the
// search path. When nothing is found the embedded defaults are used and the
// returned path is empty.
func Resolve(explicit string) (*Config, string, error) {
	path, err := ResolveConfigPath(explicit)
	if errors.Is(err, ErrNoConfig) {
		cfg, err := parse(DefaultConfigYAML)
		return cfg, "", err
	}
	if err != nil {
		return nil, "", err
	}
	cfg, err := Load(path)
	return cfg, path, err
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Storage: Storage{SeedDemoData: true},
		Extraction: Extraction{
			Provider:           "gemini",
			GeminiModel:        "gemini-2.5-flash",
			GeminiAPIKeyEnv:    "GEMINI_API_KEY",
			OpenAIModel:        "gpt-4o-mini",
			OpenAIAPIKeyEnv:    "OPENAI_API_KEY",
			AnthropicModel:     "claude-3-5-haiku-latest",
			AnthropicAPIKeyEnv: "ANTHROPIC_API_KEY",
			OllamaModel:        "qwen2.5:7b",
			OllamaURL:          "http://localhost:11434",
			Temperature:        0.1,
			MaxTokens:          2048,
			TimeoutSeconds:     60,
			TargetLanguage:     "Traditional Chinese (Hong Kong)",
			RegionHint:         "Tai Po, Hong Kong",
		},
		Export: Export{
			Timezone:   "Asia/Hong_Kong",
			FilePrefix: "Taipo-Relief",
		},
		Intake: Intake{
			MaxItemsPerFeed:     10,
			FetchTimeoutSeconds: 30,
		},
		Telegram: Telegram{TokenEnv: "TELEGRAM_BOT_TOKEN"},
		Server:   Server{Port: 8000},
		Logging:  Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Environment variables override the file.
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("reading config from env: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Storage.DataDir != "" {
		return c.Storage.DataDir
	}
	return DataDir()
}

// DBPath returns the board database path inside the data directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.GetDataDir(), "reliefboard.db")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
