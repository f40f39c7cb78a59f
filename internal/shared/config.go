package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Generation  GenerationConfig  `toml:"generation"`
	Output      OutputConfig      `toml:"output"`
}

// CredentialsConfig contains backend credentials.
type CredentialsConfig struct {
	Gemini GeminiConfig `toml:"gemini"`
}

// GeminiConfig contains Gemini API credentials and endpoint settings.
type GeminiConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// GenerationConfig contains pipeline tuning settings.
type GenerationConfig struct {
	MaxSourceChars int     `toml:"max_source_chars"`
	RateLimit      float64 `toml:"rate_limit"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// OutputConfig contains export settings.
type OutputConfig struct {
	Dir        string `toml:"dir"`
	PDFName    string `toml:"pdf_name"`
	SaveImages bool   `toml:"save_images"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnvCredentials fills in the Gemini API key from a .env file or the
// process environment when the config file does not provide one.
//
// A missing .env file is not an error; the environment alone is sufficient.
func LoadEnvCredentials(config *Config) {
	_ = godotenv.Load()

	if config.Credentials.Gemini.APIKey == "" {
		config.Credentials.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
}

// HasCredentials reports whether a Gemini API key is available.
// Checked before any pipeline work starts so credential problems surface as a
// blocking precondition rather than a mid-run failure.
func (c *Config) HasCredentials() bool {
	return c.Credentials.Gemini.APIKey != ""
}
