package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration. It is loaded once and
// passed explicitly into constructors; no stage reads viper directly.
type Config struct {
	App     App     `mapstructure:"app"`
	Gemini  Gemini  `mapstructure:"gemini"`
	Fetch   Fetch   `mapstructure:"fetch"`
	Report  Report  `mapstructure:"report"`
	Ranking Ranking `mapstructure:"ranking"`
}

// App holds general application configuration.
type App struct {
	LogLevel  string `mapstructure:"log_level"`
	OutputDir string `mapstructure:"output_dir"`
}

// Gemini holds the generative/embedding service configuration.
// An empty APIKey is not an error: it disables the narrative and
// embedding stages and forces the degraded path.
type Gemini struct {
	APIKey          string  `mapstructure:"api_key"`
	Model           string  `mapstructure:"model"`
	EmbeddingModel  string  `mapstructure:"embedding_model"`
	Temperature     float32 `mapstructure:"temperature"`
	MaxOutputTokens int32   `mapstructure:"max_output_tokens"`
	RequestsPerSec  float64 `mapstructure:"requests_per_sec"`
}

// Fetch holds article/ranking HTTP fetch configuration.
type Fetch struct {
	Timeout     string `mapstructure:"timeout"`
	MaxAttempts int    `mapstructure:"max_attempts"`
	RetryDelay  string `mapstructure:"retry_delay"`
	UserAgent   string `mapstructure:"user_agent"`
}

// Report holds the downstream report writer configuration.
type Report struct {
	CredentialsPath    string `mapstructure:"credentials_path"`
	DriveFolderID      string `mapstructure:"drive_folder_id"`
	StopLimitThreshold int    `mapstructure:"stop_limit_threshold"`
}

// Ranking holds the Kabutan ranking scraper configuration.
type Ranking struct {
	TopN int `mapstructure:"top_n"`
}

// Load reads configuration from .env, an optional config file, and the
// environment, in that order of increasing precedence.
func Load(configFile string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".pts-stock")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return config, nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.output_dir", "reports")

	viper.SetDefault("gemini.model", "gemini-2.0-flash")
	viper.SetDefault("gemini.embedding_model", "gemini-embedding-001")
	viper.SetDefault("gemini.temperature", 0.2)
	viper.SetDefault("gemini.max_output_tokens", 512)
	viper.SetDefault("gemini.requests_per_sec", 1.0)

	viper.SetDefault("fetch.timeout", "15s")
	viper.SetDefault("fetch.max_attempts", 3)
	viper.SetDefault("fetch.retry_delay", "2s")
	viper.SetDefault("fetch.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")

	viper.SetDefault("report.credentials_path", "credentials.json")
	viper.SetDefault("report.stop_limit_threshold", 10)

	viper.SetDefault("ranking.top_n", 10)
}

// bindEnvironmentVariables sets up flexible environment variable binding.
func bindEnvironmentVariables() {
	bindEnvKeys("gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})

	bindEnvKeys("report.drive_folder_id", []string{
		"GOOGLE_DRIVE_FOLDER_ID",
	})

	bindEnvKeys("report.credentials_path", []string{
		"GOOGLE_CREDS_PATH",
	})
}

// bindEnvKeys binds the first non-empty environment variable to a
// viper key.
func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}
