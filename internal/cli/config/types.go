// Package config provides configuration management for the leapdash
// CLI: warehouse target, completion provider, and server settings
// loaded from file, environment, and flags.
package config

// WarehouseConfig describes the warehouse connection target.
type WarehouseConfig struct {
	Type     string            `koanf:"type"`
	Path     string            `koanf:"path"`
	Host     string            `koanf:"host"`
	Port     int               `koanf:"port"`
	Database string            `koanf:"database"`
	Username string            `koanf:"username"`
	Password string            `koanf:"password"`
	Schema   string            `koanf:"schema"`
	Options  map[string]string `koanf:"options"`
}

// LLMConfig describes the chat completion provider.
type LLMConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	APIKey      string  `koanf:"api_key"`
	Model       string  `koanf:"model"`
	Temperature float64 `koanf:"temperature"`
	MaxTokens   int     `koanf:"max_tokens"`
	TimeoutSecs int     `koanf:"timeout_secs"`

	// Suggestions toggles external chart suggestions; the heuristic
	// recommender always runs as fallback.
	Suggestions bool `koanf:"suggestions"`

	// Insights toggles external narrative insights; deterministic
	// insights always run as fallback.
	Insights bool `koanf:"insights"`

	// FollowUps toggles follow-up question suggestions after each
	// answer. Failures are non-fatal either way.
	FollowUps bool `koanf:"follow_ups"`
}

// ServerConfig holds API server settings.
type ServerConfig struct {
	Port int `koanf:"port"`
}

// Config holds all CLI configuration options.
type Config struct {
	Warehouse WarehouseConfig `koanf:"warehouse"`
	LLM       LLMConfig       `koanf:"llm"`
	Server    ServerConfig    `koanf:"server"`
	Verbose   bool            `koanf:"verbose"`
	Output    string          `koanf:"output"`
}

// Default configuration values.
const (
	DefaultWarehouseType = "duckdb"
	DefaultEndpoint      = "https://api.openai.com/v1/chat/completions"
	DefaultModel         = "gpt-4o-mini"
	DefaultServerPort    = 8600
	DefaultOutput        = "table"
)
