package config

// Config holds extract configuration.
// Stored at: ~/.extract/config.yaml
type Config struct {
	LLMProviders map[string]LLMProviderCfg `mapstructure:"llm_providers" yaml:"llm_providers"`
	Defaults     DefaultsCfg               `mapstructure:"defaults" yaml:"defaults"`
	Postgres     PostgresConfig            `mapstructure:"postgres" yaml:"postgres"`
	Server       ServerConfig              `mapstructure:"server" yaml:"server"`
}

// LLMProviderCfg configures an LLM provider.
type LLMProviderCfg struct {
	Type    string `mapstructure:"type" yaml:"type"`         // "openai", "openrouter", "mock"
	Model   string `mapstructure:"model" yaml:"model"`       // Default model name
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`   // API key (supports ${ENV_VAR} syntax)
	BaseURL string `mapstructure:"base_url" yaml:"base_url"` // Optional API base URL override
	RPM     int    `mapstructure:"rpm" yaml:"rpm"`           // Requests per minute (0 = unlimited)
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultsCfg specifies default selections.
type DefaultsCfg struct {
	LLMProvider string `mapstructure:"llm_provider" yaml:"llm_provider"` // Default LLM provider
	Model       string `mapstructure:"model" yaml:"model"`               // Default model override (optional)
}

// PostgresConfig holds Postgres container configuration.
type PostgresConfig struct {
	// ContainerName is the Docker container name (default: extract-postgres)
	ContainerName string `mapstructure:"container_name" yaml:"container_name"`
	// Image is the Docker image to use (default: postgres:16-alpine)
	Image string `mapstructure:"image" yaml:"image"`
	// Port is the host port to bind (default: 5433)
	Port string `mapstructure:"port" yaml:"port"`
	// User, Password and Database configure the initial role and database.
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	Database string `mapstructure:"database" yaml:"database"`
	// DSN overrides container management entirely: when set the server
	// connects to an external Postgres and never touches Docker.
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	// Port is the HTTP listen port (default: 8765)
	Port string `mapstructure:"port" yaml:"port"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLMProviders: map[string]LLMProviderCfg{
			"openai": {
				Type:    "openai",
				Model:   "gpt-4o-mini",
				APIKey:  "${OPENAI_API_KEY}",
				Enabled: true,
			},
			"openrouter": {
				Type:    "openrouter",
				Model:   "anthropic/claude-sonnet-4",
				APIKey:  "${OPENROUTER_API_KEY}",
				Enabled: true,
			},
		},
		Defaults: DefaultsCfg{
			LLMProvider: "openai",
		},
		Postgres: PostgresConfig{
			ContainerName: "extract-postgres",
			Image:         "postgres:16-alpine",
			Port:          "5433",
			User:          "extract",
			Password:      "extract",
			Database:      "extract",
		},
		Server: ServerConfig{
			Port: "8765",
		},
	}
}

// GetLLMProvider returns an LLM provider config by name.
func (c *Config) GetLLMProvider(name string) (LLMProviderCfg, bool) {
	cfg, ok := c.LLMProviders[name]
	return cfg, ok
}

// EnabledLLMProviders returns all enabled LLM providers.
func (c *Config) EnabledLLMProviders() map[string]LLMProviderCfg {
	result := make(map[string]LLMProviderCfg)
	for name, cfg := range c.LLMProviders {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}
