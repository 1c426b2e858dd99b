package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// AWS configuration
	AWSRegion     string
	DynamoDBTable string
	TreeIndexName string // GSI1 - lookups by tree id
	EventBusName  string

	// Lambda configuration
	IsLambda           bool
	LambdaFunctionName string
	ColdStartTimeout   int // milliseconds

	// WebSocket configuration
	WebSocketEndpoint string
	ConnectionsTable  string

	// Explorer (AI) configuration. The provider speaks the OpenAI chat
	// API; BaseURL defaults to the Groq-hosted endpoint.
	ExplorerProvider    string
	ExplorerAPIKey      string
	ExplorerBaseURL     string
	ExplorerModel       string
	ExplorerTimeout     time.Duration
	ExpansionsPerMinute int // per-session AI call budget, 0 disables it
	ExplanationTTLSecs  int

	// Persistence behavior
	SaveLockEnabled bool
	SaveLockTTL     time.Duration

	// Session registry
	SessionSweepInterval time.Duration

	// Logging
	LogLevel string

	// Authentication
	JWTSecret string
	JWTIssuer string

	// Rate limiting for the HTTP surface
	RequestsPerMinute int

	// Feature flags
	EnableMetrics bool
	EnableTracing bool
	EnableCORS    bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", "nodelearner")),
		TreeIndexName: getEnv("TREE_INDEX_NAME", "TreeIndex"), // GSI1
		EventBusName:  getEnv("EVENT_BUS_NAME", "nodelearner-events"),

		// Lambda configuration
		IsLambda:           getEnvBool("IS_LAMBDA", false),
		LambdaFunctionName: getEnv("AWS_LAMBDA_FUNCTION_NAME", ""),
		ColdStartTimeout:   getEnvInt("COLD_START_TIMEOUT", 3000),

		// WebSocket configuration
		WebSocketEndpoint: getEnv("WEBSOCKET_ENDPOINT", ""),
		ConnectionsTable:  getEnv("CONNECTIONS_TABLE", "nodelearner-connections"),

		// Explorer configuration
		ExplorerProvider:    getEnv("EXPLORER_PROVIDER", "groq"),
		ExplorerAPIKey:      getEnv("GROQ_API_KEY", getEnv("EXPLORER_API_KEY", "")),
		ExplorerBaseURL:     getEnv("EXPLORER_BASE_URL", "https://api.groq.com/openai/v1"),
		ExplorerModel:       getEnv("EXPLORER_MODEL", "llama3-70b-8192"),
		ExplorerTimeout:     getEnvDuration("EXPLORER_TIMEOUT", 30*time.Second),
		ExpansionsPerMinute: getEnvInt("EXPANSIONS_PER_MINUTE", 20),
		ExplanationTTLSecs:  getEnvInt("EXPLANATION_TTL_SECS", 3600),

		// Persistence behavior
		SaveLockEnabled: getEnvBool("SAVE_LOCK_ENABLED", false),
		SaveLockTTL:     getEnvDuration("SAVE_LOCK_TTL", 30*time.Second),

		// Session registry
		SessionSweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute),

		// Authentication
		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "nodelearner"),

		// Rate limiting
		RequestsPerMinute: getEnvInt("REQUESTS_PER_MINUTE", 120),

		// Logging and features
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", false),
		EnableTracing: getEnvBool("ENABLE_TRACING", false),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig for backwards compatibility
func Load() (*Config, error) {
	return LoadConfig()
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required")
		}
		if c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required")
		}
		if c.ExplorerProvider != "mock" && c.ExplorerAPIKey == "" {
			return fmt.Errorf("GROQ_API_KEY is required in production unless EXPLORER_PROVIDER=mock")
		}
	}

	switch c.ExplorerProvider {
	case "groq", "openai", "mock":
	default:
		return fmt.Errorf("unknown EXPLORER_PROVIDER %q", c.ExplorerProvider)
	}

	if c.ExplorerTimeout <= 0 {
		return fmt.Errorf("EXPLORER_TIMEOUT must be positive")
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default
// value. Values use Go duration syntax, for example "45s" or "2m".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
