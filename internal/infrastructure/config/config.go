package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Missing-section policies for generated guides.
const (
	SectionPolicyShip        = "ship"
	SectionPolicyPlaceholder = "placeholder"
	SectionPolicyRetry       = "retry"
)

// TableConfig addresses one logical table in the remote table service.
type TableConfig struct {
	AppToken string
	TableID  string
}

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string
	LogLevel   string

	// Server
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// MongoDB
	MongoURI      string
	MongoDB       string
	MongoUser     string
	MongoPassword string

	// PostgreSQL (city coordinate table)
	PostgresURI string

	// Remote table service
	TableBaseURL      string
	TableAppID        string
	TableAppSecret    string
	RequestsTable     TableConfig
	GuidesTable       TableConfig
	UsersTable        TableConfig
	TableRetries      int
	TableRetryDelay   time.Duration
	TokenTTLFallback  time.Duration
	TokenSafetyMargin time.Duration

	// Weather provider
	WeatherBaseURL string
	WeatherGeoURL  string
	WeatherAPIKey  string

	// Routing provider
	RoutingBaseURL string
	RoutingAPIKey  string

	// Generation provider
	AIBaseURL     string
	AIAPIKey      string
	AIModel       string
	AITemperature float64
	AIMaxTokens   int

	// Outbound calls
	OutboundTimeout time.Duration

	// Sessions
	JWTSecret string
	JWTTTL    time.Duration

	// Guide sections
	SectionPolicy string

	// Rate limiting for generation endpoints
	GenerateRatePerMinute int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	// Set defaults and override with env vars
	config := &Config{
		AppVersion:   getEnv("APP_VERSION", "1.0.0"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Port:         getEnv("PORT", "8080"),
		ReadTimeout:  time.Duration(getEnvAsInt("READ_TIMEOUT", 30)) * time.Second,
		WriteTimeout: time.Duration(getEnvAsInt("WRITE_TIMEOUT", 120)) * time.Second,

		MongoURI:      getEnv("MONGODB_DSN", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "tripgen"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),

		PostgresURI: getEnv("POSTGRES_DSN", "host=localhost user=postgres dbname=tripgen port=5432"),

		TableBaseURL:      getEnv("TABLE_BASE_URL", "https://open.feishu.cn"),
		TableAppID:        getEnv("TABLE_APP_ID", ""),
		TableAppSecret:    getEnv("TABLE_APP_SECRET", ""),
		RequestsTable:     TableConfig{AppToken: getEnv("REQUEST_APP_TOKEN", ""), TableID: getEnv("REQUEST_TABLE_ID", "")},
		GuidesTable:       TableConfig{AppToken: getEnv("GUIDE_APP_TOKEN", ""), TableID: getEnv("GUIDE_TABLE_ID", "")},
		UsersTable:        TableConfig{AppToken: getEnv("USER_APP_TOKEN", ""), TableID: getEnv("USER_TABLE_ID", "")},
		TableRetries:      getEnvAsInt("TABLE_RETRIES", 3),
		TableRetryDelay:   time.Duration(getEnvAsInt("TABLE_RETRY_DELAY", 1)) * time.Second,
		TokenTTLFallback:  time.Duration(getEnvAsInt("TOKEN_TTL_FALLBACK", 7200)) * time.Second,
		TokenSafetyMargin: time.Duration(getEnvAsInt("TOKEN_SAFETY_MARGIN", 300)) * time.Second,

		WeatherBaseURL: getEnv("WEATHER_BASE_URL", "https://devapi.qweather.com"),
		WeatherGeoURL:  getEnv("WEATHER_GEO_URL", "https://geoapi.qweather.com"),
		WeatherAPIKey:  getEnv("WEATHER_API_KEY", ""),

		RoutingBaseURL: getEnv("ROUTING_BASE_URL", "https://restapi.amap.com"),
		RoutingAPIKey:  getEnv("ROUTING_API_KEY", ""),

		AIBaseURL:     getEnv("AI_BASE_URL", "https://api.deepseek.com"),
		AIAPIKey:      getEnv("AI_API_KEY", ""),
		AIModel:       getEnv("AI_MODEL", "deepseek-chat"),
		AITemperature: getEnvAsFloat("AI_TEMPERATURE", 0.7),
		AIMaxTokens:   getEnvAsInt("AI_MAX_TOKENS", 4000),

		OutboundTimeout: time.Duration(getEnvAsInt("OUTBOUND_TIMEOUT", 30)) * time.Second,

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTTTL:    time.Duration(getEnvAsInt("JWT_TTL_HOURS", 24)) * time.Hour,

		SectionPolicy: getEnv("SECTION_POLICY", SectionPolicyShip),

		GenerateRatePerMinute: getEnvAsInt("GENERATE_RATE_PER_MINUTE", 6),
	}

	return config, nil
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}
