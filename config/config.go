package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends understood by storage.Open.
const (
	StoreFirestore = "firestore"
	StoreMongo     = "mongo"
	StoreDynamoDB  = "dynamodb"
	StorePostgres  = "postgres"
	StoreMemory    = "memory"
)

// Duplicate id policies.
const (
	DuplicatesReject   = "reject"
	DuplicatesLastWins = "last-wins"
)

// DefaultBatchSize stays under Firestore's 500-write batch cap.
const DefaultBatchSize = 400

// Config holds all application configuration loaded from environment variables.
type Config struct {
	InputPath  string
	Collection string

	Store string

	MaxBatchSize         int
	DryRun               bool
	ContinueOnBatchError bool
	DuplicatePolicy      string
	BatchTimeout         time.Duration

	ReportCSVPath string

	GCPProject string

	MongoURI string
	MongoDB  string

	DynamoRegion   string
	DynamoEndpoint string
	DynamoKey      string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	ConnectRetries int

	LogLevel  string
	LogFormat string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		InputPath:  getEnv("IMPORT_FILE", "villa_collection.json"),
		Collection: getEnv("IMPORT_COLLECTION", "villas"),

		Store: getEnv("IMPORT_STORE", StoreFirestore),

		MaxBatchSize:         getEnvInt("IMPORT_BATCH_SIZE", DefaultBatchSize),
		DryRun:               getEnvBool("IMPORT_DRY_RUN", false),
		ContinueOnBatchError: getEnvBool("IMPORT_CONTINUE_ON_ERROR", false),
		DuplicatePolicy:      getEnv("IMPORT_DUPLICATES", DuplicatesReject),
		BatchTimeout:         getEnvDuration("IMPORT_BATCH_TIMEOUT", 0),

		ReportCSVPath: getEnv("IMPORT_REPORT_CSV", ""),

		GCPProject: firstEnv("GOOGLE_CLOUD_PROJECT", "GCLOUD_PROJECT"),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
		MongoDB:  getEnv("MONGO_DB", "listings"),

		DynamoRegion:   getEnv("AWS_REGION", ""),
		DynamoEndpoint: getEnv("DYNAMODB_ENDPOINT", ""),
		DynamoKey:      getEnv("DYNAMODB_KEY_ATTRIBUTE", "id"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "importer"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "importer"),
		PostgresDB:       getEnv("POSTGRES_DB", "listings"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		ConnectRetries: getEnvInt("CONNECT_RETRIES", 5),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}
}

// Validate normalizes the config and rejects values the importer cannot run
// with. It returns warnings for values it adjusted.
func (c *Config) Validate() (warnings []string, err error) {
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	c.DuplicatePolicy = strings.ToLower(strings.TrimSpace(c.DuplicatePolicy))
	c.Collection = strings.TrimSpace(c.Collection)

	if strings.TrimSpace(c.InputPath) == "" {
		return nil, fmt.Errorf("config: input file path is required")
	}
	if c.Collection == "" {
		return nil, fmt.Errorf("config: collection name is required")
	}
	if strings.Contains(c.Collection, "/") {
		return nil, fmt.Errorf("config: collection name %q must not contain '/'", c.Collection)
	}

	limit, ok := BatchLimit(c.Store)
	if !ok {
		return nil, fmt.Errorf("config: unknown store %q", c.Store)
	}

	switch c.DuplicatePolicy {
	case DuplicatesReject, DuplicatesLastWins:
	default:
		return nil, fmt.Errorf("config: unknown duplicate policy %q (want %s or %s)",
			c.DuplicatePolicy, DuplicatesReject, DuplicatesLastWins)
	}

	if c.MaxBatchSize < 1 {
		return nil, fmt.Errorf("config: batch size must be at least 1, got %d", c.MaxBatchSize)
	}
	if limit > 0 && c.MaxBatchSize > limit {
		warnings = append(warnings, fmt.Sprintf(
			"batch size %d exceeds the %s limit of %d writes; using %d",
			c.MaxBatchSize, c.Store, limit, limit))
		c.MaxBatchSize = limit
	}

	if c.BatchTimeout < 0 {
		return nil, fmt.Errorf("config: batch timeout must not be negative")
	}

	if c.Store == StoreFirestore && c.GCPProject == "" && !c.DryRun {
		return nil, fmt.Errorf("config: GOOGLE_CLOUD_PROJECT must be set for the firestore store")
	}

	return warnings, nil
}

// BatchLimit returns the maximum number of writes the store accepts in one
// atomic batch (0 means unbounded) and whether the store is known.
func BatchLimit(store string) (int, bool) {
	switch store {
	case StoreFirestore:
		return 500, true
	case StoreDynamoDB:
		return 100, true
	case StoreMongo, StorePostgres:
		return 1000, true
	case StoreMemory:
		return 0, true
	}
	return 0, false
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if val := os.Getenv(k); val != "" {
			return val
		}
	}
	return ""
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}
