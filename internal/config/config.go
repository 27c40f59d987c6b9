package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Intake   IntakeConfig
	Scoring  ScoringConfig
	Worker   WorkerConfig
	Gemini   GeminiConfig
	Qdrant   QdrantConfig
	Sheets   SheetsConfig
	Export   ExportConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	// Driver selects the screening store: "memory" or "postgres".
	Driver   string `validate:"oneof=memory postgres"`
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type StorageConfig struct {
	ExportPath  string
	MaxFileSize int64 `validate:"gt=0"`
}

type IntakeConfig struct {
	MaxDocuments int `validate:"gt=0"`
}

// ScoringConfig holds the placeholder scorer parameters. The ranges are
// inclusive on both ends.
type ScoringConfig struct {
	Scorer             string  `validate:"oneof=reference gemini"`
	ScoreMin           int     `validate:"gte=0,lte=100"`
	ScoreMax           int     `validate:"gte=0,lte=100,gtefield=ScoreMin"`
	MatchMin           int     `validate:"gte=0,lte=100"`
	MatchMax           int     `validate:"gte=0,lte=100,gtefield=MatchMin"`
	RedFlagProbability float64 `validate:"gte=0,lte=1"`
	Seed               int64
	Delay              time.Duration `validate:"gte=0"`
}

type WorkerConfig struct {
	Concurrency      int `validate:"gt=0"`
	RetryMaxAttempts int `validate:"gt=0"`
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
}

type SheetsConfig struct {
	CredentialsPath string
}

type ExportConfig struct {
	DateLayout string `validate:"required"`
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "3000"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("STORE_DRIVER", "memory"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "cv_screener"),
		},
		Storage: StorageConfig{
			ExportPath:  getEnv("EXPORT_PATH", "./exports"),
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 10485760),
		},
		Intake: IntakeConfig{
			MaxDocuments: getEnvAsInt("MAX_DOCUMENTS", 50),
		},
		Scoring: ScoringConfig{
			Scorer:             getEnv("SCORER", "reference"),
			ScoreMin:           getEnvAsInt("SCORE_MIN", 60),
			ScoreMax:           getEnvAsInt("SCORE_MAX", 99),
			MatchMin:           getEnvAsInt("MATCH_MIN", 70),
			MatchMax:           getEnvAsInt("MATCH_MAX", 99),
			RedFlagProbability: getEnvAsFloat("RED_FLAG_PROBABILITY", 0.3),
			Seed:               getEnvAsInt64("SCORING_SEED", 0),
			Delay:              getEnvAsDuration("EVALUATION_DELAY", "0s"),
		},
		Worker: WorkerConfig{
			Concurrency:      getEnvAsInt("WORKER_CONCURRENCY", 3),
			RetryMaxAttempts: getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		Qdrant: QdrantConfig{
			URL:        getEnv("QDRANT_URL", ""),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "cv_screener_rubrics"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: getEnv("SHEETS_CREDENTIALS_PATH", ""),
		},
		Export: ExportConfig{
			DateLayout: getEnv("EXPORT_DATE_LAYOUT", "1/2/2006"),
		},
	}
}

// Validate checks the loaded values against their struct constraints.
func (c *Config) Validate() error {
	v := validator.New()
	for name, section := range map[string]interface{}{
		"database": &c.Database,
		"storage":  &c.Storage,
		"intake":   &c.Intake,
		"scoring":  &c.Scoring,
		"worker":   &c.Worker,
		"export":   &c.Export,
	} {
		if err := v.Struct(section); err != nil {
			return fmt.Errorf("invalid %s config: %w", name, err)
		}
	}

	if c.Scoring.Scorer == "gemini" && c.Gemini.APIKey == "" {
		return fmt.Errorf("invalid scoring config: GEMINI_API_KEY is required for the gemini scorer")
	}

	return nil
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
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

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
