package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Supported record store backends.
const (
	StoreBackendCSV      = "csv"
	StoreBackendPostgres = "postgres"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Store      StoreConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Cache      CacheConfig
	CORS       CORSConfig
	Log        LogConfig
	Recommend  RecommendConfig
	Graduation GraduationConfig
	Reports    ReportsConfig
	Metrics    MetricsConfig
}

// StoreConfig selects where course records live.
type StoreConfig struct {
	Backend string
	CSVPath string
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig toggles the audit summary cache.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// RecommendConfig tunes the course recommender.
type RecommendConfig struct {
	MaxCount int
	Seed     int64
	// Strict limits candidates to courses still in Remaining units.
	Strict bool
}

// GraduationConfig holds the defaults for graduation projection.
type GraduationConfig struct {
	CreditsPerSemester float64
	MonthsPerSemester  int
}

// ReportsConfig configures degree audit exports.
type ReportsConfig struct {
	StorageDir string
}

// MetricsConfig toggles Prometheus instrumentation.
type MetricsConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Store = StoreConfig{
		Backend: strings.ToLower(strings.TrimSpace(v.GetString("STORE_BACKEND"))),
		CSVPath: v.GetString("STORE_CSV_PATH"),
	}
	if cfg.Store.Backend != StoreBackendPostgres {
		cfg.Store.Backend = StoreBackendCSV
	}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 10*time.Minute),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxCount := v.GetInt("RECOMMEND_MAX_COUNT")
	if maxCount <= 0 {
		maxCount = 4
	}
	cfg.Recommend = RecommendConfig{
		MaxCount: maxCount,
		Seed:     v.GetInt64("RECOMMEND_SEED"),
		Strict:   v.GetBool("RECOMMEND_STRICT"),
	}

	cfg.Graduation = GraduationConfig{
		CreditsPerSemester: v.GetFloat64("CREDITS_PER_SEMESTER"),
		MonthsPerSemester:  v.GetInt("MONTHS_PER_SEMESTER"),
	}

	cfg.Reports = ReportsConfig{StorageDir: v.GetString("REPORTS_STORAGE_DIR")}
	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("STORE_BACKEND", StoreBackendCSV)
	v.SetDefault("STORE_CSV_PATH", "./data/ClassRequirements.csv")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "degree_pathway")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 5)
	v.SetDefault("DB_MAX_IDLE_CONNS", 2)

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_TTL", "10m")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("RECOMMEND_MAX_COUNT", 4)
	v.SetDefault("RECOMMEND_SEED", 0)
	v.SetDefault("RECOMMEND_STRICT", true)

	v.SetDefault("CREDITS_PER_SEMESTER", 12)
	v.SetDefault("MONTHS_PER_SEMESTER", 4)

	v.SetDefault("REPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("ENABLE_METRICS", true)
}

// viper reports a missing explicit config file as a *fs.PathError rather
// than ConfigFileNotFoundError.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
