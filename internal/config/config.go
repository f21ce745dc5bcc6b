// backend-go/internal/config/config.go
package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Sources  SourcesConfig
	Report   ReportConfig
	Export   ExportConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// SourcesConfig points at the three external reference tables plus the wide
// inventory time series. References are Google Sheet CSV export links, or
// "drive:<file name>" to read the named file from DriveFolderPath.
type SourcesConfig struct {
	InventoryURL string
	ProductsURL  string
	RatesURL     string
	B2BSheetURL  string
	UploadDir    string

	DriveCredentialsJSON string
	DriveFolderPath      string
}

type CacheConfig struct {
	Enabled           bool
	RedisURL          string
	RedisHost         string
	RedisPort         string
	RedisPassword     string
	RedisDB           int
	ReportTTLSeconds  int
	SourceTTLSeconds  int
	BlockedTTLSeconds int
}

type ReportConfig struct {
	DefaultDRR float64
	DefaultASP float64
}

type ExportConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 30)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 30)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "bizloss")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_REPORT_TTL_SECONDS", 300)
		viper.SetDefault("CACHE_SOURCE_TTL_SECONDS", 600)
		viper.SetDefault("CACHE_BLOCKED_TTL_SECONDS", 300)
		viper.SetDefault("SOURCE_UPLOAD_DIR", "./data/uploads")
		viper.SetDefault("REPORT_DEFAULT_DRR", 5.0)
		viper.SetDefault("REPORT_DEFAULT_ASP", 250.0)
		viper.SetDefault("EXPORT_REGION", "us-east-1")
		viper.SetDefault("EXPORT_USE_SSL", true)

		// Read from environment variables
		viper.AutomaticEnv()

		// Ensure the upload directory exists
		ensureDir(viper.GetString("SOURCE_UPLOAD_DIR"))

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:           viper.GetBool("CACHE_ENABLED"),
				RedisURL:          viper.GetString("REDIS_URL"),
				RedisHost:         viper.GetString("REDIS_HOST"),
				RedisPort:         viper.GetString("REDIS_PORT"),
				RedisPassword:     viper.GetString("REDIS_PASSWORD"),
				RedisDB:           viper.GetInt("REDIS_DB"),
				ReportTTLSeconds:  viper.GetInt("CACHE_REPORT_TTL_SECONDS"),
				SourceTTLSeconds:  viper.GetInt("CACHE_SOURCE_TTL_SECONDS"),
				BlockedTTLSeconds: viper.GetInt("CACHE_BLOCKED_TTL_SECONDS"),
			},
			Sources: SourcesConfig{
				InventoryURL:         viper.GetString("SOURCE_INVENTORY_URL"),
				ProductsURL:          viper.GetString("SOURCE_PRODUCTS_URL"),
				RatesURL:             viper.GetString("SOURCE_RATES_URL"),
				B2BSheetURL:          viper.GetString("SOURCE_B2B_SHEET_URL"),
				UploadDir:            viper.GetString("SOURCE_UPLOAD_DIR"),
				DriveCredentialsJSON: os.Getenv("GOOGLE_DRIVE_CREDENTIALS_JSON"),
				DriveFolderPath:      viper.GetString("SOURCE_DRIVE_FOLDER"),
			},
			Report: ReportConfig{
				DefaultDRR: viper.GetFloat64("REPORT_DEFAULT_DRR"),
				DefaultASP: viper.GetFloat64("REPORT_DEFAULT_ASP"),
			},
			Export: ExportConfig{
				Endpoint:  viper.GetString("EXPORT_ENDPOINT"),
				AccessKey: viper.GetString("EXPORT_ACCESS_KEY"),
				SecretKey: viper.GetString("EXPORT_SECRET_KEY"),
				Bucket:    viper.GetString("EXPORT_BUCKET"),
				Region:    viper.GetString("EXPORT_REGION"),
				UseSSL:    viper.GetBool("EXPORT_USE_SSL"),
			},
		}
	})

	return instance
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
