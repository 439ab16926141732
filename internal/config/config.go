package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Crawl    CrawlConfig    `mapstructure:"crawl"`
	Parser   ParserConfig   `mapstructure:"parser"`
	Sources  SourcesConfig  `mapstructure:"sources"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN builds the connection string for the configured driver.
// Parameters: none.
// Returns:
//   - string: driver-specific data source name.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
	}
	return c.Path
}

type StorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
}

// CrawlConfig holds the crawl-loop budgets, timeouts, and pacing delays.
type CrawlConfig struct {
	MaxPages       int           `mapstructure:"max_pages"`
	MaxProjects    int           `mapstructure:"max_projects"`
	HoursFilter    int           `mapstructure:"hours_filter"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	FileTimeout    time.Duration `mapstructure:"file_timeout"`
	PageDelayMs    int           `mapstructure:"page_delay_ms"`
	DetailDelayMs  int           `mapstructure:"detail_delay_ms"`
	FileDelayMs    int           `mapstructure:"file_delay_ms"`
	MaxFileSize    int64         `mapstructure:"max_file_size"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// ParserConfig holds settings for the external text-extraction service.
type ParserConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxTextSize int           `mapstructure:"max_text_size"`
}

type SourcesConfig struct {
	Bizinfo  PortalConfig `mapstructure:"bizinfo"`
	KStartup PortalConfig `mapstructure:"kstartup"`
}

type PortalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	// Set config file path
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/bizharvest.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.bucket", "announcements")
	v.SetDefault("crawl.max_pages", 5)
	v.SetDefault("crawl.max_projects", 50)
	v.SetDefault("crawl.hours_filter", 28)
	v.SetDefault("crawl.request_timeout", 15*time.Second)
	v.SetDefault("crawl.file_timeout", 60*time.Second)
	v.SetDefault("crawl.page_delay_ms", 1000)
	v.SetDefault("crawl.detail_delay_ms", 500)
	v.SetDefault("crawl.file_delay_ms", 300)
	v.SetDefault("crawl.max_file_size", int64(10*1024*1024))
	v.SetDefault("crawl.user_agent", "bizharvest/1.0 (+support-program harvester)")
	v.SetDefault("parser.base_url", "")
	v.SetDefault("parser.timeout", 30*time.Second)
	v.SetDefault("parser.max_text_size", 100_000)
	v.SetDefault("sources.bizinfo.enabled", true)
	v.SetDefault("sources.bizinfo.base_url", "https://www.bizinfo.go.kr")
	v.SetDefault("sources.kstartup.enabled", true)
	v.SetDefault("sources.kstartup.base_url", "https://www.k-startup.go.kr")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data and the
	// operational knobs operators tune most often.
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	v.BindEnv("storage.access_key", "STORAGE_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "STORAGE_SECRET_KEY")
	v.BindEnv("storage.use_ssl", "STORAGE_USE_SSL")
	v.BindEnv("parser.base_url", "PARSER_BASE_URL")
	v.BindEnv("parser.api_key", "PARSER_API_KEY")
	v.BindEnv("crawl.max_pages", "MAX_PAGES")
	v.BindEnv("crawl.max_projects", "MAX_PROJECTS")
	v.BindEnv("crawl.hours_filter", "HOURS_FILTER")
	v.BindEnv("crawl.request_timeout", "REQUEST_TIMEOUT")
	v.BindEnv("crawl.file_timeout", "FILE_TIMEOUT")
	v.BindEnv("crawl.page_delay_ms", "PAGE_DELAY_MS")
	v.BindEnv("crawl.detail_delay_ms", "DETAIL_DELAY_MS")
	v.BindEnv("crawl.file_delay_ms", "FILE_DELAY_MS")
	v.BindEnv("crawl.max_file_size", "MAX_FILE_SIZE")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
