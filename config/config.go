package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Env        string           `yaml:"env"`
	Addr       string           `yaml:"addr"`
	LogLevel   string           `yaml:"log_level"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Redis      RedisConfig      `yaml:"redis"`
	AMQP       AMQPConfig       `yaml:"amqp"`
	CORS       CORSConfig       `yaml:"cors"`
	Pagination PaginationConfig `yaml:"pagination"`
	Reports    ReportsConfig    `yaml:"reports"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
	// Path is the sqlite file (or file: URI) used when Driver is "sqlite".
	Path string `yaml:"path"`
}

type AuthConfig struct {
	JWTSecret     string         `yaml:"jwt_secret"`
	SessionTTL    time.Duration  `yaml:"session_ttl"`
	CookieName    string         `yaml:"cookie_name"`
	SecureCookie  bool           `yaml:"secure_cookie"`
	OIDCIssuer    string         `yaml:"oidc_issuer"`
	OIDCClientID  string         `yaml:"oidc_client_id"`
	OIDCRoleClaim string         `yaml:"oidc_role_claim"`
	Password      PasswordPolicy `yaml:"password"`
}

type PasswordPolicy struct {
	MinLength      int  `yaml:"min_length"`
	RequireUpper   bool `yaml:"require_upper"`
	RequireLower   bool `yaml:"require_lower"`
	RequireNumber  bool `yaml:"require_number"`
	RequireSpecial bool `yaml:"require_special"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AMQPConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

type CORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins"`
}

type PaginationConfig struct {
	PageSize       int `yaml:"page_size"`
	MaxPageSize    int `yaml:"max_page_size"`
	APIPageSize    int `yaml:"api_page_size"`
	APIMaxPageSize int `yaml:"api_max_page_size"`
}

type ReportsConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns the development configuration.
func Default() Config {
	return Config{
		Env:      "development",
		Addr:     ":8080",
		LogLevel: "info",
		Database: DatabaseConfig{
			Driver:  "sqlite",
			Host:    "localhost",
			Port:    "5432",
			User:    "crm_user",
			Name:    "crm_db",
			SSLMode: "disable",
			Path:    "crm.sqlite3",
		},
		Auth: AuthConfig{
			SessionTTL:    time.Hour,
			CookieName:    "crm_session",
			OIDCRoleClaim: "role",
			Password: PasswordPolicy{
				MinLength:      8,
				RequireUpper:   true,
				RequireLower:   true,
				RequireNumber:  true,
				RequireSpecial: true,
			},
		},
		AMQP: AMQPConfig{Exchange: "crm.events"},
		CORS: CORSConfig{AllowOrigins: []string{"http://localhost:3000"}},
		Pagination: PaginationConfig{
			PageSize:       20,
			MaxPageSize:    100,
			APIPageSize:    10,
			APIMaxPageSize: 50,
		},
		Reports: ReportsConfig{Dir: "."},
	}
}

// Load reads .env files, the optional YAML file at path and finally the
// process environment, each layer overriding the previous one.
func Load(path string) (Config, error) {
	loadDotEnv()

	cfg := Default()
	if path == "" {
		path = os.Getenv("CRM_CONFIG")
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadDotEnv() {
	if os.Getenv("APP_ENV") == "local" {
		if err := godotenv.Load(".env.local"); err != nil {
			log.Printf("Warning: .env.local not loaded: %v", err)
		}
	}
	// A missing .env is fine, the OS environment is used as-is.
	_ = godotenv.Load()
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	str("APP_ENV", &cfg.Env)
	str("CRM_ADDR", &cfg.Addr)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("DB_DRIVER", &cfg.Database.Driver)
	str("DB_HOST", &cfg.Database.Host)
	str("DB_PORT", &cfg.Database.Port)
	str("DB_USER", &cfg.Database.User)
	str("DB_PASSWORD", &cfg.Database.Password)
	str("DB_NAME", &cfg.Database.Name)
	str("DB_SSLMODE", &cfg.Database.SSLMode)
	str("DB_PATH", &cfg.Database.Path)
	str("JWT_SECRET", &cfg.Auth.JWTSecret)
	str("OIDC_ISSUER", &cfg.Auth.OIDCIssuer)
	str("OIDC_CLIENT_ID", &cfg.Auth.OIDCClientID)
	str("OIDC_ROLE_CLAIM", &cfg.Auth.OIDCRoleClaim)
	str("REDIS_ADDR", &cfg.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Redis.Password)
	str("AMQP_URL", &cfg.AMQP.URL)
	str("AMQP_EXCHANGE", &cfg.AMQP.Exchange)
	str("REPORTS_DIR", &cfg.Reports.Dir)

	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SESSION_TTL: %w", err)
		}
		cfg.Auth.SessionTTL = d
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		cfg.Redis.DB = n
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORS.AllowOrigins = origins
	}
	return nil
}

func (c Config) IsProduction() bool { return c.Env == "production" }

// Validate collects every configuration problem instead of stopping at the first.
func (c Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "postgres":
		if c.Database.Name == "" {
			errs = append(errs, errors.New("database name not specified"))
		}
	case "sqlite":
		if c.Database.Path == "" {
			errs = append(errs, errors.New("sqlite path not specified"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}
	if c.Auth.Password.MinLength < 6 {
		errs = append(errs, errors.New("password minimum length should be at least 6 characters"))
	}
	if c.IsProduction() && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}
	if c.Auth.SessionTTL <= 0 {
		errs = append(errs, errors.New("session ttl must be positive"))
	}
	if c.Pagination.APIMaxPageSize < c.Pagination.APIPageSize {
		errs = append(errs, errors.New("api max page size is smaller than the default page size"))
	}
	if c.Pagination.MaxPageSize < c.Pagination.PageSize {
		errs = append(errs, errors.New("max page size is smaller than the default page size"))
	}
	return errors.Join(errs...)
}
