package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
}

type ConfigSchema struct {
	Databases struct {
		Driver             string     `yaml:"driver"`
		DSN                string     `yaml:"dsn"`
		Master             DBConfig   `yaml:"master"`
		Replicas           []DBConfig `yaml:"replicas"`
		SQLitePath         string     `yaml:"sqlite_path"`
		AtomicPairedWrites bool       `yaml:"atomic_paired_writes"`
	} `yaml:"db"`
	Redis struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	RabbitMQ struct {
		URL   string `yaml:"url"`
		Queue string `yaml:"queue"`
	} `yaml:"rabbitmq"`
	Auth struct {
		JWTSecret string        `yaml:"jwt_secret"`
		TokenTTL  time.Duration `yaml:"token_ttl"`
	} `yaml:"auth"`
	Blob struct {
		Dir       string `yaml:"dir"`
		PublicURL string `yaml:"public_url"`
	} `yaml:"blob"`
	Uploads struct {
		PostImageMaxBytes int64 `yaml:"post_image_max_bytes"`
		AvatarMaxBytes    int64 `yaml:"avatar_max_bytes"`
	} `yaml:"uploads"`
	Backend struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"backend"`
	CORS struct {
		Origins []string `yaml:"origins"`
	} `yaml:"cors"`
	API struct {
		LegacyToggleRoutes *bool `yaml:"legacy_toggle_routes"`
	} `yaml:"api"`
	Presence struct {
		RequireToken bool `yaml:"require_token"`
	} `yaml:"presence"`
	Logs struct {
		Level string `yaml:"level"`
	} `yaml:"logs"`
}

var AppConfig *ConfigSchema

// LegacyToggles reports whether toggles stay reachable through GET.
func (c *ConfigSchema) LegacyToggles() bool {
	return c.API.LegacyToggleRoutes == nil || *c.API.LegacyToggleRoutes
}

func (c *ConfigSchema) applyDefaults() {
	if c.Databases.Driver == "" {
		c.Databases.Driver = "postgres"
	}
	if c.Databases.Master.Port == 0 {
		c.Databases.Master.Port = 5432
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = time.Hour
	}
	if c.Blob.Dir == "" {
		c.Blob.Dir = "uploads"
	}
	if c.Blob.PublicURL == "" {
		c.Blob.PublicURL = "/uploads"
	}
	if c.Uploads.PostImageMaxBytes == 0 {
		c.Uploads.PostImageMaxBytes = 1_000_000
	}
	if c.Uploads.AvatarMaxBytes == 0 {
		c.Uploads.AvatarMaxBytes = 500_000
	}
	if c.RabbitMQ.Queue == "" {
		c.RabbitMQ.Queue = "social_notifications"
	}
	if c.Backend.Port == 0 {
		c.Backend.Port = 8080
	}
	if c.Logs.Level == "" {
		c.Logs.Level = "info"
	}
}

// applyEnv lets deployment secrets override the file.
func (c *ConfigSchema) applyEnv() {
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		c.Databases.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, ok := splitHostPort(v)
		if ok {
			c.Redis.Host, c.Redis.Port = host, port
		}
	}
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		c.RabbitMQ.URL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Backend.Port = p
		}
	}
}

func (c *ConfigSchema) validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret (or JWT_SECRET) is required")
	}
	switch c.Databases.Driver {
	case "postgres", "sqlite":
	default:
		return errors.New("db.driver must be postgres or sqlite")
	}
	return nil
}

func splitHostPort(addr string) (string, int, bool) {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			port, err := strconv.Atoi(addr[i+1:])
			if err != nil {
				return "", 0, false
			}
			return addr[:i], port, true
		}
	}
	return "", 0, false
}

// LoadEnv reads a .env file when one is present.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return err
		}
	}
	return nil
}

func Parse(data []byte) (*ConfigSchema, error) {
	conf := &ConfigSchema{}
	if err := yaml.Unmarshal(data, conf); err != nil {
		return nil, err
	}
	conf.applyDefaults()
	conf.applyEnv()
	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func LoadConfig(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	conf, err := Parse(data)
	if err != nil {
		return err
	}
	AppConfig = conf
	return nil
}
