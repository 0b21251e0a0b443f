package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"identity_service/internal/auth/token"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env          string `yaml:"env" env:"ENV" env-default:"local"`
	Tokens       `yaml:"tokens"`
	Verification `yaml:"verification"`
	RabbitMQ     `yaml:"rabbitmq"`
	Postgres     `yaml:"postgres"`
	Redis        `yaml:"redis"`
	HTTPServer   `yaml:"http_server"`
	GRPCServer   `yaml:"grpc_server"`
	SMTP         `yaml:"smtp"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type GRPCServer struct {
	Address string `yaml:"address" env:"GRPC_ADDRESS" env-default:"localhost:9090"`
}

type Postgres struct {
	Host     string `yaml:"host" env:"POSTGRES_HOST" env-default:"postgres"`
	Port     int    `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"POSTGRES_USER" env-required:"true"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD" env-required:"true"`
	DBName   string `yaml:"dbname" env:"POSTGRES_DB" env-required:"true"`
	SSLMode  string `yaml:"sslmode" env:"POSTGRES_SSLMODE" env-default:"disable"`
}

type Redis struct {
	Address  string `yaml:"address" env:"REDIS_ADDRESS" env-default:"redis:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Tokens struct {
	AccessSecret  string        `yaml:"access_secret" env:"ACCESS_SIGNER_KEY" env-required:"true"`
	RefreshSecret string        `yaml:"refresh_secret" env:"REFRESH_SIGNER_KEY" env-required:"true"`
	AccessTTL     time.Duration `yaml:"access_ttl" env-default:"15m"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl" env-default:"720h"`
	Issuer        string        `yaml:"issuer" env-default:"identity-service"`
	AccessInfo    string        `yaml:"access_info" env-default:""`
}

type Verification struct {
	TTL        time.Duration `yaml:"ttl" env-default:"3m"`
	CodeLength int           `yaml:"code_length" env-default:"6"`
}

type RabbitMQ struct {
	URL       string `yaml:"url" env:"RABBITMQ_URL" env-required:"true"`
	QueueName string `yaml:"queue_name" env-default:"send-mail"`
}

type SMTP struct {
	Host     string `yaml:"host" env:"SMTP_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username string `yaml:"username" env:"SMTP_USERNAME"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from" env:"SMTP_FROM"`
	LinkBase string `yaml:"link_base" env:"SMTP_LINK_BASE" env-default:"http://localhost:8080"`
}

// MustLoad reads the config file named by -config, CONFIG_PATH or the
// fallback path, in that order.
func MustLoad(fallback string) *Config {
	configPath := fetchConfigPath()
	if configPath == "" {
		configPath = fallback
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("Config file does not exist: " + configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		panic("Failed to read config: " + err.Error())
	}

	return cfg
}

func Load(configPath string) (*Config, error) {
	const op = "config.Load"

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Tokens.AccessSecret == "" || c.Tokens.RefreshSecret == "":
		return errors.New("signing secrets must not be empty")
	case c.Tokens.AccessSecret == c.Tokens.RefreshSecret:
		return errors.New("access and refresh secrets must differ")
	case c.Tokens.AccessTTL <= 0 || c.Tokens.RefreshTTL <= 0:
		return errors.New("token lifetimes must be positive")
	case c.Verification.TTL <= 0:
		return errors.New("verification ttl must be positive")
	case c.Verification.CodeLength <= 0:
		return errors.New("verification code length must be positive")
	}

	return nil
}

// Keys returns the signing key material for the token engine.
func (c *Config) Keys() token.Keys {
	return token.Keys{
		AccessSecret:  []byte(c.Tokens.AccessSecret),
		RefreshSecret: []byte(c.Tokens.RefreshSecret),
		AccessTTL:     c.Tokens.AccessTTL,
		RefreshTTL:    c.Tokens.RefreshTTL,
		Issuer:        c.Tokens.Issuer,
		AccessInfo:    c.Tokens.AccessInfo,
	}
}

func fetchConfigPath() string {
	var res string

	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.StringVar(&res, "config", "", "path to config file")
	_ = fs.Parse(os.Args[1:])

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
