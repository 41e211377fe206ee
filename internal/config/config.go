package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Storage struct {
		// memory | mongo
		Driver string `yaml:"driver"`
		Mongo  struct {
			URI      string `yaml:"uri"`
			Database string `yaml:"database"`
		} `yaml:"mongo"`
	} `yaml:"storage"`

	JWT struct {
		Issuer string `yaml:"issuer"`
		// Secret de firma HS256. Nunca hace falta ponerlo en el YAML:
		// DOCSTORE_JWT_SECRET lo pisa siempre.
		Secret    string `yaml:"secret"`
		AccessTTL string `yaml:"access_ttl"`
	} `yaml:"jwt"`

	Security struct {
		PasswordPolicy struct {
			MinLength int `yaml:"min_length"`
		} `yaml:"password_policy"`
	} `yaml:"security"`
}

// Load lee la configuración desde un YAML, aplica defaults y overrides
// de entorno. Un .env junto al proceso se carga primero (best effort).
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	if err := c.applyDefaults(); err != nil {
		return nil, err
	}
	return &c, nil
}

// FromEnv arma la configuración solo desde el entorno (sin archivo),
// útil para tests y despliegues con config plana.
func FromEnv() (*Config, error) {
	_ = godotenv.Load()

	var c Config
	c.App.Env = os.Getenv("APP_ENV")
	c.Log.Level = os.Getenv("LOG_LEVEL")
	c.Storage.Driver = os.Getenv("DOCSTORE_DRIVER")
	c.Storage.Mongo.URI = os.Getenv("DOCSTORE_MONGO_URI")
	c.Storage.Mongo.Database = os.Getenv("DOCSTORE_MONGO_DATABASE")
	c.JWT.Issuer = os.Getenv("DOCSTORE_JWT_ISSUER")
	c.JWT.AccessTTL = os.Getenv("DOCSTORE_JWT_ACCESS_TTL")
	if err := c.applyDefaults(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() error {
	// sane defaults
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "docstore"
	}
	if c.JWT.AccessTTL == "" {
		c.JWT.AccessTTL = "15m"
	}
	if c.Security.PasswordPolicy.MinLength == 0 {
		c.Security.PasswordPolicy.MinLength = 8
	}

	// el secret de entorno pisa siempre al del archivo
	if s := os.Getenv("DOCSTORE_JWT_SECRET"); s != "" {
		c.JWT.Secret = s
	}

	// validate string durations
	if _, err := time.ParseDuration(c.JWT.AccessTTL); err != nil {
		return fmt.Errorf("config: jwt.access_ttl: %w", err)
	}
	return nil
}

// AccessTTL devuelve el TTL de los tokens ya parseado.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.JWT.AccessTTL)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}
