package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config agrupa toda la configuración del proceso.
// Sin DB_DSN se usan repos in-memory (modo dev, igual que el router).
type Config struct {
	Addr      string        `env:"ADDR" envDefault:":8080"`
	AppName   string        `env:"APP_NAME" envDefault:"pet-adoption"`
	DBDSN     string        `env:"DB_DSN"`
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"720h"` // 30 días
	LogLevel  string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string        `env:"LOG_FORMAT" envDefault:"text"`
	// Costo bcrypt para signup/cambio de password.
	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`
}

// Load lee config desde env vars, con .env opcional para dev local.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
