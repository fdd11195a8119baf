package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every knob the server reads from the environment.
// ROUND_SECONDS is the difficulty dial: 60 for the default game, 180 for
// the relaxed one.
type Config struct {
	ListenAddr     string        `envconfig:"LISTEN_ADDR" default:":5000"`
	AllowedOrigins []string      `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	OracleURL      string        `envconfig:"ORACLE_URL"`
	OracleTimeout  time.Duration `envconfig:"ORACLE_TIMEOUT" default:"5s"`
	RoundSeconds   int           `envconfig:"ROUND_SECONDS" default:"60"`
	MaxRounds      int           `envconfig:"MAX_ROUNDS" default:"10"`
	MaxLives       int           `envconfig:"MAX_LIVES" default:"3"`
	AdvanceDelay   time.Duration `envconfig:"ADVANCE_DELAY" default:"5s"`
	Debug          bool          `envconfig:"DEBUG"`
}

func Load() (Config, error) {
	// Missing .env is fine, the environment may be set directly.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
