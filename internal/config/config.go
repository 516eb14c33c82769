package config

import (
	"log"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL    string `env:"DATABASE_URL" env-default:"chat.db"`
	HTTPPort       string `env:"PORT" env-default:"5000"`
	BindAddr       string `env:"BIND_ADDR" env-default:"0.0.0.0"`
	JWTSecret      string `env:"JWT_SECRET" env-required:"true"`
	GroqAPIKey     string `env:"GROQ_API_KEY" env-required:"true"`
	GroqBaseURL    string `env:"GROQ_BASE_URL" env-default:"https://api.groq.com/openai/v1"`
	Pretext        string `env:"TEXT"` // prepended to every completion prompt
	FrontendOrigin string `env:"FRONTEND_ORIGIN" env-default:"https://the-llm.vercel.app"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
