// Command seedadmin creates the storefront administrator, or promotes and
// re-passwords an existing account with the same email.
package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mdsaddlery/storefront/internal/config"
	"github.com/mdsaddlery/storefront/internal/repository"
	"github.com/mdsaddlery/storefront/internal/service"
	"github.com/mdsaddlery/storefront/pkg/database"
)

type seedConfig struct {
	DB    config.DBConfig
	Admin struct {
		Name     string `envconfig:"ADMIN_NAME" default:"Admin"`
		Email    string `envconfig:"ADMIN_EMAIL" required:"true"`
		Password string `envconfig:"ADMIN_PASSWORD" required:"true"`
	}
}

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	_ = godotenv.Load()
	var cfg seedConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.DB.DSN(), 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("failed to apply migrations")
	}

	auth := service.NewAuthService(repository.NewAccountRepository(pool), nil, nil, service.TokenTTLs{})
	account, err := auth.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed admin")
	}

	log.Info().Str("id", account.ID.String()).Str("email", account.Email).Msg("admin account ready")
}
