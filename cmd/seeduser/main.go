// Command seeduser creates or resets a user from the command line. Meant
// for bootstrapping the first admin on a fresh install.
package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yanarios/sistema-kiosco/internal/config"
	"github.com/yanarios/sistema-kiosco/internal/infra"
	"github.com/yanarios/sistema-kiosco/internal/model"
	"github.com/yanarios/sistema-kiosco/internal/repository"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	username := flag.String("username", "admin", "username")
	name := flag.String("name", "Administrator", "display name")
	password := flag.String("password", "", "password (required)")
	role := flag.String("role", model.RoleAdmin, "cashier | supervisor | admin")
	flag.Parse()

	if *password == "" {
		log.Fatal().Msg("-password is required")
	}
	switch *role {
	case model.RoleCashier, model.RoleSupervisor, model.RoleAdmin:
	default:
		log.Fatal().Str("role", *role).Msg("unknown role")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	db, err := infra.ConnectDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal().Err(err).Msg("hashing failed")
	}

	ctx := context.Background()
	users := repository.NewUserRepository(db)

	existing, err := users.FindByUsername(ctx, *username)
	if err == nil {
		existing.PasswordHash = string(hash)
		existing.Role = *role
		existing.Active = true
		if err := users.Update(ctx, existing); err != nil {
			log.Fatal().Err(err).Msg("user update failed")
		}
		log.Info().Str("username", *username).Msg("user reset")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatal().Err(err).Msg("lookup failed")
	}

	user := &model.User{
		Username:     *username,
		Name:         *name,
		PasswordHash: string(hash),
		Role:         *role,
		Active:       true,
	}
	if err := users.Create(ctx, user); err != nil {
		log.Fatal().Err(err).Msg("user create failed")
	}
	log.Info().Str("username", *username).Str("role", *role).Msg("user created")
}
