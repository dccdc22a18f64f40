// Command seed creates the initial administrator account when it is missing.
// With -rollback it reverts the last schema migration instead.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fuyanik/user-management-case/internal/auth"
	"github.com/fuyanik/user-management-case/internal/config"
	"github.com/fuyanik/user-management-case/internal/database"
	"github.com/fuyanik/user-management-case/internal/repository"
	"github.com/fuyanik/user-management-case/pkg/logger"
)

func main() {
	generate := flag.Bool("generate-password", false, "generate a random admin password when SEED_ADMIN_PASSWORD is unset")
	migrate := flag.Bool("migrate", true, "run database migrations before seeding")
	rollback := flag.Bool("rollback", false, "roll back the last migration and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log := logger.New(logger.Options{})
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Service: cfg.Log.Service + "-seed"})

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if *rollback {
		if err := db.MigrateDown(cfg.Database.MigrationsPath); err != nil {
			log.Error().Err(err).Msg("Failed to roll back migration")
			db.Close()
			os.Exit(1)
		}
		return
	}

	if *migrate {
		if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	seeder := &adminSeeder{
		users:    repository.NewUserRepo(db),
		hasher:   auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		generate: *generate,
		log:      log,
	}

	res, err := seeder.Seed(ctx, cfg.Seed)
	if err != nil {
		log.Error().Err(err).Msg("Seed failed")
		db.Close()
		os.Exit(1)
	}

	if !res.Created {
		log.Info().Str("email", res.Email).Msg("Admin user already exists")
		return
	}
	log.Info().Str("email", res.Email).Msg("Admin user created")
	if res.GeneratedPassword != "" {
		// Printed once for the operator; never written to the log stream.
		fmt.Fprintf(os.Stderr, "Generated admin password: %s\n", res.GeneratedPassword)
	}
}
