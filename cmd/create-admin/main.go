// Command create-admin creates an administrator account or promotes an
// existing user.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"cityideas/internal/config"
	"cityideas/internal/db"
	"cityideas/internal/logger"
	"cityideas/internal/services"

	"github.com/rs/zerolog/log"
)

func main() {
	username := flag.String("username", "admin", "admin username")
	email := flag.String("email", "", "admin email (defaults to <username>@localhost)")
	password := flag.String("password", "", "admin password (falls back to ADMIN_PASSWORD)")
	flag.Parse()

	cfg := config.Load()
	logger.Configure(logger.ParseLevel(cfg.LogLevel), "")

	if *password == "" {
		*password = cfg.AdminPassword
	}
	if *password == "" {
		fmt.Fprintln(os.Stderr, "password is required: pass -password or set ADMIN_PASSWORD")
		os.Exit(2)
	}

	conn, err := db.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	created, err := services.NewAuthService(conn).EnsureAdmin(context.Background(), *username, *email, *password)
	if err != nil {
		log.Fatal().Err(err).Str("username", *username).Msg("Failed to create admin")
	}
	if created {
		fmt.Printf("Admin %q created\n", *username)
		return
	}
	fmt.Printf("User %q is now an admin\n", *username)
}
