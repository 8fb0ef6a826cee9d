package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"rentdesk/server/config"
	"rentdesk/server/internal/auth"
	"rentdesk/server/internal/database"
	"rentdesk/server/internal/models"
)

func main() {
	email := flag.String("email", "", "email address of the new user")
	name := flag.String("name", "Administrator", "display name")
	role := flag.String("role", models.RoleAdmin, "admin or agent")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	// Passed through the environment to keep it out of shell history
	password := os.Getenv("ADMIN_PASSWORD")
	if *email == "" || password == "" {
		fmt.Fprintln(os.Stderr, "usage: ADMIN_PASSWORD=... create-admin -email admin@example.nl [-name Name] [-role admin|agent]")
		os.Exit(2)
	}
	if *role != models.RoleAdmin && *role != models.RoleAgent {
		logger.Fatalf("Unknown role %q", *role)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	db, err := database.NewDatabase(cfg.Database.Driver, cfg.Database.DSN, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		logger.WithError(err).Fatal("Failed to hash password")
	}

	user := &models.User{
		Name:         *name,
		Email:        *email,
		PasswordHash: hash,
		Role:         *role,
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		logger.WithError(err).Fatal("Failed to create user")
	}

	fmt.Println("User created")
	fmt.Printf("  ID:    %s\n", user.ID)
	fmt.Printf("  Email: %s\n", user.Email)
	fmt.Printf("  Role:  %s\n", user.Role)
}
