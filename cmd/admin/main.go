package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"norwegianopen/internal/config"
	"norwegianopen/internal/database"
	"norwegianopen/internal/openfga"
	"norwegianopen/internal/repository"
	"norwegianopen/internal/service"
	"norwegianopen/internal/validator"
)

func main() {
	var (
		name     = flag.String("name", "", "Display name of the organiser")
		email    = flag.String("email", "", "Login email")
		password = flag.String("password", "", "Password; read from ADMIN_PASSWORD when empty")
	)
	flag.Parse()

	if *password == "" {
		*password = os.Getenv("ADMIN_PASSWORD")
	}
	if *name == "" || *email == "" || *password == "" {
		fmt.Println("Usage: go run ./cmd/admin -name NAME -email EMAIL [-password PASSWORD]")
		os.Exit(1)
	}

	if err := run(context.Background(), service.CreateAdminRequest{Name: *name, Email: *email, Password: *password}); err != nil {
		if rejections, ok := validator.AsRejections(err); ok {
			for _, r := range rejections {
				fmt.Printf("%s: %s\n", r.Field, r.Reason)
			}
			os.Exit(1)
		}
		slog.Error("Failed to create admin", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, req service.CreateAdminRequest) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	db := database.NewDatabase()
	if err := db.Connect(ctx, cfg.Database.DSN(), 1); err != nil {
		return err
	}
	defer db.Close()

	repo := repository.NewPostgresRepository(&db)

	var authorizer service.AdminAuthorizer
	if cfg.OpenFGA.Enabled {
		client, err := openfga.NewClient(ctx, cfg.OpenFGA, logger)
		if err != nil {
			return err
		}
		authorizer = openfga.NewAdminAuthorizer(client, cfg.OpenFGA.Object)
	}

	auth := service.NewAuthService(repo, authorizer, nil, nil, logger)
	user, err := auth.CreateAdmin(ctx, req)
	if err != nil {
		return err
	}

	// The lookup row is kept even when OpenFGA answers the checks.
	if authorizer != nil {
		if err := repo.GrantAdmin(ctx, user.ID); err != nil {
			return err
		}
	}

	logger.Info("Admin created", "user_id", user.ID, "email", user.Email)
	return nil
}
