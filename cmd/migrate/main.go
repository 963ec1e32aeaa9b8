package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"norwegianopen/internal/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	var (
		command = flag.String("command", "", "Migration command: up, down, version, force, create")
		steps   = flag.Int("steps", 0, "Number of migration steps (for up/down)")
		version = flag.Int("version", -1, "Migration version (for force)")
		name    = flag.String("name", "", "Migration name (for create)")
		dir     = flag.String("dir", "migrations", "Directory holding the migration files")
	)
	flag.Parse()

	if *command == "" {
		fmt.Println("Usage: go run ./cmd/migrate -command [up|down|version|force|create] [options]")
		fmt.Println("Commands:")
		fmt.Println("  up       Apply all pending migrations")
		fmt.Println("  down     Roll back migrations (one step by default)")
		fmt.Println("  version  Show the current migration version")
		fmt.Println("  force    Force the migration version (-version N)")
		fmt.Println("  create   Create new migration files (-name NAME)")
		os.Exit(1)
	}

	if *command == "create" {
		if err := create(*dir, *name); err != nil {
			log.Fatal(err)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	m, err := migrate.New("file://"+*dir, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to create migration instance: %v", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.Printf("Failed to close migration instance: %v %v", srcErr, dbErr)
		}
	}()

	switch *command {
	case "up":
		if *steps > 0 {
			err = m.Steps(*steps)
		} else {
			err = m.Up()
		}
		report(err, "Migrations applied", "No migrations to apply")

	case "down":
		n := 1
		if *steps > 0 {
			n = *steps
		}
		report(m.Steps(-n), "Migrations rolled back", "No migrations to roll back")

	case "version":
		v, dirty, err := m.Version()
		if err != nil {
			if errors.Is(err, migrate.ErrNilVersion) {
				fmt.Println("No migrations applied")
				return
			}
			log.Fatalf("Failed to get version: %v", err)
		}
		fmt.Printf("Current version: %d (dirty: %t)\n", v, dirty)

	case "force":
		if *version < 0 {
			log.Fatal("-version is required for force")
		}
		if err := m.Force(*version); err != nil {
			log.Fatalf("Force migration failed: %v", err)
		}
		fmt.Printf("Migration version forced to %d\n", *version)

	default:
		log.Fatalf("Unknown command: %s", *command)
	}
}

func report(err error, done, unchanged string) {
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		fmt.Println(unchanged)
	case err != nil:
		log.Fatalf("Migration failed: %v", err)
	default:
		fmt.Println(done)
	}
}

// create writes an empty up/down pair numbered after the highest existing file.
func create(dir, name string) error {
	if name == "" {
		return errors.New("-name is required for create")
	}

	next := nextMigrationNumber(dir)
	for _, direction := range []string{"up", "down"} {
		file := filepath.Join(dir, fmt.Sprintf("%06d_%s.%s.sql", next, name, direction))
		if err := os.WriteFile(file, []byte("-- Migration "+direction+"\n\n"), 0644); err != nil {
			return fmt.Errorf("failed to create %s: %w", file, err)
		}
		fmt.Println("Created", file)
	}
	return nil
}

func nextMigrationNumber(dir string) int {
	files, err := os.ReadDir(dir)
	if err != nil {
		return 1
	}

	highest := 0
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		var num int
		if _, err := fmt.Sscanf(file.Name(), "%d_", &num); err == nil && num > highest {
			highest = num
		}
	}
	return highest + 1
}
