// Command migrate manages the module schema and the reference catalog.
//
//	migrate up                apply pending versioned migrations
//	migrate auto              AutoMigrate every module model (refused in production)
//	migrate status            show the schema plan and pending versions
//	migrate down <version>    roll one migration back
//	migrate catalog [path]    upsert plans, Apple products and agenda from YAML
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"modulehub/internal/config"
	"modulehub/internal/database"
	"modulehub/internal/seed"

	"gorm.io/gorm"
)

type command func(ctx context.Context, db *gorm.DB, cfg *config.Config, args []string) error

var commands = map[string]command{
	"up":      migrateUp,
	"auto":    migrateAuto,
	"status":  migrateStatus,
	"down":    migrateDown,
	"catalog": applyCatalog,
}

func main() {
	flag.Parse()
	if err := run(flag.Args()); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, ok := commands[strings.ToLower(strings.TrimSpace(args[0]))]
	if !ok {
		return errUsage
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	return cmd(context.Background(), db, cfg, args[1:])
}

var errUsage = errors.New("usage: migrate <up|auto|status|down <version>|catalog [path]>")

func migrateUp(ctx context.Context, db *gorm.DB, _ *config.Config, _ []string) error {
	if err := database.RunMigrations(ctx, db); err != nil {
		return err
	}
	log.Println("migrations applied")
	return nil
}

func migrateAuto(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
	cfg.DBSchemaMode = database.SchemaModeAuto
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		return err
	}
	log.Println("module tables auto-migrated")
	return nil
}

func migrateStatus(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
	status, err := database.GetSchemaStatus(ctx, db, cfg)
	if err != nil {
		return err
	}
	log.Printf("mode=%s env=%s migrations=%t automigrate=%t applied=%v",
		status.Mode, status.Environment, status.Migrations, status.AutoMigrate, status.AppliedVersions)
	for _, m := range status.PendingMigrations {
		log.Printf("pending: %06d_%s", m.Version, m.Name)
	}
	return nil
}

func migrateDown(ctx context.Context, db *gorm.DB, _ *config.Config, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	version, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", args[0], err)
	}
	if err := database.RollbackMigration(ctx, db, version); err != nil {
		return err
	}
	log.Printf("rolled back migration %d", version)
	return nil
}

func applyCatalog(_ context.Context, db *gorm.DB, _ *config.Config, args []string) error {
	cat, err := seed.DefaultCatalog()
	if len(args) > 0 {
		cat, err = seed.LoadCatalog(args[0])
	}
	if err != nil {
		return err
	}
	if err := seed.ApplyCatalog(db, cat); err != nil {
		return fmt.Errorf("apply catalog: %w", err)
	}
	log.Printf("catalog applied: %d plans, %d apple products, %d offerings, %d sessions, %d activities",
		len(cat.Plans), len(cat.AppleProducts), len(cat.Offerings), len(cat.Sessions), len(cat.Activities))
	return nil
}
