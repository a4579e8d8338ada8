package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"modulehub/internal/config"
	"modulehub/internal/middleware"

	"gorm.io/gorm"
)

// Values accepted in DB_SCHEMA_MODE.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaPlan is what ApplySchema will do for a given mode and environment.
// Hybrid runs the versioned migrations and, outside production, also
// AutoMigrates the module models so new columns show up during development.
type SchemaPlan struct {
	Mode        string
	Environment string
	Migrations  bool
	AutoMigrate bool
}

// SchemaStatus is a SchemaPlan plus the recorded and outstanding versions.
type SchemaStatus struct {
	SchemaPlan
	AppliedVersions   []int
	PendingMigrations []Migration
}

// PlanSchema resolves cfg into a SchemaPlan. AutoMigrate-only is refused for
// production and staging.
func PlanSchema(cfg *config.Config) (SchemaPlan, error) {
	plan := SchemaPlan{Mode: strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode)), Environment: cfg.Env}
	if plan.Mode == "" {
		plan.Mode = SchemaModeHybrid
	}

	switch env := strings.ToLower(strings.TrimSpace(cfg.Env)); plan.Mode {
	case SchemaModeSQL:
		plan.Migrations = true
	case SchemaModeAuto:
		if deployedEnv(env) {
			return plan, fmt.Errorf("DB_SCHEMA_MODE=auto is not allowed in %q", cfg.Env)
		}
		plan.AutoMigrate = true
	case SchemaModeHybrid:
		plan.Migrations = true
		plan.AutoMigrate = !deployedEnv(env)
	default:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", plan.Mode)
	}
	return plan, nil
}

func deployedEnv(env string) bool {
	switch env {
	case "production", "prod", "staging", "stage":
		return true
	}
	return false
}

// ApplySchema brings the database up to date according to PlanSchema.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return err
	}

	if plan.Migrations {
		if err := RunMigrations(ctx, db); err != nil {
			return err
		}
	}
	if plan.AutoMigrate {
		middleware.Logger.Info("auto-migrating module tables", slog.String("mode", plan.Mode), slog.String("env", plan.Environment))
		if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return nil
}

// GetSchemaStatus reports the plan and the migration backlog without writing.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{SchemaPlan: plan}
	if !plan.Migrations {
		return status, nil
	}

	if status.AppliedVersions, err = AppliedVersions(ctx, db); err != nil {
		return nil, err
	}
	status.PendingMigrations = pendingMigrations(status.AppliedVersions)
	return status, nil
}
