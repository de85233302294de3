package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/cliffindus/marketplace-backend/pkg/config"
	"github.com/cliffindus/marketplace-backend/pkg/db"
	"github.com/cliffindus/marketplace-backend/pkg/logger"
	"github.com/cliffindus/marketplace-backend/pkg/migrate"
)

type migrateFlags struct {
	cmd     string
	dir     string
	name    string
	version string
}

func main() {
	var flags migrateFlags
	flag.StringVar(&flags.cmd, "cmd", "up", "migration command: up|down|status|version|create|validate")
	flag.StringVar(&flags.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.StringVar(&flags.name, "name", "", "migration name (create only)")
	flag.StringVar(&flags.version, "version", "", "target version, YYYYMMDDHHMMSS (version only)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": flags.cmd,
		"dir": flags.dir,
	})

	if err := run(ctx, cfg, logg, flags); err != nil {
		logg.Error(ctx, "migration command failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, flags migrateFlags) error {
	// create and validate work on the migration files alone
	switch flags.cmd {
	case "create":
		if flags.name == "" {
			return fmt.Errorf("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(flags.dir, flags.name)
		if err != nil {
			return fmt.Errorf("create migration: %w", err)
		}
		fmt.Println("created migration:", path)
		return nil

	case "validate":
		if err := migrate.ValidateDir(flags.dir); err != nil {
			return fmt.Errorf("validate migrations: %w", err)
		}
		fmt.Println("migration validation passed")
		return nil
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("unwrap sql database: %w", err)
	}

	switch flags.cmd {
	case "up", "down", "status":
		return migrate.Run(ctx, sqlDB, flags.dir, flags.cmd)

	case "version":
		if flags.version == "" {
			return fmt.Errorf("missing -version for version command")
		}
		return migrate.MigrateToVersion(ctx, sqlDB, flags.dir, flags.version)

	default:
		return fmt.Errorf("unknown -cmd value %q", flags.cmd)
	}
}
