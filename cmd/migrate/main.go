package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strconv"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	gormlogger "gorm.io/gorm/logger"

	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/migration"
	"github.com/storefront/backend/internal/infrastructure/persistence"
)

const defaultMigrationsPath = "migrations"

// adminPasswordEnv keeps the operator password out of shell history
const adminPasswordEnv = "STOREFRONT_ADMIN_PASSWORD"

func main() {
	var (
		migrationsPath string
		logLevel       string
	)
	flag.StringVar(&migrationsPath, "path", "", "Migrations directory (default: embedded for database commands, ./migrations for create/list)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	// File commands work on the source tree and need no database
	switch command {
	case "create":
		if len(args) < 2 {
			log.Fatal("Migration name required. Usage: migrate create <name>")
		}
		mf, err := migration.CreateMigration(orDefault(migrationsPath), args[1])
		if err != nil {
			log.Fatal("Failed to create migration", zap.Error(err))
		}
		log.Info("Migration created",
			zap.String("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath),
		)
		return
	case "list":
		files, err := migration.ListMigrations(orDefault(migrationsPath))
		if err != nil {
			log.Fatal("Failed to list migrations", zap.Error(err))
		}
		if len(files) == 0 {
			log.Info("No migrations found")
			return
		}
		for _, f := range files {
			fmt.Println("  -", f)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	if command == "create-admin" {
		if err := createAdmin(cfg, args[1:], log); err != nil {
			log.Fatal("Failed to create admin user", zap.Error(err))
		}
		return
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database", zap.Error(err))
	}

	m, err := migration.New(db, migrationsPath, log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer m.Close()

	switch command {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "step":
		n, convErr := strconv.Atoi(arg(args, 1, "step count", log))
		if convErr != nil {
			log.Fatal("Invalid step count", zap.String("value", args[1]))
		}
		err = m.Steps(n)
	case "goto":
		v, convErr := strconv.ParseUint(arg(args, 1, "version", log), 10, 32)
		if convErr != nil {
			log.Fatal("Invalid version number", zap.String("value", args[1]))
		}
		err = m.GoTo(uint(v))
	case "force":
		v, convErr := strconv.Atoi(arg(args, 1, "version", log))
		if convErr != nil {
			log.Fatal("Invalid version number", zap.String("value", args[1]))
		}
		log.Warn("Forcing migration version")
		err = m.Force(v)
	case "version":
		version, dirty, vErr := m.Version()
		if vErr != nil {
			log.Fatal("Failed to get version", zap.Error(vErr))
		}
		if version == 0 {
			log.Info("No migrations applied")
		} else {
			log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		}
	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal("Migration failed", zap.String("command", command), zap.Error(err))
	}
}

// createAdmin provisions a back-office operator. Admins cannot self-register.
func createAdmin(cfg *config.Config, args []string, log *zap.Logger) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: migrate create-admin <email> <name>")
	}
	password := os.Getenv(adminPasswordEnv)
	if password == "" {
		return fmt.Errorf("%s must be set", adminPasswordEnv)
	}

	db, err := persistence.NewDatabase(&cfg.Database, log, gormlogger.Warn, 0)
	if err != nil {
		return err
	}
	defer db.Close()

	admin, err := identity.NewAdminUser(args[0], password, args[1], auth.NewBcryptHasher(bcrypt.DefaultCost))
	if err != nil {
		return err
	}
	if err := persistence.NewGormAdminUserRepository(db.DB).Save(context.Background(), admin); err != nil {
		return err
	}
	log.Info("Admin user created", zap.String("id", admin.ID.String()), zap.String("email", admin.Email))
	return nil
}

func arg(args []string, i int, name string, log *zap.Logger) string {
	if len(args) <= i {
		log.Fatal("Missing argument", zap.String("argument", name))
	}
	return args[i]
}

func orDefault(path string) string {
	if path == "" {
		return defaultMigrationsPath
	}
	return path
}

func printUsage() {
	fmt.Println(`Storefront database tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                          Apply all pending migrations
  down                        Roll back all migrations
  step <n>                    Apply n migrations (positive=up, negative=down)
  goto <version>              Migrate to a specific version
  version                     Show current migration version
  force <version>             Force set migration version (use with caution)
  create <name>               Create a new migration file pair
  list                        List available migrations
  create-admin <email> <name> Create a back-office user; password from ` + adminPasswordEnv + `

Flags:
  -path string                Migrations directory
  -log-level string           Log level (default "info")`)
}
