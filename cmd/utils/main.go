package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/appetiteclub/apt"

	"github.com/appetiteclub/pantry/cmd/utils/internal/commands"
)

const (
	appName    = "pantry-utils"
	appVersion = "0.1.0"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	config, err := apt.LoadConfig("UTILS", os.Args[2:])
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	logLevel, _ := config.GetString("log.level")
	if logLevel == "" {
		logLevel = "info"
	}
	logger := apt.NewLogger(logLevel)

	ctx := context.Background()
	command := os.Args[1]

	switch command {
	case "import-products":
		if err := commands.ImportProducts(ctx, config, logger); err != nil {
			log.Fatalf("❌ Product import failed: %v", err)
		}
		logger.Info("✅ Product import completed successfully")

	case "create-admin":
		if err := commands.CreateAdmin(ctx, config, logger); err != nil {
			log.Fatalf("❌ Admin creation failed: %v", err)
		}
		logger.Info("✅ Admin created successfully")

	case "reset-db":
		if err := commands.ResetDB(ctx, config, logger); err != nil {
			log.Fatalf("❌ Database reset failed: %v", err)
		}
		logger.Info("✅ Database reset completed successfully")

	case "version":
		fmt.Printf("%s version %s\n", appName, appVersion)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`%s - Pantry utility commands

Usage:
  %s <command> [options]

Commands:
  import-products  Load products from an xlsx workbook into an establishment
  create-admin     Create an administrator account
  reset-db         Drop and recreate every table (USE WITH CAUTION)
  version          Print version information
  help             Show this help message

Environment Variables:
  UTILS_DB_SQLITE_PATH         SQLite database file (default: pantry.db)
  UTILS_IMPORT_FILE            Workbook for import-products
  UTILS_IMPORT_ESTABLISHMENT   Establishment id for import-products
  UTILS_ADMIN_USERNAME         Username for create-admin
  UTILS_ADMIN_PASSWORD         Password for create-admin
  UTILS_ADMIN_ESTABLISHMENT    Establishment id for create-admin
  UTILS_LOG_LEVEL              Log level: debug, info, warn, error (default: info)

Examples:
  UTILS_IMPORT_FILE=products.xlsx UTILS_IMPORT_ESTABLISHMENT=2 %s import-products
  UTILS_ADMIN_USERNAME=boss UTILS_ADMIN_PASSWORD=secret UTILS_ADMIN_ESTABLISHMENT=1 %s create-admin
  UTILS_DB_SQLITE_PATH=/tmp/pantry.db %s reset-db

`, appName, appName, appName, appName, appName)
}
