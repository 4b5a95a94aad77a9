package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"
	"github.com/solascan/cttracker/config"
	"github.com/solascan/cttracker/db"
)

func main() {
	drop := flag.Bool("drop", false, "drop and recreate all tables instead of auto-migrating")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	database, err := db.ConnectMySQL(cfg.MySQLUser, cfg.MySQLPassword, cfg.MySQLDatabase, cfg.MySQLHost, cfg.MySQLPort)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if *drop {
		if err := database.Migrate(); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Tables dropped and recreated")
		return
	}

	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Auto-migration failed: %v", err)
	}
	log.Println("Database migration completed")
}
