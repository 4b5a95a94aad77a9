package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/solascan/cttracker/config"
	"github.com/solascan/cttracker/db"
	"github.com/solascan/cttracker/indexer"
	"github.com/solascan/cttracker/solclient"
	"github.com/solascan/cttracker/store"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
	})

	// get environment variables
	if err := godotenv.Load(); err != nil {
		log.Warn("no .env file found, using process environment")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	fmt.Println("")
	fmt.Println(color.YellowString("  ----------------- Confidential Transfer Tracker -----------------"))
	fmt.Println(color.CyanString("\t    Tracked program: "), color.GreenString(cfg.ProgramAddress))
	fmt.Println(color.CyanString("\t    RPC endpoint: "), color.GreenString(cfg.RPCURL))
	fmt.Println(color.MagentaString("\t    Batch size: "), color.YellowString(fmt.Sprint(cfg.BatchSize)))
	fmt.Println(color.MagentaString("\t    Poll interval: "), color.YellowString(cfg.PollInterval.String()))
	fmt.Println("")

	// initialize database connection
	database, err := db.ConnectMySQL(cfg.MySQLUser, cfg.MySQLPassword, cfg.MySQLDatabase, cfg.MySQLHost, cfg.MySQLPort)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	client, err := solclient.New(cfg.RPCURL, cfg.ProgramAddress, log)
	if err != nil {
		log.Fatalf("Failed to create RPC client: %v", err)
	}

	st := store.New(database.Gorm, log)
	ix := indexer.New(client, st, indexer.Config{
		BatchSize:     cfg.BatchSize,
		PollInterval:  cfg.PollInterval,
		BackfillLimit: cfg.BackfillLimit,
	}, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- ix.Run(ctx)
	}()

	fmt.Println(color.GreenString("Service running. Press Ctrl+C to stop."))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info("shutdown signal received")
		ix.Stop()
		if err := <-done; err != nil {
			log.WithError(err).Error("indexer exited with error")
		}
	case err := <-done:
		if err != nil {
			log.WithError(err).Error("indexer exited with error")
			os.Exit(1)
		}
	}

	if count, err := st.CountActivities(); err == nil {
		log.WithField("activities", count).Info("shutdown complete")
	}
}
