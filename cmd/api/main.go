package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/hsawaji/flema-backend/internal/config"
	"github.com/hsawaji/flema-backend/internal/db"
	"github.com/hsawaji/flema-backend/internal/model"
	"github.com/hsawaji/flema-backend/internal/server"
)

var (
	gitSHA    = "dev"
	buildTime = "unknown"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	srv := server.New(nil, cfg, gitSHA, buildTime)

	port := cfg.Port
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = "8080"
	}
	addr := ":" + port

	errCh := make(chan error, 1)

	go func() {
		log.Printf("starting server on %s", addr)
		errCh <- srv.Start(addr)
	}()

	// Connect in the background so the instance can start serving health
	// checks while the database is still coming up.
	go func() {
		conn, err := db.Connect(cfg)
		if err != nil {
			log.Printf("db connect error: %v", err)
			return
		}
		if err := conn.AutoMigrate(
			&model.User{},
			&model.Category{},
			&model.Listing{},
			&model.ListingImage{},
			&model.Conversation{},
			&model.Message{},
			&model.Notification{},
		); err != nil {
			log.Printf("auto migrate error: %v", err)
		}
		srv.SetDB(conn)
		log.Printf("database ready")
	}()

	if err := <-errCh; err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
