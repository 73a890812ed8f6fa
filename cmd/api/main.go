package main

import (
	"context"
	"log"
	"time"

	"github.com/fastfire9/empire-backend/internal/config"
	"github.com/fastfire9/empire-backend/internal/db"
	"github.com/fastfire9/empire-backend/internal/repository"
	"github.com/fastfire9/empire-backend/internal/server"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	conn, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		log.Fatalf("auto migrate error: %v", err)
	}

	if cfg.FlaggedHashMaxAgeDays > 0 {
		hashes := repository.NewFlaggedHashRepository(conn)
		age := time.Duration(cfg.FlaggedHashMaxAgeDays) * 24 * time.Hour
		if purged, err := hashes.PurgeOlderThan(context.Background(), age); err != nil {
			log.Printf("flagged hash sweep error: %v", err)
		} else if purged > 0 {
			log.Printf("purged %d stale flagged image hashes", purged)
		}
	}

	srv := server.New(conn, cfg)
	addr := ":" + cfg.Port
	log.Printf("starting server on %s", addr)
	if err := srv.Start(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
