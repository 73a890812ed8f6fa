package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"

	"github.com/fastfire9/empire-backend/internal/config"
	"github.com/fastfire9/empire-backend/internal/db"
	"github.com/fastfire9/empire-backend/internal/model"
	"github.com/fastfire9/empire-backend/internal/repository"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const passwordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789!@#$_"

func generatePassword(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, length)
	for i, b := range buf {
		out[i] = passwordAlphabet[int(b)%len(passwordAlphabet)]
	}
	return string(out), nil
}

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

	ctx := context.Background()
	products := repository.NewProductRepository(conn)
	creds := repository.NewCredentialRepository(conn)

	samples := []model.Product{
		{Name: "Streaming Plus (1 month)", Description: "Shared premium account, full HD.", Price: decimal.RequireFromString("19.99")},
		{Name: "Music Unlimited (1 month)", Description: "Ad-free listening, offline mode.", Price: decimal.RequireFromString("9.99")},
		{Name: "Cloud Storage 2TB", Description: "2TB personal vault.", Price: decimal.RequireFromString("24.99")},
	}

	aliasCounter := 1
	for i := range samples {
		if err := products.Create(ctx, &samples[i]); err != nil {
			log.Fatalf("seed product %q: %v", samples[i].Name, err)
		}
		// Two slots per product, matching the original provisioning.
		for j := 0; j < 2; j++ {
			pass, err := generatePassword(10)
			if err != nil {
				log.Fatalf("generate password: %v", err)
			}
			slot := &model.CredentialSlot{
				ProductID:  samples[i].ID,
				LoginEmail: fmt.Sprintf("vault+%03d@example.com", aliasCounter),
				LoginPass:  pass,
			}
			if err := creds.Create(ctx, slot); err != nil {
				log.Fatalf("seed credential for product %d: %v", samples[i].ID, err)
			}
			aliasCounter++
		}
		log.Printf("seeded product %q (id %d) with 2 credential slots", samples[i].Name, samples[i].ID)
	}
	log.Printf("seeding complete")
}
