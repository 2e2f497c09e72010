package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/TDFSupplyChain/SC-Backend/internal/config"
	"github.com/TDFSupplyChain/SC-Backend/internal/web"
)

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}

	if err := web.Serve(context.Background(), cfg); err != nil {
		log.Fatal(err)
	}
}
