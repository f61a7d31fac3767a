package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/shambasecure/auth-service/internal/app/bootstrap"
)

func main() {
	// Missing .env is fine; deployed runs configure through real env vars.
	_ = godotenv.Load()

	ctx := context.Background()
	runtime, err := bootstrap.NewRuntime(ctx, "configs/default.yaml")
	if err != nil {
		log.Fatalf("bootstrap api runtime: %v", err)
	}
	if err := runtime.RunAPI(ctx); err != nil {
		log.Fatalf("run api: %v", err)
	}
}
