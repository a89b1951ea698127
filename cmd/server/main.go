package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/devsplug/scoring-engine/internal/cli"
)

func main() {
	// Load .env if present; real deployments set environment variables directly.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		log.Fatal(err)
	}
}
