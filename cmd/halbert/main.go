package main

import (
	"github.com/joho/godotenv"

	"github.com/EricBintner/Halbert-sub002/internal/cli"
)

func main() {
	// Optional .env for HALBERT_CONFIG_DIR / HALBERT_LOG_DIR overrides.
	_ = godotenv.Load()

	cli.Execute()
}
