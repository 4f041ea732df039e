package main

import (
	"github.com/joho/godotenv"

	"docrag/internal/cli"
)

func main() {
	// Best effort: a missing .env just means keys come from the real
	// environment.
	_ = godotenv.Load()

	cli.Execute()
}
