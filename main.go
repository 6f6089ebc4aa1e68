package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/spigell/hire-labor/cmd"
)

func main() {
	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
