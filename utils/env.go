package utils

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv loads a .env file from the working directory when one exists.
func LoadEnv() {
	if _, err := os.Stat(".env"); err != nil {
		Debug("ℹ️  No .env file found, continuing...")
		return
	}
	if err := godotenv.Load(); err != nil {
		Warn("Could not load .env: %v", err)
	}
}
