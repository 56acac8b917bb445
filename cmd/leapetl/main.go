// Package main provides the CLI for the LeapETL pipeline.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/leapstack-labs/leapetl/internal/cli"
)

func main() {
	// A missing .env file is fine; credentials can come from the real
	// environment or the config file.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
