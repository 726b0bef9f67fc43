package main

import (
	"fmt"
	"os"

	"solswap/cmd"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; settings may come from the environment or config file.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		os.Exit(1)
	}

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
