package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	loadLocalEnv()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found; relying on existing environment")
	}
}
