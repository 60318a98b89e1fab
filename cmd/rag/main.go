package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/Yogesh-0811/RAG-Notebook/internal/cli"
)

func main() {
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
