package main

import (
	"github.com/joho/godotenv"
	_ "go.uber.org/automaxprocs"

	"github.com/kfreiman/anypdf/cmd"
)

func main() {
	// .env is optional; real environment variables take precedence
	_ = godotenv.Load()

	cmd.Execute()
}
