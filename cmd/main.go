package main

import (
	"log"

	"roadside/internal/app"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not loaded:", err)
	}

	app, err := app.NewApp()
	if err != nil {
		log.Fatal(err)
	}

	app.Run()
}
