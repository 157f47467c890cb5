package main

import (
	"log"
	"os"

	"bookdesk/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		log.Fatal(err)
	}

	if err := application.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
