// bookdesk-dev runs the desk client against the in-memory stub
// service with seeded data, for local development without a library
// server.
package main

import (
	"log"
	"os"

	"bookdesk/internal/app"
)

func main() {
	os.Setenv("BOOKDESK_USE_STUB", "true")
	if os.Getenv("BOOKDESK_CACHE_PATH") == "" {
		dir, err := os.MkdirTemp("", "bookdesk-dev-*")
		if err != nil {
			log.Fatalf("Failed to create dev cache dir: %v", err)
		}
		defer os.RemoveAll(dir)
		os.Setenv("BOOKDESK_CACHE_PATH", dir+"/bookdesk.db")
	}
	if os.Getenv("BOOKDESK_SCAN_ADDR") == "" {
		os.Setenv("BOOKDESK_SCAN_ADDR", "127.0.0.1:8090")
	}

	log.Println("Starting bookdesk with the in-memory stub service...")

	application, err := app.New()
	if err != nil {
		log.Fatal(err)
	}

	if err := application.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
