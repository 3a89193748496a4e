package main

import (
	"log"
	"os"

	"notesync/internal/devserver"
)

func main() {
	token := os.Getenv("DEVSERVER_TOKEN")
	if token == "" {
		token = "dev-token"
	}
	port := os.Getenv("DEVSERVER_PORT")
	if port == "" {
		port = "8787"
	}

	srv := devserver.New(token, port)
	log.Fatal(srv.Run())
}
