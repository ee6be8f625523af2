package main

import (
	"log"

	"github.com/courseloom/lms-api/app"
)

func main() {
	if err := app.SetupAndRunServer(); err != nil {
		log.Fatal(err)
	}
}
