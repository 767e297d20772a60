package main

import (
	"log"

	"github.com/datastackhq/stackctl/pkg/api"
)

func main() {
	if err := api.Serve(); err != nil {
		log.Fatal(err)
	}
}
