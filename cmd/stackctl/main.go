package main

import (
	"github.com/datastackhq/stackctl/pkg/cli"
)

func main() {
	cli.Execute()
}
