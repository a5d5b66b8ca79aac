package main

import (
	"os"

	"autosg/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
