package main

import (
	"os"

	"github.com/projectloom/loom/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
