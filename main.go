package main

import (
	"os"

	"github.com/slowql/slowql/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
