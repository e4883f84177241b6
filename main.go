package main

import (
	"os"

	"github.com/conneroisu/unreact/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
