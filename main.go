package main

import (
	"os"

	"github.com/mockt/mockt/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
