package main

import (
	"os"

	"avd/cmd/avd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
