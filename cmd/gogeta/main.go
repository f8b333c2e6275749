package main

import (
	"os"

	"github.com/kankeinai/Gogeta/cmd/gogeta/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
