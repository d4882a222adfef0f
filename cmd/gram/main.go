package main

import (
	"fmt"
	"os"

	"github.com/adamavenir/gram/internal/command"
)

func main() {
	if err := command.Execute(); err != nil {
		if !command.Reported(err) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
