package main

import (
	"fmt"
	"os"

	"github.com/scranst/phoneagent/cmd/phoneagent/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
