package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ecairns22/deploywrap/cmd/deploywrap/commands"
)

func main() {
	if err := commands.Root().Execute(); err != nil {
		var exitErr *commands.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
