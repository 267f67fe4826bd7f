package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dukerupert/academy/internal/api"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			fmt.Fprintf(os.Stderr, "%s (%v)\n", api.Message(err), err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
