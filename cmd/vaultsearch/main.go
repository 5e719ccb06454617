// Package main provides the entry point for the vaultsearch CLI.
package main

import (
	"fmt"
	"os"

	"github.com/Adithya-Monish-Kumar-K/vaultsearch/cmd/vaultsearch/cmd"
	apperrors "github.com/Adithya-Monish-Kumar-K/vaultsearch/pkg/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(apperrors.ExitCode(err))
	}
}
