// Package main provides the loginservers CLI for managing the login server registry.
package main

import (
	"os"

	"github.com/sirosfoundation/go-login-servers/cmd/loginservers/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
