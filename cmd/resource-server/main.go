// Command resource-server runs a sample API protected by bearer tokens that
// are verified against an authorization server's JWKS.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
