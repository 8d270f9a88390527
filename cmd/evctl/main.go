// Command evctl manages the EV-APP database: schema creation, CSV ingestion,
// health checks and the HTTP server.
package main

import (
	"os"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
