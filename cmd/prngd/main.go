package main

import (
	"os"

	"github.com/moontrade/prng/logger"
	"github.com/moontrade/prng/server"
)

var (
	version = "0.1.0"
	gitsha  = ""
)

func main() {
	err := server.Main(server.Config{
		Name:    "prngd",
		Version: version,
		GitSHA:  gitsha,
	})
	if err != nil {
		logger.Error(err, "exiting")
		os.Exit(1)
	}
}
