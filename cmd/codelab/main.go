package main

import (
	"os"

	"codeberg.org/algrv/codelab/internal/llm"
	"codeberg.org/algrv/codelab/internal/logger"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	logger.Configure(os.Getenv("ENVIRONMENT"), os.Getenv("LOG_LEVEL"), os.Stderr)

	app := newCLIApp(os.Stdout, llm.NewLLM)

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}
