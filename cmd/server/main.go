package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/algrv/codelab/internal/config"
	"codeberg.org/algrv/codelab/internal/logger"
)

// @title codelab API
// @version 1.0
// @description Generate code for a chosen language and framework, then run it in a sandboxed dev server
// @description
// @description Features:
// @description - Language and framework catalog
// @description - Model-driven code generation with tool calls
// @description - Per-user sandbox with streamed install and dev server output
// @description - Live preview and project download

// @contact.name API Support
// @contact.url https://codeberg.org/algrv/codelab

// @license.name GPL-3.0
// @license.url https://www.gnu.org/licenses/gpl-3.0.html

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	flags := config.ParseServerFlags(os.Args[1:])

	// load configuration from environment
	cfg, err := config.LoadEnvironmentVariables()
	if err != nil {
		logger.Fatal("failed to load configuration", "error", err)
	}

	flags.Apply(cfg)

	logger.Configure(cfg.Environment, os.Getenv("LOG_LEVEL"), nil)

	if flags.Validate {
		fmt.Printf("environment=%s port=%s llm_provider=%s sandbox_runtime=%s sandbox_root=%s workspace_ttl=%s\n",
			cfg.Environment, cfg.Port, cfg.LLM.Provider, cfg.Sandbox.Runtime, cfg.Sandbox.Root, cfg.WorkspaceTTL)
		return
	}

	logger.Info("starting codelab server")

	// create server with all dependencies
	srv, err := NewServer(cfg)
	if err != nil {
		logger.Fatal("failed to create server", "error", err)
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      srv.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute, // model calls can be slow
		IdleTimeout:  60 * time.Second,
	}

	// start server in goroutine
	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", "error", err)
		}
	}()

	// start websocket hub
	go srv.hub.Run()

	// wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// notify websocket clients and close connections first
	srv.hub.Shutdown()

	// graceful shutdown with 10 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	// kill dev servers and remove sandboxes
	if err := srv.manager.Shutdown(ctx); err != nil {
		logger.Error("workspace shutdown incomplete", "error", err)
	}

	logger.Info("server stopped")
}
