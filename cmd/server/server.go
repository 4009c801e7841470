package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"codeberg.org/algrv/codelab/internal/auth"
	"codeberg.org/algrv/codelab/internal/config"
	"codeberg.org/algrv/codelab/internal/logger"
	"codeberg.org/algrv/codelab/internal/sandbox"
	ws "codeberg.org/algrv/codelab/internal/websocket"
	"codeberg.org/algrv/codelab/internal/workspace"
)

// creates and configures a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	if err := auth.Initialize(cfg.JWTSecret, cfg.SessionSecret, cfg.Environment == "production"); err != nil {
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	services, err := InitializeServices(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	hub := ws.NewHub()

	// workspace events fan out to every attached client
	manager := workspace.NewManager(workspace.ManagerConfig{
		Sandbox:  sandboxOptions(cfg.Sandbox),
		Commands: commands(cfg.Sandbox),
		Notifier: hub,
		TTL:      cfg.WorkspaceTTL,
	})

	hub.RegisterHandler(ws.TypeExecute, ws.ExecuteHandler(manager))
	hub.RegisterHandler(ws.TypeWriteCode, ws.WriteCodeHandler(manager))

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), logger.GinLogger())

	server := &Server{
		config:   cfg,
		services: services,
		manager:  manager,
		hub:      hub,
		router:   router,
	}

	if err := RegisterRoutes(router, server); err != nil {
		_ = manager.Shutdown(context.Background())
		return nil, err
	}

	logger.Info("server initialized",
		"environment", cfg.Environment,
		"llm_provider", cfg.LLM.Provider,
		"model", services.LLM.Model(),
		"sandbox_runtime", cfg.Sandbox.Runtime,
		"sandbox_root", cfg.Sandbox.Root,
	)

	return server, nil
}

func sandboxOptions(cfg config.SandboxConfig) sandbox.Options {
	return sandbox.Options{
		Root:        cfg.Root,
		Runtime:     cfg.Runtime,
		Image:       cfg.DockerImage,
		PreviewHost: cfg.PreviewHost,
	}
}

func commands(cfg config.SandboxConfig) workspace.Commands {
	return workspace.Commands{
		Scaffold:  cfg.ScaffoldCmd,
		Install:   cfg.InstallCmd,
		Start:     cfg.StartCmd,
		EntryFile: cfg.EntryFile,
	}
}
