package main

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/algrv/codelab/internal/agent"
	"codeberg.org/algrv/codelab/internal/config"
	"codeberg.org/algrv/codelab/internal/llm"
	ws "codeberg.org/algrv/codelab/internal/websocket"
	"codeberg.org/algrv/codelab/internal/workspace"
)

// holds all dependencies and state for the API server
type Server struct {
	config   *config.Config
	services *Services
	manager  *workspace.Manager
	hub      *ws.Hub
	router   *gin.Engine
}

// holds the model client and the agent built on it
type Services struct {
	Agent *agent.Agent
	LLM   llm.ChatModel
}
