package tui

import (
	"fmt"
	"os"
	"os/exec"

	tea "github.com/charmbracelet/bubbletea"

	"codeberg.org/algrv/codelab/internal/logger"
)

const serverPath = "bin/server"

func startServer() tea.Msg {
	if _, err := os.Stat(serverPath); os.IsNotExist(err) {
		buildCmd := exec.Command("go", "build", "-o", serverPath, "./cmd/server")
		if err := buildCmd.Run(); err != nil {
			return ErrorMsg{err: fmt.Errorf("failed to build server: %w", err)}
		}
	}

	cmd := exec.Command(serverPath)
	// the server's own output would tear the alt screen
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return ErrorMsg{err: fmt.Errorf("failed to start server: %w", err)}
	}

	go func() {
		if err := cmd.Wait(); err != nil {
			logger.ErrorErr(err, "server exited")
		}
	}()

	return ServerStartedMsg{}
}
