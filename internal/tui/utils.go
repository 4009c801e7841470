package tui

import (
	"fmt"
	"slices"
	"strings"

	"codeberg.org/algrv/codelab/internal/llm"
)

// terminal output kept in the viewport
const maxTerminalBytes = 64 * 1024

// name of the archive written by the download command
const downloadName = "sandbox.zip"

// returns the entry after current, wrapping around. an unknown current
// yields the first entry.
func cycle(options []string, current string) string {
	if len(options) == 0 {
		return ""
	}

	i := slices.Index(options, current)

	return options[(i+1)%len(options)]
}

// appends chunk and trims from the front to the byte budget
func appendTerminal(text, chunk string) string {
	text += chunk

	if len(text) > maxTerminalBytes {
		text = text[len(text)-maxTerminalBytes:]
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[i+1:]
		}
	}

	return text
}

// formats a generation result as markdown for glamour
func formatRunResult(result RunResult) string {
	var b strings.Builder

	if len(result.Artifacts) == 0 {
		b.WriteString("_the reply contained no generated files_\n\n")

		for _, m := range result.Appended {
			if m.Role == llm.RoleAssistant && m.Content != "" {
				b.WriteString(m.Content)
				b.WriteString("\n\n")
			}
		}
	}

	for _, a := range result.Artifacts {
		name := a.FileName
		if name == "" {
			name = "(no file name)"
		}

		fmt.Fprintf(&b, "### %s\n\n%s\n\n```%s\n%s\n```\n\n", name, a.Description, a.Language, strings.TrimRight(a.Code, "\n"))
	}

	for _, m := range result.Appended {
		if m.Role == llm.RoleTool {
			fmt.Fprintf(&b, "> tool `%s`: %s\n\n", m.Name, m.Content)
		}
	}

	for _, s := range result.SkippedToolCalls {
		fmt.Fprintf(&b, "> skipped tool `%s`: %s\n\n", s.Name, s.Reason)
	}

	fmt.Fprintf(&b, "_model: %s | transcript: %d messages_\n", result.Model, result.TranscriptLength)

	return b.String()
}
