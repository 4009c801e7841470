package agent

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// ParseArtifacts decodes the {"result": [...]} contract from a reply. The
// contract is advisory, so callers treat an error as "no artifacts".
func ParseArtifacts(content string) ([]Artifact, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("empty reply")
	}

	candidates := []string{content}

	if fenced := extractCodeFromFence(content); fenced != "" {
		candidates = append(candidates, fenced)
	}

	if obj := jsonObjectPattern.FindString(content); obj != "" {
		candidates = append(candidates, obj)
	}

	var lastErr error

	for _, c := range candidates {
		var env artifactEnvelope
		if err := json.Unmarshal([]byte(c), &env); err != nil {
			lastErr = err
			continue
		}

		if env.Result == nil {
			lastErr = fmt.Errorf("reply has no result field")
			continue
		}

		return env.Result, nil
	}

	return nil, fmt.Errorf("failed to decode artifacts: %w", lastErr)
}

// extracts the body of the first markdown fence, or "" when there is none
func extractCodeFromFence(response string) string {
	startIdx := strings.Index(response, "```")
	if startIdx == -1 {
		return ""
	}

	// skip language identifier
	afterStart := startIdx + 3
	newlineIdx := strings.Index(response[afterStart:], "\n")
	if newlineIdx == -1 {
		return ""
	}
	codeStart := afterStart + newlineIdx + 1

	endIdx := strings.Index(response[codeStart:], "```")
	if endIdx == -1 {
		return ""
	}

	return strings.TrimSpace(response[codeStart : codeStart+endIdx])
}
