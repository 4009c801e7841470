package workspaces

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/algrv/codelab/internal/agent"
	"codeberg.org/algrv/codelab/internal/llm"
)

func TestRenderTranscript(t *testing.T) {
	reply := `{"result":[{"language":"typescript","code":"export default function App() {}","description":"A **tiny** app","fileName":"src/App.tsx"}]}`

	entries := renderTranscript([]agent.Message{
		{Role: llm.RoleAssistant, Content: reply},
		{Role: llm.RoleTool, Content: `{"temperature":21}`, Name: "get_weather"},
		{Role: llm.RoleAssistant, Content: "plain words"},
	})

	require.Len(t, entries, 3)

	require.Len(t, entries[0].Artifacts, 1)
	assert.Equal(t, "src/App.tsx", entries[0].Artifacts[0].FileName)
	assert.Contains(t, entries[0].Artifacts[0].DescriptionHTML, "<strong>tiny</strong>")

	assert.Equal(t, "get_weather", entries[1].Name)
	assert.Empty(t, entries[1].Artifacts)
	assert.Empty(t, entries[2].Artifacts)
}
