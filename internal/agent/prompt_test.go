package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/algrv/codelab/internal/catalog"
	"codeberg.org/algrv/codelab/internal/llm"
)

func TestPromptFormat(t *testing.T) {
	msgs, err := NewPrompt().Format(catalog.DefaultSelection())
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	assert.True(t, len(msgs[0].Content) > 0)
	assert.Contains(t, msgs[0].Content, "You're a very experienced javascript engineer.")
	assert.Contains(t, msgs[0].Content, "result[number].fileName")
	assert.Contains(t, msgs[0].Content, "2-3 bugs")
	assert.Contains(t, msgs[0].Content, "- result[number].language: The programming language used. Required.\n")
	assert.Contains(t, msgs[0].Content, "- result[number].fileName: The name of the file\n")
	assert.NotContains(t, msgs[0].Content, "fileName: The name of the file. Required.")

	assert.Equal(t, llm.RoleHuman, msgs[1].Role)
	assert.Equal(t,
		"Create a tic tac toe game using react, build it from scratch and create as many files as needed.",
		msgs[1].Content)
}

func TestPromptFormat_EmptyFramework(t *testing.T) {
	msgs, err := NewPrompt().Format(catalog.Selection{Language: "python"})
	require.NoError(t, err)

	assert.Contains(t, msgs[0].Content, "experienced python engineer")
	assert.Contains(t, msgs[1].Content, "tic tac toe game using ,")
}
