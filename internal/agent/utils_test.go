package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/algrv/codelab/internal/llm"
)

func TestParseArtifacts(t *testing.T) {
	tests := []struct {
		name    string
		content string
		files   []string
	}{
		{
			name:    "plain json",
			content: `{"result":[{"language":"js","code":"a","description":"d","fileName":"a.js"}]}`,
			files:   []string{"a.js"},
		},
		{
			name:    "fenced",
			content: "Here you go\n```json\n{\"result\":[{\"fileName\":\"b.js\",\"code\":\"b\"}]}\n```\n",
			files:   []string{"b.js"},
		},
		{
			name:    "surrounding prose",
			content: `sure! {"result":[{"fileName":"c.js"},{"fileName":"d.js"}]} hope this helps`,
			files:   []string{"c.js", "d.js"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artifacts, err := ParseArtifacts(tt.content)
			require.NoError(t, err)

			var names []string
			for _, a := range artifacts {
				names = append(names, a.FileName)
			}
			assert.Equal(t, tt.files, names)
		})
	}
}

func TestParseArtifacts_Invalid(t *testing.T) {
	_, err := ParseArtifacts("")
	assert.Error(t, err)

	_, err = ParseArtifacts("no json here")
	assert.Error(t, err)

	_, err = ParseArtifacts(`{"files":[]}`)
	assert.Error(t, err)
}

func TestTranscriptLast(t *testing.T) {
	tr := NewTranscript()
	tr.Append(
		Message{Role: llm.RoleAssistant, Content: "first"},
		Message{Role: llm.RoleTool, Content: "tool"},
		Message{Role: llm.RoleAssistant, Content: "second"},
		Message{Role: llm.RoleTool, Content: "tool2"},
	)

	last, ok := tr.Last(llm.RoleAssistant)
	require.True(t, ok)
	assert.Equal(t, "second", last.Content)

	_, ok = NewTranscript().Last(llm.RoleAssistant)
	assert.False(t, ok)
}

func TestTranscriptMessagesIsCopy(t *testing.T) {
	tr := NewTranscript()
	tr.Append(Message{Role: llm.RoleAssistant, Content: "x"})

	msgs := tr.Messages()
	msgs[0].Content = "mutated"

	assert.Equal(t, "x", tr.Messages()[0].Content)
}
