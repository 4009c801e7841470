package agent

import (
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"

	"codeberg.org/algrv/codelab/internal/catalog"
	"codeberg.org/algrv/codelab/internal/llm"
)

const systemTemplate = `You're a very experienced {{.language}} engineer. Your task today is to create code for an interview challenge,
you will receive clear instructions and hints to help you along the way.
The code generated shouldn't be perfect, have 2-3 bugs, contain few tests and some instructions.
Make sure that the response is in JSON format.
Hint: You can use the tools provided to help you with the task.
Guide: JSON should have the following properties:
- result: The result of the code. Required.
- result[number].language: The programming language used. Required.
- result[number].params: The parameters used in the code. Optional.
- result[number].code: The code that you created to achieve the requirements. Required.
- result[number].description: A description of the code. Required.
- result[number].fileName: The name of the file
Rule: Do not generate any code if you were not requested to do so.
Guide: Make sure to create all the files needed to execute the code, for example if you generate code for React
with typescript, you should add the package.json, tsconfig.json, and all the folders, etc.`

const humanTemplate = `Create a tic tac toe game using {{.framework}}, build it from scratch and create as many files as needed.`

// Prompt renders the two-message generation prompt for a selection.
type Prompt struct {
	template prompts.ChatPromptTemplate
}

func NewPrompt() *Prompt {
	return &Prompt{
		template: prompts.NewChatPromptTemplate([]prompts.MessageFormatter{
			prompts.NewSystemMessagePromptTemplate(systemTemplate, []string{"language"}),
			prompts.NewHumanMessagePromptTemplate(humanTemplate, []string{"framework"}),
		}),
	}
}

// returns the system instruction followed by the human instruction
func (p *Prompt) Format(sel catalog.Selection) ([]Message, error) {
	formatted, err := p.template.FormatMessages(map[string]any{
		"language":  sel.Language,
		"framework": sel.Framework,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to format prompt: %w", err)
	}

	out := make([]Message, 0, len(formatted))

	for _, m := range formatted {
		role := llm.RoleHuman
		if m.GetType() == llms.ChatMessageTypeSystem {
			role = llm.RoleSystem
		}

		out = append(out, Message{Role: role, Content: m.GetContent()})
	}

	return out, nil
}
