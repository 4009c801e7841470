package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	agentcore "codeberg.org/algrv/codelab/internal/agent"
	"codeberg.org/algrv/codelab/internal/catalog"
	"codeberg.org/algrv/codelab/internal/llm"
	"codeberg.org/algrv/codelab/internal/tools"
)

const generateTimeout = 2 * time.Minute

// builds the chat model for generate; swapped out in tests
type modelFactory func() (llm.ChatModel, error)

// result of generate as printed with --json
type generateOutput struct {
	Selection  catalog.Selection    `json:"selection"`
	Result     *agentcore.RunResult `json:"result"`
	Transcript []agentcore.Message  `json:"transcript"`
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(out io.Writer, newModel modelFactory) *cli.App {
	app := &cli.App{
		Name:      "codelab",
		Usage:     "Generate starter apps for a language and framework",
		Version:   Version,
		Writer:    out,
		ErrWriter: out,
		Commands: []*cli.Command{
			languagesCmd(out),
			frameworksCmd(out),
			generateCmd(out, newModel),
		},
	}
	// keep errors as return values so tests can inspect them
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func languagesCmd(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "languages",
		Usage: "List the supported languages",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Print as JSON"},
		},
		Action: func(c *cli.Context) error {
			if c.Bool("json") {
				return outputJSON(out, map[string]any{
					"languages": catalog.Languages(),
					"default":   catalog.DefaultSelection(),
				})
			}

			for _, lang := range catalog.Languages() {
				fmt.Fprintln(out, lang)
			}

			return nil
		},
	}
}

func frameworksCmd(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "frameworks",
		Usage:     "List the frameworks offered for a language",
		ArgsUsage: "[language]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "language", Aliases: []string{"l"}, Usage: "Language name"},
			&cli.BoolFlag{Name: "json", Usage: "Print as JSON"},
		},
		Action: func(c *cli.Context) error {
			lang := c.String("language")
			if lang == "" {
				lang = c.Args().First()
			}
			if lang == "" {
				return cli.Exit("language is required", 1)
			}

			list, err := catalog.Frameworks(lang)
			if err != nil {
				return outputError(err)
			}

			if c.Bool("json") {
				return outputJSON(out, map[string]any{"language": lang, "frameworks": list})
			}

			if len(list) == 0 {
				fmt.Fprintf(out, "%s has no framework options\n", lang)
				return nil
			}

			for _, fw := range list {
				fmt.Fprintln(out, fw)
			}

			return nil
		},
	}
}

func generateCmd(out io.Writer, newModel modelFactory) *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Ask the model for a starter app and print the generated files",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "language", Aliases: []string{"l"}, Value: catalog.DefaultLanguage, Usage: "Language name"},
			&cli.StringFlag{Name: "framework", Aliases: []string{"f"}, Usage: "Framework name (optional)"},
			&cli.BoolFlag{Name: "json", Usage: "Print the run result and transcript as JSON"},
		},
		Action: func(c *cli.Context) error {
			var sel catalog.Selection
			if err := sel.SetLanguage(c.String("language")); err != nil {
				return outputError(err)
			}
			if err := sel.SetFramework(c.String("framework")); err != nil {
				return outputError(err)
			}

			model, err := newModel()
			if err != nil {
				return outputError(fmt.Errorf("failed to create model: %w", err))
			}

			ctx, cancel := context.WithTimeout(c.Context, generateTimeout)
			defer cancel()

			transcript := agentcore.NewTranscript()

			result, err := agentcore.New(model, tools.Default()).Run(ctx, agentcore.RunRequest{
				Selection:  sel,
				Transcript: transcript,
			})
			if err != nil {
				return outputError(err)
			}

			if c.Bool("json") {
				return outputJSON(out, generateOutput{
					Selection:  sel,
					Result:     result,
					Transcript: transcript.Messages(),
				})
			}

			printResult(out, result)

			return nil
		},
	}
}

func printResult(out io.Writer, result *agentcore.RunResult) {
	if len(result.Artifacts) == 0 {
		fmt.Fprintln(out, "the reply contained no generated files")
	}

	for _, a := range result.Artifacts {
		name := a.FileName
		if name == "" {
			name = "(no file name)"
		}

		fmt.Fprintf(out, "== %s (%s)\n", name, a.Language)
		if a.Description != "" {
			fmt.Fprintln(out, a.Description)
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, strings.TrimRight(a.Code, "\n"))
		fmt.Fprintln(out)
	}

	for _, m := range result.Appended {
		if m.Role == llm.RoleTool {
			fmt.Fprintf(out, "tool %s: %s\n", m.Name, m.Content)
		}
	}

	for _, s := range result.SkippedToolCalls {
		fmt.Fprintf(out, "skipped tool %s: %s\n", s.Name, s.Reason)
	}
}

func outputJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func outputError(err error) error {
	return cli.Exit(err.Error(), 1)
}
