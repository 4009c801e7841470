package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

const WeatherToolName = "getWeather"

type weatherArgs struct {
	Location string `json:"location"`
}

// Weather is a mock capability that always reports the same forecast.
type Weather struct{}

func NewWeather() *Weather {
	return &Weather{}
}

func (w *Weather) Name() string {
	return WeatherToolName
}

func (w *Weather) Description() string {
	return "Provides the weather for a specific location."
}

func (w *Weather) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"location": map[string]any{
				"type":        "string",
				"description": "The location for which to get the weather.",
			},
		},
		"required":             []string{"location"},
		"additionalProperties": false,
	}
}

func (w *Weather) Invoke(_ context.Context, args json.RawMessage) (string, error) {
	var in weatherArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("getWeather: invalid arguments: %w", err)
	}

	return fmt.Sprintf("25C and sunny in %s", in.Location), nil
}
