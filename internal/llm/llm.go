// Package llm classifies window text with the Anthropic Messages API.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/joescharf/focuswin/internal/models"
)

// maxTextLen bounds the window text sent per request.
const maxTextLen = 500

// completer sends one system+user exchange and returns the first text block.
type completer func(ctx context.Context, system, user string) (string, error)

// Client wraps the Anthropic API for focus classification.
type Client struct {
	complete completer
}

// NewClient creates an LLM client with the given API key and model.
func NewClient(apiKey, model string) *Client {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	api := anthropic.NewClient(opts...)
	return &Client{complete: messagesCompleter(&api, anthropic.Model(model))}
}

func messagesCompleter(api *anthropic.Client, model anthropic.Model) completer {
	return func(ctx context.Context, system, user string) (string, error) {
		msg, err := api.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     model,
			MaxTokens: 128,
			System: []anthropic.TextBlockParam{
				{Text: system},
			},
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
			},
		})
		if err != nil {
			return "", fmt.Errorf("anthropic API call: %w", err)
		}
		for _, block := range msg.Content {
			if block.Type == "text" && block.Text != "" {
				return block.Text, nil
			}
		}
		return "", fmt.Errorf("no text content in API response")
	}
}

// buildPrompt constructs the system and user prompts for one window.
func buildPrompt(text string) (system string, user string) {
	system = `You classify what a student is doing from the title of their active window. Return ONLY a JSON object with these fields:
- "label": one of "focused", "distracted", "searching"
- "confidence": a number between 0 and 1

Rules:
- "focused" means studying, reading course material, writing code or notes
- "searching" means looking something up (search engines, documentation lookups)
- "distracted" means entertainment, social media, shopping, games or chat unrelated to study
- Return valid JSON only, no markdown fencing or explanation`

	text = strings.TrimSpace(text)
	if len(text) > maxTextLen {
		cut := maxTextLen
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	user = "Active window: " + text
	return
}

type verdict struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// parseVerdict decodes the model reply. Unknown labels map to unknown with
// zero confidence.
func parseVerdict(text string) (models.FocusState, float64, error) {
	text = stripFence(text)

	var v verdict
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return models.FocusStateUnknown, 0, fmt.Errorf("parse LLM response as JSON: %w\nraw response: %s", err, text)
	}

	state := models.FocusState(strings.ToLower(strings.TrimSpace(v.Label)))
	switch state {
	case models.FocusStateFocused, models.FocusStateDistracted, models.FocusStateSearching:
	default:
		return models.FocusStateUnknown, 0, nil
	}
	return state, math.Max(0, math.Min(1, v.Confidence)), nil
}

func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		lines := strings.SplitN(text, "\n", 2)
		if len(lines) > 1 {
			text = lines[1]
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}
	return text
}

// Predict classifies window text. It blocks for the duration of the API call.
func (c *Client) Predict(ctx context.Context, text string) (models.FocusState, float64, error) {
	system, user := buildPrompt(text)
	reply, err := c.complete(ctx, system, user)
	if err != nil {
		return models.FocusStateUnknown, 0, err
	}
	return parseVerdict(reply)
}
