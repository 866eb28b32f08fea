package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/viper"

	"github.com/joescharf/focuswin/internal/llm"
)

// newLLMClient creates an LLM client from config/env, or returns nil if no API key is configured.
func newLLMClient() *llm.Client {
	apiKey := viper.GetString("anthropic.api_key")
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil
	}
	return llm.NewClient(apiKey, viper.GetString("anthropic.model"))
}

// newClassifier wraps the LLM client so ticks never wait on the network.
// Nil means rule-only classification.
func newClassifier(logger *slog.Logger) *llm.AsyncClassifier {
	client := newLLMClient()
	if client == nil {
		return nil
	}
	return llm.NewAsyncClassifier(client, viper.GetDuration("classifier.timeout"), logger)
}
