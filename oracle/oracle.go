// Package oracle abstracts the language-model completion service. The model
// is treated as a black box with possible latency and failure and is never
// assumed deterministic; callers own their own fallback policy.
package oracle

import (
	"context"
	"strings"

	"github.com/sweetpotato0/tripmate/message"
)

// Client defines the interface for LLM providers
type Client interface {
	// Complete generates a reply for the supplied conversation. When tools
	// are bound, the reply may carry tool call requests instead of text.
	Complete(ctx context.Context, messages []*message.Message, tools []map[string]any) (*message.Message, error)

	// SetTemperature updates the temperature setting for generation
	SetTemperature(temp float64)

	// SetModel updates the model to use for generation
	SetModel(model string)
}

// CompleteText issues a plain completion and returns the trimmed text content.
func CompleteText(ctx context.Context, client Client, messages []*message.Message) (string, error) {
	resp, err := client.Complete(ctx, messages, nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}

// Ask is a convenience wrapper for single-prompt completions.
func Ask(ctx context.Context, client Client, prompt string) (string, error) {
	return CompleteText(ctx, client, []*message.Message{
		message.NewMessage(message.RoleUser, prompt),
	})
}
