package claude

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
	"github.com/sweetpotato0/tripmate/message"
)

// Config holds Claude provider configuration
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int64
	Temperature float64
}

// DefaultConfig returns default Claude configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:    apiKey,
		Model:     "claude-3-5-sonnet-20241022",
		MaxTokens: 4096,
	}
}

// Provider implements the oracle.Client interface for Claude
type Provider struct {
	config *Config
	client anthropic.Client
}

// New creates a new Claude provider using the official SDK
func New(config *Config) *Provider {
	if config == nil {
		config = DefaultConfig("")
	}
	if config.Model == "" {
		config.Model = "claude-3-5-sonnet-20241022"
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 4096
	}

	options := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		options = append(options, option.WithBaseURL(config.BaseURL))
	}

	return &Provider{
		config: config,
		client: anthropic.NewClient(options...),
	}
}

// Complete implements oracle.Client
func (p *Provider) Complete(ctx context.Context, messages []*message.Message, tools []map[string]any) (*message.Message, error) {
	var systemText string
	conversation := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case message.RoleSystem:
			if systemText != "" {
				systemText += "\n"
			}
			systemText += msg.Content
		case message.RoleUser:
			conversation = append(conversation,
				anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case message.RoleAssistant:
			blocks := make([]anthropic.ContentBlockParamUnion, 0, 1+len(msg.ToolCalls))
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				args := tc.Args
				if args == nil {
					args = make(map[string]any)
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, args, tc.Name))
			}
			if len(blocks) > 0 {
				conversation = append(conversation, anthropic.NewAssistantMessage(blocks...))
			}
		case message.RoleTool:
			conversation = append(conversation,
				anthropic.NewUserMessage(anthropic.NewToolResultBlock(msg.ToolID, msg.Content, false)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.config.Model),
		Messages:  conversation,
		MaxTokens: p.config.MaxTokens,
	}
	if systemText != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemText}}
	}
	if p.config.Temperature > 0 {
		params.Temperature = param.NewOpt(p.config.Temperature)
	}

	if len(tools) > 0 {
		claudeTools := make([]anthropic.ToolUnionParam, 0, len(tools))
		for _, t := range tools {
			toolParam, err := encodeTool(t)
			if err != nil {
				return nil, err
			}
			claudeTools = append(claudeTools, anthropic.ToolUnionParam{OfTool: toolParam})
		}
		params.Tools = claudeTools
	}

	apiMessage, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("Claude API error: %w", err)
	}

	var responseText string
	toolCalls := make([]message.ToolCall, 0)
	for _, content := range apiMessage.Content {
		switch content.Type {
		case "text":
			responseText = content.Text
		case "tool_use":
			var args map[string]any
			if len(content.Input) > 0 {
				if err := json.Unmarshal(content.Input, &args); err != nil {
					return nil, fmt.Errorf("failed to parse tool input: %w", err)
				}
			}
			toolCalls = append(toolCalls, message.ToolCall{
				ID:   content.ID,
				Name: content.Name,
				Args: args,
			})
		}
	}

	responseMsg := message.NewMessage(message.RoleAssistant, responseText)
	if len(toolCalls) > 0 {
		responseMsg.ToolCalls = toolCalls
	}
	return responseMsg, nil
}

// SetTemperature updates the temperature setting
func (p *Provider) SetTemperature(temp float64) {
	p.config.Temperature = temp
}

// SetModel updates the model
func (p *Provider) SetModel(model string) {
	p.config.Model = model
}

func encodeTool(schema map[string]any) (*anthropic.ToolParam, error) {
	fn, ok := schema["function"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("tool schema missing function block")
	}
	raw, err := json.Marshal(map[string]any{
		"name":         fn["name"],
		"description":  fn["description"],
		"input_schema": fn["parameters"],
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool: %w", err)
	}
	var toolParam anthropic.ToolParam
	if err := json.Unmarshal(raw, &toolParam); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tool param: %w", err)
	}
	return &toolParam, nil
}
