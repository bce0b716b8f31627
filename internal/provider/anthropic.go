package provider

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicGenerator forces a single tool call whose input schema is the
// requested schema, then returns the tool input as the document.
type AnthropicGenerator struct {
	client anthropic.Client
	model  string
}

// NewAnthropicGenerator creates a generator. extra options are appended
// after the key and base URL.
func NewAnthropicGenerator(apiKey, baseURL, model string, extra ...anthropicoption.RequestOption) *AnthropicGenerator {
	opts := []anthropicoption.RequestOption{anthropicoption.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, anthropicoption.WithBaseURL(baseURL))
	}
	opts = append(opts, extra...)
	if model == "" {
		model = "claude-haiku-4-5-20251001"
	}
	return &AnthropicGenerator{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
}

func (p *AnthropicGenerator) Name() string { return "anthropic" }

func (p *AnthropicGenerator) GenerateJSON(ctx context.Context, req *StructuredRequest) (*StructuredResponse, error) {
	model := p.model
	if req.Model != "" {
		model = req.Model
	}
	toolName := req.SchemaName
	if toolName == "" {
		toolName = "respond"
	}
	maxTokens := int64(req.MaxOutputTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	var props any = map[string]any{}
	var required []string
	if req.Schema != nil {
		doc := req.Schema.ToJSONSchema()
		if v, ok := doc["properties"]; ok {
			props = v
		}
		if r, ok := doc["required"].([]string); ok {
			required = r
		}
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		Tools: []anthropic.ToolUnionParam{{
			OfTool: &anthropic.ToolParam{
				Name:        toolName,
				Description: anthropic.String("Record the structured result."),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: props,
					Required:   required,
				},
			},
		}},
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: toolName},
		},
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic messages: %w", err)
	}

	for _, block := range msg.Content {
		if block.Type == "tool_use" && block.Name == toolName && len(block.Input) > 0 {
			return &StructuredResponse{
				Raw:   []byte(block.Input),
				Model: model,
				Usage: Usage{
					InputTokens:  int(msg.Usage.InputTokens),
					OutputTokens: int(msg.Usage.OutputTokens),
				},
			}, nil
		}
	}
	return nil, ErrEmptyResponse
}
