package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAIGenerator uses strict json_schema response formats. It serves every
// OpenAI-compatible API, including Gemini's compatibility endpoint.
type OpenAIGenerator struct {
	client openai.Client
	model  string
	name   string
}

// NewOpenAIGenerator creates a generator. extra options are appended after
// the key and base URL, which tests use to disable retries.
func NewOpenAIGenerator(apiKey, baseURL, model string, extra ...option.RequestOption) *OpenAIGenerator {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	opts = append(opts, extra...)

	name := "openai"
	switch {
	case strings.Contains(baseURL, "generativelanguage.googleapis.com"):
		name = "gemini-openai"
	case strings.Contains(baseURL, "deepseek"):
		name = "deepseek"
	case strings.Contains(baseURL, "groq"):
		name = "groq"
	}

	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIGenerator{
		client: openai.NewClient(opts...),
		model:  model,
		name:   name,
	}
}

func (p *OpenAIGenerator) Name() string { return p.name }

func (p *OpenAIGenerator) GenerateJSON(ctx context.Context, req *StructuredRequest) (*StructuredResponse, error) {
	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	var msgs []openai.ChatCompletionMessageParamUnion
	if req.SystemPrompt != "" {
		msgs = append(msgs, openai.SystemMessage(req.SystemPrompt))
	}
	msgs = append(msgs, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    msgs,
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxOutputTokens))
	}
	if req.Schema != nil {
		name := req.SchemaName
		if name == "" {
			name = "response"
		}
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   name,
					Schema: req.Schema.ToJSONSchema(),
					Strict: openai.Bool(true),
				},
			},
		}
	} else {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s chat completion: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	raw := stripCodeFence(resp.Choices[0].Message.Content)
	if raw == "" {
		return nil, ErrEmptyResponse
	}
	return &StructuredResponse{
		Raw:   []byte(raw),
		Model: model,
		Usage: Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}, nil
}
