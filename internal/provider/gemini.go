package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiGenerator uses Gemini's native JSON mode with a response schema.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a Gemini client. Close releases its transport.
func NewGeminiGenerator(ctx context.Context, apiKey, model string, opts ...option.ClientOption) (*GeminiGenerator, error) {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Name() string { return "gemini" }

// Close closes the underlying client.
func (g *GeminiGenerator) Close() error { return g.client.Close() }

func (g *GeminiGenerator) GenerateJSON(ctx context.Context, req *StructuredRequest) (*StructuredResponse, error) {
	modelName := g.model
	if req.Model != "" {
		modelName = req.Model
	}

	m := g.client.GenerativeModel(modelName)
	m.ResponseMIMEType = "application/json"
	if req.Schema != nil {
		m.ResponseSchema = toGenaiSchema(req.Schema)
	}
	m.SetTemperature(float32(req.Temperature))
	if req.MaxOutputTokens > 0 {
		m.SetMaxOutputTokens(int32(req.MaxOutputTokens))
	}
	if req.SystemPrompt != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.SystemPrompt)}}
	}

	resp, err := m.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	var sb strings.Builder
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}
	raw := stripCodeFence(sb.String())
	if raw == "" {
		return nil, ErrEmptyResponse
	}

	out := &StructuredResponse{Raw: []byte(raw), Model: modelName}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = Usage{InputTokens: int(u.PromptTokenCount), OutputTokens: int(u.CandidatesTokenCount)}
	}
	return out, nil
}

var genaiTypes = map[Type]genai.Type{
	TypeObject:  genai.TypeObject,
	TypeArray:   genai.TypeArray,
	TypeString:  genai.TypeString,
	TypeNumber:  genai.TypeNumber,
	TypeInteger: genai.TypeInteger,
	TypeBoolean: genai.TypeBoolean,
}

// toGenaiSchema converts s to the Gemini schema subset. Gemini expresses
// nullability as a flag and requires Format "enum" on string enums.
func toGenaiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genaiTypes[s.Type],
		Description: s.Description,
		Nullable:    s.Nullable,
	}
	if len(s.Enum) > 0 {
		out.Format = "enum"
		out.Enum = append([]string(nil), s.Enum...)
	}
	if s.Items != nil {
		out.Items = toGenaiSchema(s.Items)
	}
	if s.Type == TypeObject {
		names := s.propertyNames()
		out.Properties = make(map[string]*genai.Schema, len(names))
		for _, n := range names {
			out.Properties[n] = toGenaiSchema(s.Properties[n])
		}
		if len(s.Required) > 0 {
			out.Required = append([]string(nil), s.Required...)
		} else {
			out.Required = names
		}
	}
	return out
}
