package bedrock

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/haneulsoft/ai-relay/internal/domain"
)

// Provider invokes Anthropic models hosted on Amazon Bedrock. The request
// and response bodies follow the Anthropic messages schema, so
// normalization mirrors the direct Anthropic adapter.
type Provider struct {
	client *bedrockruntime.Client
	region string
}

func New(ctx context.Context, region string) (*Provider, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Provider{
		client: bedrockruntime.NewFromConfig(cfg),
		region: region,
	}, nil
}

func NewWithConfig(cfg aws.Config) *Provider {
	return &Provider{
		client: bedrockruntime.NewFromConfig(cfg),
		region: cfg.Region,
	}
}

func (p *Provider) ID() string {
	return "bedrock"
}

func (p *Provider) Generate(ctx context.Context, prompt string, opts domain.GenerateOptions) (*domain.ChatResponse, error) {
	bedrockReq := bedrockRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        opts.MaxTokens,
		Messages: []bedrockMessage{
			{Role: "user", Content: prompt},
		},
	}

	body, err := json.Marshal(bedrockReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	input := &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(mapModelID(opts.Model)),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	}

	output, err := p.client.InvokeModel(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("invoke model: %w", err)
	}

	var bedrockResp bedrockResponse
	if err := json.Unmarshal(output.Body, &bedrockResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	var text string
	for _, block := range bedrockResp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return domain.TextResponse(opts.Model, text, domain.Usage{
		InputTokens:  bedrockResp.Usage.InputTokens,
		OutputTokens: bedrockResp.Usage.OutputTokens,
	}), nil
}

func (p *Provider) HealthCheck(ctx context.Context) error {
	return nil
}

// mapModelID translates bare Claude model names to their Bedrock
// identifiers; IDs already in Bedrock form pass through.
func mapModelID(model string) string {
	ids := map[string]string{
		"claude-sonnet-4-20250514":   "anthropic.claude-sonnet-4-20250514-v1:0",
		"claude-3-5-sonnet-20241022": "anthropic.claude-3-5-sonnet-20241022-v2:0",
		"claude-3-5-haiku-20241022":  "anthropic.claude-3-5-haiku-20241022-v1:0",
	}

	if id, ok := ids[model]; ok {
		return id
	}
	return model
}

type bedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	Messages         []bedrockMessage `json:"messages"`
}

type bedrockMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type bedrockResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}
