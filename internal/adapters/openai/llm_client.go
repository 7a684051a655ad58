package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/mikey/llm-email-classifier/internal/core"
	"github.com/mikey/llm-email-classifier/internal/scoring"
	"github.com/mikey/llm-email-classifier/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient is a ZeroShotClassifier that asks an OpenAI chat model to
// score the candidate labels
type OpenAIClient struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *OpenAIClient {
	return &OpenAIClient{
		client:        client,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Name identifies the backend
func (c *OpenAIClient) Name() string {
	return "openai"
}

// Classify scores text against labels
func (c *OpenAIClient) Classify(ctx context.Context, text string, labels []string) (*core.ZeroShotOutput, error) {
	prompt := scoring.BuildPrompt(c.textProcessor.ProcessText(text, c.maxBodySize), labels)

	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: scoring.SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("empty response from OpenAI")
	}

	c.logger.Debug("OpenAI response received",
		zap.String("id", resp.ID),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	return scoring.ParseResponse(resp.Choices[0].Message.Content, labels, c.modelName)
}
