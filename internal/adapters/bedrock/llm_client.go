package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/llm-email-classifier/internal/core"
	"github.com/mikey/llm-email-classifier/internal/scoring"
	"github.com/mikey/llm-email-classifier/internal/utils"
	"go.uber.org/zap"
)

// anthropicVersion is required by Claude models that use the messages API
const anthropicVersion = "bedrock-2023-05-31"

// ModelInvoker is the part of the Bedrock runtime client used here
type ModelInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockClient is a ZeroShotClassifier backed by Amazon Bedrock
type BedrockClient struct {
	client        ModelInvoker
	modelID       string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewBedrockClient creates a new Bedrock client
func NewBedrockClient(
	client ModelInvoker,
	modelID string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *BedrockClient {
	return &BedrockClient{
		client:        client,
		modelID:       modelID,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Name identifies the backend
func (c *BedrockClient) Name() string {
	return "bedrock"
}

// Classify scores text against labels
func (c *BedrockClient) Classify(ctx context.Context, text string, labels []string) (*core.ZeroShotOutput, error) {
	prompt := scoring.BuildPrompt(c.textProcessor.ProcessText(text, c.maxBodySize), labels)

	payload, err := c.requestBody(prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	responseText, err := c.responseText(resp.Body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Bedrock response received",
		zap.String("model_id", c.modelID),
		zap.Int("length", len(responseText)))

	return scoring.ParseResponse(responseText, labels, c.modelID)
}

// requestBody builds the model family specific payload
func (c *BedrockClient) requestBody(prompt string) ([]byte, error) {
	switch {
	case c.isAnthropicMessagesModel():
		return json.Marshal(map[string]interface{}{
			"anthropic_version": anthropicVersion,
			"max_tokens":        c.maxTokens,
			"temperature":       c.temperature,
			"top_p":             c.topP,
			"system":            scoring.SystemPrompt,
			"messages": []map[string]interface{}{
				{"role": "user", "content": prompt},
			},
		})
	case c.isAnthropicModel():
		// Claude text completions need the Human/Assistant framing
		return json.Marshal(map[string]interface{}{
			"prompt":               fmt.Sprintf("\n\nHuman: %s\n\n%s\n\nAssistant:", scoring.SystemPrompt, prompt),
			"max_tokens_to_sample": c.maxTokens,
			"temperature":          c.temperature,
			"top_p":                c.topP,
		})
	case c.isAmazonTitanModel():
		return json.Marshal(map[string]interface{}{
			"inputText": prompt,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": c.maxTokens,
				"temperature":   c.temperature,
				"topP":          c.topP,
			},
		})
	default:
		return json.Marshal(map[string]interface{}{
			"prompt":      prompt,
			"max_tokens":  c.maxTokens,
			"temperature": c.temperature,
			"top_p":       c.topP,
		})
	}
}

// responseText extracts the generated text from a model family specific
// response body
func (c *BedrockClient) responseText(body []byte) (string, error) {
	switch {
	case c.isAnthropicMessagesModel():
		var claudeResp struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		}
		if err := json.Unmarshal(body, &claudeResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		var b strings.Builder
		for _, block := range claudeResp.Content {
			if block.Type == "text" {
				b.WriteString(block.Text)
			}
		}
		if b.Len() == 0 {
			return "", errors.New("empty response from Claude model")
		}
		return b.String(), nil

	case c.isAnthropicModel():
		var claudeResp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(body, &claudeResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		return claudeResp.Completion, nil

	case c.isAmazonTitanModel():
		var titanResp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &titanResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Titan response: %w", err)
		}
		if len(titanResp.Results) == 0 {
			return "", errors.New("empty response from Titan model")
		}
		return titanResp.Results[0].OutputText, nil

	default:
		var genericResp struct {
			Generation string `json:"generation"`
			Text       string `json:"text"`
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(body, &genericResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal model response: %w", err)
		}
		for _, s := range []string{genericResp.Generation, genericResp.Text, genericResp.Completion} {
			if s != "" {
				return s, nil
			}
		}
		// Fall back to the raw body; it may be the JSON answer itself
		return string(body), nil
	}
}

// isAnthropicModel checks if the model is an Anthropic Claude model
func (c *BedrockClient) isAnthropicModel() bool {
	return strings.HasPrefix(c.modelID, "anthropic.claude")
}

// isAnthropicMessagesModel checks for Claude 3 and later, which only accept
// the messages API
func (c *BedrockClient) isAnthropicMessagesModel() bool {
	if !c.isAnthropicModel() {
		return false
	}
	id := strings.TrimPrefix(c.modelID, "anthropic.claude-")
	return !strings.HasPrefix(id, "v2") && !strings.HasPrefix(id, "instant")
}

// isAmazonTitanModel checks if the model is an Amazon Titan model
func (c *BedrockClient) isAmazonTitanModel() bool {
	return strings.HasPrefix(c.modelID, "amazon.titan")
}
