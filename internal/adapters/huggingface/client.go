package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/mikey/llm-email-classifier/internal/core"
	"github.com/mikey/llm-email-classifier/internal/utils"
	"go.uber.org/zap"
)

// maxErrorBody bounds how much of an error response is quoted in errors.
const maxErrorBody = 512

// Client calls a zero-shot classification model on the Hugging Face
// Inference API
type Client struct {
	httpClient    *http.Client
	endpoint      string
	model         string
	apiToken      string
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewClient creates a new Hugging Face client. endpoint is the models base
// URL; the model name is appended to it.
func NewClient(
	httpClient *http.Client,
	endpoint string,
	model string,
	apiToken string,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *Client {
	return &Client{
		httpClient:    httpClient,
		endpoint:      strings.TrimRight(endpoint, "/"),
		model:         model,
		apiToken:      apiToken,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

type request struct {
	Inputs     string     `json:"inputs"`
	Parameters parameters `json:"parameters"`
	Options    options    `json:"options"`
}

type parameters struct {
	CandidateLabels []string `json:"candidate_labels"`
	MultiLabel      bool     `json:"multi_label"`
}

type options struct {
	WaitForModel bool `json:"wait_for_model"`
}

// rankedResponse is the classic pipeline output
type rankedResponse struct {
	Sequence string    `json:"sequence"`
	Labels   []string  `json:"labels"`
	Scores   []float64 `json:"scores"`
}

// labelScore is one element of the list output
type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Name identifies the backend
func (c *Client) Name() string {
	return "huggingface"
}

// Classify scores text against labels with a single-label NLI model
func (c *Client) Classify(ctx context.Context, text string, labels []string) (*core.ZeroShotOutput, error) {
	body, err := json.Marshal(request{
		Inputs: c.textProcessor.ProcessText(text, c.maxBodySize),
		Parameters: parameters{
			CandidateLabels: labels,
			MultiLabel:      false,
		},
		Options: options{WaitForModel: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	url := c.endpoint + "/" + c.model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call Hugging Face inference API: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read Hugging Face response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hugging face inference API returned %s: %s", resp.Status, errorMessage(payload))
	}

	output, err := decodeResponse(payload)
	if err != nil {
		return nil, err
	}
	output.Model = c.model

	c.logger.Debug("Hugging Face classification complete",
		zap.String("model", c.model),
		zap.String("top_label", output.Labels[0]))

	return output, nil
}

// decodeResponse accepts both the {labels, scores} object and the list of
// {label, score} pairs, and returns labels ranked best first.
func decodeResponse(payload []byte) (*core.ZeroShotOutput, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, errors.New("empty response from Hugging Face")
	}

	output := &core.ZeroShotOutput{}

	if trimmed[0] == '[' {
		var pairs []labelScore
		if err := json.Unmarshal(trimmed, &pairs); err == nil && len(pairs) > 0 && pairs[0].Label != "" {
			for _, p := range pairs {
				output.Labels = append(output.Labels, p.Label)
				output.Scores = append(output.Scores, p.Score)
			}
			return rank(output), nil
		}

		// A batch of one classic result
		var batch []rankedResponse
		if err := json.Unmarshal(trimmed, &batch); err != nil {
			return nil, fmt.Errorf("failed to parse Hugging Face response: %w", err)
		}
		if len(batch) == 0 {
			return nil, errors.New("empty response from Hugging Face")
		}
		output.Labels, output.Scores = batch[0].Labels, batch[0].Scores
	} else {
		var ranked rankedResponse
		if err := json.Unmarshal(trimmed, &ranked); err != nil {
			return nil, fmt.Errorf("failed to parse Hugging Face response: %w", err)
		}
		output.Labels, output.Scores = ranked.Labels, ranked.Scores
	}

	if len(output.Labels) == 0 {
		return nil, errors.New("hugging face response contains no labels")
	}
	if len(output.Labels) != len(output.Scores) {
		return nil, fmt.Errorf("hugging face response has %d labels and %d scores", len(output.Labels), len(output.Scores))
	}

	return rank(output), nil
}

func rank(output *core.ZeroShotOutput) *core.ZeroShotOutput {
	order := make([]int, len(output.Labels))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return output.Scores[order[a]] > output.Scores[order[b]]
	})

	ranked := &core.ZeroShotOutput{
		Labels: make([]string, len(order)),
		Scores: make([]float64, len(order)),
		Model:  output.Model,
	}
	for i, idx := range order {
		ranked.Labels[i] = output.Labels[idx]
		ranked.Scores[i] = output.Scores[idx]
	}
	return ranked
}

// errorMessage extracts {"error": "..."} or quotes the start of the body.
func errorMessage(payload []byte) string {
	var apiErr struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(payload, &apiErr); err == nil && apiErr.Error != "" {
		return apiErr.Error
	}

	if len(payload) > maxErrorBody {
		payload = payload[:maxErrorBody]
	}
	return strings.TrimSpace(string(payload))
}
