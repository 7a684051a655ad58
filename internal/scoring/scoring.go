// Package scoring turns a general-purpose LLM into a zero-shot classifier:
// it builds the prompt listing the candidate labels and converts the model's
// JSON reply into a ranked probability distribution.
package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/mikey/llm-email-classifier/internal/core"
)

// SystemPrompt is sent as the system message where the backend supports one.
const SystemPrompt = "You are an email classification system. Respond only with JSON."

const promptFormat = `Classify the following email into the categories listed below.
Give every category a score between 0 and 1 describing how well it fits the email.
The scores must add up to 1.

Categories:
%s
Respond with a JSON object of the form {"scores": {"<category>": <score>, ...}}
using the category names exactly as written above.

Email:
%s

Respond only with the JSON object and nothing else.`

// ErrNoScores is returned when a reply assigns no weight to any candidate.
var ErrNoScores = errors.New("response contains no scores for the candidate labels")

// BuildPrompt renders the classification prompt for text and labels.
func BuildPrompt(text string, labels []string) string {
	var b strings.Builder
	for _, label := range labels {
		fmt.Fprintf(&b, "- %s: %s\n", label, core.DescribeCategory(label))
	}
	return fmt.Sprintf(promptFormat, b.String(), text)
}

type scoreResponse struct {
	Scores map[string]float64 `json:"scores"`
}

// ParseResponse extracts the scores object from an LLM reply. Scores are
// matched to labels case-insensitively, negatives count as zero, and the
// result is renormalized and ranked best first. Labels the model left out
// score zero.
func ParseResponse(response string, labels []string, model string) (*core.ZeroShotOutput, error) {
	var parsed scoreResponse
	if err := json.Unmarshal([]byte(response), &parsed); err != nil {
		start := strings.Index(response, "{")
		end := strings.LastIndex(response, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("failed to extract JSON from LLM response: %w", err)
		}
		if err := json.Unmarshal([]byte(response[start:end+1]), &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse LLM response as JSON: %w", err)
		}
	}

	lookup := make(map[string]float64, len(parsed.Scores))
	for label, score := range parsed.Scores {
		lookup[strings.ToLower(strings.TrimSpace(label))] = score
	}

	scores := make([]float64, len(labels))
	total := 0.0
	for i, label := range labels {
		score, ok := parsed.Scores[label]
		if !ok {
			score = lookup[strings.ToLower(label)]
		}
		if math.IsNaN(score) || score < 0 {
			score = 0
		}
		scores[i] = score
		total += score
	}
	if total == 0 || math.IsInf(total, 0) {
		return nil, ErrNoScores
	}

	order := make([]int, len(labels))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	out := &core.ZeroShotOutput{
		Labels: make([]string, len(labels)),
		Scores: make([]float64, len(labels)),
		Model:  model,
	}
	for i, idx := range order {
		out.Labels[i] = labels[idx]
		out.Scores[i] = scores[idx] / total
	}

	return out, nil
}
