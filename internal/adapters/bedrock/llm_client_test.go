package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/llm-email-classifier/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeInvoker struct {
	input *bedrockruntime.InvokeModelInput
	body  string
	err   error
}

func (f *fakeInvoker) InvokeModel(_ context.Context, params *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.body)}, nil
}

var labels = []string{"Sales Inquiry", "Billing Question"}

const answer = `{\"scores\": {\"Sales Inquiry\": 0.1, \"Billing Question\": 0.9}}`

func newTestClient(t *testing.T, modelID string, invoker ModelInvoker) *BedrockClient {
	t.Helper()
	logger := zaptest.NewLogger(t)
	return NewBedrockClient(invoker, modelID, 500, 0.1, 0.9, 4096, logger, utils.NewTextProcessor(logger))
}

func TestClassifyModelFamilies(t *testing.T) {
	tests := []struct {
		modelID  string
		response string
		checkReq func(t *testing.T, req map[string]interface{})
	}{
		{
			modelID:  "anthropic.claude-v2",
			response: `{"completion": "` + answer + `"}`,
			checkReq: func(t *testing.T, req map[string]interface{}) {
				prompt, _ := req["prompt"].(string)
				assert.True(t, strings.HasPrefix(prompt, "\n\nHuman: "))
				assert.True(t, strings.HasSuffix(prompt, "\n\nAssistant:"))
				assert.Contains(t, req, "max_tokens_to_sample")
			},
		},
		{
			modelID:  "anthropic.claude-3-haiku-20240307-v1:0",
			response: `{"content": [{"type": "text", "text": "` + answer + `"}]}`,
			checkReq: func(t *testing.T, req map[string]interface{}) {
				assert.Equal(t, anthropicVersion, req["anthropic_version"])
				messages, _ := req["messages"].([]interface{})
				assert.Len(t, messages, 1)
			},
		},
		{
			modelID:  "amazon.titan-text-express-v1",
			response: `{"results": [{"outputText": "` + answer + `"}]}`,
			checkReq: func(t *testing.T, req map[string]interface{}) {
				assert.Contains(t, req, "inputText")
				assert.Contains(t, req, "textGenerationConfig")
			},
		},
		{
			modelID:  "meta.llama3-8b-instruct-v1:0",
			response: `{"generation": "` + answer + `"}`,
			checkReq: func(t *testing.T, req map[string]interface{}) {
				assert.Contains(t, req, "prompt")
				assert.Contains(t, req, "max_tokens")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.modelID, func(t *testing.T) {
			invoker := &fakeInvoker{body: tt.response}
			client := newTestClient(t, tt.modelID, invoker)

			out, err := client.Classify(context.Background(), "Why was I charged twice?", labels)
			require.NoError(t, err)

			assert.Equal(t, []string{"Billing Question", "Sales Inquiry"}, out.Labels)
			assert.InDeltaSlice(t, []float64{0.9, 0.1}, out.Scores, 1e-9)
			assert.Equal(t, tt.modelID, out.Model)

			require.NotNil(t, invoker.input)
			assert.Equal(t, tt.modelID, *invoker.input.ModelId)

			var req map[string]interface{}
			require.NoError(t, json.Unmarshal(invoker.input.Body, &req))
			tt.checkReq(t, req)
		})
	}
}

func TestClassifyInvokeError(t *testing.T) {
	client := newTestClient(t, "anthropic.claude-v2", &fakeInvoker{err: errors.New("AccessDeniedException")})

	_, err := client.Classify(context.Background(), "Why was I charged twice?", labels)
	assert.ErrorContains(t, err, "AccessDeniedException")
}

func TestClassifyEmptyTitanResults(t *testing.T) {
	client := newTestClient(t, "amazon.titan-text-lite-v1", &fakeInvoker{body: `{"results": []}`})

	_, err := client.Classify(context.Background(), "Why was I charged twice?", labels)
	assert.Error(t, err)
}
