package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/llm-scam-detector/internal/core"
	"github.com/mikey/llm-scam-detector/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeInvoker struct {
	input *bedrockruntime.InvokeModelInput
	body  []byte
	err   error
}

func (f *fakeInvoker) InvokeModel(_ context.Context, params *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: f.body}, nil
}

func newTestClient(invoker ModelInvoker, modelID string) *BedrockClient {
	logger := zap.NewNop()
	return NewBedrockClient(invoker, modelID, 500, 0.1, 0.9, 2048, logger, utils.NewTextProcessor(logger))
}

const assessmentJSON = `{"isScam":true,"confidence":0.8,"category":"fraud","riskScore":85,"explanation":"advance fee"}`

func TestFamilyOf(t *testing.T) {
	assert.Equal(t, familyClaudeMessages, familyOf("anthropic.claude-3-haiku-20240307-v1:0"))
	assert.Equal(t, familyClaudeMessages, familyOf("us.anthropic.claude-3-5-sonnet-20240620-v1:0"))
	assert.Equal(t, familyClaudeText, familyOf("anthropic.claude-v2"))
	assert.Equal(t, familyTitan, familyOf("amazon.titan-text-express-v1"))
	assert.Equal(t, familyGeneric, familyOf("meta.llama3-8b-instruct-v1:0"))
}

func TestClassify_ClaudeMessages(t *testing.T) {
	body, err := json.Marshal(map[string]interface{}{
		"content": []map[string]string{{"type": "text", "text": assessmentJSON}},
	})
	require.NoError(t, err)
	invoker := &fakeInvoker{body: body}
	client := newTestClient(invoker, "anthropic.claude-3-haiku-20240307-v1:0")

	result, err := client.Classify(context.Background(), &core.Submission{Content: "send a deposit", Type: core.ContentTypeJobOffer})
	require.NoError(t, err)
	assert.Equal(t, 85, result.RiskScore)
	assert.Equal(t, core.CategoryFraud, result.Category)
	assert.Equal(t, "anthropic.claude-3-haiku-20240307-v1:0", result.ModelUsed)

	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal(invoker.input.Body, &sent))
	assert.Equal(t, anthropicMessagesVersion, sent["anthropic_version"])
	assert.Contains(t, sent["messages"].([]interface{})[0].(map[string]interface{})["content"], "send a deposit")
}

func TestClassify_ClaudeText(t *testing.T) {
	body, err := json.Marshal(map[string]string{"completion": " " + assessmentJSON})
	require.NoError(t, err)
	invoker := &fakeInvoker{body: body}
	client := newTestClient(invoker, "anthropic.claude-v2")

	result, err := client.Classify(context.Background(), &core.Submission{Content: "hello"})
	require.NoError(t, err)
	assert.True(t, result.IsScam)

	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal(invoker.input.Body, &sent))
	assert.Contains(t, sent["prompt"], "\n\nHuman: ")
	assert.Contains(t, sent["prompt"], "\n\nAssistant:")
}

func TestClassify_Titan(t *testing.T) {
	body, err := json.Marshal(map[string]interface{}{
		"results": []map[string]string{{"outputText": assessmentJSON}},
	})
	require.NoError(t, err)
	client := newTestClient(&fakeInvoker{body: body}, "amazon.titan-text-express-v1")

	result, err := client.Classify(context.Background(), &core.Submission{Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, 85, result.RiskScore)
}

func TestClassify_GenericRawBody(t *testing.T) {
	client := newTestClient(&fakeInvoker{body: []byte(assessmentJSON)}, "meta.llama3-8b-instruct-v1:0")

	result, err := client.Classify(context.Background(), &core.Submission{Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, core.DetectionAI, result.DetectionMethod)
}

func TestClassify_InvokeError(t *testing.T) {
	client := newTestClient(&fakeInvoker{err: errors.New("throttled")}, "anthropic.claude-v2")

	_, err := client.Classify(context.Background(), &core.Submission{Content: "hello"})
	assert.ErrorContains(t, err, "throttled")
}

func TestExtractText_Empty(t *testing.T) {
	_, err := extractText(familyTitan, []byte(`{"results":[]}`))
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = extractText(familyClaudeText, []byte(`{"completion":""}`))
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = extractText(familyClaudeMessages, []byte(`{"content":[]}`))
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = extractText(familyClaudeMessages, []byte(`not json`))
	assert.Error(t, err)
}
