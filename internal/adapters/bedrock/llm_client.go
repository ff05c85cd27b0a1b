package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/llm-scam-detector/internal/adapters/airesult"
	"github.com/mikey/llm-scam-detector/internal/core"
	"github.com/mikey/llm-scam-detector/internal/utils"
	"go.uber.org/zap"
)

// ErrEmptyResponse is returned when the model produced no text
var ErrEmptyResponse = errors.New("empty response from Bedrock model")

const anthropicMessagesVersion = "bedrock-2023-05-31"

// ModelInvoker is the subset of the Bedrock runtime client used for classification
type ModelInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// payloadFamily groups Bedrock models sharing a request and response shape
type payloadFamily int

const (
	familyGeneric payloadFamily = iota
	familyClaudeText
	familyClaudeMessages
	familyTitan
)

func familyOf(modelID string) payloadFamily {
	switch {
	case strings.HasPrefix(modelID, "anthropic.claude-3"), strings.Contains(modelID, ".anthropic.claude-3"):
		return familyClaudeMessages
	case strings.HasPrefix(modelID, "anthropic.claude"):
		return familyClaudeText
	case strings.HasPrefix(modelID, "amazon.titan"):
		return familyTitan
	default:
		return familyGeneric
	}
}

// BedrockClient is an implementation of the AIClassifier interface using Amazon Bedrock
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

// NewBedrockClient creates a new Bedrock classifier
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

// Classify invokes the configured Bedrock model for a risk assessment
func (c *BedrockClient) Classify(ctx context.Context, sub *core.Submission) (*core.RiskAssessment, error) {
	prompt := airesult.BuildPrompt(sub, c.maxBodySize, c.textProcessor)
	family := familyOf(c.modelID)

	payload, err := c.buildPayload(family, prompt)
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

	text, err := extractText(family, resp.Body)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("Received Bedrock response",
		zap.String("model", c.modelID),
		zap.Int("length", len(text)))

	return airesult.Parse(text, c.modelID)
}

func (c *BedrockClient) buildPayload(family payloadFamily, prompt string) ([]byte, error) {
	switch family {
	case familyClaudeMessages:
		return json.Marshal(map[string]interface{}{
			"anthropic_version": anthropicMessagesVersion,
			"max_tokens":        c.maxTokens,
			"temperature":       c.temperature,
			"top_p":             c.topP,
			"system":            airesult.SystemPrompt,
			"messages": []map[string]interface{}{
				{"role": "user", "content": prompt},
			},
		})
	case familyClaudeText:
		return json.Marshal(map[string]interface{}{
			"prompt":               "\n\nHuman: " + prompt + "\n\nAssistant:",
			"max_tokens_to_sample": c.maxTokens,
			"temperature":          c.temperature,
			"top_p":                c.topP,
		})
	case familyTitan:
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

// extractText pulls the generated text out of a model-specific response body
func extractText(family payloadFamily, body []byte) (string, error) {
	switch family {
	case familyClaudeMessages:
		var resp struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		var b strings.Builder
		for _, block := range resp.Content {
			if block.Type == "text" {
				b.WriteString(block.Text)
			}
		}
		if b.Len() == 0 {
			return "", ErrEmptyResponse
		}
		return b.String(), nil

	case familyClaudeText:
		var resp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		if resp.Completion == "" {
			return "", ErrEmptyResponse
		}
		return resp.Completion, nil

	case familyTitan:
		var resp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Titan response: %w", err)
		}
		if len(resp.Results) == 0 || resp.Results[0].OutputText == "" {
			return "", ErrEmptyResponse
		}
		return resp.Results[0].OutputText, nil

	default:
		var resp struct {
			Output   string `json:"output"`
			Text     string `json:"text"`
			Response string `json:"response"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to unmarshal generic response: %w", err)
		}
		switch {
		case resp.Output != "":
			return resp.Output, nil
		case resp.Text != "":
			return resp.Text, nil
		case resp.Response != "":
			return resp.Response, nil
		default:
			// the body itself may be the assessment
			return string(body), nil
		}
	}
}
