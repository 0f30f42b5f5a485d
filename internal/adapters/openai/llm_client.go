package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient is an implementation of the Classifier interface using OpenAI
type OpenAIClient struct {
	client         *openai.Client
	modelName      string
	maxTokens      int
	temperature    float32
	topP           float32
	maxPayloadSize int
	logger         *zap.Logger
	textProcessor  *utils.TextProcessor
}

// NewOpenAIClient creates a new OpenAI classifier around an API client
func NewOpenAIClient(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxPayloadSize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *OpenAIClient {
	return &OpenAIClient{
		client:         client,
		modelName:      modelName,
		maxTokens:      maxTokens,
		temperature:    temperature,
		topP:           topP,
		maxPayloadSize: maxPayloadSize,
		logger:         logger,
		textProcessor:  textProcessor,
	}
}

// Name identifies the classifier
func (c *OpenAIClient) Name() string {
	return "openai:" + c.modelName
}

// Classify asks the chat model for a prediction on the request
func (c *OpenAIClient) Classify(ctx context.Context, req core.AnalysisRequest) (*core.ClassifierResponse, error) {
	payload := c.textProcessor.ProcessText(req.Payload, c.maxPayloadSize)

	chatReq := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: utils.SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: utils.BuildPrompt(req.Kind, payload),
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	startTime := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from OpenAI")
	}

	c.logger.Debug("OpenAI responded",
		zap.String("id", resp.ID),
		zap.String("kind", string(req.Kind)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("duration", time.Since(startTime)))

	return utils.ParseClassifierJSON(resp.Choices[0].Message.Content)
}
