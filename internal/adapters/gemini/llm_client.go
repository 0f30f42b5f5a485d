package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/utils"
	"go.uber.org/zap"
)

// contentGenerator is the part of *genai.GenerativeModel the client uses
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiClient is an implementation of the Classifier interface using Google Gemini
type GeminiClient struct {
	client         *genai.Client
	model          contentGenerator
	modelName      string
	maxPayloadSize int
	logger         *zap.Logger
	textProcessor  *utils.TextProcessor
}

// NewGeminiClient creates a new Gemini classifier. client may be nil when
// model is not backed by a genai.Client.
func NewGeminiClient(
	client *genai.Client,
	model contentGenerator,
	modelName string,
	maxPayloadSize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *GeminiClient {
	return &GeminiClient{
		client:         client,
		model:          model,
		modelName:      modelName,
		maxPayloadSize: maxPayloadSize,
		logger:         logger,
		textProcessor:  textProcessor,
	}
}

// Name identifies the classifier
func (c *GeminiClient) Name() string {
	return "gemini:" + c.modelName
}

// Close closes the Gemini client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Classify asks the generative model for a prediction on the request
func (c *GeminiClient) Classify(ctx context.Context, req core.AnalysisRequest) (*core.ClassifierResponse, error) {
	payload := c.textProcessor.ProcessText(req.Payload, c.maxPayloadSize)
	prompt := utils.BuildPrompt(req.Kind, payload)

	startTime := time.Now()
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	c.logger.Debug("Gemini responded",
		zap.String("kind", string(req.Kind)),
		zap.Int("size", len(text)),
		zap.Duration("duration", time.Since(startTime)))

	return utils.ParseClassifierJSON(text)
}

// responseText joins the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}
