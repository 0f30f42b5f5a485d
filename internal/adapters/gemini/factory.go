package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Factory creates new instances of GeminiClient
type Factory struct {
	cfg           config.GeminiConfig
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new factory for GeminiClient instances
func NewFactory(cfg config.GeminiConfig, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateClient creates a new GeminiClient
func (f *Factory) CreateClient() (*GeminiClient, error) {
	if f.cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(f.cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(f.cfg.ModelName)
	model.SetTemperature(f.cfg.Temperature)
	model.SetTopP(f.cfg.TopP)
	model.SetMaxOutputTokens(int32(f.cfg.MaxTokens))
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(utils.SystemPrompt)},
	}

	return NewGeminiClient(client, model, f.cfg.ModelName, f.cfg.MaxPayloadSize, f.logger, f.textProcessor), nil
}
