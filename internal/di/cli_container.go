package di

import (
	"flag"
	"fmt"
	"io"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/phishguard/internal/adapters/frontend"
	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/logging"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Session flags
	UserEmail string

	// Classifier flags
	Provider       string
	ClassifierURL  string
	URLPayload     string
	Timeout        time.Duration
	Policy         string
	MaxPayloadSize int

	// Bedrock flags
	BedrockRegion  string
	BedrockModelID string

	// Gemini flags
	GeminiAPIKey    string
	GeminiModelName string

	// OpenAI flags
	OpenAIAPIKey    string
	OpenAIModelName string
	OpenAIBaseURL   string

	// Input flags
	EmailText  string
	InputFile  string
	URL        string
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// OneShot reports whether a single submission was requested instead of
// an interactive session
func (f *CLIFlags) OneShot() bool {
	return f.EmailText != "" || f.InputFile != "" || f.URL != ""
}

// ParseFlags parses command line arguments into a CLIFlags struct
func ParseFlags(args []string, output io.Writer) (*CLIFlags, error) {
	flags := &CLIFlags{}
	fs := flag.NewFlagSet("phishguard", flag.ContinueOnError)
	fs.SetOutput(output)

	// Session flags
	fs.StringVar(&flags.UserEmail, "user", "", "Email of the signed-in analyst (required)")

	// Classifier flags
	fs.StringVar(&flags.Provider, "provider", "", "Classifier provider (http, openai, gemini, bedrock)")
	fs.StringVar(&flags.ClassifierURL, "classifier-url", "", "Base URL of the prediction API")
	fs.StringVar(&flags.URLPayload, "url-payload", "", "URL request payload for the prediction API (url, features)")
	fs.DurationVar(&flags.Timeout, "timeout", 0, "Prediction API timeout")
	fs.StringVar(&flags.Policy, "policy", "", "Out-of-range probability policy (clamp, passthrough, reject)")
	fs.IntVar(&flags.MaxPayloadSize, "max-payload-size", 0, "Maximum payload size sent to LLM providers")

	// Bedrock flags
	fs.StringVar(&flags.BedrockRegion, "bedrock-region", "", "AWS region for Bedrock")
	fs.StringVar(&flags.BedrockModelID, "bedrock-model", "", "Bedrock model ID")

	// Gemini flags
	fs.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	fs.StringVar(&flags.GeminiModelName, "gemini-model", "", "Gemini model name")

	// OpenAI flags
	fs.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	fs.StringVar(&flags.OpenAIModelName, "openai-model", "", "OpenAI model name")
	fs.StringVar(&flags.OpenAIBaseURL, "openai-base-url", "", "OpenAI compatible API base URL")

	// Input flags
	fs.StringVar(&flags.EmailText, "email", "", "Email text to classify")
	fs.StringVar(&flags.InputFile, "file", "", "Email file to classify (- for stdin)")
	fs.StringVar(&flags.URL, "url", "", "URL to classify")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file (command line flags take precedence)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	inputs := 0
	for _, set := range []bool{flags.EmailText != "", flags.InputFile != "", flags.URL != ""} {
		if set {
			inputs++
		}
	}
	if inputs > 1 {
		return nil, fmt.Errorf("only one of -email, -file and -url may be given")
	}

	return flags, nil
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		return createConfigFromFlags(flags, logger)
	}); err != nil {
		return nil, err
	}

	if err := provideCore(container); err != nil {
		return nil, err
	}

	// Register submission controller with no cache for CLI
	if err := container.Provide(func(
		classifier core.Classifier,
		history *core.ResultHistory,
		logger *zap.Logger,
		session core.Session,
		cfg *config.Config,
	) (*core.SubmissionController, error) {
		policy, err := core.ParseProbabilityPolicy(cfg.GetClassifier().ProbabilityPolicy)
		if err != nil {
			return nil, err
		}
		return core.NewSubmissionController(classifier, history, nil, logger, session,
			core.ControllerOptions{Policy: policy})
	}); err != nil {
		return nil, err
	}

	// Register CLI session
	if err := container.Provide(func(controller *core.SubmissionController, logger *zap.Logger, flags *CLIFlags) *frontend.CLISession {
		return frontend.NewCLISession(controller, logger, flags.Verbose)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags loads the config file when given and layers the
// explicitly set flags on top
func createConfigFromFlags(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	if flags.ConfigFile != "" {
		loaded, err := config.Load(flags.ConfigFile)
		if err != nil {
			return nil, err
		}
		logger.Info("Loaded configuration from file", zap.String("file", loaded.GetViper().ConfigFileUsed()))
		cfg = loaded
	} else {
		cfg = config.NewFromViper(config.NewEmptyViper())
	}

	v := cfg.GetViper()
	setIf := func(key string, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	setIntIf := func(key string, value int) {
		if value > 0 {
			v.Set(key, value)
		}
	}

	setIf("session.user_email", flags.UserEmail)
	setIf("classifier.provider", flags.Provider)
	setIf("classifier.probability_policy", flags.Policy)
	setIf("http_classifier.base_url", flags.ClassifierURL)
	setIf("http_classifier.url_payload", flags.URLPayload)
	if flags.Timeout > 0 {
		v.Set("http_classifier.timeout", flags.Timeout.String())
	}

	setIf("bedrock.region", flags.BedrockRegion)
	setIf("bedrock.model_id", flags.BedrockModelID)
	setIf("gemini.api_key", flags.GeminiAPIKey)
	setIf("gemini.model_name", flags.GeminiModelName)
	setIf("openai.api_key", flags.OpenAIAPIKey)
	setIf("openai.model_name", flags.OpenAIModelName)
	setIf("openai.base_url", flags.OpenAIBaseURL)
	for _, provider := range []string{"openai", "gemini", "bedrock"} {
		setIntIf(provider+".max_payload_size", flags.MaxPayloadSize)
	}

	return cfg, nil
}
