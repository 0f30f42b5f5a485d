package core

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ControllerOptions holds the tunables of a SubmissionController
type ControllerOptions struct {
	Policy       ProbabilityPolicy
	CacheEnabled bool
	CacheTTL     time.Duration
}

// SubmissionController validates submissions, drives the classifier and
// records completed analyses in the session history
type SubmissionController struct {
	classifier Classifier
	history    *ResultHistory
	cache      VerdictCache
	logger     *zap.Logger
	session    Session
	opts       ControllerOptions
	slots      map[AnalysisKind]*slot
	now        func() time.Time
}

// NewSubmissionController creates a controller for a signed-in session.
// cache may be nil when opts.CacheEnabled is false.
func NewSubmissionController(
	classifier Classifier,
	history *ResultHistory,
	cache VerdictCache,
	logger *zap.Logger,
	session Session,
	opts ControllerOptions,
) (*SubmissionController, error) {
	if !session.Authenticated() {
		return nil, ErrNotAuthenticated
	}
	if classifier == nil {
		return nil, errors.New("classifier is required")
	}
	if history == nil {
		history = NewResultHistory()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		opts.CacheEnabled = false
	}
	if opts.Policy == "" {
		opts.Policy = PolicyClamp
	}

	slots := make(map[AnalysisKind]*slot, len(Kinds))
	for _, kind := range Kinds {
		slots[kind] = &slot{}
	}

	return &SubmissionController{
		classifier: classifier,
		history:    history,
		cache:      cache,
		logger:     logger,
		session:    session,
		opts:       opts,
		slots:      slots,
		now:        time.Now,
	}, nil
}

// History returns the session history the controller writes to
func (c *SubmissionController) History() *ResultHistory {
	return c.history
}

// Session returns the session the controller was built for
func (c *SubmissionController) Session() Session {
	return c.session
}

// State returns the current state of the slot for kind
func (c *SubmissionController) State(kind AnalysisKind) SlotState {
	s, ok := c.slots[kind]
	if !ok {
		return SlotIdle
	}
	return s.current()
}

// Submit validates rawPayload, classifies it and prepends the result to
// the history. Failures are a *ValidationError, a *ClassifierError or
// ErrSlotBusy; the history is untouched on every failure path.
func (c *SubmissionController) Submit(ctx context.Context, kind AnalysisKind, rawPayload string) (*AnalysisResult, error) {
	s, ok := c.slots[kind]
	if !ok {
		return nil, &ValidationError{Kind: kind, Reason: "unsupported analysis kind"}
	}
	if !s.acquire() {
		c.logger.Debug("Rejecting submission for busy slot", zap.String("kind", string(kind)))
		return nil, ErrSlotBusy
	}
	defer s.release()

	req, err := NewAnalysisRequest(kind, rawPayload)
	if err != nil {
		c.logger.Info("Submission rejected", zap.String("kind", string(kind)), zap.Error(err))
		return nil, err
	}

	if c.opts.CacheEnabled {
		if result, ok := c.fromCache(ctx, req); ok {
			c.history.Prepend(*result)
			return result, nil
		}
	}

	s.dispatch()
	startTime := c.now()

	resp, err := c.classifier.Classify(ctx, req)
	if err != nil {
		c.logger.Error("Classifier call failed",
			zap.String("kind", string(kind)),
			zap.String("classifier", c.classifier.Name()),
			zap.Error(err))
		return nil, &ClassifierError{Kind: kind, Err: err}
	}

	result, err := NormalizeResponse(kind, resp, c.opts.Policy)
	if err != nil {
		c.logger.Error("Unusable classifier response",
			zap.String("kind", string(kind)),
			zap.String("classifier", c.classifier.Name()),
			zap.Error(err))
		return nil, &ClassifierError{Kind: kind, Err: err}
	}
	result.ID = uuid.NewString()
	result.Source = c.classifier.Name()
	result.AnalyzedAt = c.now()

	if c.opts.CacheEnabled {
		c.storeCache(ctx, req, result)
	}

	c.history.Prepend(result)

	c.logger.Info("Analysis complete",
		zap.String("id", result.ID),
		zap.String("kind", string(kind)),
		zap.String("prediction", string(result.Prediction)),
		zap.Float64("probability", result.Probability),
		zap.String("label", result.Label),
		zap.Duration("duration", c.now().Sub(startTime)))

	return &result, nil
}

func (c *SubmissionController) fromCache(ctx context.Context, req AnalysisRequest) (*AnalysisResult, bool) {
	entry, err := c.cache.Get(ctx, req.Fingerprint())
	if err != nil {
		return nil, false
	}

	c.logger.Debug("Cache hit for submission", zap.String("kind", string(req.Kind)))
	return &AnalysisResult{
		ID:          uuid.NewString(),
		Kind:        req.Kind,
		Prediction:  entry.Prediction,
		Probability: entry.Probability,
		Label:       entry.Label,
		Source:      "cache",
		AnalyzedAt:  c.now(),
	}, true
}

func (c *SubmissionController) storeCache(ctx context.Context, req AnalysisRequest, result AnalysisResult) {
	now := c.now()
	entry := &CacheEntry{
		Fingerprint: req.Fingerprint(),
		Kind:        req.Kind,
		Prediction:  result.Prediction,
		Label:       result.Label,
		Probability: result.Probability,
		CreatedAt:   now,
		ExpiresAt:   now.Add(c.opts.CacheTTL),
	}
	if err := c.cache.Set(ctx, entry); err != nil {
		c.logger.Error("Failed to update cache", zap.Error(err))
	}
}
