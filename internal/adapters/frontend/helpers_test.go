package frontend

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/phishguard/internal/core"
)

// stubClassifier answers from a per-kind table and can hold calls open
type stubClassifier struct {
	mu        sync.Mutex
	responses map[core.AnalysisKind]*core.ClassifierResponse
	err       error
	gate      chan struct{}
	started   chan core.AnalysisRequest
	requests  []core.AnalysisRequest
}

func newStubClassifier() *stubClassifier {
	return &stubClassifier{responses: make(map[core.AnalysisKind]*core.ClassifierResponse)}
}

func (s *stubClassifier) respond(kind core.AnalysisKind, prediction string, probability float64) *stubClassifier {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[kind] = &core.ClassifierResponse{Prediction: prediction, Probability: &probability}
	return s
}

func (s *stubClassifier) fail(err error) *stubClassifier {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
	return s
}

func (s *stubClassifier) Name() string { return "stub" }

func (s *stubClassifier) Classify(ctx context.Context, req core.AnalysisRequest) (*core.ClassifierResponse, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	gate, started := s.gate, s.started
	resp, err := s.responses[req.Kind], s.err
	s.mu.Unlock()

	if started != nil {
		started <- req
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("no response configured")
	}
	return resp, nil
}

func (s *stubClassifier) calls() []core.AnalysisRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.AnalysisRequest(nil), s.requests...)
}

func newController(t *testing.T, classifier core.Classifier) *core.SubmissionController {
	t.Helper()
	controller, err := core.NewSubmissionController(classifier, core.NewResultHistory(), nil, zap.NewNop(),
		core.Session{UserEmail: "analyst@example.com"}, core.ControllerOptions{})
	require.NoError(t, err)
	return controller
}
