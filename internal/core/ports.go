package core

import (
	"context"
)

// Classifier sends a request to a phishing classifier
type Classifier interface {
	// Classify returns the raw classifier answer for a validated request
	Classify(ctx context.Context, req AnalysisRequest) (*ClassifierResponse, error)

	// Name identifies the classifier in results and logs
	Name() string
}

// VerdictCache defines the interface for caching verdicts by request fingerprint
type VerdictCache interface {
	// Get retrieves a cached entry for a fingerprint
	Get(ctx context.Context, fingerprint string) (*CacheEntry, error)

	// Set stores a cache entry
	Set(ctx context.Context, entry *CacheEntry) error

	// Delete removes a cache entry
	Delete(ctx context.Context, fingerprint string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}
