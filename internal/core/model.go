package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// AnalysisKind identifies what a submission carries
type AnalysisKind string

const (
	KindEmail AnalysisKind = "email"
	KindURL   AnalysisKind = "url"
)

// Kinds lists every supported analysis kind, one action slot each
var Kinds = []AnalysisKind{KindEmail, KindURL}

// ParseKind converts user input into an AnalysisKind
func ParseKind(s string) (AnalysisKind, error) {
	switch AnalysisKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindEmail:
		return KindEmail, nil
	case KindURL:
		return KindURL, nil
	default:
		return "", fmt.Errorf("unsupported analysis kind: %q", s)
	}
}

// Verdict is the normalized classification outcome
type Verdict string

const (
	VerdictPhishing Verdict = "Phishing"
	VerdictSafe     Verdict = "Safe"
)

// AnalysisRequest is a validated submission. Payload holds the email text
// or the URL exactly as the user entered it.
type AnalysisRequest struct {
	Kind    AnalysisKind
	Payload string
}

// Fingerprint identifies the request content for caching
func (r AnalysisRequest) Fingerprint() string {
	sum := sha256.Sum256([]byte(string(r.Kind) + "\x00" + strings.TrimSpace(r.Payload)))
	return hex.EncodeToString(sum[:])
}

// ClassifierResponse is the untrusted answer of a classifier
type ClassifierResponse struct {
	Prediction  string   `json:"prediction"`
	Probability *float64 `json:"probability,omitempty"`
}

// Validate checks that the response carries a prediction label. A body
// without one is malformed, never a Safe verdict.
func (r *ClassifierResponse) Validate() error {
	if r == nil || strings.TrimSpace(r.Prediction) == "" {
		return ErrMissingPrediction
	}
	return nil
}

// AnalysisResult is a completed, normalized analysis
type AnalysisResult struct {
	ID          string       `json:"id"`
	Kind        AnalysisKind `json:"kind"`
	Prediction  Verdict      `json:"prediction"`
	Probability float64      `json:"probability"`
	Label       string       `json:"label"`
	Source      string       `json:"source"`
	AnalyzedAt  time.Time    `json:"analyzed_at"`
}

// CacheEntry is a stored verdict for a request fingerprint
type CacheEntry struct {
	Fingerprint string
	Kind        AnalysisKind
	Prediction  Verdict
	Label       string
	Probability float64
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Session carries the signed-in state the core is constructed with
type Session struct {
	UserEmail string
}

// Authenticated reports whether a user is signed in
func (s Session) Authenticated() bool {
	return strings.TrimSpace(s.UserEmail) != ""
}
