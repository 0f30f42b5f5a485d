package core

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/cases"
)

// DefaultProbability is used when the classifier omits a probability
const DefaultProbability = 0.5

// phishMarker is matched against the case-folded prediction label.
// The remote vocabulary is not fixed ("Phishing Email", "phishing-like",
// "Legitimate", "Safe Email"), only this substring convention is.
const phishMarker = "phish"

// ProbabilityPolicy decides what happens to probabilities outside [0,1]
type ProbabilityPolicy string

const (
	// PolicyClamp clamps out-of-range probabilities into [0,1]
	PolicyClamp ProbabilityPolicy = "clamp"
	// PolicyPassthrough keeps the value exactly as received
	PolicyPassthrough ProbabilityPolicy = "passthrough"
	// PolicyReject treats an out-of-range value as a classifier failure
	PolicyReject ProbabilityPolicy = "reject"
)

// ParseProbabilityPolicy converts a configuration value into a policy.
// An empty value selects PolicyClamp.
func ParseProbabilityPolicy(s string) (ProbabilityPolicy, error) {
	switch ProbabilityPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyClamp:
		return PolicyClamp, nil
	case PolicyPassthrough:
		return PolicyPassthrough, nil
	case PolicyReject:
		return PolicyReject, nil
	default:
		return "", fmt.Errorf("unsupported probability policy: %q", s)
	}
}

// NewAnalysisRequest validates raw user input
func NewAnalysisRequest(kind AnalysisKind, rawPayload string) (AnalysisRequest, error) {
	switch kind {
	case KindEmail, KindURL:
	default:
		return AnalysisRequest{}, &ValidationError{Kind: kind, Reason: "unsupported analysis kind"}
	}

	if strings.TrimSpace(rawPayload) == "" {
		reason := "email content is empty"
		if kind == KindURL {
			reason = "url is empty"
		}
		return AnalysisRequest{}, &ValidationError{Kind: kind, Reason: reason}
	}

	return AnalysisRequest{Kind: kind, Payload: rawPayload}, nil
}

// NormalizeVerdict maps a classifier label onto a Verdict: any label
// containing "phish" in any letter case is Phishing, everything else Safe.
func NormalizeVerdict(prediction string) Verdict {
	if strings.Contains(cases.Fold().String(prediction), phishMarker) {
		return VerdictPhishing
	}
	return VerdictSafe
}

// NormalizeProbability applies the default and the policy to a raw probability
func NormalizeProbability(p *float64, policy ProbabilityPolicy) (float64, error) {
	if p == nil {
		return DefaultProbability, nil
	}

	v := *p
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("probability is not a finite number")
	}
	if v >= 0 && v <= 1 {
		return v, nil
	}

	switch policy {
	case PolicyPassthrough:
		return v, nil
	case PolicyReject:
		return 0, fmt.Errorf("probability %v is outside [0,1]", v)
	default:
		return math.Min(1, math.Max(0, v)), nil
	}
}

// NormalizeResponse turns a classifier answer into the stable result fields
func NormalizeResponse(kind AnalysisKind, resp *ClassifierResponse, policy ProbabilityPolicy) (AnalysisResult, error) {
	if err := resp.Validate(); err != nil {
		return AnalysisResult{}, err
	}

	probability, err := NormalizeProbability(resp.Probability, policy)
	if err != nil {
		return AnalysisResult{}, err
	}

	return AnalysisResult{
		Kind:        kind,
		Prediction:  NormalizeVerdict(resp.Prediction),
		Probability: probability,
		Label:       resp.Prediction,
	}, nil
}

// FormatProbability renders a probability as a percentage with one decimal
func FormatProbability(p float64) string {
	return fmt.Sprintf("%.1f%%", p*100)
}
