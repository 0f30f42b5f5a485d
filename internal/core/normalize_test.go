package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestNewAnalysisRequest_RejectsBlankPayload(t *testing.T) {
	for _, payload := range []string{"", " ", "\t\n", "   \r\n  "} {
		for _, kind := range Kinds {
			_, err := NewAnalysisRequest(kind, payload)
			require.Error(t, err)
			assert.True(t, IsValidationError(err), "kind=%s payload=%q", kind, payload)
		}
	}
}

func TestNewAnalysisRequest_KeepsRawPayload(t *testing.T) {
	req, err := NewAnalysisRequest(KindEmail, "  hello there \n")
	require.NoError(t, err)
	assert.Equal(t, "  hello there \n", req.Payload)
	assert.Equal(t, KindEmail, req.Kind)
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind(" URL ")
	require.NoError(t, err)
	assert.Equal(t, KindURL, kind)

	kind, err = ParseKind("email")
	require.NoError(t, err)
	assert.Equal(t, KindEmail, kind)

	_, err = ParseKind("sms")
	assert.Error(t, err)
}

func TestNewAnalysisRequest_UnknownKind(t *testing.T) {
	_, err := NewAnalysisRequest(AnalysisKind("sms"), "text")
	assert.True(t, IsValidationError(err))
}

func TestNormalizeVerdict(t *testing.T) {
	tests := []struct {
		label string
		want  Verdict
	}{
		{"Phishing", VerdictPhishing},
		{"PHISH", VerdictPhishing},
		{"phishing-like", VerdictPhishing},
		{"Phishing email", VerdictPhishing},
		{"likely pHiSh", VerdictPhishing},
		{"Safe Email", VerdictSafe},
		{"Legitimate", VerdictSafe},
		{"safe", VerdictSafe},
		{"", VerdictSafe},
		{"phis", VerdictSafe},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeVerdict(tt.label))
		})
	}
}

func TestNormalizeProbability(t *testing.T) {
	tests := []struct {
		name    string
		in      *float64
		policy  ProbabilityPolicy
		want    float64
		wantErr bool
	}{
		{name: "omitted defaults to one half", in: nil, policy: PolicyClamp, want: 0.5},
		{name: "omitted under reject", in: nil, policy: PolicyReject, want: 0.5},
		{name: "in range kept", in: ptr(0.92), policy: PolicyClamp, want: 0.92},
		{name: "bounds kept", in: ptr(1), policy: PolicyReject, want: 1},
		{name: "clamp high", in: ptr(1.5), policy: PolicyClamp, want: 1},
		{name: "clamp low", in: ptr(-0.2), policy: PolicyClamp, want: 0},
		{name: "passthrough high", in: ptr(1.5), policy: PolicyPassthrough, want: 1.5},
		{name: "reject high", in: ptr(1.5), policy: PolicyReject, wantErr: true},
		{name: "nan", in: ptr(math.NaN()), policy: PolicyPassthrough, wantErr: true},
		{name: "inf", in: ptr(math.Inf(1)), policy: PolicyClamp, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeProbability(tt.in, tt.policy)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeResponse(t *testing.T) {
	result, err := NormalizeResponse(KindURL, &ClassifierResponse{Prediction: "safe"}, PolicyClamp)
	require.NoError(t, err)
	assert.Equal(t, KindURL, result.Kind)
	assert.Equal(t, VerdictSafe, result.Prediction)
	assert.Equal(t, 0.5, result.Probability)
	assert.Equal(t, "safe", result.Label)

	_, err = NormalizeResponse(KindURL, nil, PolicyClamp)
	assert.ErrorIs(t, err, ErrMissingPrediction)
}

func TestNormalizeResponse_RequiresPrediction(t *testing.T) {
	tests := []struct {
		name string
		resp *ClassifierResponse
	}{
		{"nil", nil},
		{"empty", &ClassifierResponse{}},
		{"blank", &ClassifierResponse{Prediction: "  \t"}},
		{"probability only", &ClassifierResponse{Probability: ptr(0.9)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeResponse(KindEmail, tt.resp, PolicyClamp)
			assert.ErrorIs(t, err, ErrMissingPrediction)
		})
	}
}

func TestParseProbabilityPolicy(t *testing.T) {
	p, err := ParseProbabilityPolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyClamp, p)

	p, err = ParseProbabilityPolicy(" Reject ")
	require.NoError(t, err)
	assert.Equal(t, PolicyReject, p)

	_, err = ParseProbabilityPolicy("round")
	assert.Error(t, err)
}

func TestFormatProbability(t *testing.T) {
	assert.Equal(t, "92.0%", FormatProbability(0.92))
	assert.Equal(t, "50.0%", FormatProbability(0.5))
	assert.Equal(t, "150.0%", FormatProbability(1.5))
	assert.Equal(t, "12.3%", FormatProbability(0.1234))
}

func TestFingerprint_IgnoresSurroundingWhitespace(t *testing.T) {
	a := AnalysisRequest{Kind: KindURL, Payload: "https://example.com"}
	b := AnalysisRequest{Kind: KindURL, Payload: "  https://example.com\n"}
	c := AnalysisRequest{Kind: KindEmail, Payload: "https://example.com"}

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}
