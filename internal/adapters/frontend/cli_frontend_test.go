package frontend

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/phishguard/internal/core"
)

func TestBadge(t *testing.T) {
	assert.Equal(t, BadgeDestructive, Badge(core.VerdictPhishing))
	assert.Equal(t, BadgeAffirmative, Badge(core.VerdictSafe))
}

func TestFormatResult(t *testing.T) {
	line := FormatResult(core.AnalysisResult{
		Kind:        core.KindEmail,
		Prediction:  core.VerdictPhishing,
		Probability: 0.92,
		Label:       "Phishing Email",
		Source:      "http",
	})
	assert.Contains(t, line, "[DESTRUCTIVE]")
	assert.Contains(t, line, "92.0%")
	assert.Contains(t, line, "Phishing Email (via http)")
}

func TestFormatError(t *testing.T) {
	assert.Equal(t, "Invalid input: url is empty", FormatError(&core.ValidationError{Kind: core.KindURL, Reason: "url is empty"}))
	assert.Contains(t, FormatError(core.ErrSlotBusy), "already in progress")
	assert.Contains(t, FormatError(&core.ClassifierError{Kind: core.KindURL, Err: errors.New("boom")}), "Classification failed")
}

func TestCLISession_SubmitOnce(t *testing.T) {
	classifier := newStubClassifier().respond(core.KindURL, "Legitimate", 0.77)
	session := NewCLISession(newController(t, classifier), zap.NewNop(), true)

	var out bytes.Buffer
	result, err := session.SubmitOnce(context.Background(), core.KindURL, "https://example.com", &out)
	require.NoError(t, err)
	assert.Equal(t, core.VerdictSafe, result.Prediction)
	assert.Contains(t, out.String(), "[AFFIRMATIVE]")
	assert.Contains(t, out.String(), "77.0%")
	assert.Contains(t, out.String(), "id: "+result.ID)
}

func TestCLISession_SubmitOnceValidation(t *testing.T) {
	classifier := newStubClassifier()
	session := NewCLISession(newController(t, classifier), zap.NewNop(), false)

	var out bytes.Buffer
	_, err := session.SubmitOnce(context.Background(), core.KindEmail, "   ", &out)
	assert.True(t, core.IsValidationError(err))
	assert.Contains(t, out.String(), "Invalid input: email content is empty")
	assert.Empty(t, classifier.calls())
}

func TestCLISession_Run(t *testing.T) {
	classifier := newStubClassifier().
		respond(core.KindEmail, "Phishing Email", 0.92).
		respond(core.KindURL, "Safe", 0.6)
	controller := newController(t, classifier)
	session := NewCLISession(controller, zap.NewNop(), false)

	input := strings.Join([]string{
		"help",
		"email",
		"Dear customer,",
		"Verify your account now.",
		".",
		"url https://example.com",
		"url",
		"bogus",
		"history",
		"status",
		"quit",
		"url https://never.example",
	}, "\n")

	var out bytes.Buffer
	require.NoError(t, session.Run(context.Background(), strings.NewReader(input), &out))
	text := out.String()

	assert.Contains(t, text, "Signed in as analyst@example.com")
	assert.Contains(t, text, "Commands:")
	assert.Contains(t, text, "Invalid input: url is empty")
	assert.Contains(t, text, `Unknown command "bogus"`)
	assert.Contains(t, text, "  1. [AFFIRMATIVE]")
	assert.Contains(t, text, "  2. [DESTRUCTIVE]")
	assert.Contains(t, text, "Slot email: idle")
	assert.Contains(t, text, "Results: 2")

	calls := classifier.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "Dear customer,\nVerify your account now.", calls[0].Payload)
	assert.Equal(t, "https://example.com", calls[1].Payload)
	assert.Equal(t, 2, controller.History().Len())
}

func TestCLISession_RunKeepsGoingAfterClassifierFailure(t *testing.T) {
	classifier := newStubClassifier().fail(errors.New("connection refused"))
	controller := newController(t, classifier)
	session := NewCLISession(controller, zap.NewNop(), false)

	var out bytes.Buffer
	err := session.Run(context.Background(), strings.NewReader("url http://a.example\nurl http://b.example\n"), &out)
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(out.String(), "Classification failed"))
	assert.Len(t, classifier.calls(), 2)
	assert.Equal(t, 0, controller.History().Len())
}

func TestCLISession_RunFeatures(t *testing.T) {
	session := NewCLISession(newController(t, newStubClassifier()), zap.NewNop(), false)

	var out bytes.Buffer
	require.NoError(t, session.Run(context.Background(), strings.NewReader("features https://login.example.com/verify\nfeatures\n"), &out))
	assert.Contains(t, out.String(), `"IsHTTPS": 1`)
	assert.Contains(t, out.String(), "Usage: features <url>")
}

func TestCLISession_RunUnterminatedEmail(t *testing.T) {
	classifier := newStubClassifier()
	session := NewCLISession(newController(t, classifier), zap.NewNop(), false)

	var out bytes.Buffer
	require.NoError(t, session.Run(context.Background(), strings.NewReader("email\nno terminator"), &out))
	assert.Contains(t, out.String(), "Email input ended")
	assert.Empty(t, classifier.calls())
}

func TestCLISession_RunStopsOnCancelledContext(t *testing.T) {
	session := NewCLISession(newController(t, newStubClassifier()), zap.NewNop(), false)

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	<-ctx.Done()

	err := session.Run(ctx, strings.NewReader("status\n"), &bytes.Buffer{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
