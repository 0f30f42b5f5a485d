package frontend

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mikey/phishguard/internal/core"
)

const (
	// BadgeDestructive marks phishing verdicts
	BadgeDestructive = "destructive"
	// BadgeAffirmative marks safe verdicts
	BadgeAffirmative = "affirmative"
)

// Badge maps a verdict to its presentation variant
func Badge(v core.Verdict) string {
	if v == core.VerdictPhishing {
		return BadgeDestructive
	}
	return BadgeAffirmative
}

// ResultView is the presentation shape of an AnalysisResult
type ResultView struct {
	core.AnalysisResult
	Badge      string `json:"badge"`
	Percentage string `json:"percentage"`
}

// NewResultView decorates a result with its badge and formatted percentage
func NewResultView(r core.AnalysisResult) ResultView {
	return ResultView{
		AnalysisResult: r,
		Badge:          Badge(r.Prediction),
		Percentage:     core.FormatProbability(r.Probability),
	}
}

// FormatResult renders a result as a single terminal line
func FormatResult(r core.AnalysisResult) string {
	return fmt.Sprintf("[%s] %-5s %-8s %6s  %s (via %s)",
		strings.ToUpper(Badge(r.Prediction)),
		r.Kind,
		r.Prediction,
		core.FormatProbability(r.Probability),
		r.Label,
		r.Source)
}

// FormatError renders a submission failure for a person to read
func FormatError(err error) string {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		return "Invalid input: " + ve.Reason
	case errors.Is(err, core.ErrSlotBusy):
		return "An analysis of this kind is already in progress"
	case core.IsClassifierError(err):
		return "Classification failed: " + err.Error()
	default:
		return "Error: " + err.Error()
	}
}
