package utils

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/urlfeatures"
)

// SystemPrompt is sent as the system role where the provider supports one
const SystemPrompt = "You are a phishing detection system. Respond only with JSON."

const emailPromptFormat = `You are a phishing detection system. Analyze the following email and decide whether it is a phishing attempt.
Respond with a JSON object containing:
- prediction: string, either "Phishing" or "Safe"
- probability: number between 0 and 1 (how confident you are in the prediction)

Email:
%s

Respond only with the JSON object and nothing else.`

const urlPromptFormat = `You are a phishing detection system. Analyze the following URL and decide whether it leads to a phishing site.
Respond with a JSON object containing:
- prediction: string, either "Phishing" or "Safe"
- probability: number between 0 and 1 (how confident you are in the prediction)

URL: %s

Lexical features of the URL:
%s

Respond only with the JSON object and nothing else.`

// BuildPrompt formats the classification prompt for a request. payload is
// the already processed request text.
func BuildPrompt(kind core.AnalysisKind, payload string) string {
	if kind == core.KindURL {
		rawURL := strings.TrimSpace(payload)
		return fmt.Sprintf(urlPromptFormat, rawURL, featureLines(urlfeatures.Extract(rawURL)))
	}
	return fmt.Sprintf(emailPromptFormat, payload)
}

// featureLines lists the features one per line in a stable order
func featureLines(f urlfeatures.Features) string {
	m := f.Map()
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, len(names))
	for i, name := range names {
		lines[i] = "- " + name + ": " + strconv.FormatFloat(m[name], 'g', -1, 64)
	}
	return strings.Join(lines, "\n")
}

// ParseClassifierJSON decodes a classifier answer from model output, which
// may wrap the JSON object in prose or code fences
func ParseClassifierJSON(text string) (*core.ClassifierResponse, error) {
	var resp core.ClassifierResponse
	if err := json.Unmarshal([]byte(text), &resp); err == nil {
		return validated(&resp)
	}

	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("failed to extract JSON from LLM response")
	}

	if err := json.Unmarshal([]byte(text[start:end+1]), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response as JSON: %w", err)
	}
	return validated(&resp)
}

func validated(resp *core.ClassifierResponse) (*core.ClassifierResponse, error) {
	if err := resp.Validate(); err != nil {
		return nil, fmt.Errorf("invalid LLM response: %w", err)
	}
	return resp, nil
}
