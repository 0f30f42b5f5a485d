package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/utils"
)

type chatRequest struct {
	Model          string `json:"model"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newChatServer(t *testing.T, content string, got *chatRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(got))

		encoded, _ := json.Marshal(content)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","model":"gpt-4o-mini",` +
			`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":` +
			string(encoded) + `}}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, baseURL string, maxPayload int) *OpenAIClient {
	t.Helper()
	factory := NewFactory(config.OpenAIConfig{
		APIKey:         "test-key",
		ModelName:      "gpt-4o-mini",
		BaseURL:        baseURL + "/v1",
		MaxTokens:      50,
		MaxPayloadSize: maxPayload,
	}, zap.NewNop(), utils.NewTextProcessor(nil))
	client, err := factory.CreateClient()
	require.NoError(t, err)
	return client
}

func TestOpenAIClient_Classify(t *testing.T) {
	var got chatRequest
	server := newChatServer(t, "```json\n{\"prediction\":\"Phishing\",\"probability\":0.88}\n```", &got)
	client := newTestClient(t, server.URL, 0)

	resp, err := client.Classify(context.Background(), core.AnalysisRequest{Kind: core.KindURL, Payload: "http://paypa1.example"})
	require.NoError(t, err)
	assert.Equal(t, "Phishing", resp.Prediction)
	require.NotNil(t, resp.Probability)
	assert.Equal(t, 0.88, *resp.Probability)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[1].Content, "URL: http://paypa1.example")
}

func TestOpenAIClient_TruncatesPayload(t *testing.T) {
	var got chatRequest
	server := newChatServer(t, `{"prediction":"Safe"}`, &got)
	client := newTestClient(t, server.URL, 10)

	_, err := client.Classify(context.Background(), core.AnalysisRequest{Kind: core.KindEmail, Payload: strings.Repeat("b", 100)})
	require.NoError(t, err)
	assert.Contains(t, got.Messages[1].Content, strings.Repeat("b", 10)+utils.TruncationMarker)
	assert.NotContains(t, got.Messages[1].Content, strings.Repeat("b", 11))
}

func TestOpenAIClient_UnparseableAnswer(t *testing.T) {
	var got chatRequest
	server := newChatServer(t, "I cannot decide", &got)
	client := newTestClient(t, server.URL, 0)

	_, err := client.Classify(context.Background(), core.AnalysisRequest{Kind: core.KindEmail, Payload: "hello"})
	assert.Error(t, err)
}

func TestOpenAIClient_Name(t *testing.T) {
	client := newTestClient(t, "http://localhost", 0)
	assert.Equal(t, "openai:gpt-4o-mini", client.Name())
}

func TestFactory_RequiresAPIKey(t *testing.T) {
	_, err := NewFactory(config.OpenAIConfig{ModelName: "gpt-4o-mini"}, zap.NewNop(), utils.NewTextProcessor(nil)).CreateClient()
	assert.Error(t, err)
}
