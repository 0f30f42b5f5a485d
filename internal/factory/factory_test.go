package factory

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/phishguard/internal/adapters/cache"
	"github.com/mikey/phishguard/internal/adapters/httpapi"
	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/utils"
)

func newConfig(values map[string]interface{}) *config.Config {
	v := config.NewEmptyViper()
	for key, value := range values {
		v.Set(key, value)
	}
	return config.NewFromViper(v)
}

func TestClassifierFactory(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]interface{}
		wantErr bool
	}{
		{name: "http default", values: nil},
		{name: "http bad timeout", values: map[string]interface{}{"http_classifier.timeout": "soon"}, wantErr: true},
		{name: "openai without key", values: map[string]interface{}{"classifier.provider": "openai"}, wantErr: true},
		{name: "openai", values: map[string]interface{}{"classifier.provider": "openai", "openai.api_key": "sk-test"}},
		{name: "gemini without key", values: map[string]interface{}{"classifier.provider": "gemini"}, wantErr: true},
		{name: "unknown", values: map[string]interface{}{"classifier.provider": "crystal-ball"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewClassifierFactory(newConfig(tt.values), zap.NewNop(), utils.NewTextProcessor(nil))
			classifier, err := f.CreateClassifier()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, classifier.Name())
		})
	}
}

func TestClassifierFactory_HTTPIsDefault(t *testing.T) {
	classifier, err := NewClassifierFactory(newConfig(nil), zap.NewNop(), utils.NewTextProcessor(nil)).CreateClassifier()
	require.NoError(t, err)
	assert.IsType(t, &httpapi.Client{}, classifier)
	assert.Equal(t, "openai:gpt-4o-mini", mustName(t, map[string]interface{}{"classifier.provider": "openai", "openai.api_key": "sk-test"}))
}

func mustName(t *testing.T, values map[string]interface{}) string {
	t.Helper()
	classifier, err := NewClassifierFactory(newConfig(values), zap.NewNop(), utils.NewTextProcessor(nil)).CreateClassifier()
	require.NoError(t, err)
	return classifier.Name()
}

func TestCacheFactory(t *testing.T) {
	c, err := NewCacheFactory(newConfig(nil), zap.NewNop()).CreateVerdictCache()
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = NewCacheFactory(newConfig(map[string]interface{}{"cache.enabled": true}), zap.NewNop()).CreateVerdictCache()
	require.NoError(t, err)
	assert.IsType(t, &cache.MemoryCache{}, c)
	c.Stop()

	path := filepath.Join(t.TempDir(), "nested", "verdicts.db")
	c, err = NewCacheFactory(newConfig(map[string]interface{}{
		"cache.enabled":     true,
		"cache.type":        "sqlite",
		"cache.sqlite_path": path,
	}), zap.NewNop()).CreateVerdictCache()
	require.NoError(t, err)
	assert.IsType(t, &cache.SQLiteCache{}, c)
	c.Stop()

	_, err = NewCacheFactory(newConfig(map[string]interface{}{
		"cache.enabled": true,
		"cache.type":    "redis",
	}), zap.NewNop()).CreateVerdictCache()
	assert.Error(t, err)

	_, err = NewCacheFactory(newConfig(map[string]interface{}{
		"cache.enabled":           true,
		"cache.cleanup_frequency": "often",
	}), zap.NewNop()).CreateVerdictCache()
	assert.Error(t, err)
}

func TestFrontendFactory(t *testing.T) {
	controller, err := core.NewSubmissionController(&httpapi.Client{}, nil, nil, zap.NewNop(),
		core.Session{UserEmail: "analyst@example.com"}, core.ControllerOptions{})
	require.NoError(t, err)

	frontends, err := NewFrontendFactory(newConfig(nil), zap.NewNop(), controller).CreateFrontends()
	require.NoError(t, err)
	require.Len(t, frontends, 1)
	assert.Equal(t, "http", frontends[0].Name())

	frontends, err = NewFrontendFactory(newConfig(map[string]interface{}{"server.smtp.enabled": true}), zap.NewNop(), controller).CreateFrontends()
	require.NoError(t, err)
	require.Len(t, frontends, 2)
	assert.Equal(t, "smtp", frontends[1].Name())

	_, err = NewFrontendFactory(newConfig(map[string]interface{}{"server.http.enabled": false}), zap.NewNop(), controller).CreateFrontends()
	assert.Error(t, err)
}
