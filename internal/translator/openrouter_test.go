package translator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lnjng/courselog-api/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*OpenRouterClient, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	client := NewOpenRouterClient(config.TranslationConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Model:   "test-model",
	})
	return client, srv.Close
}

func chatReply(content string) []byte {
	payload := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	}
	raw, _ := json.Marshal(payload)
	return raw
}

func TestTranslateBatchSuccess(t *testing.T) {
	var gotAuth string
	client, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write(chatReply(`["Induction", "Graph Theory"]`)) //nolint:errcheck
	})
	defer done()

	out, err := client.TranslateBatch(context.Background(), []string{"数学归纳法", "图论"}, "MATH 55")
	require.NoError(t, err)
	assert.Equal(t, []string{"Induction", "Graph Theory"}, out)
	assert.Equal(t, "Bearer test-key", gotAuth)
}

func TestTranslateBatchStripsCodeFences(t *testing.T) {
	client, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(chatReply("```json\n[\"Review\"]\n```")) //nolint:errcheck
	})
	defer done()

	out, err := client.TranslateBatch(context.Background(), []string{"复习"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Review"}, out)
}

func TestTranslateBatchCountMismatch(t *testing.T) {
	client, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(chatReply(`["only one"]`)) //nolint:errcheck
	})
	defer done()

	_, err := client.TranslateBatch(context.Background(), []string{"a", "b"}, "")
	assert.ErrorIs(t, err, ErrCountMismatch)
}

func TestTranslateBatchHTTPError(t *testing.T) {
	client, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer done()

	_, err := client.TranslateBatch(context.Background(), []string{"a"}, "")
	assert.Error(t, err)
}

func TestTranslateBatchEmptyInput(t *testing.T) {
	client := NewOpenRouterClient(config.TranslationConfig{APIKey: "k"})
	out, err := client.TranslateBatch(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestTranslateBatchMissingKey(t *testing.T) {
	client := NewOpenRouterClient(config.TranslationConfig{})
	_, err := client.TranslateBatch(context.Background(), []string{"a"}, "")
	assert.Error(t, err)
}
