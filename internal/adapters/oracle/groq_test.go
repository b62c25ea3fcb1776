package oracle_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alejandrodnm/predictor/internal/adapters/oracle"
	"github.com/alejandrodnm/predictor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chatServer monta un endpoint chat-completions fake que devuelve content
// como message del primer choice.
func chatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Contains(t, r.Header.Get("Authorization"), "Bearer ")

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestClient_Resolve_OK(t *testing.T) {
	content := `{"answer": "YES", "confidence": 85, "reasoning": "strong signals"}`
	srv := chatServer(t, http.StatusOK, content)
	defer srv.Close()

	c := oracle.NewClient(srv.URL, "test-model", "key", 5*time.Second)
	res := c.Resolve(context.Background(), "Will it happen?", "desc")

	assert.Equal(t, domain.AnswerYes, res.Answer)
	assert.Equal(t, 85, res.Confidence)
	assert.Equal(t, "strong signals", res.Reasoning)
	assert.False(t, res.Degraded)
}

func TestClient_Resolve_ClampsConfidence(t *testing.T) {
	content := `{"answer": "NO", "confidence": 150, "reasoning": "r"}`
	srv := chatServer(t, http.StatusOK, content)
	defer srv.Close()

	c := oracle.NewClient(srv.URL, "test-model", "key", 5*time.Second)
	res := c.Resolve(context.Background(), "t", "d")

	assert.Equal(t, domain.AnswerNo, res.Answer)
	assert.Equal(t, 100, res.Confidence)
}

func TestClient_Resolve_UnknownAnswerDefaultsNo(t *testing.T) {
	content := `{"answer": "MAYBE", "confidence": 60, "reasoning": ""}`
	srv := chatServer(t, http.StatusOK, content)
	defer srv.Close()

	c := oracle.NewClient(srv.URL, "test-model", "key", 5*time.Second)
	res := c.Resolve(context.Background(), "t", "d")

	assert.Equal(t, domain.AnswerNo, res.Answer)
	assert.Equal(t, "AI analysis completed", res.Reasoning)
	assert.False(t, res.Degraded)
}

func TestClient_Resolve_FallbackOnServerError(t *testing.T) {
	srv := chatServer(t, http.StatusInternalServerError, "")
	defer srv.Close()

	c := oracle.NewClient(srv.URL, "test-model", "key", 5*time.Second)
	res := c.Resolve(context.Background(), "t", "d")

	// El contrato: nunca error, siempre una resolución fallback terminable
	assert.True(t, res.Degraded)
	assert.Equal(t, domain.AnswerNo, res.Answer)
	assert.Equal(t, domain.FallbackConfidence, res.Confidence)
	assert.Contains(t, res.Reasoning, "oracle unavailable")
}

func TestClient_Resolve_FallbackOnMalformedContent(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "this is not json")
	defer srv.Close()

	c := oracle.NewClient(srv.URL, "test-model", "key", 5*time.Second)
	res := c.Resolve(context.Background(), "t", "d")

	assert.True(t, res.Degraded)
	assert.Equal(t, domain.FallbackConfidence, res.Confidence)
}

func TestClient_Resolve_FallbackOnTransportError(t *testing.T) {
	c := oracle.NewClient("http://127.0.0.1:1", "test-model", "key", time.Second)
	res := c.Resolve(context.Background(), "t", "d")

	assert.True(t, res.Degraded)
	assert.Equal(t, domain.AnswerNo, res.Answer)
}

func TestClient_Resolve_FallbackOnEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"choices": []}`)
	}))
	defer srv.Close()

	c := oracle.NewClient(srv.URL, "test-model", "key", 5*time.Second)
	res := c.Resolve(context.Background(), "t", "d")

	assert.True(t, res.Degraded)
}

func TestStatic_Resolve(t *testing.T) {
	s := oracle.NewStatic(domain.AnswerYes, 120, "fixed")
	res := s.Resolve(context.Background(), "t", "d")

	assert.Equal(t, domain.AnswerYes, res.Answer)
	assert.Equal(t, 100, res.Confidence) // clampeado en el constructor
	assert.Equal(t, "fixed", res.Reasoning)
	assert.False(t, res.Degraded)
}
