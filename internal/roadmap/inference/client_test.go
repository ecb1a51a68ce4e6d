package inference

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillnavigator/roadmap-service/internal/metrics"
	"github.com/skillnavigator/roadmap-service/internal/roadmap/domain"
	"github.com/skillnavigator/roadmap-service/internal/roadmap/publisher"
)

// completion wraps model content in a chat completions envelope.
func completion(t *testing.T, content string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"id": "chatcmpl-1",
		"choices": []map[string]any{
			{"index": 0, "message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	require.NoError(t, err)
	return body
}

func newTestClient(url, key string) (*Client, *metrics.Metrics) {
	m := metrics.New()
	return NewClient(Options{APIKey: key, URL: url, Model: "llama3-8b-8192", Timeout: 2 * time.Second, Metrics: m}), m
}

func TestClient_Generate(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(completion(t, `{"skill_name":"Python","roadmap_steps":[
			{"step_number":1,"title":"Syntax","description":"Learn basics","estimated_time":"1 week",
			 "resources":[{"name":"Docs","url":"https://docs.python.org","type":"documentation"}]}]}`))
	}))
	defer server.Close()

	client, m := newTestClient(server.URL, "test-key")

	doc, err := client.Generate(context.Background(), "Python", "beginner")
	require.NoError(t, err)

	assert.Equal(t, domain.Text("Python"), doc.SkillName)
	require.Len(t, doc.Steps, 1)
	assert.Equal(t, domain.Text("Syntax"), doc.Steps[0].Title)
	require.Len(t, doc.Steps[0].Resources, 1)
	assert.Equal(t, domain.Text("https://docs.python.org"), doc.Steps[0].Resources[0].URL)

	assert.Equal(t, "llama3-8b-8192", captured.Model)
	assert.Equal(t, "json_object", captured.ResponseFormat.Type)
	assert.Equal(t, 0.7, captured.Temperature)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Contains(t, captured.Messages[1].Content, "'Python'")
	assert.Contains(t, captured.Messages[1].Content, "'beginner'")
	assert.Contains(t, captured.Messages[1].Content, "3-5 distinct steps")

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.UpstreamCalls)
	assert.Zero(t, snap.UpstreamErrors)
}

func TestClient_Generate_PassesDocumentThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(completion(t, `{"roadmap_steps":[{},{"title":"only a title"}]}`))
	}))
	defer server.Close()

	client, _ := newTestClient(server.URL, "k")

	doc, err := client.Generate(context.Background(), "Go", "advanced")
	require.NoError(t, err)
	assert.Empty(t, doc.SkillName)
	assert.Len(t, doc.Steps, 2, "no validation of step count or fields")
}

func TestClient_Generate_MistypedFieldsStillRender(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(completion(t, `{"skill_name":"Go","roadmap_steps":[
			{"step_number":1,"title":5,"description":"Learn","estimated_time":2,
			 "resources":[{"name":"Tour","url":"https://go.dev/tour","type":"course"}]}]}`))
	}))
	defer server.Close()

	client, _ := newTestClient(server.URL, "k")

	doc, err := client.Generate(context.Background(), "Go", "beginner")
	require.NoError(t, err)
	require.Len(t, doc.Steps, 1)
	assert.Equal(t, domain.Text("5"), doc.Steps[0].Title)
	assert.Equal(t, domain.Text("2"), doc.Steps[0].EstimatedTime)

	html, err := publisher.Render(doc, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Contains(t, string(html), "Step 1: 5")
	assert.Contains(t, string(html), "<strong>Estimated Time:</strong> 2")
	assert.Contains(t, string(html), `href="https://go.dev/tour"`)
}

func TestClient_Generate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "non-2xx status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate limited"}`))
			},
			wantErr: domain.ErrUpstreamUnavailable,
		},
		{
			name: "envelope is not JSON",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>gateway</html>`))
			},
			wantErr: domain.ErrUpstreamFormat,
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"choices":[]}`))
			},
			wantErr: domain.ErrUpstreamFormat,
		},
		{
			name: "answer is not JSON",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write(completion(t, "Sure! Here is your roadmap: step 1..."))
			},
			wantErr: domain.ErrUpstreamFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client, _ := newTestClient(server.URL, "k")
			_, err := client.Generate(context.Background(), "Go", "beginner")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_Generate_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client, m := newTestClient(url, "k")
	_, err := client.Generate(context.Background(), "Go", "beginner")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Equal(t, int64(1), m.Snapshot().UpstreamErrors)
}

func TestClient_Generate_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := NewClient(Options{APIKey: "k", URL: server.URL, Timeout: 50 * time.Millisecond, Metrics: metrics.New()})
	_, err := client.Generate(context.Background(), "Go", "beginner")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestClient_Generate_MissingKey(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client, _ := newTestClient(server.URL, "")
	_, err := client.Generate(context.Background(), "Go", "beginner")
	assert.ErrorIs(t, err, domain.ErrInferenceNotConfigured)
	assert.False(t, called, "no upstream call without a key")
}
