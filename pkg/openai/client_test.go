package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, status int, payload any, captured *goopenai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(payload) //nolint:errcheck
	}))
}

func TestComplete_Success(t *testing.T) {
	var req goopenai.ChatCompletionRequest
	srv := chatServer(t, http.StatusOK, map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": " Widget Pro 16oz \n"}}},
		"usage":   map[string]any{"prompt_tokens": 12, "completion_tokens": 4, "total_tokens": 16},
	}, &req)
	defer srv.Close()

	c := NewCompleter("test-key", "", WithBaseURL(srv.URL+"/v1/"))
	got, err := c.Complete(context.Background(), "system text", "user text")
	require.NoError(t, err)
	assert.Equal(t, "Widget Pro 16oz", got)

	assert.Equal(t, DefaultModel, req.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, goopenai.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Equal(t, "system text", req.Messages[0].Content)
	assert.Equal(t, goopenai.ChatMessageRoleUser, req.Messages[1].Role)
	assert.Equal(t, "user text", req.Messages[1].Content)
	assert.Less(t, req.Temperature, float32(1e-6))
	assert.Greater(t, req.Temperature, float32(0))
}

func TestComplete_APIError(t *testing.T) {
	srv := chatServer(t, http.StatusUnauthorized, map[string]any{
		"error": map[string]any{"message": "Incorrect API key provided", "type": "invalid_request_error"},
	}, nil)
	defer srv.Close()

	c := NewCompleter("test-key", "gpt-4o", WithBaseURL(srv.URL+"/v1"))
	_, err := c.Complete(context.Background(), "s", "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai: create chat completion")
	assert.Contains(t, err.Error(), "Incorrect API key")
}

func TestComplete_NoChoices(t *testing.T) {
	srv := chatServer(t, http.StatusOK, map[string]any{"id": "x", "choices": []any{}}, nil)
	defer srv.Close()

	_, err := NewCompleter("test-key", "gpt-4o", WithBaseURL(srv.URL+"/v1")).Complete(context.Background(), "s", "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

type mockChatClient struct {
	mock.Mock
}

func (m *mockChatClient) CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(goopenai.ChatCompletionResponse), args.Error(1)
}

func TestComplete_UsesConfiguredModel(t *testing.T) {
	client := &mockChatClient{}
	client.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(r goopenai.ChatCompletionRequest) bool {
		return r.Model == "gpt-4o-mini"
	})).Return(goopenai.ChatCompletionResponse{
		Choices: []goopenai.ChatCompletionChoice{{Message: goopenai.ChatCompletionMessage{Content: "No match"}}},
	}, nil)

	got, err := NewCompleterWithClient(client, "gpt-4o-mini").Complete(context.Background(), "s", "p")
	require.NoError(t, err)
	assert.Equal(t, "No match", got)
	client.AssertExpectations(t)
}
