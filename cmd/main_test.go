package main

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/openai-api-blueprint/blueprint/internal/config"
	"github.com/openai-api-blueprint/blueprint/internal/connections"
	"github.com/openai-api-blueprint/blueprint/internal/models"
	"github.com/openai-api-blueprint/blueprint/pkg/httpext"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "test_key_0123456789abcdef"

func testConfig() *config.Config {
	return &config.Config{
		Environment: config.Test,
		Host:        "127.0.0.1",
		Port:        8000,
		Auth: config.AuthConfig{
			Tokens:         []string{testToken},
			MinTokenLength: config.MinTokenLength,
		},
		RateLimit: config.RateLimitConfig{
			Enabled: true,
			MaxHits: 1000,
			Window:  time.Minute,
		},
		Provider: config.ProviderConfig{
			Name: config.ProviderMock,
		},
	}
}

func startServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()

	r, svc, err := setupRouter(cfg)
	require.NoError(t, err)

	server := httptest.NewServer(r)
	t.Cleanup(func() {
		server.Close()
		_ = svc.Close()
	})
	return server
}

func doRequest(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) httpext.ErrorDetail {
	t.Helper()
	var body httpext.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Error
}

func TestMainServer(t *testing.T) {
	server := startServer(t, testConfig())

	t.Run("health endpoint without auth", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, server.URL+"/health", "", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, map[string]string{"status": "ok"}, body)
	})

	t.Run("invalid endpoint", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, server.URL+"/invalid", "", "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "not_found", decodeError(t, resp).Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		resp := doRequest(t, http.MethodDelete, server.URL+"/health", "", "")
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "method_not_allowed", decodeError(t, resp).Code)
	})

	t.Run("welcome endpoint", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, server.URL+"/v1/", testToken, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "Welcome to OpenAI API Blueprint - Version 1", body["message"])
	})

	t.Run("models require auth", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, server.URL+"/v1/models", "", "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))

		detail := decodeError(t, resp)
		assert.Equal(t, "missing_api_key", detail.Code)
		assert.Equal(t, "authentication_error", detail.Type)
	})

	t.Run("list models", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, server.URL+"/v1/models", testToken, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var list models.ModelList
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
		assert.Equal(t, "list", list.Object)
		require.Len(t, list.Data, 3)
		assert.Equal(t, "blueprint-standard", list.Data[0].ID)
		assert.Equal(t, "blueprint-advanced", list.Data[1].ID)
		assert.Equal(t, "blueprint-experimental", list.Data[2].ID)
		for _, m := range list.Data {
			assert.Equal(t, "model", m.Object)
			assert.Equal(t, "openai-api-blueprint", m.OwnedBy)
		}
	})

	t.Run("get model", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, server.URL+"/v1/models/blueprint-advanced", testToken, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var m models.Model
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
		assert.Equal(t, "blueprint-advanced", m.ID)
	})

	t.Run("get unknown model", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, server.URL+"/v1/models/gpt-4", testToken, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		detail := decodeError(t, resp)
		assert.Equal(t, "model_not_found", detail.Code)
		assert.Equal(t, "model_id", detail.Param)
		assert.Equal(t, "invalid_request_error", detail.Type)
	})

	t.Run("auth is checked before the body", func(t *testing.T) {
		resp := doRequest(t, http.MethodPost, server.URL+"/v1/chat/completions", "sk-unknown-0123456789abcdef", "{not json")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "invalid_key", decodeError(t, resp).Code)
	})

	t.Run("unknown model in completion", func(t *testing.T) {
		resp := doRequest(t, http.MethodPost, server.URL+"/v1/chat/completions", testToken,
			`{"model":"gpt-4","messages":[{"role":"user","content":"Hello!"}]}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		detail := decodeError(t, resp)
		assert.Equal(t, "model_not_found", detail.Code)
		assert.Equal(t, "model", detail.Param)
	})

	t.Run("non-streaming completion", func(t *testing.T) {
		resp := doRequest(t, http.MethodPost, server.URL+"/v1/chat/completions", testToken,
			`{"model":"blueprint-standard","messages":[{"role":"user","content":"Hello!"}]}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			ID      string `json:"id"`
			Object  string `json:"object"`
			Choices []struct {
				Message struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"message"`
				FinishReason string `json:"finish_reason"`
			} `json:"choices"`
			Usage struct {
				PromptTokens     int `json:"prompt_tokens"`
				CompletionTokens int `json:"completion_tokens"`
				TotalTokens      int `json:"total_tokens"`
			} `json:"usage"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.True(t, strings.HasPrefix(body.ID, "chatcmpl-"))
		assert.Equal(t, "chat.completion", body.Object)
		require.Len(t, body.Choices, 1)
		assert.Equal(t, "assistant", body.Choices[0].Message.Role)
		assert.NotEmpty(t, body.Choices[0].Message.Content)
		assert.Equal(t, "stop", body.Choices[0].FinishReason)
		assert.Equal(t, 6, body.Usage.PromptTokens)
		assert.Equal(t, body.Usage.PromptTokens+body.Usage.CompletionTokens, body.Usage.TotalTokens)
	})

	t.Run("streaming completion", func(t *testing.T) {
		resp := doRequest(t, http.MethodPost, server.URL+"/v1/chat/completions", testToken,
			`{"model":"blueprint-standard","messages":[{"role":"user","content":"Hello!"}],"stream":true}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
		assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))
		assert.Equal(t, "no", resp.Header.Get("X-Accel-Buffering"))
		assert.Equal(t, []string{"chunked"}, resp.TransferEncoding)

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		body := string(raw)
		require.True(t, strings.HasSuffix(body, "data: [DONE]\n\n"))
		assert.Equal(t, 1, strings.Count(body, "data: [DONE]"))

		var events []string
		scanner := bufio.NewScanner(strings.NewReader(body))
		for scanner.Scan() {
			if line := scanner.Text(); line != "" {
				require.True(t, strings.HasPrefix(line, "data: "))
				events = append(events, strings.TrimPrefix(line, "data: "))
			}
		}
		require.GreaterOrEqual(t, len(events), 3)

		type event struct {
			Choices []struct {
				Delta        map[string]string `json:"delta"`
				FinishReason *string           `json:"finish_reason"`
			} `json:"choices"`
		}

		var first, terminal event
		require.NoError(t, json.Unmarshal([]byte(events[0]), &first))
		require.NoError(t, json.Unmarshal([]byte(events[len(events)-2]), &terminal))

		assert.Equal(t, "assistant", first.Choices[0].Delta["role"])
		assert.Nil(t, first.Choices[0].FinishReason)
		assert.Empty(t, terminal.Choices[0].Delta)
		require.NotNil(t, terminal.Choices[0].FinishReason)
		assert.Equal(t, "stop", *terminal.Choices[0].FinishReason)
		assert.Equal(t, "[DONE]", events[len(events)-1])
	})

	t.Run("cors echoes the origin", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, server.URL+"/health", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "https://app.example.com")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, "https://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
	})
}

func TestRateLimitedServer(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.MaxHits = 2
	server := startServer(t, cfg)

	for i := 0; i < 2; i++ {
		resp := doRequest(t, http.MethodGet, server.URL+"/v1/models", testToken, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := doRequest(t, http.MethodGet, server.URL+"/v1/models", testToken, "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	assert.Equal(t, "rate_limit_exceeded", decodeError(t, resp).Code)

	// health is outside the limited routes
	resp = doRequest(t, http.MethodGet, server.URL+"/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSetupRouterRejectsBadProvider(t *testing.T) {
	cfg := testConfig()
	cfg.Provider = config.ProviderConfig{Name: config.ProviderOpenAI}

	_, _, err := setupRouter(cfg)
	assert.Error(t, err)
}

type fakeLifecycle struct {
	streams *connections.Manager
	closed  bool
}

func (f *fakeLifecycle) GetStreamManager() *connections.Manager {
	return f.streams
}

func (f *fakeLifecycle) Close() error {
	f.closed = true
	return nil
}

func TestServeListenFailureReleasesServices(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	svc := &fakeLifecycle{streams: connections.NewManager()}
	srv := &http.Server{Addr: busy.Addr().String(), Handler: http.NotFoundHandler()}

	err = serve(context.Background(), srv, svc, zerolog.Nop())

	assert.Error(t, err, "address already in use should surface")
	assert.True(t, svc.closed)
}

func TestServeShutdownOnCancel(t *testing.T) {
	svc := &fakeLifecycle{streams: connections.NewManager()}
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, svc, zerolog.Nop()) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancellation")
	}
	assert.True(t, svc.closed)
}
