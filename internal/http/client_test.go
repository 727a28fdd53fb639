package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	pvehttp "github.com/fivetwenty-io/pve-client/internal/http"
	"github.com/fivetwenty-io/pve-client/pkg/pve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockLogger for testing.
type MockLogger struct {
	logs []map[string]interface{}
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "debug", "msg": msg, "fields": fields})
}

func (l *MockLogger) Info(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "info", "msg": msg, "fields": fields})
}

func (l *MockLogger) Warn(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "warn", "msg": msg, "fields": fields})
}

func (l *MockLogger) Error(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "error", "msg": msg, "fields": fields})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Do(t *testing.T) {
	t.Parallel()
	t.Run("successful request", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/api2/json/version", request.URL.Path)
			assert.Equal(t, "GET", request.Method)
			assert.Equal(t, "application/json", request.Header.Get("Accept"))

			response := map[string]any{"data": map[string]string{"version": "8.2.4"}}
			_ = json.NewEncoder(writer).Encode(response)
		}))
		defer server.Close()

		client, err := pvehttp.NewClient(server.URL + "/api2/json/")
		require.NoError(t, err)

		resp, err := client.Do(context.Background(), &pvehttp.Request{
			Method: "GET",
			Path:   "version",
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(resp.Body), "8.2.4")
	})

	t.Run("query parameters", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "qemu", request.URL.Query().Get("type"))
			assert.Equal(t, "1", request.URL.Query().Get("full"))

			_, _ = writer.Write([]byte(`{"data": []}`))
		}))
		defer server.Close()

		client, err := pvehttp.NewClient(server.URL)
		require.NoError(t, err)

		query := url.Values{}
		query.Set("type", "qemu")
		query.Set("full", "1")

		resp, err := client.Do(context.Background(), &pvehttp.Request{
			Method: "GET",
			Path:   "cluster/resources",
			Query:  query,
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("json body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "POST", request.Method)
			assert.Equal(t, "application/json", request.Header.Get("Content-Type"))

			var body map[string]any
			require.NoError(t, json.NewDecoder(request.Body).Decode(&body))
			assert.Equal(t, "root@pam", body["username"])

			_, _ = writer.Write([]byte(`{"data": null}`))
		}))
		defer server.Close()

		client, err := pvehttp.NewClient(server.URL)
		require.NoError(t, err)

		resp, err := client.Post(context.Background(), "access/ticket", map[string]string{
			"username": "root@pam",
			"password": "secret",
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("custom headers override defaults", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "cookie-value", request.Header.Get("Cookie"))
			assert.Equal(t, "default-value", request.Header.Get("X-Default"))

			_, _ = writer.Write([]byte(`{"data": null}`))
		}))
		defer server.Close()

		client, err := pvehttp.NewClient(server.URL,
			pvehttp.WithDefaultHeaders(map[string]string{"X-Default": "default-value"}))
		require.NoError(t, err)

		resp, err := client.Do(context.Background(), &pvehttp.Request{
			Method:  "GET",
			Path:    "version",
			Headers: map[string]string{"Cookie": "cookie-value"},
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("error statuses are returned, not classified", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusInternalServerError)
			_, _ = writer.Write([]byte(`{"message": "internal error"}`))
		}))
		defer server.Close()

		client, err := pvehttp.NewClient(server.URL)
		require.NoError(t, err)

		resp, err := client.Do(context.Background(), &pvehttp.Request{Method: "GET", Path: "version"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Contains(t, string(resp.Body), "internal error")
	})

	t.Run("debug logging", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			_, _ = writer.Write([]byte(`{"data": null}`))
		}))
		defer server.Close()

		logger := &MockLogger{}

		client, err := pvehttp.NewClient(server.URL,
			pvehttp.WithLogger(logger),
			pvehttp.WithDebug(true))
		require.NoError(t, err)

		_, err = client.Do(context.Background(), &pvehttp.Request{Method: "GET", Path: "version"})
		require.NoError(t, err)
		assert.NotEmpty(t, logger.logs)
	})

	t.Run("user agent", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "custom-agent/1.0", request.Header.Get("User-Agent"))

			_, _ = writer.Write([]byte(`{"data": null}`))
		}))
		defer server.Close()

		client, err := pvehttp.NewClient(server.URL, pvehttp.WithUserAgent("custom-agent/1.0"))
		require.NoError(t, err)

		_, err = client.Do(context.Background(), &pvehttp.Request{Method: "GET", Path: "version"})
		require.NoError(t, err)
	})

	t.Run("retry config", func(t *testing.T) {
		t.Parallel()

		attempts := 0
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts++
			if attempts < 2 {
				writer.WriteHeader(http.StatusBadGateway)

				return
			}

			_, _ = writer.Write([]byte(`{"data": null}`))
		}))
		defer server.Close()

		client, err := pvehttp.NewClient(server.URL,
			pvehttp.WithRetryConfig(2, time.Millisecond, 5*time.Millisecond))
		require.NoError(t, err)

		resp, err := client.Do(context.Background(), &pvehttp.Request{Method: "GET", Path: "version"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 2, attempts)
	})

	t.Run("interceptors observe the exchange", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "injected", request.Header.Get("X-Injected"))

			_, _ = writer.Write([]byte(`{"data": null}`))
		}))
		defer server.Close()

		chain := pve.NewInterceptorChain()
		chain.AddRequestInterceptor(pve.HeaderInterceptor("X-Injected", "injected"))

		var status int

		chain.AddResponseInterceptor(func(ctx context.Context, req *pve.InterceptedRequest, resp *pve.Response) error {
			status = resp.StatusCode

			return nil
		})

		client, err := pvehttp.NewClient(server.URL, pvehttp.WithInterceptors(chain))
		require.NoError(t, err)

		_, err = client.Do(context.Background(), &pvehttp.Request{Method: "GET", Path: "version"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, status)
	})
}
