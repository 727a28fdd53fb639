package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/fivetwenty-io/pve-client/internal/client"
	"github.com/fivetwenty-io/pve-client/pkg/pve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer wraps the handler in a TLS server that answers the ticket
// endpoint, so ticket-mode clients can be constructed against it.
func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	var ticketRequests atomic.Int64

	server := httptest.NewTLSServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path == "/api2/json/access/ticket" {
			ticketRequests.Add(1)

			_, _ = writer.Write([]byte(`{"data": {"ticket": "PVE:ticket-value", "CSRFPreventionToken": "csrf-value", "username": "root@pam"}}`))

			return
		}

		handler(writer, request)
	}))
	t.Cleanup(server.Close)

	return server, &ticketRequests
}

// ticketConfig builds a ticket-mode config pointed at the test server.
func ticketConfig(t *testing.T, server *httptest.Server) *pve.Config {
	t.Helper()

	parsed, err := url.Parse(server.URL)
	require.NoError(t, err)

	port, err := strconv.Atoi(parsed.Port())
	require.NoError(t, err)

	verify := false

	return &pve.Config{
		Host:      parsed.Hostname(),
		Port:      port,
		Username:  "root",
		Password:  "secret",
		Realm:     "pam",
		VerifySSL: &verify,
	}
}

func TestNew(t *testing.T) {
	t.Parallel()
	t.Run("ticket mode performs exactly one login", func(t *testing.T) {
		t.Parallel()

		server, ticketRequests := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
			_, _ = writer.Write([]byte(`{"data": null}`))
		})

		pveClient, err := client.New(context.Background(), ticketConfig(t, server))
		require.NoError(t, err)
		assert.Equal(t, int64(1), ticketRequests.Load())

		session := pveClient.Session()
		require.NotNil(t, session)
		assert.Equal(t, "PVE:ticket-value", session.Ticket)
		assert.Equal(t, "csrf-value", session.CSRFToken)
		assert.Equal(t, "root@pam", session.Username)

		_, _ = pveClient.Submit(context.Background(), "get", "version", nil)
		assert.Equal(t, int64(1), ticketRequests.Load())
	})

	t.Run("ticket mode sends the combined username", func(t *testing.T) {
		t.Parallel()

		var loginBody map[string]any

		server := httptest.NewTLSServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			require.NoError(t, json.NewDecoder(request.Body).Decode(&loginBody))

			_, _ = writer.Write([]byte(`{"data": {"ticket": "t", "CSRFPreventionToken": "c", "username": "root@pam"}}`))
		}))
		t.Cleanup(server.Close)

		_, err := client.New(context.Background(), ticketConfig(t, server))
		require.NoError(t, err)
		assert.Equal(t, "root@pam", loginBody["username"])
		assert.Equal(t, "secret", loginBody["password"])
	})

	t.Run("failed login aborts construction", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewTLSServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusUnauthorized)
		}))
		t.Cleanup(server.Close)

		pveClient, err := client.New(context.Background(), ticketConfig(t, server))
		require.Error(t, err)
		assert.Nil(t, pveClient)
		assert.True(t, pve.IsAuthenticationError(err))
		assert.True(t, pve.IsUnauthorized(err))
		assert.Equal(t, "Proxmox authentication failure (HTTP 401)", err.Error())
	})

	t.Run("token mode performs no auth request", func(t *testing.T) {
		t.Parallel()

		server, ticketRequests := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "PVEAPIToken=root@pam!cli=token-secret", request.Header.Get("Authorization"))

			_, _ = writer.Write([]byte(`{"data": null}`))
		})

		config := ticketConfig(t, server)
		config.Username = ""
		config.Password = ""
		config.TokenID = "root@pam!cli"
		config.Secret = "token-secret"

		pveClient, err := client.New(context.Background(), config)
		require.NoError(t, err)
		assert.Equal(t, int64(0), ticketRequests.Load())
		assert.Nil(t, pveClient.Session())

		_, err = pveClient.Submit(context.Background(), "get", "version", nil)
		require.NoError(t, err)
		assert.Equal(t, int64(0), ticketRequests.Load())
	})

	t.Run("nil config", func(t *testing.T) {
		t.Parallel()

		_, err := client.New(context.Background(), nil)
		require.ErrorIs(t, err, pve.ErrConfigRequired)
	})

	t.Run("missing host", func(t *testing.T) {
		t.Parallel()

		_, err := client.New(context.Background(), &pve.Config{Username: "root"})
		require.ErrorIs(t, err, pve.ErrHostRequired)
	})

	t.Run("missing credentials", func(t *testing.T) {
		t.Parallel()

		_, err := client.New(context.Background(), &pve.Config{Host: "pve.example.com"})
		require.ErrorIs(t, err, client.ErrCredentialsRequired)
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestSubmit(t *testing.T) {
	t.Parallel()
	t.Run("session headers are sent", func(t *testing.T) {
		t.Parallel()

		server, _ := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "PVEAuthCookie=PVE:ticket-value", request.Header.Get("Cookie"))
			assert.Equal(t, "csrf-value", request.Header.Get("CSRFPreventionToken"))

			_, _ = writer.Write([]byte(`{"data": null}`))
		})

		pveClient, err := client.New(context.Background(), ticketConfig(t, server))
		require.NoError(t, err)

		_, err = pveClient.Submit(context.Background(), "get", "version", nil)
		require.NoError(t, err)
	})

	t.Run("envelope data is decoded", func(t *testing.T) {
		t.Parallel()

		server, _ := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/api2/json/version", request.URL.Path)

			_, _ = writer.Write([]byte(`{"data": {"version": "8.2.4", "release": "8.2"}}`))
		})

		pveClient, err := client.New(context.Background(), ticketConfig(t, server))
		require.NoError(t, err)

		result, err := pveClient.Submit(context.Background(), "get", "version", nil)
		require.NoError(t, err)

		decoded, ok := result.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "8.2.4", decoded["version"])
	})

	t.Run("null data yields nil", func(t *testing.T) {
		t.Parallel()

		server, _ := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
			_, _ = writer.Write([]byte(`{"data": null}`))
		})

		pveClient, err := client.New(context.Background(), ticketConfig(t, server))
		require.NoError(t, err)

		result, err := pveClient.Submit(context.Background(), "get", "version", nil)
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("get places parameters in the query string with 1/0 booleans", func(t *testing.T) {
		t.Parallel()

		server, _ := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, http.MethodGet, request.Method)
			assert.Equal(t, "1", request.URL.Query().Get("full"))
			assert.Equal(t, "0", request.URL.Query().Get("verbose"))
			assert.Equal(t, "qemu", request.URL.Query().Get("type"))
			assert.Equal(t, "100", request.URL.Query().Get("vmid"))

			_, _ = writer.Write([]byte(`{"data": []}`))
		})

		pveClient, err := client.New(context.Background(), ticketConfig(t, server))
		require.NoError(t, err)

		_, err = pveClient.Submit(context.Background(), "get", "cluster/resources", pve.Params{
			"full":    true,
			"verbose": false,
			"type":    "qemu",
			"vmid":    100,
		})
		require.NoError(t, err)
	})

	t.Run("post sends parameters as a json body", func(t *testing.T) {
		t.Parallel()

		server, _ := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, http.MethodPost, request.Method)
			assert.Equal(t, "application/json", request.Header.Get("Content-Type"))

			var body map[string]any
			require.NoError(t, json.NewDecoder(request.Body).Decode(&body))
			assert.Equal(t, "value", body["key"])

			_, _ = writer.Write([]byte(`{"data": null}`))
		})

		pveClient, err := client.New(context.Background(), ticketConfig(t, server))
		require.NoError(t, err)

		_, err = pveClient.Submit(context.Background(), "post", "nodes/pve1/qemu", pve.Params{"key": "value"})
		require.NoError(t, err)
	})

	t.Run("post without parameters sends an empty object", func(t *testing.T) {
		t.Parallel()

		server, _ := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
			var body map[string]any
			require.NoError(t, json.NewDecoder(request.Body).Decode(&body))
			assert.Empty(t, body)

			_, _ = writer.Write([]byte(`{"data": null}`))
		})

		pveClient, err := client.New(context.Background(), ticketConfig(t, server))
		require.NoError(t, err)

		_, err = pveClient.Submit(context.Background(), "post", "nodes/pve1/qemu/100/status/start", nil)
		require.NoError(t, err)
	})

	t.Run("delete ignores parameters", func(t *testing.T) {
		t.Parallel()

		server, _ := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, http.MethodDelete, request.Method)
			assert.Empty(t, request.URL.RawQuery)

			assert.LessOrEqual(t, request.ContentLength, int64(0))

			_, _ = writer.Write([]byte(`{"data": null}`))
		})

		pveClient, err := client.New(context.Background(), ticketConfig(t, server))
		require.NoError(t, err)

		_, err = pveClient.Submit(context.Background(), "delete", "nodes/pve1/qemu/100", pve.Params{"purge": true})
		require.NoError(t, err)
	})

	t.Run("error statuses are classified", func(t *testing.T) {
		t.Parallel()

		server, _ := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusNotFound)
			_, _ = writer.Write([]byte(`{"message": "no such resource"}`))
		})

		pveClient, err := client.New(context.Background(), ticketConfig(t, server))
		require.NoError(t, err)

		_, err = pveClient.Submit(context.Background(), "get", "nodes/missing/status", nil)
		require.Error(t, err)
		assert.True(t, pve.IsNotFound(err))
		assert.Equal(t, "HTTP 404 - no such resource", err.Error())
	})

	t.Run("suppression marker swallows status failures", func(t *testing.T) {
		t.Parallel()

		server, _ := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusNotFound)
		})

		pveClient, err := client.New(context.Background(), ticketConfig(t, server))
		require.NoError(t, err)

		result, err := pveClient.Submit(context.Background(), "get!", "nodes/missing/status", nil)
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("suppression marker does not swallow transport failures", func(t *testing.T) {
		t.Parallel()

		server, _ := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
			_, _ = writer.Write([]byte(`{"data": null}`))
		})

		pveClient, err := client.New(context.Background(), ticketConfig(t, server))
		require.NoError(t, err)

		server.Close()

		_, err = pveClient.Submit(context.Background(), "get!", "version", nil)
		require.Error(t, err)
	})

	t.Run("unknown verb", func(t *testing.T) {
		t.Parallel()

		server, _ := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
			_, _ = writer.Write([]byte(`{"data": null}`))
		})

		pveClient, err := client.New(context.Background(), ticketConfig(t, server))
		require.NoError(t, err)

		_, err = pveClient.Submit(context.Background(), "patch", "version", nil)
		require.ErrorIs(t, err, pve.ErrUnknownVerb)
	})

	t.Run("path builder executes through the pipeline", func(t *testing.T) {
		t.Parallel()

		server, _ := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/api2/json/nodes/pve1/qemu/100/config", request.URL.Path)

			_, _ = writer.Write([]byte(`{"data": {"name": "vm-100"}}`))
		})

		pveClient, err := client.New(context.Background(), ticketConfig(t, server))
		require.NoError(t, err)

		result, err := pveClient.At("nodes").At("pve1").At("qemu").Index(100).At("config").Get(context.Background(), nil)
		require.NoError(t, err)

		decoded, ok := result.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "vm-100", decoded["name"])
	})

	t.Run("each path call starts fresh", func(t *testing.T) {
		t.Parallel()

		server, _ := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
			_, _ = writer.Write([]byte(`{"data": null}`))
		})

		pveClient, err := client.New(context.Background(), ticketConfig(t, server))
		require.NoError(t, err)

		first := pveClient.At("nodes").At("pve1")
		second := pveClient.At("cluster")

		assert.Equal(t, "nodes/pve1", first.String())
		assert.Equal(t, "cluster", second.String())
	})
}

func TestSubmitCaching(t *testing.T) {
	t.Parallel()
	t.Run("get responses are served from cache", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int64

		server, _ := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
			hits.Add(1)

			_, _ = writer.Write([]byte(`{"data": [{"node": "pve1"}]}`))
		})

		config := ticketConfig(t, server)
		config.Cache = pve.DefaultCacheConfig()

		pveClient, err := client.New(context.Background(), config)
		require.NoError(t, err)

		first, err := pveClient.Submit(context.Background(), "get", "nodes", nil)
		require.NoError(t, err)

		second, err := pveClient.Submit(context.Background(), "get", "nodes", nil)
		require.NoError(t, err)

		assert.Equal(t, int64(1), hits.Load())
		assert.Equal(t, first, second)
	})

	t.Run("different parameters miss the cache", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int64

		server, _ := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
			hits.Add(1)

			_, _ = writer.Write([]byte(`{"data": []}`))
		})

		config := ticketConfig(t, server)
		config.Cache = pve.DefaultCacheConfig()

		pveClient, err := client.New(context.Background(), config)
		require.NoError(t, err)

		_, err = pveClient.Submit(context.Background(), "get", "cluster/resources", pve.Params{"type": "vm"})
		require.NoError(t, err)

		_, err = pveClient.Submit(context.Background(), "get", "cluster/resources", pve.Params{"type": "storage"})
		require.NoError(t, err)

		assert.Equal(t, int64(2), hits.Load())
	})

	t.Run("posts are never cached", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int64

		server, _ := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
			hits.Add(1)

			_, _ = writer.Write([]byte(`{"data": null}`))
		})

		config := ticketConfig(t, server)
		config.Cache = pve.DefaultCacheConfig()

		pveClient, err := client.New(context.Background(), config)
		require.NoError(t, err)

		_, err = pveClient.Submit(context.Background(), "post", "nodes/pve1/qemu/100/status/start", nil)
		require.NoError(t, err)

		_, err = pveClient.Submit(context.Background(), "post", "nodes/pve1/qemu/100/status/start", nil)
		require.NoError(t, err)

		assert.Equal(t, int64(2), hits.Load())
	})
}
