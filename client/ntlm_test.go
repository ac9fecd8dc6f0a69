// client/ntlm_test.go
package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbirs-tools/admin-api/client"
	logger "github.com/pbirs-tools/admin-api/logging"
)

func TestMain(m *testing.M) {
	logger.InitLogger("../logging")
	defer logger.Sync()
	m.Run()
}

func TestNTLMClientRetriesTransientFailures(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"value":"ok"}`))
	}))
	defer server.Close()

	c := client.NewNTLMClient("CORP", "svc", "secret", 5*time.Second)

	var out struct {
		Value string `json:"value"`
	}
	err := c.Get(context.Background(), server.URL, &out)

	require.NoError(t, err)
	assert.Equal(t, "ok", out.Value)
	assert.Equal(t, 2, calls)
}

func TestNTLMClientDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("item not found"))
	}))
	defer server.Close()

	c := client.NewNTLMClient("CORP", "svc", "secret", 5*time.Second)

	err := c.Get(context.Background(), server.URL, &struct{}{})

	require.Error(t, err)
	var upErr *client.UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, http.StatusNotFound, upErr.StatusCode)
	assert.Contains(t, upErr.Message, "item not found")
	assert.Equal(t, 1, calls)
}

func TestNTLMClientGivesUpAfterRetries(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := client.NewNTLMClient("CORP", "svc", "secret", 5*time.Second)

	err := c.Get(context.Background(), server.URL, &struct{}{})

	require.Error(t, err)
	var upErr *client.UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, http.StatusServiceUnavailable, upErr.StatusCode)
	// Initial attempt plus two retries.
	assert.Equal(t, 3, calls)
}

func TestNTLMClientRejectsInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	c := client.NewNTLMClient("CORP", "svc", "secret", 5*time.Second)

	err := c.Get(context.Background(), server.URL, &struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON response")
}

func TestNTLMClientEmptyBodyOnWrite(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := client.NewNTLMClient("CORP", "svc", "secret", 5*time.Second)

	err := c.Put(context.Background(), server.URL, map[string]string{"Name": "x"})
	assert.NoError(t, err)
}
