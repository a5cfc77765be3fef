package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukex/operion-mongo/pkg/cmd"
	"github.com/dukex/operion-mongo/pkg/log"
	"github.com/dukex/operion-mongo/pkg/otelhelper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T) *API {
	t.Helper()

	cache, connector, err := cmd.NewConnector(log.Discard())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = cache.Close(context.Background())
	})

	reg, err := cmd.NewRegistry(log.Discard(), "", connector, otelhelper.Tracer())
	require.NoError(t, err)

	return NewAPI(log.Discard(), reg)
}

func TestAPI_HealthChecks(t *testing.T) {
	app := newTestAPI(t).App()

	for _, path := range []string{"/livez", "/readyz"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		_ = resp.Body.Close()
	}
}

func TestAPI_ListsNodes(t *testing.T) {
	app := newTestAPI(t).App()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/nodes", nil))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var nodes []map[string]any
	require.NoError(t, json.Unmarshal(body, &nodes))
	require.Len(t, nodes, 1)
	assert.Equal(t, "mongo", nodes[0]["id"])
	assert.Equal(t, "mongoDb", nodes[0]["credential_type"])
}
