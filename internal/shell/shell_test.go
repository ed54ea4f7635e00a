package shell

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerCarriesVersionAndAssets(t *testing.T) {
	m := Manifest{Version: "v3", Assets: []string{"/", " /manifest.json ", ""}}
	assert.Equal(t, "loyalty-wallet-v3", m.CacheName())

	script, err := m.Worker()
	require.NoError(t, err)
	s := string(script)
	assert.Contains(t, s, `const CACHE_NAME = "loyalty-wallet-v3";`)
	assert.Contains(t, s, `const ASSETS = ["/","/manifest.json"];`)
	assert.Contains(t, s, `key.startsWith("loyalty-wallet-") && key !== CACHE_NAME`)
	assert.Contains(t, s, "caches.match(event.request)")
}

func TestWorkerRequiresVersion(t *testing.T) {
	_, err := Manifest{}.Worker()
	assert.Error(t, err)

	_, err = WorkerHandler(Manifest{})
	assert.Error(t, err)
}

func TestWorkerHandler(t *testing.T) {
	h, err := WorkerHandler(Manifest{Version: "v1", Assets: []string{"/"}})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/service-worker.js", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Header().Get("Content-Type"), "javascript")
	assert.Contains(t, rec.Body.String(), "loyalty-wallet-v1")
}
