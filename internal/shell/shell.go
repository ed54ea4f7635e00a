// Package shell serves the offline web shell: the static app files and a
// service worker that keeps them cached.
package shell

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"text/template"
)

// CachePrefix starts the name of every shell cache. Only caches with this
// prefix are purged on activation.
const CachePrefix = "loyalty-wallet-"

// Manifest describes one version of the shell.
type Manifest struct {
	Version string
	Assets  []string
}

// CacheName returns the cache the service worker stores assets under.
func (m Manifest) CacheName() string {
	return CachePrefix + m.Version
}

var workerTmpl = template.Must(template.New("sw").Parse(`const CACHE_NAME = {{.Name}};
const ASSETS = {{.Assets}};

self.addEventListener('install', (event) => {
  event.waitUntil(
    caches.open(CACHE_NAME).then((cache) => cache.addAll(ASSETS)).then(() => self.skipWaiting())
  );
});

self.addEventListener('activate', (event) => {
  event.waitUntil(
    caches.keys()
      .then((keys) => Promise.all(
        keys.filter((key) => key.startsWith({{.Prefix}}) && key !== CACHE_NAME).map((key) => caches.delete(key))
      ))
      .then(() => self.clients.claim())
  );
});

self.addEventListener('fetch', (event) => {
  if (event.request.method !== 'GET' || new URL(event.request.url).pathname.startsWith('/api/')) {
    return;
  }
  event.respondWith(
    caches.match(event.request).then((cached) => cached || fetch(event.request))
  );
});
`))

// Worker renders the service worker script.
func (m Manifest) Worker() ([]byte, error) {
	if m.Version == "" {
		return nil, fmt.Errorf("shell: version is required")
	}

	assets := make([]string, 0, len(m.Assets))
	for _, a := range m.Assets {
		if a = strings.TrimSpace(a); a != "" {
			assets = append(assets, a)
		}
	}

	name, _ := json.Marshal(m.CacheName())
	prefix, _ := json.Marshal(CachePrefix)
	list, err := json.Marshal(assets)
	if err != nil {
		return nil, fmt.Errorf("shell: failed to encode assets: %w", err)
	}

	var buf bytes.Buffer
	err = workerTmpl.Execute(&buf, struct {
		Name, Prefix, Assets string
	}{string(name), string(prefix), string(list)})
	if err != nil {
		return nil, fmt.Errorf("shell: failed to render worker: %w", err)
	}
	return buf.Bytes(), nil
}

// WorkerHandler serves the rendered service worker. The script itself is
// never cached by the browser HTTP cache so a new version is picked up on the
// next load.
func WorkerHandler(m Manifest) (http.HandlerFunc, error) {
	script, err := m.Worker()
	if err != nil {
		return nil, err
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Service-Worker-Allowed", "/")
		w.Write(script)
	}, nil
}
