package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"loyalty-wallet/internal/repository"
	"loyalty-wallet/pkg/response"
)

// StatsProvider reports storage statistics.
type StatsProvider interface {
	Stats(ctx context.Context) (map[string]interface{}, error)
}

// AdminHandler reports runtime and storage statistics of the daemon.
type AdminHandler struct {
	local      StatsProvider
	remote     repository.RemoteStore
	cacheType  string
	eventsType string
	startTime  time.Time
}

// NewAdminHandler creates a new admin handler. remote may be nil when sync is
// not configured.
func NewAdminHandler(local StatsProvider, remote repository.RemoteStore, cacheType, eventsType string) *AdminHandler {
	return &AdminHandler{
		local:      local,
		remote:     remote,
		cacheType:  cacheType,
		eventsType: eventsType,
		startTime:  time.Now(),
	}
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats := make(map[string]interface{})

	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().Format(time.RFC3339)
	stats["cache_type"] = h.cacheType
	stats["events_type"] = h.eventsType

	if h.remote != nil {
		stats["remote"] = map[string]interface{}{"type": h.remote.Name(), "status": "configured"}
	} else {
		stats["remote"] = map[string]interface{}{"status": "not_configured"}
	}

	if h.local != nil {
		localStats, err := h.local.Stats(ctx)
		if err == nil {
			localStats["status"] = "connected"
			stats["local"] = localStats
		} else {
			stats["local"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		}
	} else {
		stats["local"] = map[string]interface{}{"status": "not_configured"}
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":      float64(memStats.Alloc) / 1024 / 1024,
		"sys_mb":        float64(memStats.Sys) / 1024 / 1024,
		"heap_inuse_mb": float64(memStats.HeapInuse) / 1024 / 1024,
		"num_gc":        memStats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}

	stats["runtime"] = map[string]interface{}{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
	}

	response.OK(w, stats)
}
