package httpapi

import (
	"net/http"

	"medlink-data/internal/store"

	"go.uber.org/zap"
)

// SystemHandler 缓存版本订阅与健康检查 Handler
type SystemHandler struct {
	versions *store.VersionTracker
	logger   *zap.Logger
}

func NewSystemHandler(versions *store.VersionTracker, logger *zap.Logger) *SystemHandler {
	return &SystemHandler{versions: versions, logger: logger}
}

// ServeHTTP 实现 http.Handler 接口
func (h *SystemHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/data/api/v1/cache/versions" && r.Method == http.MethodGet:
		h.CacheVersions(w, r)
	case r.URL.Path == "/health" && r.Method == http.MethodGet:
		h.Health(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// CacheVersions replaces timer polling: clients hold their last-seen
// counters and re-fetch only views whose counter moved.
func (h *SystemHandler) CacheVersions(w http.ResponseWriter, r *http.Request) {
	snapshot := h.versions.Snapshot(r.Context(),
		store.ViewRoomConnections,
		store.ViewTurarMedical,
		store.ViewProjectorEquipment,
		store.ViewDepartmentMappings,
		store.ViewMappedRooms,
	)
	writeJSON(w, http.StatusOK, Ok(snapshot))
}

func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "medlink-data"})
}
