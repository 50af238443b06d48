package httpapi

import (
	"net/http"

	"medlink-data/internal/service"

	"go.uber.org/zap"
)

// JobHandler 管理端批量任务 Handler
// Jobs run synchronously inside the request; the datasets are small
// enough that none of them warrants a background worker.
type JobHandler struct {
	sync     service.SyncService
	linking  service.LinkingService
	mappings service.MappingService
	logger   *zap.Logger
}

func NewJobHandler(sync service.SyncService, linking service.LinkingService, mappings service.MappingService, logger *zap.Logger) *JobHandler {
	return &JobHandler{sync: sync, linking: linking, mappings: mappings, logger: logger}
}

// ServeHTTP 实现 http.Handler 接口
func (h *JobHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	switch r.URL.Path {
	case "/admin/api/v1/jobs/sync-projector-data":
		h.SyncProjector(w, r)
	case "/admin/api/v1/jobs/sync-turar-data":
		h.SyncTurar(w, r)
	case "/admin/api/v1/jobs/sync-all":
		h.SyncAll(w, r)
	case "/admin/api/v1/jobs/load-projector-batch":
		h.LoadProjectorBatch(w, r)
	case "/admin/api/v1/jobs/load-turar-batch":
		h.LoadTurarBatch(w, r)
	case "/admin/api/v1/jobs/bulk-create-room-connections":
		h.BulkCreateConnections(w, r)
	case "/admin/api/v1/jobs/bulk-populate-mapped-departments":
		h.RebuildMappedRooms(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *JobHandler) SyncProjector(w http.ResponseWriter, r *http.Request) {
	resp, err := h.sync.SyncProjector(r.Context())
	if err != nil {
		h.logger.Error("Projector sync failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *JobHandler) SyncTurar(w http.ResponseWriter, r *http.Request) {
	resp, err := h.sync.SyncTurar(r.Context())
	if err != nil {
		h.logger.Error("Turar sync failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *JobHandler) SyncAll(w http.ResponseWriter, r *http.Request) {
	resp, err := h.sync.SyncAll(r.Context())
	if err != nil {
		h.logger.Error("Full sync failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *JobHandler) LoadProjectorBatch(w http.ResponseWriter, r *http.Request) {
	var req service.LoadBatchRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	resp, err := h.sync.LoadProjectorBatch(r.Context(), req)
	if err != nil {
		h.logger.Error("Projector batch load failed", zap.Int("batch", req.Batch), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *JobHandler) LoadTurarBatch(w http.ResponseWriter, r *http.Request) {
	var req service.LoadBatchRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	resp, err := h.sync.LoadTurarBatch(r.Context(), req)
	if err != nil {
		h.logger.Error("Turar batch load failed", zap.Int("batch", req.Batch), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *JobHandler) BulkCreateConnections(w http.ResponseWriter, r *http.Request) {
	resp, err := h.linking.BulkCreateConnections(r.Context())
	if err != nil {
		h.logger.Error("Bulk connection backfill failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *JobHandler) RebuildMappedRooms(w http.ResponseWriter, r *http.Request) {
	resp, err := h.mappings.RebuildMappedRooms(r.Context())
	if err != nil {
		h.logger.Error("Staging rebuild failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}
