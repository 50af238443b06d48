package httpapi

import (
	"net/http"
	"strings"

	"medlink-data/internal/service"

	"go.uber.org/zap"
)

// MappingHandler 科室映射 Handler
type MappingHandler struct {
	mappings service.MappingService
	logger   *zap.Logger
}

func NewMappingHandler(mappings service.MappingService, logger *zap.Logger) *MappingHandler {
	return &MappingHandler{mappings: mappings, logger: logger}
}

// ServeHTTP 实现 http.Handler 接口
func (h *MappingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/admin/api/v1/mappings" && r.Method == http.MethodGet:
		h.ListMappings(w, r)
	case r.URL.Path == "/admin/api/v1/mappings" && r.Method == http.MethodPost:
		h.CreateMapping(w, r)
	case strings.HasPrefix(r.URL.Path, "/admin/api/v1/mappings/") && strings.HasSuffix(r.URL.Path, "/rooms") && r.Method == http.MethodGet:
		h.MappingRooms(w, r)
	case strings.HasPrefix(r.URL.Path, "/admin/api/v1/mappings/") && r.Method == http.MethodPut:
		h.UpdateMapping(w, r)
	case strings.HasPrefix(r.URL.Path, "/admin/api/v1/mappings/") && r.Method == http.MethodDelete:
		h.DeleteMapping(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *MappingHandler) ListMappings(w http.ResponseWriter, r *http.Request) {
	resp, err := h.mappings.ListMappings(r.Context())
	if err != nil {
		h.logger.Error("Failed to list mappings", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *MappingHandler) CreateMapping(w http.ResponseWriter, r *http.Request) {
	var req service.CreateMappingRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	resp, err := h.mappings.CreateMapping(r.Context(), req)
	if err != nil {
		h.logger.Error("Failed to create mapping", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *MappingHandler) UpdateMapping(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/admin/api/v1/mappings/")
	if id == "" || strings.Contains(id, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var req service.UpdateMappingRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	req.MappingID = id

	if err := h.mappings.UpdateMapping(r.Context(), req); err != nil {
		h.logger.Error("Failed to update mapping", zap.String("mapping_id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"mapping_id": id}))
}

func (h *MappingHandler) DeleteMapping(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/admin/api/v1/mappings/")
	if id == "" || strings.Contains(id, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	result, err := h.mappings.DeleteMapping(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to delete mapping", zap.String("mapping_id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(result))
}

func (h *MappingHandler) MappingRooms(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/admin/api/v1/mappings/"), "/rooms")
	if id == "" || strings.Contains(id, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	resp, err := h.mappings.MappingRooms(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to list mapping rooms", zap.String("mapping_id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}
