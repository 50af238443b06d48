package httpapi

import (
	"net/http"
	"strings"

	"medlink-data/internal/service"

	"go.uber.org/zap"
)

// ConnectionHandler 房间连接 Handler
type ConnectionHandler struct {
	linking service.LinkingService
	logger  *zap.Logger
}

func NewConnectionHandler(linking service.LinkingService, logger *zap.Logger) *ConnectionHandler {
	return &ConnectionHandler{linking: linking, logger: logger}
}

// ServeHTTP 实现 http.Handler 接口
func (h *ConnectionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/data/api/v1/connections" && r.Method == http.MethodGet:
		h.ListConnections(w, r)
	case r.URL.Path == "/data/api/v1/connections" && r.Method == http.MethodPost:
		h.CreateConnection(w, r)
	case r.URL.Path == "/data/api/v1/connections/commit" && r.Method == http.MethodPost:
		h.CommitQueued(w, r)
	case r.URL.Path == "/data/api/v1/connections/linked-rooms" && r.Method == http.MethodGet:
		h.LinkedRooms(w, r)
	case strings.HasPrefix(r.URL.Path, "/data/api/v1/connections/") && r.Method == http.MethodDelete:
		h.DeleteConnection(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *ConnectionHandler) ListConnections(w http.ResponseWriter, r *http.Request) {
	resp, err := h.linking.ListConnections(r.Context())
	if err != nil {
		h.logger.Error("Failed to list connections", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *ConnectionHandler) CreateConnection(w http.ResponseWriter, r *http.Request) {
	var req service.CreateConnectionRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	resp, err := h.linking.CreateConnection(r.Context(), req)
	if err != nil {
		h.logger.Error("Failed to create connection", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *ConnectionHandler) CommitQueued(w http.ResponseWriter, r *http.Request) {
	var req service.CommitQueuedRequest
	if err := readBodyJSON(r, 4<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	resp, err := h.linking.CommitQueued(r.Context(), req)
	if err != nil {
		h.logger.Error("Failed to commit queued connections", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *ConnectionHandler) LinkedRooms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.LinkedRoomsRequest{
		Side:       q.Get("side"),
		Department: q.Get("department"),
		RoomName:   q.Get("room_name"),
	}

	resp, err := h.linking.LinkedRooms(r.Context(), req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *ConnectionHandler) DeleteConnection(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/data/api/v1/connections/")
	if id == "" || strings.Contains(id, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if _, err := h.linking.DeleteConnection(r.Context(), service.DeleteConnectionRequest{ConnectionID: id}); err != nil {
		h.logger.Error("Failed to delete connection", zap.String("connection_id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"connection_id": id}))
}
