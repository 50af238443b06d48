package httpapi

import (
	"net/http"
	"strings"

	"medlink-data/internal/repository"
	"medlink-data/internal/service"

	"go.uber.org/zap"
)

// RoomHandler 两个数据集的浏览/编辑 Handler
type RoomHandler struct {
	rooms  service.RoomsService
	logger *zap.Logger
}

func NewRoomHandler(rooms service.RoomsService, logger *zap.Logger) *RoomHandler {
	return &RoomHandler{rooms: rooms, logger: logger}
}

// ServeHTTP 实现 http.Handler 接口
func (h *RoomHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/data/api/v1/projector/rooms" && r.Method == http.MethodGet:
		h.ListProjectorRooms(w, r)
	case strings.HasPrefix(r.URL.Path, "/data/api/v1/projector/rooms/") && r.Method == http.MethodPut:
		h.UpdateProjectorRoom(w, r)
	case r.URL.Path == "/data/api/v1/turar/rooms" && r.Method == http.MethodGet:
		h.ListTurarRooms(w, r)
	case strings.HasPrefix(r.URL.Path, "/data/api/v1/turar/rooms/") && r.Method == http.MethodPut:
		h.UpdateTurarRoom(w, r)
	case r.URL.Path == "/data/api/v1/departments" && r.Method == http.MethodGet:
		h.ListDepartments(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *RoomHandler) ListProjectorRooms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.ListProjectorRoomsRequest{
		Filters: repository.ProjectorRoomFilters{
			Department: q.Get("department"),
			RoomName:   q.Get("room_name"),
			Block:      q.Get("block"),
			Floor:      q.Get("floor"),
			Search:     q.Get("search"),
		},
		Page: parseInt(q.Get("page"), 1),
		Size: parseInt(q.Get("size"), 100),
	}

	resp, err := h.rooms.ListProjectorRooms(r.Context(), req)
	if err != nil {
		h.logger.Error("Failed to list projector rooms", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *RoomHandler) UpdateProjectorRoom(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/data/api/v1/projector/rooms/")
	if id == "" || strings.Contains(id, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var req service.UpdateProjectorRoomRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	req.RoomID = id

	if err := h.rooms.UpdateProjectorRoom(r.Context(), req); err != nil {
		h.logger.Error("Failed to update projector room", zap.String("room_id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"room_id": id}))
}

func (h *RoomHandler) ListTurarRooms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.ListTurarRoomsRequest{
		Filters: repository.TurarRoomFilters{
			Department: q.Get("department"),
			RoomName:   q.Get("room_name"),
			Search:     q.Get("search"),
		},
		Page: parseInt(q.Get("page"), 1),
		Size: parseInt(q.Get("size"), 100),
	}

	resp, err := h.rooms.ListTurarRooms(r.Context(), req)
	if err != nil {
		h.logger.Error("Failed to list turar rooms", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *RoomHandler) UpdateTurarRoom(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/data/api/v1/turar/rooms/")
	if id == "" || strings.Contains(id, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var req service.UpdateTurarRoomRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	req.RoomID = id

	if err := h.rooms.UpdateTurarRoom(r.Context(), req); err != nil {
		h.logger.Error("Failed to update turar room", zap.String("room_id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"room_id": id}))
}

func (h *RoomHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	resp, err := h.rooms.ListDepartments(r.Context())
	if err != nil {
		h.logger.Error("Failed to list departments", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}
