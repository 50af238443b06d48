package httpapi

import (
	"net/http"
	"strings"

	"medlink-data/internal/service"

	"go.uber.org/zap"
)

// AdminHandler 设备台账与用户管理 Handler
type AdminHandler struct {
	admin  service.AdminService
	logger *zap.Logger
}

func NewAdminHandler(admin service.AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, logger: logger}
}

// ServeHTTP 实现 http.Handler 接口
func (h *AdminHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	// Equipment
	case r.URL.Path == "/admin/api/v1/equipment" && r.Method == http.MethodGet:
		h.ListEquipment(w, r)
	case r.URL.Path == "/admin/api/v1/equipment" && r.Method == http.MethodPost:
		h.CreateEquipment(w, r)
	case strings.HasPrefix(r.URL.Path, "/admin/api/v1/equipment/") && r.Method == http.MethodPut:
		h.UpdateEquipment(w, r)
	case strings.HasPrefix(r.URL.Path, "/admin/api/v1/equipment/") && r.Method == http.MethodDelete:
		h.DeleteEquipment(w, r)

	// Users
	case r.URL.Path == "/admin/api/v1/users" && r.Method == http.MethodGet:
		h.ListUsers(w, r)
	case r.URL.Path == "/admin/api/v1/users" && r.Method == http.MethodPost:
		h.CreateUser(w, r)
	case strings.HasPrefix(r.URL.Path, "/admin/api/v1/users/") && r.Method == http.MethodPut:
		h.UpdateUserRole(w, r)
	case strings.HasPrefix(r.URL.Path, "/admin/api/v1/users/") && r.Method == http.MethodDelete:
		h.DeleteUser(w, r)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// ============================================
// Equipment 方法
// ============================================

func (h *AdminHandler) ListEquipment(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room_id")
	resp, err := h.admin.ListEquipment(r.Context(), roomID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *AdminHandler) CreateEquipment(w http.ResponseWriter, r *http.Request) {
	var req service.EquipmentRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	resp, err := h.admin.CreateEquipment(r.Context(), req)
	if err != nil {
		h.logger.Error("Failed to create equipment", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *AdminHandler) UpdateEquipment(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/admin/api/v1/equipment/")
	if id == "" || strings.Contains(id, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var req service.EquipmentRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	if err := h.admin.UpdateEquipment(r.Context(), id, req); err != nil {
		h.logger.Error("Failed to update equipment", zap.String("equipment_id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"equipment_id": id}))
}

func (h *AdminHandler) DeleteEquipment(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/admin/api/v1/equipment/")
	if id == "" || strings.Contains(id, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if err := h.admin.DeleteEquipment(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete equipment", zap.String("equipment_id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"equipment_id": id}))
}

// ============================================
// User 方法
// ============================================

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	resp, err := h.admin.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("Failed to list users", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req service.CreateUserRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	resp, err := h.admin.CreateUser(r.Context(), req)
	if err != nil {
		h.logger.Error("Failed to create user", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *AdminHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/admin/api/v1/users/")
	if id == "" || strings.Contains(id, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var body struct {
		Role string `json:"role"`
	}
	if err := readBodyJSON(r, 1<<20, &body); err != nil || body.Role == "" {
		writeJSON(w, http.StatusBadRequest, Fail("role is required"))
		return
	}

	if err := h.admin.UpdateUserRole(r.Context(), id, body.Role); err != nil {
		h.logger.Error("Failed to update user role", zap.String("user_id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"user_id": id, "role": body.Role}))
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/admin/api/v1/users/")
	if id == "" || strings.Contains(id, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if err := h.admin.DeleteUser(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete user", zap.String("user_id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"user_id": id}))
}
