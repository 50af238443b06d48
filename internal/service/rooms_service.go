package service

import (
	"context"
	"database/sql"
	"fmt"

	"medlink-data/internal/domain"
	"medlink-data/internal/models"
	"medlink-data/internal/repository"
	"medlink-data/internal/store"

	"go.uber.org/zap"
)

// RoomsService 房间浏览/编辑服务接口
type RoomsService interface {
	ListProjectorRooms(ctx context.Context, req ListProjectorRoomsRequest) (*ListProjectorRoomsResponse, error)
	UpdateProjectorRoom(ctx context.Context, req UpdateProjectorRoomRequest) error
	ListTurarRooms(ctx context.Context, req ListTurarRoomsRequest) (*ListTurarRoomsResponse, error)
	UpdateTurarRoom(ctx context.Context, req UpdateTurarRoomRequest) error
	ListDepartments(ctx context.Context) (*ListDepartmentsResponse, error)
}

type roomsService struct {
	projector repository.ProjectorRoomsRepo
	turar     repository.TurarRoomsRepo
	versions  *store.VersionTracker
	logger    *zap.Logger
}

func NewRoomsService(
	projector repository.ProjectorRoomsRepo,
	turar repository.TurarRoomsRepo,
	versions *store.VersionTracker,
	logger *zap.Logger,
) RoomsService {
	return &roomsService{projector: projector, turar: turar, versions: versions, logger: logger}
}

// ============================================
// 请求/响应结构
// ============================================

type ListProjectorRoomsRequest struct {
	Filters repository.ProjectorRoomFilters
	Page    int
	Size    int
}

type ListProjectorRoomsResponse struct {
	Items      []*domain.ProjectorRoom  `json:"items"`
	Pagination models.BackendPagination `json:"pagination"`
}

// UpdateProjectorRoomRequest equipment metadata edit; nil pointers
// leave the column untouched.
type UpdateProjectorRoomRequest struct {
	RoomID            string   // 必填
	EquipmentCode     *string  `json:"equipment_code"`
	EquipmentName     *string  `json:"equipment_name"`
	EquipmentUnit     *string  `json:"equipment_unit"`
	EquipmentQuantity *int64   `json:"equipment_quantity"`
	Notes             *string  `json:"notes"`
	Area              *float64 `json:"area"`
}

type ListTurarRoomsRequest struct {
	Filters repository.TurarRoomFilters
	Page    int
	Size    int
}

type ListTurarRoomsResponse struct {
	Items      []*domain.TurarRoom      `json:"items"`
	Pagination models.BackendPagination `json:"pagination"`
}

type UpdateTurarRoomRequest struct {
	RoomID        string  // 必填
	EquipmentCode *string `json:"equipment_code"`
	EquipmentName *string `json:"equipment_name"`
	Quantity      *int64  `json:"quantity"`
}

type ListDepartmentsResponse struct {
	ProjectorDepartments []string `json:"projector_departments"`
	TurarDepartments     []string `json:"turar_departments"`
}

// ============================================
// 实现
// ============================================

func (s *roomsService) ListProjectorRooms(ctx context.Context, req ListProjectorRoomsRequest) (*ListProjectorRoomsResponse, error) {
	page, size := normalizePage(req.Page, req.Size)
	items, total, err := s.projector.List(ctx, req.Filters, page, size)
	if err != nil {
		return nil, fmt.Errorf("failed to list projector rooms: %w", err)
	}
	return &ListProjectorRoomsResponse{
		Items:      items,
		Pagination: models.BackendPagination{Page: page, Size: size, Count: total},
	}, nil
}

func (s *roomsService) UpdateProjectorRoom(ctx context.Context, req UpdateProjectorRoomRequest) error {
	if req.RoomID == "" {
		return fmt.Errorf("room id is required")
	}
	patch := &domain.ProjectorRoom{}
	if req.EquipmentCode != nil {
		patch.EquipmentCode = sql.NullString{String: *req.EquipmentCode, Valid: true}
	}
	if req.EquipmentName != nil {
		patch.EquipmentName = sql.NullString{String: *req.EquipmentName, Valid: true}
	}
	if req.EquipmentUnit != nil {
		patch.EquipmentUnit = sql.NullString{String: *req.EquipmentUnit, Valid: true}
	}
	if req.EquipmentQuantity != nil {
		patch.EquipmentQuantity = sql.NullInt64{Int64: *req.EquipmentQuantity, Valid: true}
	}
	if req.Notes != nil {
		patch.Notes = sql.NullString{String: *req.Notes, Valid: true}
	}
	if req.Area != nil {
		patch.Area = sql.NullFloat64{Float64: *req.Area, Valid: true}
	}
	if err := s.projector.UpdateEquipment(ctx, req.RoomID, patch); err != nil {
		return fmt.Errorf("failed to update projector room: %w", err)
	}
	s.versions.Bump(ctx, store.ViewProjectorEquipment)
	return nil
}

func (s *roomsService) ListTurarRooms(ctx context.Context, req ListTurarRoomsRequest) (*ListTurarRoomsResponse, error) {
	page, size := normalizePage(req.Page, req.Size)
	items, total, err := s.turar.List(ctx, req.Filters, page, size)
	if err != nil {
		return nil, fmt.Errorf("failed to list turar rooms: %w", err)
	}
	return &ListTurarRoomsResponse{
		Items:      items,
		Pagination: models.BackendPagination{Page: page, Size: size, Count: total},
	}, nil
}

func (s *roomsService) UpdateTurarRoom(ctx context.Context, req UpdateTurarRoomRequest) error {
	if req.RoomID == "" {
		return fmt.Errorf("room id is required")
	}
	patch := &domain.TurarRoom{}
	if req.EquipmentCode != nil {
		patch.EquipmentCode = sql.NullString{String: *req.EquipmentCode, Valid: true}
	}
	if req.EquipmentName != nil {
		patch.EquipmentName = sql.NullString{String: *req.EquipmentName, Valid: true}
	}
	if req.Quantity != nil {
		patch.Quantity = sql.NullInt64{Int64: *req.Quantity, Valid: true}
	}
	if err := s.turar.UpdateEquipment(ctx, req.RoomID, patch); err != nil {
		return fmt.Errorf("failed to update turar room: %w", err)
	}
	s.versions.Bump(ctx, store.ViewTurarMedical)
	return nil
}

func (s *roomsService) ListDepartments(ctx context.Context) (*ListDepartmentsResponse, error) {
	proj, err := s.projector.ListDepartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projector departments: %w", err)
	}
	turar, err := s.turar.ListDepartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list turar departments: %w", err)
	}
	return &ListDepartmentsResponse{ProjectorDepartments: proj, TurarDepartments: turar}, nil
}

func normalizePage(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 100
	}
	if size > insertPageSize {
		size = insertPageSize
	}
	return page, size
}
