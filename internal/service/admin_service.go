package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"medlink-data/internal/domain"
	"medlink-data/internal/repository"

	"go.uber.org/zap"
)

// AdminService 设备台账与用户角色管理服务接口
type AdminService interface {
	ListEquipment(ctx context.Context, roomID string) (*ListEquipmentResponse, error)
	CreateEquipment(ctx context.Context, req EquipmentRequest) (*CreateEquipmentResponse, error)
	UpdateEquipment(ctx context.Context, id string, req EquipmentRequest) error
	DeleteEquipment(ctx context.Context, id string) error

	ListUsers(ctx context.Context) (*ListUsersResponse, error)
	CreateUser(ctx context.Context, req CreateUserRequest) (*CreateUserResponse, error)
	UpdateUserRole(ctx context.Context, id, role string) error
	DeleteUser(ctx context.Context, id string) error
}

type adminService struct {
	equipment repository.EquipmentRepo
	users     repository.UsersRepo
	logger    *zap.Logger
}

func NewAdminService(equipment repository.EquipmentRepo, users repository.UsersRepo, logger *zap.Logger) AdminService {
	return &adminService{equipment: equipment, users: users, logger: logger}
}

// ============================================
// 请求/响应结构
// ============================================

type ListEquipmentResponse struct {
	Items []*domain.Equipment `json:"items"`
}

type EquipmentRequest struct {
	RoomID         string   `json:"room_id"`        // 创建时必填
	EquipmentCode  string   `json:"equipment_code"` // 必填
	EquipmentName  string   `json:"equipment_name"` // 必填
	ModelName      *string  `json:"model_name"`
	EquipmentType  *string  `json:"equipment_type"`
	Brand          *string  `json:"brand"`
	Country        *string  `json:"country"`
	Specification  *string  `json:"specification"`
	Documents      []string `json:"documents"`
	Standard       *string  `json:"standard"`
	Supplier       *string  `json:"supplier"`
	PurchasePrice  *float64 `json:"purchase_price"`
	WarrantyMonths *int64   `json:"warranty_months"`
}

type CreateEquipmentResponse struct {
	EquipmentID string `json:"equipment_id"`
}

type ListUsersResponse struct {
	Items []*domain.User `json:"items"`
}

type CreateUserRequest struct {
	Email    string `json:"email"`     // 必填
	FullName string `json:"full_name"` // 必填
	Role     string `json:"role"`      // 缺省 viewer
}

type CreateUserResponse struct {
	UserID string `json:"user_id"`
}

// ============================================
// 实现
// ============================================

func (s *adminService) ListEquipment(ctx context.Context, roomID string) (*ListEquipmentResponse, error) {
	if roomID == "" {
		return nil, fmt.Errorf("room_id is required")
	}
	items, err := s.equipment.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list equipment: %w", err)
	}
	return &ListEquipmentResponse{Items: items}, nil
}

func equipmentFromRequest(req EquipmentRequest) *domain.Equipment {
	e := &domain.Equipment{
		RoomID:        strings.TrimSpace(req.RoomID),
		EquipmentCode: strings.TrimSpace(req.EquipmentCode),
		EquipmentName: strings.TrimSpace(req.EquipmentName),
		Documents:     req.Documents,
	}
	if req.ModelName != nil {
		e.ModelName = sql.NullString{String: *req.ModelName, Valid: true}
	}
	if req.EquipmentType != nil {
		e.EquipmentType = sql.NullString{String: *req.EquipmentType, Valid: true}
	}
	if req.Brand != nil {
		e.Brand = sql.NullString{String: *req.Brand, Valid: true}
	}
	if req.Country != nil {
		e.Country = sql.NullString{String: *req.Country, Valid: true}
	}
	if req.Specification != nil {
		e.Specification = sql.NullString{String: *req.Specification, Valid: true}
	}
	if req.Standard != nil {
		e.Standard = sql.NullString{String: *req.Standard, Valid: true}
	}
	if req.Supplier != nil {
		e.Supplier = sql.NullString{String: *req.Supplier, Valid: true}
	}
	if req.PurchasePrice != nil {
		e.PurchasePrice = sql.NullFloat64{Float64: *req.PurchasePrice, Valid: true}
	}
	if req.WarrantyMonths != nil {
		e.WarrantyMonths = sql.NullInt64{Int64: *req.WarrantyMonths, Valid: true}
	}
	return e
}

func (s *adminService) CreateEquipment(ctx context.Context, req EquipmentRequest) (*CreateEquipmentResponse, error) {
	id, err := s.equipment.Create(ctx, equipmentFromRequest(req))
	if err != nil {
		return nil, fmt.Errorf("failed to create equipment: %w", err)
	}
	return &CreateEquipmentResponse{EquipmentID: id}, nil
}

func (s *adminService) UpdateEquipment(ctx context.Context, id string, req EquipmentRequest) error {
	if id == "" {
		return fmt.Errorf("equipment id is required")
	}
	if err := s.equipment.Update(ctx, id, equipmentFromRequest(req)); err != nil {
		return fmt.Errorf("failed to update equipment: %w", err)
	}
	return nil
}

func (s *adminService) DeleteEquipment(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("equipment id is required")
	}
	if err := s.equipment.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete equipment: %w", err)
	}
	return nil
}

func (s *adminService) ListUsers(ctx context.Context) (*ListUsersResponse, error) {
	items, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return &ListUsersResponse{Items: items}, nil
}

func (s *adminService) CreateUser(ctx context.Context, req CreateUserRequest) (*CreateUserResponse, error) {
	u := &domain.User{
		Email:    strings.TrimSpace(req.Email),
		FullName: strings.TrimSpace(req.FullName),
		Role:     strings.TrimSpace(req.Role),
	}
	id, err := s.users.Create(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.logger.Info("User created", zap.String("user_id", id), zap.String("role", u.Role))
	return &CreateUserResponse{UserID: id}, nil
}

func (s *adminService) UpdateUserRole(ctx context.Context, id, role string) error {
	if id == "" {
		return fmt.Errorf("user id is required")
	}
	if err := s.users.UpdateRole(ctx, id, strings.TrimSpace(role)); err != nil {
		return fmt.Errorf("failed to update user role: %w", err)
	}
	return nil
}

func (s *adminService) DeleteUser(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("user id is required")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
