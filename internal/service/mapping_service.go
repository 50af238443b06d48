package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"medlink-data/internal/domain"
	"medlink-data/internal/repository"
	"medlink-data/internal/store"

	"go.uber.org/zap"
)

// MappingService 科室映射与暂存表服务接口
type MappingService interface {
	ListMappings(ctx context.Context) (*ListMappingsResponse, error)
	CreateMapping(ctx context.Context, req CreateMappingRequest) (*CreateMappingResponse, error)
	UpdateMapping(ctx context.Context, req UpdateMappingRequest) error
	// DeleteMapping cascades: staging rows, connections between the
	// mapped departments, mirror fields, then the mapping row.
	DeleteMapping(ctx context.Context, id string) (*repository.CascadeResult, error)
	MappingRooms(ctx context.Context, mappingID string) (*MappingRoomsResponse, error)
	// RebuildMappedRooms wipes and fully recomputes both staging tables
	// from the current mappings. Full rebuild, not an incremental sync.
	RebuildMappedRooms(ctx context.Context) (*RebuildMappedRoomsResponse, error)
}

type mappingService struct {
	mappings    repository.MappingsRepo
	mapped      repository.MappedRoomsRepo
	projector   repository.ProjectorRoomsRepo
	turar       repository.TurarRoomsRepo
	connections repository.ConnectionsRepo
	versions    *store.VersionTracker
	logger      *zap.Logger
}

func NewMappingService(
	mappings repository.MappingsRepo,
	mapped repository.MappedRoomsRepo,
	projector repository.ProjectorRoomsRepo,
	turar repository.TurarRoomsRepo,
	connections repository.ConnectionsRepo,
	versions *store.VersionTracker,
	logger *zap.Logger,
) MappingService {
	return &mappingService{
		mappings:    mappings,
		mapped:      mapped,
		projector:   projector,
		turar:       turar,
		connections: connections,
		versions:    versions,
		logger:      logger,
	}
}

// ============================================
// 请求/响应结构
// ============================================

type ListMappingsResponse struct {
	Items []*domain.DepartmentMapping `json:"items"`
}

type CreateMappingRequest struct {
	TurarDepartment     string   `json:"turar_department"`     // 必填
	ProjectorDepartment string   `json:"projector_department"` // 必填
	TurarAliases        []string `json:"turar_aliases"`
	ProjectorAliases    []string `json:"projector_aliases"`
}

type CreateMappingResponse struct {
	MappingID string `json:"mapping_id"`
}

type UpdateMappingRequest struct {
	MappingID           string   // 必填
	TurarDepartment     string   `json:"turar_department"`
	ProjectorDepartment string   `json:"projector_department"`
	TurarAliases        []string `json:"turar_aliases"`
	ProjectorAliases    []string `json:"projector_aliases"`
}

type MappingRoomsResponse struct {
	Mapping        *domain.DepartmentMapping     `json:"mapping"`
	ProjectorRooms []*domain.MappedProjectorRoom `json:"projector_rooms"`
	TurarRooms     []*domain.MappedTurarRoom     `json:"turar_rooms"`
}

type RebuildMappedRoomsResponse struct {
	Mappings       int `json:"mappings"`
	ProjectorRooms int `json:"projector_rooms"`
	TurarRooms     int `json:"turar_rooms"`
}

// ============================================
// 实现
// ============================================

func (s *mappingService) ListMappings(ctx context.Context) (*ListMappingsResponse, error) {
	items, err := s.mappings.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list mappings: %w", err)
	}
	return &ListMappingsResponse{Items: items}, nil
}

func (s *mappingService) CreateMapping(ctx context.Context, req CreateMappingRequest) (*CreateMappingResponse, error) {
	m := &domain.DepartmentMapping{
		TurarDepartment:     strings.TrimSpace(req.TurarDepartment),
		ProjectorDepartment: strings.TrimSpace(req.ProjectorDepartment),
		TurarAliases:        trimAll(req.TurarAliases),
		ProjectorAliases:    trimAll(req.ProjectorAliases),
	}
	id, err := s.mappings.Create(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("failed to create mapping: %w", err)
	}
	s.versions.Bump(ctx, store.ViewDepartmentMappings)
	return &CreateMappingResponse{MappingID: id}, nil
}

func (s *mappingService) UpdateMapping(ctx context.Context, req UpdateMappingRequest) error {
	if req.MappingID == "" {
		return fmt.Errorf("mapping id is required")
	}
	m := &domain.DepartmentMapping{
		TurarDepartment:     strings.TrimSpace(req.TurarDepartment),
		ProjectorDepartment: strings.TrimSpace(req.ProjectorDepartment),
		TurarAliases:        trimAll(req.TurarAliases),
		ProjectorAliases:    trimAll(req.ProjectorAliases),
	}
	if err := s.mappings.Update(ctx, req.MappingID, m); err != nil {
		return fmt.Errorf("failed to update mapping: %w", err)
	}
	s.versions.Bump(ctx, store.ViewDepartmentMappings)
	return nil
}

func (s *mappingService) DeleteMapping(ctx context.Context, id string) (*repository.CascadeResult, error) {
	if id == "" {
		return nil, fmt.Errorf("mapping id is required")
	}
	result, err := s.mappings.DeleteCascade(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete mapping: %w", err)
	}
	s.logger.Info("Department mapping deleted",
		zap.String("mapping_id", id),
		zap.Int("connections_removed", result.Connections),
		zap.Int("staged_projector_removed", result.MappedProjectorRooms),
		zap.Int("staged_turar_removed", result.MappedTurarRooms))
	s.versions.Bump(ctx,
		store.ViewDepartmentMappings,
		store.ViewMappedRooms,
		store.ViewRoomConnections,
		store.ViewTurarMedical,
		store.ViewProjectorEquipment)
	return result, nil
}

func (s *mappingService) MappingRooms(ctx context.Context, mappingID string) (*MappingRoomsResponse, error) {
	m, err := s.mappings.Get(ctx, mappingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load mapping: %w", err)
	}
	proj, err := s.mapped.ListProjectorByMapping(ctx, mappingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list staged projector rooms: %w", err)
	}
	turar, err := s.mapped.ListTurarByMapping(ctx, mappingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list staged turar rooms: %w", err)
	}
	return &MappingRoomsResponse{Mapping: m, ProjectorRooms: proj, TurarRooms: turar}, nil
}

func (s *mappingService) RebuildMappedRooms(ctx context.Context) (*RebuildMappedRoomsResponse, error) {
	mappings, err := s.mappings.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list mappings: %w", err)
	}

	if err := s.mapped.WipeAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to wipe staging tables: %w", err)
	}

	// Connection index for is_linked recomputation, keyed per side.
	conns, err := s.connections.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	projLinks := map[string]sql.NullString{}
	turarLinks := map[string]sql.NullString{}
	for _, c := range conns {
		projLinks[c.ProjectorDepartment+"|"+c.ProjectorRoom] = c.TurarRoomID
		turarLinks[c.TurarDepartment+"|"+c.TurarRoom] = c.ProjectorRoomID
	}

	resp := &RebuildMappedRoomsResponse{Mappings: len(mappings)}
	for _, m := range mappings {
		projDepts := departmentNames(m.ProjectorDepartment, m.ProjectorAliases)
		for _, dept := range projDepts {
			rows, err := s.projector.ListByDepartment(ctx, dept)
			if err != nil {
				return nil, fmt.Errorf("failed to list projector department %q: %w", dept, err)
			}
			staged := make([]*domain.MappedProjectorRoom, 0, len(rows))
			for _, row := range rows {
				linkedID, linked := projLinks[row.Department+"|"+row.RoomName]
				staged = append(staged, &domain.MappedProjectorRoom{
					DepartmentMappingID: m.ID,
					OriginalRecordID:    row.ID,
					Floor:               row.Floor,
					Block:               row.Block,
					Department:          row.Department,
					RoomCode:            row.RoomCode,
					RoomName:            row.RoomName,
					EquipmentCode:       row.EquipmentCode,
					EquipmentName:       row.EquipmentName,
					IsLinked:            linked,
					LinkedTurarRoomID:   linkedID,
				})
			}
			n, err := s.insertMappedProjectorPaged(ctx, staged)
			if err != nil {
				return nil, err
			}
			resp.ProjectorRooms += n
		}

		turarDepts := departmentNames(m.TurarDepartment, m.TurarAliases)
		for _, dept := range turarDepts {
			rows, err := s.turar.ListByDepartment(ctx, dept)
			if err != nil {
				return nil, fmt.Errorf("failed to list turar department %q: %w", dept, err)
			}
			staged := make([]*domain.MappedTurarRoom, 0, len(rows))
			for _, row := range rows {
				linkedID, linked := turarLinks[row.Department+"|"+row.RoomName]
				staged = append(staged, &domain.MappedTurarRoom{
					DepartmentMappingID:   m.ID,
					OriginalRecordID:      row.ID,
					Department:            row.Department,
					RoomName:              row.RoomName,
					EquipmentCode:         row.EquipmentCode,
					EquipmentName:         row.EquipmentName,
					IsLinked:              linked,
					LinkedProjectorRoomID: linkedID,
				})
			}
			n, err := s.insertMappedTurarPaged(ctx, staged)
			if err != nil {
				return nil, err
			}
			resp.TurarRooms += n
		}
	}

	s.versions.Bump(ctx, store.ViewMappedRooms)
	s.logger.Info("Staging tables rebuilt",
		zap.Int("mappings", resp.Mappings),
		zap.Int("projector_rooms", resp.ProjectorRooms),
		zap.Int("turar_rooms", resp.TurarRooms))
	return resp, nil
}

func (s *mappingService) insertMappedProjectorPaged(ctx context.Context, rows []*domain.MappedProjectorRoom) (int, error) {
	inserted := 0
	for start := 0; start < len(rows); start += insertPageSize {
		end := start + insertPageSize
		if end > len(rows) {
			end = len(rows)
		}
		n, err := s.mapped.BulkInsertProjector(ctx, rows[start:end])
		if err != nil {
			return inserted, fmt.Errorf("failed to insert staged projector rooms: %w", err)
		}
		inserted += n
	}
	return inserted, nil
}

func (s *mappingService) insertMappedTurarPaged(ctx context.Context, rows []*domain.MappedTurarRoom) (int, error) {
	inserted := 0
	for start := 0; start < len(rows); start += insertPageSize {
		end := start + insertPageSize
		if end > len(rows) {
			end = len(rows)
		}
		n, err := s.mapped.BulkInsertTurar(ctx, rows[start:end])
		if err != nil {
			return inserted, fmt.Errorf("failed to insert staged turar rooms: %w", err)
		}
		inserted += n
	}
	return inserted, nil
}

// departmentNames builds the exact-match candidate set for a mapping
// side: canonical name plus aliases, trimmed, de-duplicated, empties
// dropped. Exact match after trimming replaced the substring matching
// the old pipeline used; substring departments matched each other.
func departmentNames(canonical string, aliases []string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, name := range append([]string{canonical}, aliases...) {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
