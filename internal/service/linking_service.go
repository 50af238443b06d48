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

// LinkingService 房间连接管理服务接口
// Owns the room_connections table and every derived representation:
// the mirrored connected_* columns on both source tables and the
// is_linked flags in the staging tables.
type LinkingService interface {
	ListConnections(ctx context.Context) (*ListConnectionsResponse, error)
	CreateConnection(ctx context.Context, req CreateConnectionRequest) (*CreateConnectionResponse, error)
	DeleteConnection(ctx context.Context, req DeleteConnectionRequest) (*DeleteConnectionResponse, error)
	CommitQueued(ctx context.Context, req CommitQueuedRequest) (*CommitQueuedResponse, error)
	BulkCreateConnections(ctx context.Context) (*BulkCreateConnectionsResponse, error)
	LinkedRooms(ctx context.Context, req LinkedRoomsRequest) (*LinkedRoomsResponse, error)
}

type linkingService struct {
	connections repository.ConnectionsRepo
	projector   repository.ProjectorRoomsRepo
	turar       repository.TurarRoomsRepo
	mapped      repository.MappedRoomsRepo
	versions    *store.VersionTracker
	logger      *zap.Logger
}

func NewLinkingService(
	connections repository.ConnectionsRepo,
	projector repository.ProjectorRoomsRepo,
	turar repository.TurarRoomsRepo,
	mapped repository.MappedRoomsRepo,
	versions *store.VersionTracker,
	logger *zap.Logger,
) LinkingService {
	return &linkingService{
		connections: connections,
		projector:   projector,
		turar:       turar,
		mapped:      mapped,
		versions:    versions,
		logger:      logger,
	}
}

// ============================================
// 请求/响应结构
// ============================================

type ListConnectionsResponse struct {
	Items []*domain.RoomConnection `json:"items"`
}

type CreateConnectionRequest struct {
	TurarDepartment     string `json:"turar_department"`     // 必填
	TurarRoom           string `json:"turar_room"`           // 必填
	ProjectorDepartment string `json:"projector_department"` // 必填
	ProjectorRoom       string `json:"projector_room"`       // 必填
}

type CreateConnectionResponse struct {
	ConnectionID   string `json:"connection_id"`
	AlreadyExisted bool   `json:"already_existed"`
}

type DeleteConnectionRequest struct {
	ConnectionID string // 必填
}

type DeleteConnectionResponse struct{}

// CommitQueuedRequest carries a client-batched queue of pending links.
type CommitQueuedRequest struct {
	Items []CreateConnectionRequest `json:"items"`
}

type CommitQueuedItemError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

type CommitQueuedResponse struct {
	Succeeded int                     `json:"succeeded"`
	Failed    []CommitQueuedItemError `json:"failed"`
}

type BulkCreateConnectionsResponse struct {
	Created int `json:"created"`
}

type LinkedRoomsRequest struct {
	Side       string // "projector" 或 "turar"
	Department string // 必填
	RoomName   string // 必填
}

// LinkedRoom one other-side room a given room is linked to.
type LinkedRoom struct {
	Department   string `json:"department"`
	RoomName     string `json:"room_name"`
	ConnectionID string `json:"connection_id"`
}

type LinkedRoomsResponse struct {
	Items []LinkedRoom `json:"items"`
}

// ============================================
// 实现
// ============================================

func (s *linkingService) ListConnections(ctx context.Context) (*ListConnectionsResponse, error) {
	items, err := s.connections.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	return &ListConnectionsResponse{Items: items}, nil
}

func (s *linkingService) CreateConnection(ctx context.Context, req CreateConnectionRequest) (*CreateConnectionResponse, error) {
	req.TurarDepartment = strings.TrimSpace(req.TurarDepartment)
	req.TurarRoom = strings.TrimSpace(req.TurarRoom)
	req.ProjectorDepartment = strings.TrimSpace(req.ProjectorDepartment)
	req.ProjectorRoom = strings.TrimSpace(req.ProjectorRoom)
	if req.TurarDepartment == "" || req.TurarRoom == "" || req.ProjectorDepartment == "" || req.ProjectorRoom == "" {
		return nil, fmt.Errorf("all four of turar_department, turar_room, projector_department, projector_room are required")
	}

	// Uniqueness is enforced here (plus the DB index); an identical
	// 4-tuple is a no-op returning the existing row ID.
	if id, exists, err := s.connections.ExistsTuple(ctx,
		req.TurarDepartment, req.TurarRoom, req.ProjectorDepartment, req.ProjectorRoom); err != nil {
		return nil, fmt.Errorf("failed to check existing connection: %w", err)
	} else if exists {
		return &CreateConnectionResponse{ConnectionID: id, AlreadyExisted: true}, nil
	}

	conn := &domain.RoomConnection{
		TurarDepartment:     req.TurarDepartment,
		TurarRoom:           req.TurarRoom,
		ProjectorDepartment: req.ProjectorDepartment,
		ProjectorRoom:       req.ProjectorRoom,
	}

	// Best-effort name→id resolution; a lookup miss is logged and the
	// insert proceeds with names only.
	turarRows, err := s.turar.FindByDeptRoom(ctx, req.TurarDepartment, req.TurarRoom)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve turar room: %w", err)
	}
	if len(turarRows) > 0 {
		conn.TurarRoomID = sql.NullString{String: turarRows[0].ID, Valid: true}
	} else {
		s.logger.Warn("Turar room not found, inserting connection by names only",
			zap.String("department", req.TurarDepartment),
			zap.String("room", req.TurarRoom))
	}

	projRows, err := s.projector.FindByDeptRoom(ctx, req.ProjectorDepartment, req.ProjectorRoom)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve projector room: %w", err)
	}
	if len(projRows) > 0 {
		conn.ProjectorRoomID = sql.NullString{String: projRows[0].ID, Valid: true}
	} else {
		s.logger.Warn("Projector room not found, inserting connection by names only",
			zap.String("department", req.ProjectorDepartment),
			zap.String("room", req.ProjectorRoom))
	}

	id, err := s.connections.Create(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}

	// Room-level link, materialized on every equipment-line row sharing
	// (department, room_name) on each side. Not transactional with the
	// insert above; a mirror failure is surfaced, not rolled back.
	if err := s.projector.SetConnectedMirror(ctx,
		req.ProjectorDepartment, req.ProjectorRoom,
		conn.TurarRoomID, req.TurarDepartment, req.TurarRoom); err != nil {
		return nil, fmt.Errorf("failed to mirror connection on projector side: %w", err)
	}
	if err := s.turar.SetConnectedMirror(ctx,
		req.TurarDepartment, req.TurarRoom,
		conn.ProjectorRoomID, req.ProjectorDepartment, req.ProjectorRoom); err != nil {
		return nil, fmt.Errorf("failed to mirror connection on turar side: %w", err)
	}

	// Staging flags are convenience data; failures are logged only.
	if err := s.mapped.SetLinked(ctx, "projector", req.ProjectorDepartment, req.ProjectorRoom, true, conn.TurarRoomID); err != nil {
		s.logger.Warn("Failed to flag staged projector rooms as linked", zap.Error(err))
	}
	if err := s.mapped.SetLinked(ctx, "turar", req.TurarDepartment, req.TurarRoom, true, conn.ProjectorRoomID); err != nil {
		s.logger.Warn("Failed to flag staged turar rooms as linked", zap.Error(err))
	}

	s.versions.Bump(ctx, store.ViewRoomConnections, store.ViewTurarMedical, store.ViewProjectorEquipment)
	return &CreateConnectionResponse{ConnectionID: id}, nil
}

func (s *linkingService) DeleteConnection(ctx context.Context, req DeleteConnectionRequest) (*DeleteConnectionResponse, error) {
	if req.ConnectionID == "" {
		return nil, fmt.Errorf("connection_id is required")
	}

	conn, err := s.connections.GetByID(ctx, req.ConnectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load connection: %w", err)
	}

	if err := s.projector.ClearConnectedMirror(ctx, conn.ProjectorDepartment, conn.ProjectorRoom); err != nil {
		return nil, fmt.Errorf("failed to clear projector mirror: %w", err)
	}
	if err := s.turar.ClearConnectedMirror(ctx, conn.TurarDepartment, conn.TurarRoom); err != nil {
		return nil, fmt.Errorf("failed to clear turar mirror: %w", err)
	}

	if err := s.mapped.SetLinked(ctx, "projector", conn.ProjectorDepartment, conn.ProjectorRoom, false, sql.NullString{}); err != nil {
		s.logger.Warn("Failed to unflag staged projector rooms", zap.Error(err))
	}
	if err := s.mapped.SetLinked(ctx, "turar", conn.TurarDepartment, conn.TurarRoom, false, sql.NullString{}); err != nil {
		s.logger.Warn("Failed to unflag staged turar rooms", zap.Error(err))
	}

	if err := s.connections.Delete(ctx, req.ConnectionID); err != nil {
		return nil, fmt.Errorf("failed to delete connection: %w", err)
	}

	s.versions.Bump(ctx, store.ViewRoomConnections, store.ViewTurarMedical, store.ViewProjectorEquipment)
	return &DeleteConnectionResponse{}, nil
}

// CommitQueued submits a client-batched queue serially. A failing item
// is reported in Failed and does not roll back items already submitted.
func (s *linkingService) CommitQueued(ctx context.Context, req CommitQueuedRequest) (*CommitQueuedResponse, error) {
	resp := &CommitQueuedResponse{Failed: []CommitQueuedItemError{}}
	for i, item := range req.Items {
		if _, err := s.CreateConnection(ctx, item); err != nil {
			resp.Failed = append(resp.Failed, CommitQueuedItemError{Index: i, Error: err.Error()})
			continue
		}
		resp.Succeeded++
	}
	return resp, nil
}

// BulkCreateConnections backfills links for projector rooms carrying a
// connected_turar_department left behind by the older ad-hoc linking
// path. Heuristic: first 3 unconnected rooms of the department, in
// stable order; existing tuples are skipped.
func (s *linkingService) BulkCreateConnections(ctx context.Context) (*BulkCreateConnectionsResponse, error) {
	targets, err := s.projector.ListConnectedTargets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list backfill targets: %w", err)
	}

	created := 0
	for _, t := range targets {
		rooms, err := s.turar.ListUnconnectedRooms(ctx, t.TurarDepartment, 3)
		if err != nil {
			return nil, fmt.Errorf("failed to list unconnected turar rooms: %w", err)
		}
		for _, roomName := range rooms {
			res, err := s.CreateConnection(ctx, CreateConnectionRequest{
				TurarDepartment:     t.TurarDepartment,
				TurarRoom:           roomName,
				ProjectorDepartment: t.Department,
				ProjectorRoom:       t.RoomName,
			})
			if err != nil {
				s.logger.Warn("Backfill connection failed",
					zap.String("projector_room", t.RoomName),
					zap.String("turar_room", roomName),
					zap.Error(err))
				continue
			}
			if !res.AlreadyExisted {
				created++
			}
		}
	}

	if created > 0 {
		s.versions.Bump(ctx, store.ViewRoomConnections)
	}
	return &BulkCreateConnectionsResponse{Created: created}, nil
}

func (s *linkingService) LinkedRooms(ctx context.Context, req LinkedRoomsRequest) (*LinkedRoomsResponse, error) {
	if req.Side != "projector" && req.Side != "turar" {
		return nil, fmt.Errorf("side must be projector or turar")
	}
	if req.Department == "" || req.RoomName == "" {
		return nil, fmt.Errorf("department and room_name are required")
	}

	conns, err := s.connections.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	return &LinkedRoomsResponse{Items: UniqueLinkedRooms(conns, req.Side, req.Department, req.RoomName)}, nil
}

// UniqueLinkedRooms derives the unique other-side rooms linked to one
// room. Keyed by the other side's room name with last-write-wins
// replacement, so duplicate-looking rows collapse to one entry and the
// computation is idempotent. Pure: never mutates conns.
func UniqueLinkedRooms(conns []*domain.RoomConnection, side, department, roomName string) []LinkedRoom {
	byName := map[string]LinkedRoom{}
	order := []string{}

	for _, c := range conns {
		var matches bool
		var other LinkedRoom
		switch side {
		case "projector":
			matches = c.ProjectorDepartment == department && c.ProjectorRoom == roomName
			other = LinkedRoom{Department: c.TurarDepartment, RoomName: c.TurarRoom, ConnectionID: c.ID}
		case "turar":
			matches = c.TurarDepartment == department && c.TurarRoom == roomName
			other = LinkedRoom{Department: c.ProjectorDepartment, RoomName: c.ProjectorRoom, ConnectionID: c.ID}
		}
		if !matches {
			continue
		}
		if _, seen := byName[other.RoomName]; !seen {
			order = append(order, other.RoomName)
		}
		byName[other.RoomName] = other
	}

	out := make([]LinkedRoom, 0, len(order))
	for _, name := range order {
		out = append(out, byName[name])
	}
	return out
}
