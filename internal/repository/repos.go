package repository

import (
	"context"
	"database/sql"

	"medlink-data/internal/domain"
)

// ProjectorRoomFilters 列表过滤条件（均为可选）
type ProjectorRoomFilters struct {
	Department string
	RoomName   string
	Block      string
	Floor      string // matched against the formatted floor value
	Search     string // substring on room_name / equipment_name
}

// TurarRoomFilters 列表过滤条件（均为可选）
type TurarRoomFilters struct {
	Department string
	RoomName   string
	Search     string
}

// ConnectedTarget is a projector room carrying a connected_turar_department
// value left behind by the older ad-hoc linking path. Input to the
// heuristic backfill job.
type ConnectedTarget struct {
	Department      string
	RoomName        string
	TurarDepartment string
}

// ProjectorRoomsRepo projector_floors 表
type ProjectorRoomsRepo interface {
	List(ctx context.Context, filters ProjectorRoomFilters, page, size int) ([]*domain.ProjectorRoom, int, error)
	ListByDepartment(ctx context.Context, department string) ([]*domain.ProjectorRoom, error)
	FindByDeptRoom(ctx context.Context, department, roomName string) ([]*domain.ProjectorRoom, error)
	UpdateEquipment(ctx context.Context, id string, room *domain.ProjectorRoom) error
	// SetConnectedMirror updates every row sharing (department, room_name);
	// the connection is room-level, materialized per equipment line.
	SetConnectedMirror(ctx context.Context, department, roomName string, turarRoomID sql.NullString, turarDepartment, turarRoom string) error
	ClearConnectedMirror(ctx context.Context, department, roomName string) error
	BulkInsert(ctx context.Context, rows []*domain.ProjectorRoom) (int, error)
	Truncate(ctx context.Context) error
	ListCompositeKeys(ctx context.Context) (map[string]struct{}, error)
	ListConnectedTargets(ctx context.Context) ([]ConnectedTarget, error)
	ListDepartments(ctx context.Context) ([]string, error)
}

// TurarRoomsRepo turar_medical 表
type TurarRoomsRepo interface {
	List(ctx context.Context, filters TurarRoomFilters, page, size int) ([]*domain.TurarRoom, int, error)
	ListByDepartment(ctx context.Context, department string) ([]*domain.TurarRoom, error)
	FindByDeptRoom(ctx context.Context, department, roomName string) ([]*domain.TurarRoom, error)
	UpdateEquipment(ctx context.Context, id string, room *domain.TurarRoom) error
	SetConnectedMirror(ctx context.Context, department, roomName string, projRoomID sql.NullString, projDepartment, projRoom string) error
	ClearConnectedMirror(ctx context.Context, department, roomName string) error
	BulkInsert(ctx context.Context, rows []*domain.TurarRoom) (int, error)
	Truncate(ctx context.Context) error
	ListCompositeKeys(ctx context.Context) (map[string]struct{}, error)
	// ListUnconnectedRooms returns distinct room names in a department with
	// no connected_projector_room set, in stable order.
	ListUnconnectedRooms(ctx context.Context, department string, limit int) ([]string, error)
	ListDepartments(ctx context.Context) ([]string, error)
}

// ConnectionsRepo room_connections 表
type ConnectionsRepo interface {
	List(ctx context.Context) ([]*domain.RoomConnection, error)
	GetByID(ctx context.Context, id string) (*domain.RoomConnection, error)
	// ExistsTuple reports the existing row ID for an identical 4-tuple.
	ExistsTuple(ctx context.Context, turarDept, turarRoom, projDept, projRoom string) (string, bool, error)
	Create(ctx context.Context, c *domain.RoomConnection) (string, error)
	Delete(ctx context.Context, id string) error
}

// MappingsRepo department_mappings 表
type MappingsRepo interface {
	List(ctx context.Context) ([]*domain.DepartmentMapping, error)
	Get(ctx context.Context, id string) (*domain.DepartmentMapping, error)
	Create(ctx context.Context, m *domain.DepartmentMapping) (string, error)
	Update(ctx context.Context, id string, m *domain.DepartmentMapping) error
	// DeleteCascade removes the mapping and everything raised by it
	// (staging rows, connections between the mapped departments, mirror
	// fields) in one transaction.
	DeleteCascade(ctx context.Context, id string) (*CascadeResult, error)
}

// CascadeResult row counts removed by DeleteCascade, for the admin UI.
type CascadeResult struct {
	MappedProjectorRooms int `json:"mapped_projector_rooms"`
	MappedTurarRooms     int `json:"mapped_turar_rooms"`
	Connections          int `json:"connections"`
	MirrorsCleared       int `json:"mirrors_cleared"`
}

// MappedRoomsRepo mapped_projector_rooms / mapped_turar_rooms 表
type MappedRoomsRepo interface {
	WipeAll(ctx context.Context) error
	BulkInsertProjector(ctx context.Context, rows []*domain.MappedProjectorRoom) (int, error)
	BulkInsertTurar(ctx context.Context, rows []*domain.MappedTurarRoom) (int, error)
	ListProjectorByMapping(ctx context.Context, mappingID string) ([]*domain.MappedProjectorRoom, error)
	ListTurarByMapping(ctx context.Context, mappingID string) ([]*domain.MappedTurarRoom, error)
	// SetLinked flips the convenience flag on staging rows matching
	// (department, room_name) on the given side ("projector" or "turar").
	SetLinked(ctx context.Context, side, department, roomName string, linked bool, linkedRoomID sql.NullString) error
}

// EquipmentRepo equipment 表
type EquipmentRepo interface {
	ListByRoom(ctx context.Context, roomID string) ([]*domain.Equipment, error)
	Get(ctx context.Context, id string) (*domain.Equipment, error)
	Create(ctx context.Context, e *domain.Equipment) (string, error)
	Update(ctx context.Context, id string, e *domain.Equipment) error
	Delete(ctx context.Context, id string) error
}

// UsersRepo users 表
type UsersRepo interface {
	List(ctx context.Context) ([]*domain.User, error)
	Create(ctx context.Context, u *domain.User) (string, error)
	UpdateRole(ctx context.Context, id, role string) error
	Delete(ctx context.Context, id string) error
}

func nullStringToAny(ns sql.NullString) any {
	if ns.Valid {
		return ns.String
	}
	return nil
}

func nullFloatToAny(nf sql.NullFloat64) any {
	if nf.Valid {
		return nf.Float64
	}
	return nil
}

func nullIntToAny(ni sql.NullInt64) any {
	if ni.Valid {
		return ni.Int64
	}
	return nil
}
