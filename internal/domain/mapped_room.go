package domain

import (
	"database/sql"
)

// MappedProjectorRoom 对应 mapped_projector_rooms 表
// Staging copy of a projector row scoped to one department mapping.
// Rebuilt wholesale by the bulk-populate job; original_record_id is a
// back-reference, not ownership.
type MappedProjectorRoom struct {
	ID                  string         `db:"id"`
	DepartmentMappingID string         `db:"department_mapping_id"`
	OriginalRecordID    string         `db:"original_record_id"`
	Floor               float64        `db:"floor"`
	Block               string         `db:"block"`
	Department          string         `db:"department"`
	RoomCode            string         `db:"room_code"`
	RoomName            string         `db:"room_name"`
	EquipmentCode       sql.NullString `db:"equipment_code"`
	EquipmentName       sql.NullString `db:"equipment_name"`
	IsLinked            bool           `db:"is_linked"`
	LinkedTurarRoomID   sql.NullString `db:"linked_turar_room_id"`
}

// MappedTurarRoom 对应 mapped_turar_rooms 表
type MappedTurarRoom struct {
	ID                    string         `db:"id"`
	DepartmentMappingID   string         `db:"department_mapping_id"`
	OriginalRecordID      string         `db:"original_record_id"`
	Department            string         `db:"department"`
	RoomName              string         `db:"room_name"`
	EquipmentCode         sql.NullString `db:"equipment_code"`
	EquipmentName         sql.NullString `db:"equipment_name"`
	IsLinked              bool           `db:"is_linked"`
	LinkedProjectorRoomID sql.NullString `db:"linked_projector_room_id"`
}
