package domain

import (
	"database/sql"
)

// ProjectorRoom 对应 projector_floors 表
// Denormalized: one row per equipment line, rooms repeat across rows
// sharing (department, room_name). The connected_* columns mirror the
// room_connections table on every row of the room.
type ProjectorRoom struct {
	ID                string          `db:"id"`
	Floor             float64         `db:"floor"`
	Block             string          `db:"block"`
	Department        string          `db:"department"`
	RoomCode          string          `db:"room_code"`
	RoomName          string          `db:"room_name"`
	Area              sql.NullFloat64 `db:"area"`
	EquipmentCode     sql.NullString  `db:"equipment_code"`
	EquipmentName     sql.NullString  `db:"equipment_name"`
	EquipmentUnit     sql.NullString  `db:"equipment_unit"`
	EquipmentQuantity sql.NullInt64   `db:"equipment_quantity"`
	Notes             sql.NullString  `db:"notes"`

	ConnectedTurarRoomID     sql.NullString `db:"connected_turar_room_id"`
	ConnectedTurarDepartment sql.NullString `db:"connected_turar_department"`
	ConnectedTurarRoom       sql.NullString `db:"connected_turar_room"`
}
