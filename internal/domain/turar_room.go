package domain

import (
	"database/sql"
)

// TurarRoom 对应 turar_medical 表
// Same denormalized shape as ProjectorRoom but keyed from the medical
// side; connected_projector_* columns mirror room_connections.
type TurarRoom struct {
	ID            string         `db:"id"`
	Department    string         `db:"department"`
	RoomName      string         `db:"room_name"`
	EquipmentCode sql.NullString `db:"equipment_code"`
	EquipmentName sql.NullString `db:"equipment_name"`
	Quantity      sql.NullInt64  `db:"quantity"`

	ConnectedProjectorRoomID     sql.NullString `db:"connected_projector_room_id"`
	ConnectedProjectorDepartment sql.NullString `db:"connected_projector_department"`
	ConnectedProjectorRoom       sql.NullString `db:"connected_projector_room"`
}
