package domain

import (
	"database/sql"
)

// RoomConnection 对应 room_connections 表
// Single source of truth for a link between one projector room and one
// Turar room. No two rows may share the same
// (turar_department, turar_room, projector_department, projector_room)
// tuple; the repository checks it and the schema carries a unique index.
type RoomConnection struct {
	ID                  string         `db:"id"`
	TurarDepartment     string         `db:"turar_department"`
	TurarRoom           string         `db:"turar_room"`
	ProjectorDepartment string         `db:"projector_department"`
	ProjectorRoom       string         `db:"projector_room"`
	TurarDepartmentID   sql.NullString `db:"turar_department_id"`
	TurarRoomID         sql.NullString `db:"turar_room_id"`
	ProjectorDeptID     sql.NullString `db:"projector_department_id"`
	ProjectorRoomID     sql.NullString `db:"projector_room_id"`
}
