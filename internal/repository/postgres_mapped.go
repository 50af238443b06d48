package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"medlink-data/internal/domain"
)

type PostgresMappedRoomsRepo struct {
	db *sql.DB
}

func NewPostgresMappedRoomsRepo(db *sql.DB) *PostgresMappedRoomsRepo {
	return &PostgresMappedRoomsRepo{db: db}
}

// WipeAll: 全量重建的第一步
// The staging tables are read caches; every rebuild starts from empty.
func (r *PostgresMappedRoomsRepo) WipeAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "TRUNCATE mapped_projector_rooms"); err != nil {
		return fmt.Errorf("failed to wipe mapped projector rooms: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, "TRUNCATE mapped_turar_rooms"); err != nil {
		return fmt.Errorf("failed to wipe mapped turar rooms: %w", err)
	}
	return nil
}

func (r *PostgresMappedRoomsRepo) BulkInsertProjector(ctx context.Context, rows []*domain.MappedProjectorRoom) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	const cols = 11
	values := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*cols)
	for i, row := range rows {
		base := i * cols
		ph := make([]string, cols)
		for j := 0; j < cols; j++ {
			ph[j] = fmt.Sprintf("$%d", base+j+1)
		}
		// linked_turar_room_id needs the uuid cast
		ph[cols-1] += "::uuid"
		ph[0] += "::uuid"
		ph[1] += "::uuid"
		values = append(values, "("+strings.Join(ph, ", ")+")")
		args = append(args,
			row.DepartmentMappingID,
			row.OriginalRecordID,
			row.Floor,
			row.Block,
			row.Department,
			row.RoomCode,
			row.RoomName,
			nullStringToAny(row.EquipmentCode),
			nullStringToAny(row.EquipmentName),
			row.IsLinked,
			nullStringToAny(row.LinkedTurarRoomID),
		)
	}

	q := `INSERT INTO mapped_projector_rooms
		(department_mapping_id, original_record_id, floor, block, department, room_code, room_name, equipment_code, equipment_name, is_linked, linked_turar_room_id)
		VALUES ` + strings.Join(values, ", ")
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk insert mapped projector rows: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (r *PostgresMappedRoomsRepo) BulkInsertTurar(ctx context.Context, rows []*domain.MappedTurarRoom) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	const cols = 8
	values := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*cols)
	for i, row := range rows {
		base := i * cols
		ph := make([]string, cols)
		for j := 0; j < cols; j++ {
			ph[j] = fmt.Sprintf("$%d", base+j+1)
		}
		ph[cols-1] += "::uuid"
		ph[0] += "::uuid"
		ph[1] += "::uuid"
		values = append(values, "("+strings.Join(ph, ", ")+")")
		args = append(args,
			row.DepartmentMappingID,
			row.OriginalRecordID,
			row.Department,
			row.RoomName,
			nullStringToAny(row.EquipmentCode),
			nullStringToAny(row.EquipmentName),
			row.IsLinked,
			nullStringToAny(row.LinkedProjectorRoomID),
		)
	}

	q := `INSERT INTO mapped_turar_rooms
		(department_mapping_id, original_record_id, department, room_name, equipment_code, equipment_name, is_linked, linked_projector_room_id)
		VALUES ` + strings.Join(values, ", ")
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk insert mapped turar rows: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (r *PostgresMappedRoomsRepo) ListProjectorByMapping(ctx context.Context, mappingID string) ([]*domain.MappedProjectorRoom, error) {
	if mappingID == "" {
		return []*domain.MappedProjectorRoom{}, nil
	}
	q := `
		SELECT
			id::text,
			department_mapping_id::text,
			original_record_id::text,
			floor,
			block,
			department,
			room_code,
			room_name,
			equipment_code,
			equipment_name,
			is_linked,
			linked_turar_room_id::text
		FROM mapped_projector_rooms
		WHERE department_mapping_id = $1
		ORDER BY room_name, equipment_code NULLS FIRST
	`
	rows, err := r.db.QueryContext(ctx, q, mappingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.MappedProjectorRoom, 0)
	for rows.Next() {
		var m domain.MappedProjectorRoom
		if err := rows.Scan(
			&m.ID,
			&m.DepartmentMappingID,
			&m.OriginalRecordID,
			&m.Floor,
			&m.Block,
			&m.Department,
			&m.RoomCode,
			&m.RoomName,
			&m.EquipmentCode,
			&m.EquipmentName,
			&m.IsLinked,
			&m.LinkedTurarRoomID,
		); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (r *PostgresMappedRoomsRepo) ListTurarByMapping(ctx context.Context, mappingID string) ([]*domain.MappedTurarRoom, error) {
	if mappingID == "" {
		return []*domain.MappedTurarRoom{}, nil
	}
	q := `
		SELECT
			id::text,
			department_mapping_id::text,
			original_record_id::text,
			department,
			room_name,
			equipment_code,
			equipment_name,
			is_linked,
			linked_projector_room_id::text
		FROM mapped_turar_rooms
		WHERE department_mapping_id = $1
		ORDER BY room_name, equipment_code NULLS FIRST
	`
	rows, err := r.db.QueryContext(ctx, q, mappingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.MappedTurarRoom, 0)
	for rows.Next() {
		var m domain.MappedTurarRoom
		if err := rows.Scan(
			&m.ID,
			&m.DepartmentMappingID,
			&m.OriginalRecordID,
			&m.Department,
			&m.RoomName,
			&m.EquipmentCode,
			&m.EquipmentName,
			&m.IsLinked,
			&m.LinkedProjectorRoomID,
		); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (r *PostgresMappedRoomsRepo) SetLinked(ctx context.Context, side, department, roomName string, linked bool, linkedRoomID sql.NullString) error {
	if department == "" || roomName == "" {
		return fmt.Errorf("department and room_name are required")
	}
	var q string
	switch side {
	case "projector":
		q = `UPDATE mapped_projector_rooms
			 SET is_linked = $3, linked_turar_room_id = $4::uuid
			 WHERE department = $1 AND room_name = $2`
	case "turar":
		q = `UPDATE mapped_turar_rooms
			 SET is_linked = $3, linked_projector_room_id = $4::uuid
			 WHERE department = $1 AND room_name = $2`
	default:
		return fmt.Errorf("unknown side: %s", side)
	}
	if _, err := r.db.ExecContext(ctx, q, department, roomName, linked, nullStringToAny(linkedRoomID)); err != nil {
		return fmt.Errorf("failed to set linked flag: %w", err)
	}
	return nil
}
