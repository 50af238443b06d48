package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"medlink-data/internal/domain"
)

type PostgresTurarRoomsRepo struct {
	db *sql.DB
}

func NewPostgresTurarRoomsRepo(db *sql.DB) *PostgresTurarRoomsRepo {
	return &PostgresTurarRoomsRepo{db: db}
}

const turarColumns = `
	id::text,
	department,
	room_name,
	equipment_code,
	equipment_name,
	quantity,
	connected_projector_room_id::text,
	connected_projector_department,
	connected_projector_room
`

func scanTurarRow(scan func(dest ...any) error) (*domain.TurarRoom, error) {
	var r domain.TurarRoom
	if err := scan(
		&r.ID,
		&r.Department,
		&r.RoomName,
		&r.EquipmentCode,
		&r.EquipmentName,
		&r.Quantity,
		&r.ConnectedProjectorRoomID,
		&r.ConnectedProjectorDepartment,
		&r.ConnectedProjectorRoom,
	); err != nil {
		return nil, err
	}
	return &r, nil
}

// List: 查询 turar 房间列表（含分页）
func (r *PostgresTurarRoomsRepo) List(ctx context.Context, filters TurarRoomFilters, page, size int) ([]*domain.TurarRoom, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	argN := 1

	addEq := func(col, val string) {
		if val == "" {
			return
		}
		where = append(where, fmt.Sprintf("%s = $%d", col, argN))
		args = append(args, val)
		argN++
	}
	addEq("department", filters.Department)
	addEq("room_name", filters.RoomName)

	if filters.Search != "" {
		where = append(where, fmt.Sprintf("(room_name ILIKE $%d OR equipment_name ILIKE $%d)", argN, argN))
		args = append(args, "%"+filters.Search+"%")
		argN++
	}

	queryCount := "SELECT COUNT(*) FROM turar_medical WHERE " + strings.Join(where, " AND ")
	var total int
	if err := r.db.QueryRowContext(ctx, queryCount, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 100
	}
	offset := (page - 1) * size

	query := `SELECT ` + turarColumns + `
		FROM turar_medical
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY department, room_name, equipment_code NULLS FIRST
		LIMIT $` + fmt.Sprintf("%d", argN) + ` OFFSET $` + fmt.Sprintf("%d", argN+1)
	args = append(args, size, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]*domain.TurarRoom, 0)
	for rows.Next() {
		item, err := scanTurarRow(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	return items, total, rows.Err()
}

func (r *PostgresTurarRoomsRepo) ListByDepartment(ctx context.Context, department string) ([]*domain.TurarRoom, error) {
	if department == "" {
		return []*domain.TurarRoom{}, nil
	}
	q := `SELECT ` + turarColumns + `
		FROM turar_medical
		WHERE department = $1
		ORDER BY room_name, equipment_code NULLS FIRST`
	rows, err := r.db.QueryContext(ctx, q, department)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*domain.TurarRoom, 0)
	for rows.Next() {
		item, err := scanTurarRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *PostgresTurarRoomsRepo) FindByDeptRoom(ctx context.Context, department, roomName string) ([]*domain.TurarRoom, error) {
	if department == "" || roomName == "" {
		return []*domain.TurarRoom{}, nil
	}
	q := `SELECT ` + turarColumns + `
		FROM turar_medical
		WHERE department = $1 AND room_name = $2
		ORDER BY equipment_code NULLS FIRST`
	rows, err := r.db.QueryContext(ctx, q, department, roomName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*domain.TurarRoom, 0)
	for rows.Next() {
		item, err := scanTurarRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *PostgresTurarRoomsRepo) UpdateEquipment(ctx context.Context, id string, room *domain.TurarRoom) error {
	if id == "" {
		return fmt.Errorf("id is required")
	}
	if room == nil {
		return fmt.Errorf("room is required")
	}

	set := []string{}
	args := []any{id}
	argN := 2

	add := func(col string, v any) {
		set = append(set, fmt.Sprintf("%s = $%d", col, argN))
		args = append(args, v)
		argN++
	}

	if room.EquipmentCode.Valid {
		add("equipment_code", nullStringToAny(room.EquipmentCode))
	}
	if room.EquipmentName.Valid {
		add("equipment_name", nullStringToAny(room.EquipmentName))
	}
	if room.Quantity.Valid {
		add("quantity", room.Quantity.Int64)
	}

	if len(set) == 0 {
		return nil
	}
	set = append(set, "updated_at = CURRENT_TIMESTAMP")

	q := "UPDATE turar_medical SET " + strings.Join(set, ", ") + " WHERE id = $1"
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("turar room not found: id=%s", id)
	}
	return nil
}

// SetConnectedMirror: 设置镜像字段
// Room-level link materialized on every equipment-line row of the room.
func (r *PostgresTurarRoomsRepo) SetConnectedMirror(ctx context.Context, department, roomName string, projRoomID sql.NullString, projDepartment, projRoom string) error {
	if department == "" || roomName == "" {
		return fmt.Errorf("department and room_name are required")
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE turar_medical
		 SET connected_projector_room_id = $3::uuid,
		     connected_projector_department = $4,
		     connected_projector_room = $5,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE department = $1 AND room_name = $2`,
		department, roomName, nullStringToAny(projRoomID), projDepartment, projRoom,
	)
	if err != nil {
		return fmt.Errorf("failed to set connected mirror: %w", err)
	}
	return nil
}

func (r *PostgresTurarRoomsRepo) ClearConnectedMirror(ctx context.Context, department, roomName string) error {
	if department == "" || roomName == "" {
		return fmt.Errorf("department and room_name are required")
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE turar_medical
		 SET connected_projector_room_id = NULL,
		     connected_projector_department = NULL,
		     connected_projector_room = NULL,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE department = $1 AND room_name = $2`,
		department, roomName,
	)
	if err != nil {
		return fmt.Errorf("failed to clear connected mirror: %w", err)
	}
	return nil
}

// BulkInsert: 单条多行 INSERT
// Callers page at 1000 rows to stay under request-size limits.
func (r *PostgresTurarRoomsRepo) BulkInsert(ctx context.Context, rows []*domain.TurarRoom) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	const cols = 5
	values := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*cols)
	for i, row := range rows {
		base := i * cols
		ph := make([]string, cols)
		for j := 0; j < cols; j++ {
			ph[j] = fmt.Sprintf("$%d", base+j+1)
		}
		values = append(values, "("+strings.Join(ph, ", ")+")")
		args = append(args,
			row.Department,
			row.RoomName,
			nullStringToAny(row.EquipmentCode),
			nullStringToAny(row.EquipmentName),
			nullIntToAny(row.Quantity),
		)
	}

	q := `INSERT INTO turar_medical
		(department, room_name, equipment_code, equipment_name, quantity)
		VALUES ` + strings.Join(values, ", ")
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk insert turar rows: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (r *PostgresTurarRoomsRepo) Truncate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "TRUNCATE turar_medical")
	return err
}

// ListCompositeKeys: 预取现有 composite keys（department|room_name|equipment_code）
func (r *PostgresTurarRoomsRepo) ListCompositeKeys(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT department, room_name, COALESCE(equipment_code, '') FROM turar_medical`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := map[string]struct{}{}
	for rows.Next() {
		var department, roomName, code string
		if err := rows.Scan(&department, &roomName, &code); err != nil {
			return nil, err
		}
		keys[department+"|"+roomName+"|"+code] = struct{}{}
	}
	return keys, rows.Err()
}

// ListUnconnectedRooms: 部门内未连接的房间（按房名稳定排序）
func (r *PostgresTurarRoomsRepo) ListUnconnectedRooms(ctx context.Context, department string, limit int) ([]string, error) {
	if department == "" {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = 3
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT room_name
		 FROM turar_medical
		 WHERE department = $1 AND connected_projector_room IS NULL
		 ORDER BY room_name
		 LIMIT $2`,
		department, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (r *PostgresTurarRoomsRepo) ListDepartments(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT department FROM turar_medical ORDER BY department`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
