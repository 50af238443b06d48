package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"medlink-data/internal/domain"
)

type PostgresProjectorRoomsRepo struct {
	db *sql.DB
}

func NewPostgresProjectorRoomsRepo(db *sql.DB) *PostgresProjectorRoomsRepo {
	return &PostgresProjectorRoomsRepo{db: db}
}

const projectorColumns = `
	id::text,
	floor,
	block,
	department,
	room_code,
	room_name,
	area,
	equipment_code,
	equipment_name,
	equipment_unit,
	equipment_quantity,
	notes,
	connected_turar_room_id::text,
	connected_turar_department,
	connected_turar_room
`

func scanProjectorRow(scan func(dest ...any) error) (*domain.ProjectorRoom, error) {
	var r domain.ProjectorRoom
	if err := scan(
		&r.ID,
		&r.Floor,
		&r.Block,
		&r.Department,
		&r.RoomCode,
		&r.RoomName,
		&r.Area,
		&r.EquipmentCode,
		&r.EquipmentName,
		&r.EquipmentUnit,
		&r.EquipmentQuantity,
		&r.Notes,
		&r.ConnectedTurarRoomID,
		&r.ConnectedTurarDepartment,
		&r.ConnectedTurarRoom,
	); err != nil {
		return nil, err
	}
	return &r, nil
}

// List: 查询 projector 房间列表（含分页）
func (r *PostgresProjectorRoomsRepo) List(ctx context.Context, filters ProjectorRoomFilters, page, size int) ([]*domain.ProjectorRoom, int, error) {
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
	addEq("block", filters.Block)

	if filters.Floor != "" {
		f, err := strconv.ParseFloat(strings.ReplaceAll(filters.Floor, ",", "."), 64)
		if err == nil {
			where = append(where, fmt.Sprintf("floor = $%d", argN))
			args = append(args, f)
			argN++
		}
	}
	if filters.Search != "" {
		where = append(where, fmt.Sprintf("(room_name ILIKE $%d OR equipment_name ILIKE $%d)", argN, argN))
		args = append(args, "%"+filters.Search+"%")
		argN++
	}

	queryCount := "SELECT COUNT(*) FROM projector_floors WHERE " + strings.Join(where, " AND ")
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

	query := `SELECT ` + projectorColumns + `
		FROM projector_floors
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY floor, block, department, room_name, equipment_code NULLS FIRST
		LIMIT $` + fmt.Sprintf("%d", argN) + ` OFFSET $` + fmt.Sprintf("%d", argN+1)
	args = append(args, size, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]*domain.ProjectorRoom, 0)
	for rows.Next() {
		item, err := scanProjectorRow(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	return items, total, rows.Err()
}

func (r *PostgresProjectorRoomsRepo) ListByDepartment(ctx context.Context, department string) ([]*domain.ProjectorRoom, error) {
	if department == "" {
		return []*domain.ProjectorRoom{}, nil
	}
	q := `SELECT ` + projectorColumns + `
		FROM projector_floors
		WHERE department = $1
		ORDER BY room_name, equipment_code NULLS FIRST`
	rows, err := r.db.QueryContext(ctx, q, department)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*domain.ProjectorRoom, 0)
	for rows.Next() {
		item, err := scanProjectorRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *PostgresProjectorRoomsRepo) FindByDeptRoom(ctx context.Context, department, roomName string) ([]*domain.ProjectorRoom, error) {
	if department == "" || roomName == "" {
		return []*domain.ProjectorRoom{}, nil
	}
	q := `SELECT ` + projectorColumns + `
		FROM projector_floors
		WHERE department = $1 AND room_name = $2
		ORDER BY equipment_code NULLS FIRST`
	rows, err := r.db.QueryContext(ctx, q, department, roomName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*domain.ProjectorRoom, 0)
	for rows.Next() {
		item, err := scanProjectorRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateEquipment: 更新单行设备元数据（仅 equipment 字段）
func (r *PostgresProjectorRoomsRepo) UpdateEquipment(ctx context.Context, id string, room *domain.ProjectorRoom) error {
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
	if room.EquipmentUnit.Valid {
		add("equipment_unit", nullStringToAny(room.EquipmentUnit))
	}
	if room.EquipmentQuantity.Valid {
		add("equipment_quantity", room.EquipmentQuantity.Int64)
	}
	if room.Notes.Valid {
		if room.Notes.String == "" {
			set = append(set, "notes = NULL")
		} else {
			add("notes", room.Notes.String)
		}
	}
	if room.Area.Valid {
		add("area", room.Area.Float64)
	}

	if len(set) == 0 {
		return nil
	}
	set = append(set, "updated_at = CURRENT_TIMESTAMP")

	q := "UPDATE projector_floors SET " + strings.Join(set, ", ") + " WHERE id = $1"
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("projector room not found: id=%s", id)
	}
	return nil
}

// SetConnectedMirror: 设置镜像字段
// Room-level link materialized on every equipment-line row of the room.
func (r *PostgresProjectorRoomsRepo) SetConnectedMirror(ctx context.Context, department, roomName string, turarRoomID sql.NullString, turarDepartment, turarRoom string) error {
	if department == "" || roomName == "" {
		return fmt.Errorf("department and room_name are required")
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE projector_floors
		 SET connected_turar_room_id = $3::uuid,
		     connected_turar_department = $4,
		     connected_turar_room = $5,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE department = $1 AND room_name = $2`,
		department, roomName, nullStringToAny(turarRoomID), turarDepartment, turarRoom,
	)
	if err != nil {
		return fmt.Errorf("failed to set connected mirror: %w", err)
	}
	return nil
}

func (r *PostgresProjectorRoomsRepo) ClearConnectedMirror(ctx context.Context, department, roomName string) error {
	if department == "" || roomName == "" {
		return fmt.Errorf("department and room_name are required")
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE projector_floors
		 SET connected_turar_room_id = NULL,
		     connected_turar_department = NULL,
		     connected_turar_room = NULL,
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
func (r *PostgresProjectorRoomsRepo) BulkInsert(ctx context.Context, rows []*domain.ProjectorRoom) (int, error) {
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
		values = append(values, "("+strings.Join(ph, ", ")+")")
		args = append(args,
			row.Floor,
			row.Block,
			row.Department,
			row.RoomCode,
			row.RoomName,
			nullFloatToAny(row.Area),
			nullStringToAny(row.EquipmentCode),
			nullStringToAny(row.EquipmentName),
			nullStringToAny(row.EquipmentUnit),
			nullIntToAny(row.EquipmentQuantity),
			nullStringToAny(row.Notes),
		)
	}

	q := `INSERT INTO projector_floors
		(floor, block, department, room_code, room_name, area, equipment_code, equipment_name, equipment_unit, equipment_quantity, notes)
		VALUES ` + strings.Join(values, ", ")
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk insert projector rows: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (r *PostgresProjectorRoomsRepo) Truncate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "TRUNCATE projector_floors")
	return err
}

// ListCompositeKeys: 预取现有 composite keys（floor|block|department|room_code|room_name）
func (r *PostgresProjectorRoomsRepo) ListCompositeKeys(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT floor, block, department, room_code, room_name FROM projector_floors`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := map[string]struct{}{}
	for rows.Next() {
		var floor float64
		var block, department, roomCode, roomName string
		if err := rows.Scan(&floor, &block, &department, &roomCode, &roomName); err != nil {
			return nil, err
		}
		key := strconv.FormatFloat(floor, 'f', -1, 64) + "|" + block + "|" + department + "|" + roomCode + "|" + roomName
		keys[key] = struct{}{}
	}
	return keys, rows.Err()
}

// ListConnectedTargets: 旧 ad-hoc 链接路径留下的 connected_turar_department 标记
func (r *PostgresProjectorRoomsRepo) ListConnectedTargets(ctx context.Context) ([]ConnectedTarget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT department, room_name, connected_turar_department
		 FROM projector_floors
		 WHERE connected_turar_department IS NOT NULL AND connected_turar_department <> ''
		 ORDER BY department, room_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ConnectedTarget{}
	for rows.Next() {
		var t ConnectedTarget
		if err := rows.Scan(&t.Department, &t.RoomName, &t.TurarDepartment); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PostgresProjectorRoomsRepo) ListDepartments(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT department FROM projector_floors ORDER BY department`)
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
