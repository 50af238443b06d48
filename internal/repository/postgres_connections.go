package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"medlink-data/internal/domain"
)

type PostgresConnectionsRepo struct {
	db *sql.DB
}

func NewPostgresConnectionsRepo(db *sql.DB) *PostgresConnectionsRepo {
	return &PostgresConnectionsRepo{db: db}
}

const connectionColumns = `
	id::text,
	turar_department,
	turar_room,
	projector_department,
	projector_room,
	turar_department_id::text,
	turar_room_id::text,
	projector_department_id::text,
	projector_room_id::text
`

func scanConnection(scan func(dest ...any) error) (*domain.RoomConnection, error) {
	var c domain.RoomConnection
	if err := scan(
		&c.ID,
		&c.TurarDepartment,
		&c.TurarRoom,
		&c.ProjectorDepartment,
		&c.ProjectorRoom,
		&c.TurarDepartmentID,
		&c.TurarRoomID,
		&c.ProjectorDeptID,
		&c.ProjectorRoomID,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresConnectionsRepo) List(ctx context.Context) ([]*domain.RoomConnection, error) {
	q := `SELECT ` + connectionColumns + `
		FROM room_connections
		ORDER BY turar_department, turar_room, projector_department, projector_room`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.RoomConnection, 0)
	for rows.Next() {
		c, err := scanConnection(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresConnectionsRepo) GetByID(ctx context.Context, id string) (*domain.RoomConnection, error) {
	if id == "" {
		return nil, sql.ErrNoRows
	}
	q := `SELECT ` + connectionColumns + ` FROM room_connections WHERE id = $1`
	c, err := scanConnection(r.db.QueryRowContext(ctx, q, id).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("connection not found: id=%s", id)
		}
		return nil, err
	}
	return c, nil
}

func (r *PostgresConnectionsRepo) ExistsTuple(ctx context.Context, turarDept, turarRoom, projDept, projRoom string) (string, bool, error) {
	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT id::text FROM room_connections
		 WHERE turar_department = $1 AND turar_room = $2
		   AND projector_department = $3 AND projector_room = $4
		 LIMIT 1`,
		turarDept, turarRoom, projDept, projRoom,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

// Create: 插入连接
// The 4-tuple is checked first; a concurrent insert still trips the
// unique index, which is reported as "already exists" too.
func (r *PostgresConnectionsRepo) Create(ctx context.Context, c *domain.RoomConnection) (string, error) {
	if c == nil {
		return "", fmt.Errorf("connection is required")
	}
	if c.TurarDepartment == "" || c.TurarRoom == "" || c.ProjectorDepartment == "" || c.ProjectorRoom == "" {
		return "", fmt.Errorf("turar_department, turar_room, projector_department and projector_room are required")
	}

	if id, ok, err := r.ExistsTuple(ctx, c.TurarDepartment, c.TurarRoom, c.ProjectorDepartment, c.ProjectorRoom); err != nil {
		return "", fmt.Errorf("failed to check duplicate connection: %w", err)
	} else if ok {
		return id, nil
	}

	var id string
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO room_connections
			(turar_department, turar_room, projector_department, projector_room,
			 turar_department_id, turar_room_id, projector_department_id, projector_room_id)
		 VALUES ($1, $2, $3, $4, $5::uuid, $6::uuid, $7::uuid, $8::uuid)
		 RETURNING id::text`,
		c.TurarDepartment,
		c.TurarRoom,
		c.ProjectorDepartment,
		c.ProjectorRoom,
		nullStringToAny(c.TurarDepartmentID),
		nullStringToAny(c.TurarRoomID),
		nullStringToAny(c.ProjectorDeptID),
		nullStringToAny(c.ProjectorRoomID),
	).Scan(&id)
	if err != nil {
		if strings.Contains(err.Error(), "idx_room_connections_tuple") {
			existing, ok, lookupErr := r.ExistsTuple(ctx, c.TurarDepartment, c.TurarRoom, c.ProjectorDepartment, c.ProjectorRoom)
			if lookupErr == nil && ok {
				return existing, nil
			}
		}
		return "", fmt.Errorf("failed to create connection: %w", err)
	}
	return id, nil
}

func (r *PostgresConnectionsRepo) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("id is required")
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM room_connections WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("connection not found: id=%s", id)
	}
	return nil
}
