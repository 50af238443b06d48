package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"medlink-data/internal/domain"

	"github.com/lib/pq"
)

type PostgresMappingsRepo struct {
	db *sql.DB
}

func NewPostgresMappingsRepo(db *sql.DB) *PostgresMappingsRepo {
	return &PostgresMappingsRepo{db: db}
}

const mappingColumns = `
	id::text,
	turar_department,
	projector_department,
	turar_department_id::text,
	projector_department_id::text,
	turar_aliases,
	projector_aliases
`

func scanMapping(scan func(dest ...any) error) (*domain.DepartmentMapping, error) {
	var m domain.DepartmentMapping
	var turarAliases, projAliases pq.StringArray
	if err := scan(
		&m.ID,
		&m.TurarDepartment,
		&m.ProjectorDepartment,
		&m.TurarDepartmentID,
		&m.ProjectorDeptID,
		&turarAliases,
		&projAliases,
	); err != nil {
		return nil, err
	}
	m.TurarAliases = turarAliases
	m.ProjectorAliases = projAliases
	return &m, nil
}

func (r *PostgresMappingsRepo) List(ctx context.Context) ([]*domain.DepartmentMapping, error) {
	q := `SELECT ` + mappingColumns + `
		FROM department_mappings
		ORDER BY turar_department, projector_department`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.DepartmentMapping, 0)
	for rows.Next() {
		m, err := scanMapping(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PostgresMappingsRepo) Get(ctx context.Context, id string) (*domain.DepartmentMapping, error) {
	if id == "" {
		return nil, sql.ErrNoRows
	}
	q := `SELECT ` + mappingColumns + ` FROM department_mappings WHERE id = $1`
	m, err := scanMapping(r.db.QueryRowContext(ctx, q, id).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("department mapping not found: id=%s", id)
		}
		return nil, err
	}
	return m, nil
}

func (r *PostgresMappingsRepo) Create(ctx context.Context, m *domain.DepartmentMapping) (string, error) {
	if m == nil {
		return "", fmt.Errorf("mapping is required")
	}
	if m.TurarDepartment == "" || m.ProjectorDepartment == "" {
		return "", fmt.Errorf("turar_department and projector_department are required")
	}

	var id string
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO department_mappings
			(turar_department, projector_department, turar_department_id, projector_department_id, turar_aliases, projector_aliases)
		 VALUES ($1, $2, $3::uuid, $4::uuid, $5, $6)
		 RETURNING id::text`,
		m.TurarDepartment,
		m.ProjectorDepartment,
		nullStringToAny(m.TurarDepartmentID),
		nullStringToAny(m.ProjectorDeptID),
		pq.Array(m.TurarAliases),
		pq.Array(m.ProjectorAliases),
	).Scan(&id)
	if err != nil {
		if strings.Contains(err.Error(), "idx_department_mappings_pair") {
			return "", fmt.Errorf("mapping already exists: turar_department=%s, projector_department=%s",
				m.TurarDepartment, m.ProjectorDepartment)
		}
		return "", fmt.Errorf("failed to create mapping: %w", err)
	}
	return id, nil
}

func (r *PostgresMappingsRepo) Update(ctx context.Context, id string, m *domain.DepartmentMapping) error {
	if id == "" {
		return fmt.Errorf("id is required")
	}
	if m == nil {
		return fmt.Errorf("mapping is required")
	}

	set := []string{}
	args := []any{id}
	argN := 2

	add := func(col string, v any) {
		set = append(set, fmt.Sprintf("%s = $%d", col, argN))
		args = append(args, v)
		argN++
	}

	if m.TurarDepartment != "" {
		add("turar_department", m.TurarDepartment)
	}
	if m.ProjectorDepartment != "" {
		add("projector_department", m.ProjectorDepartment)
	}
	if m.TurarAliases != nil {
		add("turar_aliases", pq.Array(m.TurarAliases))
	}
	if m.ProjectorAliases != nil {
		add("projector_aliases", pq.Array(m.ProjectorAliases))
	}

	if len(set) == 0 {
		return nil
	}

	q := "UPDATE department_mappings SET " + strings.Join(set, ", ") + " WHERE id = $1"
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("department mapping not found: id=%s", id)
	}
	return nil
}

// DeleteCascade: 在一个事务中删除 mapping 及其派生数据
// Order: staging rows, connections between the mapped departments,
// mirror fields on both source tables, then the mapping row itself.
// A failure anywhere rolls the whole cleanup back.
func (r *PostgresMappingsRepo) DeleteCascade(ctx context.Context, id string) (*CascadeResult, error) {
	if id == "" {
		return nil, fmt.Errorf("id is required")
	}

	m, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result := &CascadeResult{}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM mapped_projector_rooms WHERE department_mapping_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete mapped projector rooms: %w", err)
	}
	n, _ := res.RowsAffected()
	result.MappedProjectorRooms = int(n)

	res, err = tx.ExecContext(ctx,
		`DELETE FROM mapped_turar_rooms WHERE department_mapping_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete mapped turar rooms: %w", err)
	}
	n, _ = res.RowsAffected()
	result.MappedTurarRooms = int(n)

	res, err = tx.ExecContext(ctx,
		`UPDATE projector_floors
		 SET connected_turar_room_id = NULL,
		     connected_turar_department = NULL,
		     connected_turar_room = NULL,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE department = $1 AND connected_turar_department = $2`,
		m.ProjectorDepartment, m.TurarDepartment)
	if err != nil {
		return nil, fmt.Errorf("failed to clear projector mirrors: %w", err)
	}
	n, _ = res.RowsAffected()
	result.MirrorsCleared = int(n)

	res, err = tx.ExecContext(ctx,
		`UPDATE turar_medical
		 SET connected_projector_room_id = NULL,
		     connected_projector_department = NULL,
		     connected_projector_room = NULL,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE department = $1 AND connected_projector_department = $2`,
		m.TurarDepartment, m.ProjectorDepartment)
	if err != nil {
		return nil, fmt.Errorf("failed to clear turar mirrors: %w", err)
	}
	n, _ = res.RowsAffected()
	result.MirrorsCleared += int(n)

	res, err = tx.ExecContext(ctx,
		`DELETE FROM room_connections
		 WHERE turar_department = $1 AND projector_department = $2`,
		m.TurarDepartment, m.ProjectorDepartment)
	if err != nil {
		return nil, fmt.Errorf("failed to delete connections: %w", err)
	}
	n, _ = res.RowsAffected()
	result.Connections = int(n)

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM department_mappings WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to delete mapping: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cascade delete: %w", err)
	}
	return result, nil
}
