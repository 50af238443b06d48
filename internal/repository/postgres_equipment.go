package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"medlink-data/internal/domain"

	"github.com/lib/pq"
)

type PostgresEquipmentRepo struct {
	db *sql.DB
}

func NewPostgresEquipmentRepo(db *sql.DB) *PostgresEquipmentRepo {
	return &PostgresEquipmentRepo{db: db}
}

const equipmentColumns = `
	id::text,
	room_id::text,
	equipment_code,
	equipment_name,
	model_name,
	equipment_type,
	brand,
	country,
	specification,
	documents,
	standard,
	supplier,
	purchase_price,
	warranty_months
`

func scanEquipment(scan func(dest ...any) error) (*domain.Equipment, error) {
	var e domain.Equipment
	var documents pq.StringArray
	if err := scan(
		&e.ID,
		&e.RoomID,
		&e.EquipmentCode,
		&e.EquipmentName,
		&e.ModelName,
		&e.EquipmentType,
		&e.Brand,
		&e.Country,
		&e.Specification,
		&documents,
		&e.Standard,
		&e.Supplier,
		&e.PurchasePrice,
		&e.WarrantyMonths,
	); err != nil {
		return nil, err
	}
	e.Documents = documents
	return &e, nil
}

func (r *PostgresEquipmentRepo) ListByRoom(ctx context.Context, roomID string) ([]*domain.Equipment, error) {
	if roomID == "" {
		return []*domain.Equipment{}, nil
	}
	q := `SELECT ` + equipmentColumns + `
		FROM equipment
		WHERE room_id = $1
		ORDER BY equipment_code`
	rows, err := r.db.QueryContext(ctx, q, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.Equipment, 0)
	for rows.Next() {
		e, err := scanEquipment(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PostgresEquipmentRepo) Get(ctx context.Context, id string) (*domain.Equipment, error) {
	if id == "" {
		return nil, sql.ErrNoRows
	}
	q := `SELECT ` + equipmentColumns + ` FROM equipment WHERE id = $1`
	e, err := scanEquipment(r.db.QueryRowContext(ctx, q, id).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("equipment not found: id=%s", id)
		}
		return nil, err
	}
	return e, nil
}

func (r *PostgresEquipmentRepo) Create(ctx context.Context, e *domain.Equipment) (string, error) {
	if e == nil {
		return "", fmt.Errorf("equipment is required")
	}
	if e.RoomID == "" {
		return "", fmt.Errorf("room_id is required")
	}
	if e.EquipmentCode == "" || e.EquipmentName == "" {
		return "", fmt.Errorf("equipment_code and equipment_name are required")
	}

	// Rooms live in projector_floors; one row per equipment line, so
	// the owning room is any row with this id.
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM projector_floors WHERE id = $1)`, e.RoomID,
	).Scan(&exists)
	if err != nil {
		return "", fmt.Errorf("failed to validate room: %w", err)
	}
	if !exists {
		return "", fmt.Errorf("room not found: room_id=%s (equipment must belong to an existing room)", e.RoomID)
	}

	var id string
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO equipment
			(room_id, equipment_code, equipment_name, model_name, equipment_type, brand, country, specification, documents, standard, supplier, purchase_price, warranty_months)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id::text`,
		e.RoomID,
		e.EquipmentCode,
		e.EquipmentName,
		nullStringToAny(e.ModelName),
		nullStringToAny(e.EquipmentType),
		nullStringToAny(e.Brand),
		nullStringToAny(e.Country),
		nullStringToAny(e.Specification),
		pq.Array(e.Documents),
		nullStringToAny(e.Standard),
		nullStringToAny(e.Supplier),
		nullFloatToAny(e.PurchasePrice),
		nullIntToAny(e.WarrantyMonths),
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to create equipment: %w", err)
	}
	return id, nil
}

func (r *PostgresEquipmentRepo) Update(ctx context.Context, id string, e *domain.Equipment) error {
	if id == "" {
		return fmt.Errorf("id is required")
	}
	if e == nil {
		return fmt.Errorf("equipment is required")
	}

	set := []string{}
	args := []any{id}
	argN := 2

	add := func(col string, v any) {
		set = append(set, fmt.Sprintf("%s = $%d", col, argN))
		args = append(args, v)
		argN++
	}

	if e.EquipmentCode != "" {
		add("equipment_code", e.EquipmentCode)
	}
	if e.EquipmentName != "" {
		add("equipment_name", e.EquipmentName)
	}
	if e.ModelName.Valid {
		add("model_name", nullStringToAny(e.ModelName))
	}
	if e.EquipmentType.Valid {
		add("equipment_type", nullStringToAny(e.EquipmentType))
	}
	if e.Brand.Valid {
		add("brand", nullStringToAny(e.Brand))
	}
	if e.Country.Valid {
		add("country", nullStringToAny(e.Country))
	}
	if e.Specification.Valid {
		add("specification", nullStringToAny(e.Specification))
	}
	if e.Documents != nil {
		add("documents", pq.Array(e.Documents))
	}
	if e.Standard.Valid {
		add("standard", nullStringToAny(e.Standard))
	}
	if e.Supplier.Valid {
		add("supplier", nullStringToAny(e.Supplier))
	}
	if e.PurchasePrice.Valid {
		add("purchase_price", e.PurchasePrice.Float64)
	}
	if e.WarrantyMonths.Valid {
		add("warranty_months", e.WarrantyMonths.Int64)
	}

	if len(set) == 0 {
		return nil
	}
	set = append(set, "updated_at = CURRENT_TIMESTAMP")

	q := "UPDATE equipment SET " + strings.Join(set, ", ") + " WHERE id = $1"
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("equipment not found: id=%s", id)
	}
	return nil
}

func (r *PostgresEquipmentRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM equipment WHERE id = $1", id)
	return err
}
