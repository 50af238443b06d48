package domain

import (
	"database/sql"
)

// Equipment 对应 equipment 表
// Normalized equipment record owned by exactly one projector room via
// room_id (used by the newer projector-side UI only).
type Equipment struct {
	ID             string          `db:"id"`
	RoomID         string          `db:"room_id"`
	EquipmentCode  string          `db:"equipment_code"`
	EquipmentName  string          `db:"equipment_name"`
	ModelName      sql.NullString  `db:"model_name"`
	EquipmentType  sql.NullString  `db:"equipment_type"`
	Brand          sql.NullString  `db:"brand"`
	Country        sql.NullString  `db:"country"`
	Specification  sql.NullString  `db:"specification"`
	Documents      []string        `db:"documents"`
	Standard       sql.NullString  `db:"standard"`
	Supplier       sql.NullString  `db:"supplier"`
	PurchasePrice  sql.NullFloat64 `db:"purchase_price"`
	WarrantyMonths sql.NullInt64   `db:"warranty_months"`
}
