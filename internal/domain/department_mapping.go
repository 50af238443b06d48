package domain

import (
	"database/sql"
)

// DepartmentMapping 对应 department_mappings 表
// Declares that a Turar department and a projector department are
// related. Many-to-many; never inferred transitively. Aliases cover
// legitimate naming variants of the same department (exact match after
// trimming, no substring matching).
type DepartmentMapping struct {
	ID                  string         `db:"id"`
	TurarDepartment     string         `db:"turar_department"`
	ProjectorDepartment string         `db:"projector_department"`
	TurarDepartmentID   sql.NullString `db:"turar_department_id"`
	ProjectorDeptID     sql.NullString `db:"projector_department_id"`
	TurarAliases        []string       `db:"turar_aliases"`
	ProjectorAliases    []string       `db:"projector_aliases"`
}
