package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"medlink-data/internal/domain"

	"github.com/google/uuid"
)

// MemoryProjectorRoomsRepo supports dev runs and tests when DB is
// disabled. Same behavior as the Postgres repo, minus persistence.
type MemoryProjectorRoomsRepo struct {
	mu   sync.RWMutex
	rows []*domain.ProjectorRoom
}

func NewMemoryProjectorRoomsRepo() *MemoryProjectorRoomsRepo {
	return &MemoryProjectorRoomsRepo{rows: []*domain.ProjectorRoom{}}
}

func (r *MemoryProjectorRoomsRepo) List(_ context.Context, filters ProjectorRoomFilters, page, size int) ([]*domain.ProjectorRoom, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := []*domain.ProjectorRoom{}
	for _, row := range r.rows {
		if filters.Department != "" && row.Department != filters.Department {
			continue
		}
		if filters.RoomName != "" && row.RoomName != filters.RoomName {
			continue
		}
		if filters.Block != "" && row.Block != filters.Block {
			continue
		}
		if filters.Floor != "" {
			f, err := strconv.ParseFloat(strings.ReplaceAll(filters.Floor, ",", "."), 64)
			if err == nil && row.Floor != f {
				continue
			}
		}
		if filters.Search != "" {
			s := strings.ToLower(filters.Search)
			if !strings.Contains(strings.ToLower(row.RoomName), s) &&
				!(row.EquipmentName.Valid && strings.Contains(strings.ToLower(row.EquipmentName.String), s)) {
				continue
			}
		}
		matched = append(matched, cloneProjectorRoom(row))
	}
	sortProjectorRooms(matched)

	total := len(matched)
	start, end := pageBounds(total, page, size)
	return matched[start:end], total, nil
}

func (r *MemoryProjectorRoomsRepo) ListByDepartment(_ context.Context, department string) ([]*domain.ProjectorRoom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.ProjectorRoom{}
	for _, row := range r.rows {
		if row.Department == department {
			out = append(out, cloneProjectorRoom(row))
		}
	}
	sortProjectorRooms(out)
	return out, nil
}

func (r *MemoryProjectorRoomsRepo) FindByDeptRoom(_ context.Context, department, roomName string) ([]*domain.ProjectorRoom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.ProjectorRoom{}
	for _, row := range r.rows {
		if row.Department == department && row.RoomName == roomName {
			out = append(out, cloneProjectorRoom(row))
		}
	}
	sortProjectorRooms(out)
	return out, nil
}

func (r *MemoryProjectorRoomsRepo) UpdateEquipment(_ context.Context, id string, room *domain.ProjectorRoom) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.rows {
		if row.ID != id {
			continue
		}
		if room.EquipmentCode.Valid {
			row.EquipmentCode = room.EquipmentCode
		}
		if room.EquipmentName.Valid {
			row.EquipmentName = room.EquipmentName
		}
		if room.EquipmentUnit.Valid {
			row.EquipmentUnit = room.EquipmentUnit
		}
		if room.EquipmentQuantity.Valid {
			row.EquipmentQuantity = room.EquipmentQuantity
		}
		if room.Notes.Valid {
			row.Notes = room.Notes
		}
		if room.Area.Valid {
			row.Area = room.Area
		}
		return nil
	}
	return fmt.Errorf("projector room not found: id=%s", id)
}

func (r *MemoryProjectorRoomsRepo) SetConnectedMirror(_ context.Context, department, roomName string, turarRoomID sql.NullString, turarDepartment, turarRoom string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.rows {
		if row.Department == department && row.RoomName == roomName {
			row.ConnectedTurarRoomID = turarRoomID
			row.ConnectedTurarDepartment = sql.NullString{String: turarDepartment, Valid: true}
			row.ConnectedTurarRoom = sql.NullString{String: turarRoom, Valid: true}
		}
	}
	return nil
}

func (r *MemoryProjectorRoomsRepo) ClearConnectedMirror(_ context.Context, department, roomName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.rows {
		if row.Department == department && row.RoomName == roomName {
			row.ConnectedTurarRoomID = sql.NullString{}
			row.ConnectedTurarDepartment = sql.NullString{}
			row.ConnectedTurarRoom = sql.NullString{}
		}
	}
	return nil
}

func (r *MemoryProjectorRoomsRepo) BulkInsert(_ context.Context, rows []*domain.ProjectorRoom) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range rows {
		c := cloneProjectorRoom(row)
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		r.rows = append(r.rows, c)
	}
	return len(rows), nil
}

func (r *MemoryProjectorRoomsRepo) Truncate(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = []*domain.ProjectorRoom{}
	return nil
}

func (r *MemoryProjectorRoomsRepo) ListCompositeKeys(_ context.Context) (map[string]struct{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := map[string]struct{}{}
	for _, row := range r.rows {
		key := strconv.FormatFloat(row.Floor, 'f', -1, 64) + "|" + row.Block + "|" + row.Department + "|" + row.RoomCode + "|" + row.RoomName
		keys[key] = struct{}{}
	}
	return keys, nil
}

func (r *MemoryProjectorRoomsRepo) ListConnectedTargets(_ context.Context) ([]ConnectedTarget, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := map[string]struct{}{}
	out := []ConnectedTarget{}
	for _, row := range r.rows {
		if !row.ConnectedTurarDepartment.Valid || row.ConnectedTurarDepartment.String == "" {
			continue
		}
		key := row.Department + "|" + row.RoomName
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, ConnectedTarget{
			Department:      row.Department,
			RoomName:        row.RoomName,
			TurarDepartment: row.ConnectedTurarDepartment.String,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Department != out[j].Department {
			return out[i].Department < out[j].Department
		}
		return out[i].RoomName < out[j].RoomName
	})
	return out, nil
}

func (r *MemoryProjectorRoomsRepo) ListDepartments(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return distinctSorted(r.rows, func(row *domain.ProjectorRoom) string { return row.Department }), nil
}

func (r *MemoryProjectorRoomsRepo) hasRoomID(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, row := range r.rows {
		if row.ID == id {
			return true
		}
	}
	return false
}

// MemoryTurarRoomsRepo in-memory twin of the turar Postgres repo.
type MemoryTurarRoomsRepo struct {
	mu   sync.RWMutex
	rows []*domain.TurarRoom
}

func NewMemoryTurarRoomsRepo() *MemoryTurarRoomsRepo {
	return &MemoryTurarRoomsRepo{rows: []*domain.TurarRoom{}}
}

func (r *MemoryTurarRoomsRepo) List(_ context.Context, filters TurarRoomFilters, page, size int) ([]*domain.TurarRoom, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := []*domain.TurarRoom{}
	for _, row := range r.rows {
		if filters.Department != "" && row.Department != filters.Department {
			continue
		}
		if filters.RoomName != "" && row.RoomName != filters.RoomName {
			continue
		}
		if filters.Search != "" {
			s := strings.ToLower(filters.Search)
			if !strings.Contains(strings.ToLower(row.RoomName), s) &&
				!(row.EquipmentName.Valid && strings.Contains(strings.ToLower(row.EquipmentName.String), s)) {
				continue
			}
		}
		matched = append(matched, cloneTurarRoom(row))
	}
	sortTurarRooms(matched)

	total := len(matched)
	start, end := pageBounds(total, page, size)
	return matched[start:end], total, nil
}

func (r *MemoryTurarRoomsRepo) ListByDepartment(_ context.Context, department string) ([]*domain.TurarRoom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.TurarRoom{}
	for _, row := range r.rows {
		if row.Department == department {
			out = append(out, cloneTurarRoom(row))
		}
	}
	sortTurarRooms(out)
	return out, nil
}

func (r *MemoryTurarRoomsRepo) FindByDeptRoom(_ context.Context, department, roomName string) ([]*domain.TurarRoom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.TurarRoom{}
	for _, row := range r.rows {
		if row.Department == department && row.RoomName == roomName {
			out = append(out, cloneTurarRoom(row))
		}
	}
	sortTurarRooms(out)
	return out, nil
}

func (r *MemoryTurarRoomsRepo) UpdateEquipment(_ context.Context, id string, room *domain.TurarRoom) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.rows {
		if row.ID != id {
			continue
		}
		if room.EquipmentCode.Valid {
			row.EquipmentCode = room.EquipmentCode
		}
		if room.EquipmentName.Valid {
			row.EquipmentName = room.EquipmentName
		}
		if room.Quantity.Valid {
			row.Quantity = room.Quantity
		}
		return nil
	}
	return fmt.Errorf("turar room not found: id=%s", id)
}

func (r *MemoryTurarRoomsRepo) SetConnectedMirror(_ context.Context, department, roomName string, projRoomID sql.NullString, projDepartment, projRoom string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.rows {
		if row.Department == department && row.RoomName == roomName {
			row.ConnectedProjectorRoomID = projRoomID
			row.ConnectedProjectorDepartment = sql.NullString{String: projDepartment, Valid: true}
			row.ConnectedProjectorRoom = sql.NullString{String: projRoom, Valid: true}
		}
	}
	return nil
}

func (r *MemoryTurarRoomsRepo) ClearConnectedMirror(_ context.Context, department, roomName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.rows {
		if row.Department == department && row.RoomName == roomName {
			row.ConnectedProjectorRoomID = sql.NullString{}
			row.ConnectedProjectorDepartment = sql.NullString{}
			row.ConnectedProjectorRoom = sql.NullString{}
		}
	}
	return nil
}

func (r *MemoryTurarRoomsRepo) BulkInsert(_ context.Context, rows []*domain.TurarRoom) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range rows {
		c := cloneTurarRoom(row)
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		r.rows = append(r.rows, c)
	}
	return len(rows), nil
}

func (r *MemoryTurarRoomsRepo) Truncate(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = []*domain.TurarRoom{}
	return nil
}

func (r *MemoryTurarRoomsRepo) ListCompositeKeys(_ context.Context) (map[string]struct{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := map[string]struct{}{}
	for _, row := range r.rows {
		code := ""
		if row.EquipmentCode.Valid {
			code = row.EquipmentCode.String
		}
		keys[row.Department+"|"+row.RoomName+"|"+code] = struct{}{}
	}
	return keys, nil
}

func (r *MemoryTurarRoomsRepo) ListUnconnectedRooms(_ context.Context, department string, limit int) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		limit = 3
	}
	seen := map[string]struct{}{}
	names := []string{}
	for _, row := range r.rows {
		if row.Department != department {
			continue
		}
		if row.ConnectedProjectorRoom.Valid && row.ConnectedProjectorRoom.String != "" {
			continue
		}
		if _, ok := seen[row.RoomName]; ok {
			continue
		}
		seen[row.RoomName] = struct{}{}
		names = append(names, row.RoomName)
	}
	sort.Strings(names)
	if len(names) > limit {
		names = names[:limit]
	}
	return names, nil
}

func (r *MemoryTurarRoomsRepo) ListDepartments(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := map[string]struct{}{}
	out := []string{}
	for _, row := range r.rows {
		if _, ok := seen[row.Department]; ok {
			continue
		}
		seen[row.Department] = struct{}{}
		out = append(out, row.Department)
	}
	sort.Strings(out)
	return out, nil
}

// ============================================
// helpers
// ============================================

func cloneProjectorRoom(r *domain.ProjectorRoom) *domain.ProjectorRoom {
	c := *r
	return &c
}

func cloneTurarRoom(r *domain.TurarRoom) *domain.TurarRoom {
	c := *r
	return &c
}

func sortProjectorRooms(rows []*domain.ProjectorRoom) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Floor != rows[j].Floor {
			return rows[i].Floor < rows[j].Floor
		}
		if rows[i].Department != rows[j].Department {
			return rows[i].Department < rows[j].Department
		}
		if rows[i].RoomName != rows[j].RoomName {
			return rows[i].RoomName < rows[j].RoomName
		}
		return nullString(rows[i].EquipmentCode) < nullString(rows[j].EquipmentCode)
	})
}

func sortTurarRooms(rows []*domain.TurarRoom) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Department != rows[j].Department {
			return rows[i].Department < rows[j].Department
		}
		if rows[i].RoomName != rows[j].RoomName {
			return rows[i].RoomName < rows[j].RoomName
		}
		return nullString(rows[i].EquipmentCode) < nullString(rows[j].EquipmentCode)
	})
}

func nullString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func pageBounds(total, page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 100
	}
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return start, end
}

func distinctSorted(rows []*domain.ProjectorRoom, key func(*domain.ProjectorRoom) string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, row := range rows {
		k := key(row)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
