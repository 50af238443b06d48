package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"medlink-data/internal/domain"

	"github.com/google/uuid"
)

// MemoryMappedRoomsRepo in-memory twin of the staging-tables repo.
type MemoryMappedRoomsRepo struct {
	mu        sync.RWMutex
	projector []*domain.MappedProjectorRoom
	turar     []*domain.MappedTurarRoom
}

func NewMemoryMappedRoomsRepo() *MemoryMappedRoomsRepo {
	return &MemoryMappedRoomsRepo{}
}

func (r *MemoryMappedRoomsRepo) WipeAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projector = nil
	r.turar = nil
	return nil
}

func (r *MemoryMappedRoomsRepo) BulkInsertProjector(_ context.Context, rows []*domain.MappedProjectorRoom) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range rows {
		c := *row
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		r.projector = append(r.projector, &c)
	}
	return len(rows), nil
}

func (r *MemoryMappedRoomsRepo) BulkInsertTurar(_ context.Context, rows []*domain.MappedTurarRoom) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range rows {
		c := *row
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		r.turar = append(r.turar, &c)
	}
	return len(rows), nil
}

func (r *MemoryMappedRoomsRepo) ListProjectorByMapping(_ context.Context, mappingID string) ([]*domain.MappedProjectorRoom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.MappedProjectorRoom{}
	for _, row := range r.projector {
		if row.DepartmentMappingID == mappingID {
			c := *row
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoomName != out[j].RoomName {
			return out[i].RoomName < out[j].RoomName
		}
		return nullString(out[i].EquipmentCode) < nullString(out[j].EquipmentCode)
	})
	return out, nil
}

func (r *MemoryMappedRoomsRepo) ListTurarByMapping(_ context.Context, mappingID string) ([]*domain.MappedTurarRoom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.MappedTurarRoom{}
	for _, row := range r.turar {
		if row.DepartmentMappingID == mappingID {
			c := *row
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoomName != out[j].RoomName {
			return out[i].RoomName < out[j].RoomName
		}
		return nullString(out[i].EquipmentCode) < nullString(out[j].EquipmentCode)
	})
	return out, nil
}

func (r *MemoryMappedRoomsRepo) SetLinked(_ context.Context, side, department, roomName string, linked bool, linkedRoomID sql.NullString) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch side {
	case "projector":
		for _, row := range r.projector {
			if row.Department == department && row.RoomName == roomName {
				row.IsLinked = linked
				row.LinkedTurarRoomID = linkedRoomID
			}
		}
	case "turar":
		for _, row := range r.turar {
			if row.Department == department && row.RoomName == roomName {
				row.IsLinked = linked
				row.LinkedProjectorRoomID = linkedRoomID
			}
		}
	default:
		return fmt.Errorf("unknown side: %s", side)
	}
	return nil
}

// wipeByMapping removes staging rows of one mapping (cascade support).
func (r *MemoryMappedRoomsRepo) wipeByMapping(mappingID string) (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keptP := r.projector[:0]
	removedP := 0
	for _, row := range r.projector {
		if row.DepartmentMappingID == mappingID {
			removedP++
			continue
		}
		keptP = append(keptP, row)
	}
	r.projector = keptP

	keptT := r.turar[:0]
	removedT := 0
	for _, row := range r.turar {
		if row.DepartmentMappingID == mappingID {
			removedT++
			continue
		}
		keptT = append(keptT, row)
	}
	r.turar = keptT
	return removedP, removedT
}

// MemoryMappingsRepo in-memory twin of the mappings Postgres repo.
// DeleteCascade reaches into the sibling memory repos the same way the
// Postgres implementation reaches across tables in one transaction.
type MemoryMappingsRepo struct {
	mu       sync.RWMutex
	mappings map[string]*domain.DepartmentMapping

	connections *MemoryConnectionsRepo
	projector   *MemoryProjectorRoomsRepo
	turar       *MemoryTurarRoomsRepo
	mapped      *MemoryMappedRoomsRepo
}

func NewMemoryMappingsRepo(connections *MemoryConnectionsRepo, projector *MemoryProjectorRoomsRepo, turar *MemoryTurarRoomsRepo, mapped *MemoryMappedRoomsRepo) *MemoryMappingsRepo {
	return &MemoryMappingsRepo{
		mappings:    map[string]*domain.DepartmentMapping{},
		connections: connections,
		projector:   projector,
		turar:       turar,
		mapped:      mapped,
	}
}

func (r *MemoryMappingsRepo) List(_ context.Context) ([]*domain.DepartmentMapping, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.DepartmentMapping, 0, len(r.mappings))
	for _, m := range r.mappings {
		c := *m
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TurarDepartment != out[j].TurarDepartment {
			return out[i].TurarDepartment < out[j].TurarDepartment
		}
		return out[i].ProjectorDepartment < out[j].ProjectorDepartment
	})
	return out, nil
}

func (r *MemoryMappingsRepo) Get(_ context.Context, id string) (*domain.DepartmentMapping, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.mappings[id]
	if !ok {
		return nil, fmt.Errorf("department mapping not found: id=%s", id)
	}
	c := *m
	return &c, nil
}

func (r *MemoryMappingsRepo) Create(_ context.Context, m *domain.DepartmentMapping) (string, error) {
	if m == nil {
		return "", fmt.Errorf("mapping is required")
	}
	if m.TurarDepartment == "" || m.ProjectorDepartment == "" {
		return "", fmt.Errorf("turar_department and projector_department are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.mappings {
		if existing.TurarDepartment == m.TurarDepartment && existing.ProjectorDepartment == m.ProjectorDepartment {
			return "", fmt.Errorf("mapping already exists: turar_department=%s, projector_department=%s",
				m.TurarDepartment, m.ProjectorDepartment)
		}
	}

	c := *m
	c.ID = uuid.NewString()
	r.mappings[c.ID] = &c
	return c.ID, nil
}

func (r *MemoryMappingsRepo) Update(_ context.Context, id string, m *domain.DepartmentMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.mappings[id]
	if !ok {
		return fmt.Errorf("department mapping not found: id=%s", id)
	}
	if m.TurarDepartment != "" {
		existing.TurarDepartment = m.TurarDepartment
	}
	if m.ProjectorDepartment != "" {
		existing.ProjectorDepartment = m.ProjectorDepartment
	}
	if m.TurarAliases != nil {
		existing.TurarAliases = m.TurarAliases
	}
	if m.ProjectorAliases != nil {
		existing.ProjectorAliases = m.ProjectorAliases
	}
	return nil
}

func (r *MemoryMappingsRepo) DeleteCascade(ctx context.Context, id string) (*CascadeResult, error) {
	m, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	result := &CascadeResult{}
	result.MappedProjectorRooms, result.MappedTurarRooms = r.mapped.wipeByMapping(id)

	conns, err := r.connections.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range conns {
		if c.TurarDepartment != m.TurarDepartment || c.ProjectorDepartment != m.ProjectorDepartment {
			continue
		}
		_ = r.projector.ClearConnectedMirror(ctx, c.ProjectorDepartment, c.ProjectorRoom)
		_ = r.turar.ClearConnectedMirror(ctx, c.TurarDepartment, c.TurarRoom)
		if err := r.connections.Delete(ctx, c.ID); err != nil {
			return nil, err
		}
		result.Connections++
		result.MirrorsCleared += 2
	}

	r.mu.Lock()
	delete(r.mappings, id)
	r.mu.Unlock()
	return result, nil
}
