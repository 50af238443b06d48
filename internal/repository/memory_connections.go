package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"medlink-data/internal/domain"

	"github.com/google/uuid"
)

// MemoryConnectionsRepo in-memory twin of the connections Postgres repo.
type MemoryConnectionsRepo struct {
	mu    sync.RWMutex
	rows  map[string]*domain.RoomConnection // id -> connection
	order []string                          // insertion order of ids
}

func NewMemoryConnectionsRepo() *MemoryConnectionsRepo {
	return &MemoryConnectionsRepo{rows: map[string]*domain.RoomConnection{}}
}

func (r *MemoryConnectionsRepo) List(_ context.Context) ([]*domain.RoomConnection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.RoomConnection, 0, len(r.rows))
	for _, id := range r.order {
		if c, ok := r.rows[id]; ok {
			cc := *c
			out = append(out, &cc)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TurarDepartment != out[j].TurarDepartment {
			return out[i].TurarDepartment < out[j].TurarDepartment
		}
		if out[i].TurarRoom != out[j].TurarRoom {
			return out[i].TurarRoom < out[j].TurarRoom
		}
		if out[i].ProjectorDepartment != out[j].ProjectorDepartment {
			return out[i].ProjectorDepartment < out[j].ProjectorDepartment
		}
		return out[i].ProjectorRoom < out[j].ProjectorRoom
	})
	return out, nil
}

func (r *MemoryConnectionsRepo) GetByID(_ context.Context, id string) (*domain.RoomConnection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("connection not found: id=%s", id)
	}
	cc := *c
	return &cc, nil
}

func (r *MemoryConnectionsRepo) ExistsTuple(_ context.Context, turarDept, turarRoom, projDept, projRoom string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.existsLocked(turarDept, turarRoom, projDept, projRoom)
}

func (r *MemoryConnectionsRepo) existsLocked(turarDept, turarRoom, projDept, projRoom string) (string, bool, error) {
	for _, id := range r.order {
		c, ok := r.rows[id]
		if !ok {
			continue
		}
		if c.TurarDepartment == turarDept && c.TurarRoom == turarRoom &&
			c.ProjectorDepartment == projDept && c.ProjectorRoom == projRoom {
			return id, true, nil
		}
	}
	return "", false, nil
}

func (r *MemoryConnectionsRepo) Create(_ context.Context, c *domain.RoomConnection) (string, error) {
	if c == nil {
		return "", fmt.Errorf("connection is required")
	}
	if c.TurarDepartment == "" || c.TurarRoom == "" || c.ProjectorDepartment == "" || c.ProjectorRoom == "" {
		return "", fmt.Errorf("turar_department, turar_room, projector_department and projector_room are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok, _ := r.existsLocked(c.TurarDepartment, c.TurarRoom, c.ProjectorDepartment, c.ProjectorRoom); ok {
		return id, nil
	}

	cc := *c
	cc.ID = uuid.NewString()
	r.rows[cc.ID] = &cc
	r.order = append(r.order, cc.ID)
	return cc.ID, nil
}

func (r *MemoryConnectionsRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[id]; !ok {
		return fmt.Errorf("connection not found: id=%s", id)
	}
	delete(r.rows, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
