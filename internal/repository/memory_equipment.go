package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"medlink-data/internal/domain"

	"github.com/google/uuid"
)

// MemoryEquipmentRepo in-memory twin of the equipment Postgres repo.
// Room existence is checked against the projector rooms repo, matching
// the FK the database enforces.
type MemoryEquipmentRepo struct {
	mu        sync.RWMutex
	items     map[string]*domain.Equipment
	projector *MemoryProjectorRoomsRepo
}

func NewMemoryEquipmentRepo(projector *MemoryProjectorRoomsRepo) *MemoryEquipmentRepo {
	return &MemoryEquipmentRepo{
		items:     map[string]*domain.Equipment{},
		projector: projector,
	}
}

func cloneEquipment(e *domain.Equipment) *domain.Equipment {
	c := *e
	if e.Documents != nil {
		c.Documents = append([]string(nil), e.Documents...)
	}
	return &c
}

func (r *MemoryEquipmentRepo) roomExists(id string) bool {
	if r.projector == nil {
		return true
	}
	return r.projector.hasRoomID(id)
}

func (r *MemoryEquipmentRepo) ListByRoom(_ context.Context, roomID string) ([]*domain.Equipment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.Equipment{}
	for _, e := range r.items {
		if e.RoomID == roomID {
			out = append(out, cloneEquipment(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EquipmentCode != out[j].EquipmentCode {
			return out[i].EquipmentCode < out[j].EquipmentCode
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryEquipmentRepo) Get(_ context.Context, id string) (*domain.Equipment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("equipment not found: id=%s", id)
	}
	return cloneEquipment(e), nil
}

func (r *MemoryEquipmentRepo) Create(_ context.Context, e *domain.Equipment) (string, error) {
	if e == nil {
		return "", fmt.Errorf("equipment is required")
	}
	if e.RoomID == "" || e.EquipmentCode == "" || e.EquipmentName == "" {
		return "", fmt.Errorf("room_id, equipment_code and equipment_name are required")
	}
	if !r.roomExists(e.RoomID) {
		return "", fmt.Errorf("projector room not found: id=%s", e.RoomID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c := cloneEquipment(e)
	c.ID = uuid.NewString()
	r.items[c.ID] = c
	return c.ID, nil
}

func (r *MemoryEquipmentRepo) Update(_ context.Context, id string, e *domain.Equipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[id]
	if !ok {
		return fmt.Errorf("equipment not found: id=%s", id)
	}
	c := cloneEquipment(e)
	c.ID = id
	c.RoomID = existing.RoomID // ownership never moves on update
	r.items[id] = c
	return nil
}

func (r *MemoryEquipmentRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return fmt.Errorf("equipment not found: id=%s", id)
	}
	delete(r.items, id)
	return nil
}

// MemoryUsersRepo in-memory twin of the users Postgres repo.
type MemoryUsersRepo struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

func NewMemoryUsersRepo() *MemoryUsersRepo {
	return &MemoryUsersRepo{users: map[string]*domain.User{}}
}

func (r *MemoryUsersRepo) List(_ context.Context) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *MemoryUsersRepo) Create(_ context.Context, u *domain.User) (string, error) {
	if u == nil || u.Email == "" || u.FullName == "" {
		return "", fmt.Errorf("email and full_name are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == u.Email {
			return "", fmt.Errorf("user already exists: email=%s", u.Email)
		}
	}

	c := *u
	c.ID = uuid.NewString()
	if c.Role == "" {
		c.Role = domain.RoleViewer
	}
	if c.Status == "" {
		c.Status = "active"
	}
	r.users[c.ID] = &c
	return c.ID, nil
}

func (r *MemoryUsersRepo) UpdateRole(_ context.Context, id, role string) error {
	switch role {
	case domain.RoleAdmin, domain.RoleEditor, domain.RoleViewer:
	default:
		return fmt.Errorf("invalid role: %s", role)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user not found: id=%s", id)
	}
	u.Role = role
	return nil
}

func (r *MemoryUsersRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("user not found: id=%s", id)
	}
	delete(r.users, id)
	return nil
}
